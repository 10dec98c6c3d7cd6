package pattern

import (
	"testing"

	"github.com/peekandpoke/klang-go/internal/voice"
)

func TestStaticQueryLoops(t *testing.T) {
	p := NewStatic([]Event{
		{StartCycle: 0, EndCycle: 0.25, PlaybackID: "bd"},
		{StartCycle: 0.5, EndCycle: 0.75, PlaybackID: "sn"},
	})
	got := p.Query(0, 2)
	if len(got) != 4 {
		t.Fatalf("two cycles should yield 4 events, got %d", len(got))
	}
	wantStarts := []float64{0, 0.5, 1, 1.5}
	for i, ev := range got {
		if ev.StartCycle != wantStarts[i] {
			t.Errorf("event %d start = %f, want %f", i, ev.StartCycle, wantStarts[i])
		}
	}
}

func TestStaticQueryHalfOpen(t *testing.T) {
	p := NewStatic([]Event{{StartCycle: 0, EndCycle: 0.5, PlaybackID: "bd"}})
	if got := p.Query(0.5, 1.0); len(got) != 0 {
		t.Errorf("range excluding the event should be empty, got %d", len(got))
	}
	// The event at exactly toCycles is excluded; at fromCycles included.
	if got := p.Query(1.0, 2.0); len(got) != 1 || got[0].StartCycle != 1.0 {
		t.Errorf("event at from boundary should be included: %+v", got)
	}
	if got := p.Query(0.25, 1.0); len(got) != 0 {
		t.Errorf("event at to boundary must be excluded, got %d", len(got))
	}
}

func TestStaticQueryFractionalRange(t *testing.T) {
	p := NewStatic([]Event{
		{StartCycle: 0.1, EndCycle: 0.2},
		{StartCycle: 0.6, EndCycle: 0.7},
	})
	got := p.Query(0.5, 1.2)
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].StartCycle != 0.6 || got[1].StartCycle != 1.1 {
		t.Errorf("starts = %f, %f; want 0.6, 1.1", got[0].StartCycle, got[1].StartCycle)
	}
}

func TestOSCSourcePushAndQuery(t *testing.T) {
	s := &OSCSource{}
	s.Push(Event{StartCycle: 1.5, EndCycle: 1.6, PlaybackID: "a", Params: map[string]voice.Value{"gain": voice.Number(0.5)}})
	s.Push(Event{StartCycle: 0.5, EndCycle: 0.6, PlaybackID: "b"})

	got := s.Query(0, 1)
	if len(got) != 1 || got[0].PlaybackID != "b" {
		t.Fatalf("Query(0,1) = %+v, want just b", got)
	}
	// Query does not consume: the same range answers again.
	if got = s.Query(0, 2); len(got) != 2 {
		t.Fatalf("Query(0,2) = %d events, want 2", len(got))
	}
	if got[0].PlaybackID != "b" || got[1].PlaybackID != "a" {
		t.Error("events should come back sorted by start")
	}

	s.Prune(1.0)
	if got = s.Query(0, 2); len(got) != 1 || got[0].PlaybackID != "a" {
		t.Errorf("after Prune(1.0) only a should remain, got %+v", got)
	}
}
