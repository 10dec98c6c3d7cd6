package fetch

import (
	"math"
	"testing"

	"github.com/peekandpoke/klang-go/internal/comm"
	"github.com/peekandpoke/klang-go/internal/pattern"
	"github.com/peekandpoke/klang-go/internal/samples"
	"github.com/peekandpoke/klang-go/internal/voice"
)

func testConfig() Config {
	return Config{
		SampleRate:      44100,
		CyclesPerSecond: 0.5,
		LookaheadSec:    2,
		FetchPeriodMs:   16,
		PrefetchCycles:  4,
	}
}

func simpleTransform(ev pattern.Event) (voice.ScheduledVoice, bool) {
	return voice.ScheduledVoice{
		PlaybackID:  ev.PlaybackID,
		Data:        voice.VoiceData{Sound: "sine", FreqHz: 440, Gain: 1, ADSR: voice.ADSR{SustainLevel: 1}},
		StartTime:   ev.StartCycle / 0.5,
		GateEndTime: ev.EndCycle / 0.5,
	}, true
}

func TestCycleConversionRoundTrip(t *testing.T) {
	for _, cps := range []float64{0.25, 0.5, 1, 2.5} {
		cfg := Config{SampleRate: 44100, CyclesPerSecond: cps}
		for _, x := range []float64{0, 1, 3.75, 128} {
			got := cfg.SecondsToCycles(cfg.CyclesToSeconds(x))
			if math.Abs(got-x) > 1e-12*math.Max(1, x) {
				t.Errorf("cps %f: round trip of %f = %f", cps, x, got)
			}
		}
	}
}

func TestTickSchedulesLookahead(t *testing.T) {
	src := pattern.NewStatic([]pattern.Event{
		{StartCycle: 0, EndCycle: 0.5, PlaybackID: "bd"},
	})
	link := comm.NewLink(64)
	f := New(src, samples.NewRegistry(samples.NewIndex()), link, testConfig(), simpleTransform)
	f.Tick()

	// Lookahead 2s at 0.5 cps = 1 cycle: exactly the cycle-0 event.
	var got []voice.ScheduledVoice
	for {
		c, ok := link.ReceiveCmd()
		if !ok {
			break
		}
		if sv, ok := c.(comm.ScheduleVoice); ok {
			got = append(got, sv.Voice)
		}
	}
	if len(got) != 1 {
		t.Fatalf("scheduled %d voices, want 1", len(got))
	}
	if got[0].PlaybackID != "bd" || got[0].StartTime != 0 {
		t.Errorf("voice = %+v", got[0])
	}

	// A second tick with an unmoved cursor schedules nothing new.
	f.Tick()
	if _, ok := link.ReceiveCmd(); ok {
		t.Error("second tick should not reschedule the same window")
	}
}

func TestCursorAdvanceExtendsWindow(t *testing.T) {
	src := pattern.NewStatic([]pattern.Event{
		{StartCycle: 0, EndCycle: 0.5, PlaybackID: "bd"},
	})
	link := comm.NewLink(64)
	f := New(src, samples.NewRegistry(samples.NewIndex()), link, testConfig(), simpleTransform)
	f.Tick()
	for {
		if _, ok := link.ReceiveCmd(); !ok {
			break
		}
	}

	// Cursor moves one cycle (2s at 44100); the window slides with it.
	link.SendFeed(comm.UpdateCursorFrame{Frame: 2 * 44100})
	f.Tick()
	count := 0
	for {
		c, ok := link.ReceiveCmd()
		if !ok {
			break
		}
		if _, ok := c.(comm.ScheduleVoice); ok {
			count++
		}
	}
	if count != 1 {
		t.Errorf("after cursor advance scheduled %d voices, want 1", count)
	}
	if f.CursorFrame() != 2*44100 {
		t.Errorf("cursor = %d", f.CursorFrame())
	}
}

func TestRequestSampleAnswersNotFound(t *testing.T) {
	link := comm.NewLink(64)
	f := New(pattern.NewStatic(nil), samples.NewRegistry(samples.NewIndex()), link, testConfig(), simpleTransform)
	req := voice.SampleRequest{Bank: "drums", Sound: "missing"}
	link.SendFeed(comm.RequestSample{Request: req})
	f.Tick()

	// The registry answers synchronously for an unresolvable request, so
	// the first tick already sends the NotFound; a second tick adds nothing.
	f.Tick()
	found := false
	for {
		c, ok := link.ReceiveCmd()
		if !ok {
			break
		}
		if nf, ok := c.(comm.SampleNotFound); ok && nf.Request == req {
			found = true
		}
	}
	if !found {
		t.Error("fetcher should answer RequestSample with SampleNotFound")
	}
}

func TestOverflowRetriesNextTick(t *testing.T) {
	src := pattern.NewStatic([]pattern.Event{
		{StartCycle: 0, EndCycle: 0.1, PlaybackID: "a"},
		{StartCycle: 0.25, EndCycle: 0.3, PlaybackID: "b"},
		{StartCycle: 0.5, EndCycle: 0.6, PlaybackID: "c"},
	})
	link := comm.NewLink(1)
	f := New(src, samples.NewRegistry(samples.NewIndex()), link, testConfig(), simpleTransform)
	f.Tick()

	var ids []string
	drain := func() {
		for {
			c, ok := link.ReceiveCmd()
			if !ok {
				return
			}
			if sv, ok := c.(comm.ScheduleVoice); ok {
				ids = append(ids, sv.Voice.PlaybackID)
			}
		}
	}
	drain()
	f.Tick()
	drain()
	f.Tick()
	drain()
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("delivered order = %v, want [a b c]", ids)
	}
}
