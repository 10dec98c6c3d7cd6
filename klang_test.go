package klang

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/peekandpoke/klang-go/internal/pattern"
	"github.com/peekandpoke/klang-go/internal/voice"
)

func sinePattern() pattern.Source {
	return pattern.NewStatic([]pattern.Event{
		{
			StartCycle: 0,
			EndCycle:   0.5,
			PlaybackID: "lead",
			Params: map[string]voice.Value{
				"s":    voice.Text("sine"),
				"freq": voice.Number(440),
				"gain": voice.Number(0.8),
			},
		},
	})
}

func TestNewPlayerValidatesOptions(t *testing.T) {
	if _, err := NewPlayer(nil); err == nil {
		t.Error("nil source should fail")
	}
	if _, err := NewPlayer(sinePattern(), WithSampleRate(0)); err == nil {
		t.Error("zero sample rate should fail")
	}
	if _, err := NewPlayer(sinePattern(), WithCyclesPerSecond(0)); err == nil {
		t.Error("zero tempo should fail")
	}
}

func TestRenderOfflineProducesAudio(t *testing.T) {
	p, err := NewPlayer(sinePattern(),
		WithBackend(BackendHeadless),
		WithSampleRate(44100),
		WithBlockSize(512),
		WithCyclesPerSecond(0.5),
	)
	if err != nil {
		t.Fatal(err)
	}
	out := p.RenderOffline(1.0)
	if len(out) < 44100*2 {
		t.Fatalf("output length = %d", len(out))
	}
	var peak int16
	for _, v := range out {
		if v > peak {
			peak = v
		}
	}
	if peak < 1000 {
		t.Errorf("peak = %d, want audible output", peak)
	}
	if got := p.CursorFrame(); got < 44100 {
		t.Errorf("cursor = %d, want at least one second", got)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	p, err := NewPlayer(sinePattern(), WithBackend(BackendHeadless), WithBlockSize(128))
	if err != nil {
		t.Fatal(err)
	}
	if p.IsRunning() {
		t.Fatal("new player should be stopped")
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !p.IsRunning() {
		t.Fatal("Start should flip isRunning")
	}
	if err := p.Start(context.Background()); err == nil {
		t.Error("double Start should fail")
	}
	before := p.CursorFrame()
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}
	if p.IsRunning() {
		t.Error("Stop should flip isRunning")
	}
	// Stop drains one final block and publishes its cursor.
	if got := p.CursorFrame(); got != before+128 {
		t.Errorf("final cursor = %d, want %d", got, before+128)
	}
	if err := p.Stop(); err != nil {
		t.Error("second Stop should be a no-op")
	}
}

func TestRunningFlagCASExclusive(t *testing.T) {
	// The isRunning flip is a compare-and-swap: under contention exactly
	// one caller wins.
	var flag atomic.Bool
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if flag.CompareAndSwap(false, true) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if got := wins.Load(); got != 1 {
		t.Errorf("CAS winners = %d, want exactly 1", got)
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	data := EncodeWAV(make([]int16, 100), 44100, 2)
	if len(data) != 44+200 {
		t.Fatalf("wav length = %d", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[36:40]) != "data" {
		t.Error("wav chunk markers wrong")
	}
}

func TestEventToVoiceTransform(t *testing.T) {
	tf := EventToVoice(0.5)
	sv, ok := tf(pattern.Event{
		StartCycle: 1,
		EndCycle:   1.5,
		PlaybackID: "d1",
		Params: map[string]voice.Value{
			"s":     voice.Text("supersaw"),
			"note":  voice.Text("a4"),
			"gain":  voice.Number(0.7),
			"pan":   voice.Number(-0.5),
			"orbit": voice.Number(2),
			"room":  voice.Number(0.4),
		},
	})
	if !ok {
		t.Fatal("transform should accept the event")
	}
	if sv.StartTime != 2 || sv.GateEndTime != 3 {
		t.Errorf("times = %f..%f, want 2..3 (0.5 cps)", sv.StartTime, sv.GateEndTime)
	}
	d := sv.Data
	if d.Sound != "supersaw" || d.Unison == nil {
		t.Error("supersaw should carry unison parameters")
	}
	if d.FreqHz < 439 || d.FreqHz > 441 {
		t.Errorf("a4 freq = %f", d.FreqHz)
	}
	if d.Gain != 0.7 || d.Pan != -0.5 || d.Orbit != 2 {
		t.Errorf("gain/pan/orbit = %f/%f/%d", d.Gain, d.Pan, d.Orbit)
	}
	if d.Reverb == nil || d.Reverb.Room != 0.4 {
		t.Error("room should enable the reverb send")
	}
	if d.Sample != nil {
		t.Error("oscillator sounds must not become sample requests")
	}

	sv, ok = tf(pattern.Event{
		StartCycle: 0, EndCycle: 0.25,
		Params: map[string]voice.Value{"s": voice.Text("bd:3"), "bank": voice.Text("tr808")},
	})
	if !ok || sv.Data.Sample == nil {
		t.Fatal("unknown sound should become a sample request")
	}
	if sv.Data.Sample.Sound != "bd" || sv.Data.Sample.Index != 3 || sv.Data.Sample.Bank != "tr808" {
		t.Errorf("sample request = %+v", sv.Data.Sample)
	}
	if sv.PlaybackID != "bd" {
		t.Errorf("playback id defaults to the sound name, got %q", sv.PlaybackID)
	}

	if _, ok := tf(pattern.Event{StartCycle: 0, EndCycle: 1}); ok {
		t.Error("an event without a sound should be skipped")
	}
}

func TestCompressorParamFromString(t *testing.T) {
	tf := EventToVoice(1)
	sv, _ := tf(pattern.Event{
		StartCycle: 0, EndCycle: 1,
		Params: map[string]voice.Value{
			"s":          voice.Text("sine"),
			"compressor": voice.Text("-18:4:6:0.005:0.2"),
		},
	})
	c := sv.Data.Compressor
	if c == nil || c.ThresholdDb != -18 || c.Ratio != 4 || c.AttackSec != 0.005 {
		t.Errorf("compressor = %+v", c)
	}
	sv, _ = tf(pattern.Event{
		StartCycle: 0, EndCycle: 1,
		Params: map[string]voice.Value{
			"s":          voice.Text("sine"),
			"compressor": voice.Text("garbage"),
		},
	})
	if sv.Data.Compressor != nil {
		t.Error("malformed compressor settings should disable the compressor")
	}
}
