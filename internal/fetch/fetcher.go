// Package fetch runs the planner loop: it reads the renderer cursor,
// queries the event source ahead of playback, pre-provisions samples, and
// feeds the control queue.
package fetch

import (
	"context"
	"log"
	"time"

	"github.com/peekandpoke/klang-go/internal/comm"
	"github.com/peekandpoke/klang-go/internal/pattern"
	"github.com/peekandpoke/klang-go/internal/samples"
	"github.com/peekandpoke/klang-go/internal/voice"
)

// Config tunes the planner horizons.
type Config struct {
	SampleRate      int
	CyclesPerSecond float64
	LookaheadSec    float64
	FetchPeriodMs   int
	PrefetchCycles  float64
}

// CyclesToSeconds converts cycle time to seconds under this tempo.
func (c Config) CyclesToSeconds(cycles float64) float64 {
	return cycles / c.CyclesPerSecond
}

// SecondsToCycles converts seconds to cycle time under this tempo.
func (c Config) SecondsToCycles(sec float64) float64 {
	return sec * c.CyclesPerSecond
}

// FrameToCycles converts a renderer frame to cycle time.
func (c Config) FrameToCycles(frame int64) float64 {
	return c.SecondsToCycles(float64(frame) / float64(c.SampleRate))
}

// Transform turns one pattern event into a scheduled voice. A false
// result skips the event.
type Transform func(pattern.Event) (voice.ScheduledVoice, bool)

// loadResult carries an asynchronous registry callback back onto the
// fetcher goroutine, which is the sole control-queue producer.
type loadResult struct {
	request voice.SampleRequest
	loaded  *samples.Loaded
}

// Fetcher is the planner side of the engine.
type Fetcher struct {
	src       pattern.Source
	registry  *samples.Registry
	link      *comm.Link
	cfg       Config
	transform Transform

	queryCursorCycles float64
	prefetchCursor    float64
	currentFrame      int64
	requested         map[voice.SampleRequest]bool
	loads             chan loadResult
	retry             []comm.Cmd
}

// New creates a fetcher. The transform must be non-nil.
func New(src pattern.Source, registry *samples.Registry, link *comm.Link, cfg Config, transform Transform) *Fetcher {
	if cfg.FetchPeriodMs <= 0 {
		cfg.FetchPeriodMs = 16
	}
	if cfg.CyclesPerSecond <= 0 {
		cfg.CyclesPerSecond = 0.5
	}
	if cfg.LookaheadSec <= 0 {
		cfg.LookaheadSec = 0.2
	}
	if cfg.PrefetchCycles <= 0 {
		cfg.PrefetchCycles = 4
	}
	return &Fetcher{
		src:       src,
		registry:  registry,
		link:      link,
		cfg:       cfg,
		transform: transform,
		requested: map[voice.SampleRequest]bool{},
		loads:     make(chan loadResult, 256),
	}
}

// Run ticks until the context is cancelled. Cancellation is honoured
// between iterations, never mid-tick.
func (f *Fetcher) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(f.cfg.FetchPeriodMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.Tick()
		}
	}
}

// Tick runs one planner iteration: feedback drain, sample look-ahead,
// then scheduling up to the look-ahead horizon.
func (f *Fetcher) Tick() {
	f.drainFeedback()
	f.drainLoads()
	f.flushRetries()
	f.prefetchSamples()
	f.schedule()
}

func (f *Fetcher) drainFeedback() {
	for {
		feed, ok := f.link.ReceiveFeed()
		if !ok {
			return
		}
		switch msg := feed.(type) {
		case comm.UpdateCursorFrame:
			f.currentFrame = msg.Frame
		case comm.RequestSample:
			f.resolveSample(msg.Request)
		}
	}
}

// resolveSample starts an asynchronous lookup; the result is sent to the
// renderer from a later tick.
func (f *Fetcher) resolveSample(req voice.SampleRequest) {
	f.registry.GetWithCallback(req, func(l *samples.Loaded) {
		select {
		case f.loads <- loadResult{request: req, loaded: l}:
		default:
			log.Printf("fetch: load result queue full, dropping %v", req)
		}
	})
}

func (f *Fetcher) drainLoads() {
	for {
		select {
		case res := <-f.loads:
			var cmd comm.Cmd
			if res.loaded == nil {
				cmd = comm.SampleNotFound{Request: res.request}
			} else {
				cmd = comm.SampleComplete{
					Request: res.request,
					Note:    res.loaded.Note,
					PitchHz: res.loaded.PitchHz,
					Pcm:     res.loaded.Pcm,
				}
			}
			if !f.link.SendCmd(cmd) {
				f.retry = append(f.retry, cmd)
			}
		default:
			return
		}
	}
}

// flushRetries re-sends commands refused by a full control queue. One
// more attempt per tick; overflow stays an operational warning.
func (f *Fetcher) flushRetries() {
	if len(f.retry) == 0 {
		return
	}
	kept := f.retry[:0]
	for i, cmd := range f.retry {
		if !f.link.SendCmd(cmd) {
			kept = append(kept, f.retry[i:]...)
			break
		}
	}
	if len(kept) > 0 {
		log.Printf("fetch: control queue full, %d commands deferred", len(kept))
	}
	f.retry = kept
}

// prefetchSamples queries a window well beyond playback and provisions
// every sample it references before the renderer needs it.
func (f *Fetcher) prefetchSamples() {
	now := f.cfg.FrameToCycles(f.currentFrame)
	target := now + f.cfg.PrefetchCycles
	if f.prefetchCursor < now {
		f.prefetchCursor = now
	}
	for f.prefetchCursor < target {
		from := f.prefetchCursor
		to := from + 1
		if to > target {
			to = target
		}
		for _, ev := range f.src.Query(from, to) {
			sv, ok := f.transform(ev)
			if !ok || sv.Data.Sample == nil {
				continue
			}
			req := *sv.Data.Sample
			if f.requested[req] {
				continue
			}
			f.requested[req] = true
			f.resolveSample(req)
		}
		f.prefetchCursor = to
	}
}

// schedule pulls events in unit-cycle chunks up to the look-ahead horizon
// and turns them into ScheduleVoice commands. While refused commands are
// waiting for the queue to drain, no new chunk is consumed, so the
// renderer keeps seeing voices in schedule order.
func (f *Fetcher) schedule() {
	if len(f.retry) > 0 {
		return
	}
	now := f.cfg.FrameToCycles(f.currentFrame)
	if f.queryCursorCycles < now {
		f.queryCursorCycles = now
	}
	target := now + f.cfg.SecondsToCycles(f.cfg.LookaheadSec)
	for f.queryCursorCycles < target {
		from := f.queryCursorCycles
		to := from + 1
		if to > target {
			to = target
		}
		overflowed := false
		for _, ev := range f.src.Query(from, to) {
			sv, ok := f.transform(ev)
			if !ok {
				continue
			}
			cmd := comm.ScheduleVoice{Voice: sv}
			if overflowed || !f.link.SendCmd(cmd) {
				overflowed = true
				f.retry = append(f.retry, cmd)
			}
		}
		f.queryCursorCycles = to
		if overflowed {
			log.Printf("fetch: control queue full, deferring %d commands", len(f.retry))
			return
		}
	}
}

// CursorFrame returns the last cursor seen from the renderer.
func (f *Fetcher) CursorFrame() int64 { return f.currentFrame }
