// Package klang is a realtime musical performance engine. A planner
// queries an event source ahead of playback and schedules voices over a
// bounded duplex link; the renderer turns them into blocks of stereo PCM
// through a set of effect busses called orbits.
package klang

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/peekandpoke/klang-go/internal/audio"
	"github.com/peekandpoke/klang-go/internal/comm"
	"github.com/peekandpoke/klang-go/internal/engine"
	"github.com/peekandpoke/klang-go/internal/fetch"
	"github.com/peekandpoke/klang-go/internal/pattern"
	"github.com/peekandpoke/klang-go/internal/samples"
)

// BackendKind selects the output device.
type BackendKind string

const (
	BackendEbiten   BackendKind = "ebiten"
	BackendOto      BackendKind = "oto"
	BackendHeadless BackendKind = "headless"
)

type playerConfig struct {
	sampleRate       int
	blockFrames      int
	cyclesPerSecond  float64
	lookaheadSec     float64
	prefetchCycles   float64
	fetchPeriodMs    int
	maxOrbits        int
	commLinkCapacity int
	backend          BackendKind
	index            *samples.Index
	transform        fetch.Transform
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{
		sampleRate:       44100,
		blockFrames:      512,
		cyclesPerSecond:  0.5,
		lookaheadSec:     0.2,
		prefetchCycles:   4,
		fetchPeriodMs:    16,
		maxOrbits:        8,
		commLinkCapacity: comm.DefaultCapacity,
		backend:          BackendEbiten,
		index:            samples.NewIndex(),
	}
}

// PlayerOption configures a Player at construction.
type PlayerOption func(*playerConfig)

// WithSampleRate sets the target rate in Hz.
func WithSampleRate(hz int) PlayerOption {
	return func(cfg *playerConfig) { cfg.sampleRate = hz }
}

// WithBlockSize sets the frames rendered per block.
func WithBlockSize(frames int) PlayerOption {
	return func(cfg *playerConfig) { cfg.blockFrames = frames }
}

// WithCyclesPerSecond sets the musical tempo for cycle/second mapping.
func WithCyclesPerSecond(cps float64) PlayerOption {
	return func(cfg *playerConfig) { cfg.cyclesPerSecond = cps }
}

// WithLookahead sets the planner horizon for scheduling, in seconds.
func WithLookahead(sec float64) PlayerOption {
	return func(cfg *playerConfig) { cfg.lookaheadSec = sec }
}

// WithPrefetchCycles sets the sample look-ahead horizon, in cycles.
func WithPrefetchCycles(cycles float64) PlayerOption {
	return func(cfg *playerConfig) { cfg.prefetchCycles = cycles }
}

// WithFetchPeriod sets the planner tick period in milliseconds.
func WithFetchPeriod(ms int) PlayerOption {
	return func(cfg *playerConfig) { cfg.fetchPeriodMs = ms }
}

// WithMaxOrbits bounds the number of mix busses; coerced into [1, 32].
func WithMaxOrbits(n int) PlayerOption {
	return func(cfg *playerConfig) { cfg.maxOrbits = n }
}

// WithCommLinkCapacity sets the per-direction queue size.
func WithCommLinkCapacity(n int) PlayerOption {
	return func(cfg *playerConfig) { cfg.commLinkCapacity = n }
}

// WithBackend selects the output device.
func WithBackend(kind BackendKind) PlayerOption {
	return func(cfg *playerConfig) { cfg.backend = kind }
}

// WithSampleIndex installs the sample catalogue.
func WithSampleIndex(ix *samples.Index) PlayerOption {
	return func(cfg *playerConfig) { cfg.index = ix }
}

// WithTransform overrides the event-to-voice transform.
func WithTransform(t fetch.Transform) PlayerOption {
	return func(cfg *playerConfig) { cfg.transform = t }
}

// Player owns one engine: the link, scheduler, orbits, renderer, and the
// planner loop feeding them from an event source.
type Player struct {
	mu        sync.Mutex
	cfg       playerConfig
	link      *comm.Link
	renderer  *engine.Renderer
	fetcher   *fetch.Fetcher
	backend   audio.Backend
	isRunning atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewPlayer builds a player over an event source.
func NewPlayer(source pattern.Source, opts ...PlayerOption) (*Player, error) {
	if source == nil {
		return nil, errors.New("event source must not be nil")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	if cfg.blockFrames <= 0 {
		return nil, errors.New("blockSize must be positive")
	}
	if cfg.cyclesPerSecond <= 0 {
		return nil, errors.New("cyclesPerSecond must be positive")
	}

	link := comm.NewLink(cfg.commLinkCapacity)
	scheduler := engine.NewScheduler(cfg.sampleRate, cfg.blockFrames, link)
	orbits := engine.NewOrbits(cfg.sampleRate, cfg.blockFrames, cfg.maxOrbits)
	renderer := engine.NewRenderer(cfg.sampleRate, cfg.blockFrames, link, scheduler, orbits)

	registry := samples.NewRegistry(cfg.index)
	transform := cfg.transform
	if transform == nil {
		transform = EventToVoice(cfg.cyclesPerSecond)
	}
	fetcher := fetch.New(source, registry, link, fetch.Config{
		SampleRate:      cfg.sampleRate,
		CyclesPerSecond: cfg.cyclesPerSecond,
		LookaheadSec:    cfg.lookaheadSec,
		FetchPeriodMs:   cfg.fetchPeriodMs,
		PrefetchCycles:  cfg.prefetchCycles,
	}, transform)

	return &Player{
		cfg:      cfg,
		link:     link,
		renderer: renderer,
		fetcher:  fetcher,
	}, nil
}

// Start opens the backend and launches the planner. It fails when the
// player is already running.
func (p *Player) Start(ctx context.Context) error {
	if !p.isRunning.CompareAndSwap(false, true) {
		return errors.New("player already running")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	backend, err := p.newBackend()
	if err != nil {
		p.isRunning.Store(false)
		return err
	}
	p.backend = backend

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		p.fetcher.Run(runCtx)
	}()

	if err := backend.Start(); err != nil {
		cancel()
		<-p.done
		p.backend = nil
		p.isRunning.Store(false)
		return err
	}
	return nil
}

func (p *Player) newBackend() (audio.Backend, error) {
	switch p.cfg.backend {
	case BackendEbiten:
		return audio.NewEbitenBackend(p.cfg.sampleRate, p.renderer)
	case BackendOto:
		return audio.NewOtoBackend(p.cfg.sampleRate, p.renderer)
	case BackendHeadless:
		return audio.NewHeadlessBackend(p.renderer), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", p.cfg.backend)
	}
}

// Stop halts the planner, closes the backend, and drains one final block
// so the last cursor is published. Stopping an idle player is a no-op.
func (p *Player) Stop() error {
	if !p.isRunning.CompareAndSwap(true, false) {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		<-p.done
		p.cancel = nil
	}
	var err error
	if p.backend != nil {
		err = p.backend.Stop()
		p.backend = nil
	}
	final := make([]int16, p.cfg.blockFrames*2)
	p.renderer.RenderBlock(final)
	return err
}

// IsRunning reports whether the player is started.
func (p *Player) IsRunning() bool { return p.isRunning.Load() }

// CursorFrame returns the renderer's published cursor.
func (p *Player) CursorFrame() int64 { return p.renderer.CursorFrame() }

// SampleRate returns the configured rate.
func (p *Player) SampleRate() int { return p.cfg.sampleRate }

// BlockFrames returns the configured block size.
func (p *Player) BlockFrames() int { return p.cfg.blockFrames }
