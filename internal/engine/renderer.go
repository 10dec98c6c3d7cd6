package engine

import (
	"math"
	"sync/atomic"

	"github.com/peekandpoke/klang-go/internal/comm"
)

// Renderer runs the per-block pipeline: drain commands, clear, schedule
// and render voices, process orbits, and interleave the master into
// signed 16-bit PCM. It is invoked synchronously by the audio backend and
// takes no locks.
type Renderer struct {
	sampleRate  int
	blockFrames int
	link        *comm.Link
	scheduler   *Scheduler
	orbits      *Orbits
	master      *StereoBuffer
	ctx         RenderContext
	cursor      atomic.Int64
}

// NewRenderer wires the renderer to its scheduler and orbit set.
func NewRenderer(sampleRate, blockFrames int, link *comm.Link, scheduler *Scheduler, orbits *Orbits) *Renderer {
	return &Renderer{
		sampleRate:  sampleRate,
		blockFrames: blockFrames,
		link:        link,
		scheduler:   scheduler,
		orbits:      orbits,
		master:      NewStereoBuffer(blockFrames),
		ctx: RenderContext{
			Scratch: make([]float64, blockFrames),
			Mod:     make([]float64, blockFrames),
		},
	}
}

// CursorFrame returns the published cursor. Safe from any goroutine.
func (r *Renderer) CursorFrame() int64 { return r.cursor.Load() }

// BlockFrames returns the fixed block size.
func (r *Renderer) BlockFrames() int { return r.blockFrames }

// Scheduler exposes the owned scheduler, for command handling in offline
// rendering and tests.
func (r *Renderer) Scheduler() *Scheduler { return r.scheduler }

// Orbits exposes the owned orbit set.
func (r *Renderer) Orbits() *Orbits { return r.orbits }

// RenderBlock produces one block of interleaved L/R int16 samples into
// out, which must hold blockFrames*2 values. Every output sample is
// finite and clamped to the int16 range.
func (r *Renderer) RenderBlock(out []int16) {
	for {
		cmd, ok := r.link.ReceiveCmd()
		if !ok {
			break
		}
		r.scheduler.HandleCmd(cmd)
	}

	blockStart := r.cursor.Load()
	r.master.Clear()
	r.orbits.ClearAll()
	r.scheduler.Process(blockStart, r.orbits, &r.ctx)
	r.orbits.ProcessAndMix(r.master)

	for i := 0; i < r.blockFrames; i++ {
		out[i*2] = toInt16(r.master.Left[i])
		out[i*2+1] = toInt16(r.master.Right[i])
	}

	end := blockStart + int64(r.blockFrames)
	r.cursor.Store(end)
	r.link.SendFeed(comm.UpdateCursorFrame{Frame: end})
}

func toInt16(v float64) int16 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}
