package engine

import (
	"math"

	"github.com/peekandpoke/klang-go/internal/fx"
	"github.com/peekandpoke/klang-go/internal/voice"
)

// deactivateThreshold is the residual level below which an orbit counts
// as silent.
const deactivateThreshold = 1e-4

// Orbit is one mix bus: a stereo mix buffer with delay and reverb send
// buffers, the effects fed from them, an insert phaser, an optional
// compressor, and optional sidechain ducking against another orbit.
type Orbit struct {
	ID          int
	Mix         *StereoBuffer
	DelaySend   *StereoBuffer
	ReverbSend  *StereoBuffer
	delay       *fx.DelayLine
	reverb      *fx.Reverb
	phaser      *fx.Phaser
	compressor  *fx.Compressor
	hasComp     bool
	duckL       *fx.Ducking
	duckR       *fx.Ducking
	DuckOrbitID int
	hasDucking  bool

	isActive     bool
	updatedBlock int64
}

// NewOrbit allocates an orbit for the given block size.
func NewOrbit(id, sampleRate, blockFrames int) *Orbit {
	return &Orbit{
		ID:           id,
		Mix:          NewStereoBuffer(blockFrames),
		DelaySend:    NewStereoBuffer(blockFrames),
		ReverbSend:   NewStereoBuffer(blockFrames),
		delay:        fx.NewDelayLine(sampleRate),
		reverb:       fx.NewReverb(sampleRate),
		phaser:       fx.NewPhaser(sampleRate),
		compressor:   fx.NewCompressor(sampleRate, fx.CompressorSettings{Ratio: 1}),
		duckL:        fx.NewDucking(sampleRate),
		duckR:        fx.NewDucking(sampleRate),
		updatedBlock: -1,
	}
}

// IsActive reports whether the orbit participates in the mix.
func (o *Orbit) IsActive() bool { return o.isActive }

// UpdateFromVoice re-applies the orbit's effect parameters from a voice
// and marks the orbit active. It runs at most once per block, keyed by
// the first voice assigned in that block.
func (o *Orbit) UpdateFromVoice(d *voice.VoiceData, block int64) {
	o.isActive = true
	if o.updatedBlock == block {
		return
	}
	o.updatedBlock = block

	if d.Delay != nil {
		o.delay.Update(d.Delay.TimeSec, d.Delay.Feedback)
	} else {
		o.delay.Update(0, 0)
	}
	if d.Reverb != nil {
		o.reverb.Update(d.Reverb.RoomSize, d.Reverb.RoomFade, d.Reverb.RoomLp, d.Reverb.RoomDim, d.Reverb.IResponse)
	} else {
		o.reverb.Update(0, 0, 0, 0, 0)
	}
	if d.Phaser != nil {
		o.phaser.Update(d.Phaser.Rate, d.Phaser.Depth, d.Phaser.CenterHz, d.Phaser.Sweep, 0.3)
	} else {
		o.phaser.Update(0, 0, 0, 0, 0)
	}
	o.hasComp = d.Compressor != nil
	if o.hasComp {
		o.compressor.Update(fx.CompressorSettings{
			ThresholdDb: d.Compressor.ThresholdDb,
			Ratio:       d.Compressor.Ratio,
			KneeDb:      d.Compressor.KneeDb,
			AttackSec:   d.Compressor.AttackSec,
			ReleaseSec:  d.Compressor.ReleaseSec,
		})
	}
	o.hasDucking = d.Ducking != nil && d.Ducking.Depth > 0
	if o.hasDucking {
		o.DuckOrbitID = d.Ducking.OrbitID
		o.duckL.Update(d.Ducking.Depth, d.Ducking.AttackSec)
		o.duckR.Update(d.Ducking.Depth, d.Ducking.AttackSec)
	}
}

// Clear zero-fills the mix and both send buffers.
func (o *Orbit) Clear() {
	o.Mix.Clear()
	o.DelaySend.Clear()
	o.ReverbSend.Clear()
}

// ProcessEffects runs the orbit chain: delay, reverb, then the phaser
// insert and the compressor.
func (o *Orbit) ProcessEffects() {
	o.delay.Process(o.Mix.Left, o.Mix.Right, o.DelaySend.Left, o.DelaySend.Right)
	o.reverb.Process(o.Mix.Left, o.Mix.Right, o.ReverbSend.Left, o.ReverbSend.Right)
	o.phaser.Process(o.Mix.Left, o.Mix.Right)
	if o.hasComp {
		o.compressor.Process(o.Mix.Left, o.Mix.Right)
	}
}

// Duck applies this orbit's sidechain ducking against the given buffers.
func (o *Orbit) Duck(sidechain *StereoBuffer) {
	if !o.hasDucking {
		return
	}
	o.duckL.Process(o.Mix.Left, sidechain.Left)
	o.duckR.Process(o.Mix.Right, sidechain.Right)
}

// HasDucking reports whether a sidechain is configured.
func (o *Orbit) HasDucking() bool { return o.hasDucking }

// TryDeactivate flips the orbit inactive iff every sample of both mix
// channels is at or below the silence threshold. It reports whether the
// orbit is inactive afterwards.
func (o *Orbit) TryDeactivate() bool {
	if !o.isActive {
		return true
	}
	for i := range o.Mix.Left {
		if math.Abs(o.Mix.Left[i]) > deactivateThreshold || math.Abs(o.Mix.Right[i]) > deactivateThreshold {
			return false
		}
	}
	o.isActive = false
	return true
}
