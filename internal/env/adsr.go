// Package env drives per-voice ADSR envelopes one sample at a time.
package env

import (
	"math"

	"github.com/peekandpoke/klang-go/internal/voice"
)

// Stage enumerates the envelope state machine.
type Stage int

const (
	StageAttack Stage = iota
	StageDecay
	StageSustain
	StageRelease
	StageDone
)

// Envelope walks Attack -> Decay -> Sustain -> Release -> Done. Sustain
// holds until Release is called; the voice calls it when the cursor
// crosses its gate end frame.
type Envelope struct {
	attackFrames  int64
	decayFrames   int64
	sustainLevel  float64
	releaseFrames int64

	stage       Stage
	pos         int64
	level       float64
	releaseFrom float64
}

// New builds an envelope from ADSR timings at the given sample rate.
func New(a voice.ADSR, sampleRate int) *Envelope {
	sustain := a.SustainLevel
	if sustain < 0 {
		sustain = 0
	}
	if sustain > 1 {
		sustain = 1
	}
	return &Envelope{
		attackFrames:  secToFrames(a.AttackSec, sampleRate),
		decayFrames:   secToFrames(a.DecaySec, sampleRate),
		sustainLevel:  sustain,
		releaseFrames: a.ReleaseFrames(sampleRate),
	}
}

func secToFrames(sec float64, sampleRate int) int64 {
	if sec <= 0 {
		return 0
	}
	return int64(math.Round(sec * float64(sampleRate)))
}

// Next advances one sample and returns the level for it, always in [0, 1].
func (e *Envelope) Next() float64 {
	switch e.stage {
	case StageAttack:
		if e.attackFrames <= 0 {
			e.level = 1
			e.enter(StageDecay)
			return e.Next()
		}
		e.level = float64(e.pos) / float64(e.attackFrames)
		e.pos++
		if e.pos >= e.attackFrames {
			e.level = 1
			e.enter(StageDecay)
		}
		return e.level
	case StageDecay:
		if e.decayFrames <= 0 {
			e.level = e.sustainLevel
			e.enter(StageSustain)
			return e.Next()
		}
		e.level = 1 + (e.sustainLevel-1)*float64(e.pos)/float64(e.decayFrames)
		e.pos++
		if e.pos >= e.decayFrames {
			e.level = e.sustainLevel
			e.enter(StageSustain)
		}
		return e.level
	case StageSustain:
		e.level = e.sustainLevel
		return e.level
	case StageRelease:
		if e.releaseFrames <= 0 {
			e.level = 0
			e.stage = StageDone
			return 0
		}
		e.level = e.releaseFrom * (1 - float64(e.pos)/float64(e.releaseFrames))
		e.pos++
		if e.pos >= e.releaseFrames {
			e.level = 0
			e.stage = StageDone
		}
		return e.level
	default:
		return 0
	}
}

func (e *Envelope) enter(s Stage) {
	e.stage = s
	e.pos = 0
}

// Release moves the envelope into its release ramp from the current level.
// Calling it again, or after Done, has no effect.
func (e *Envelope) Release() {
	if e.stage == StageRelease || e.stage == StageDone {
		return
	}
	e.releaseFrom = e.level
	e.enter(StageRelease)
	if e.releaseFrames <= 0 {
		e.level = 0
		e.stage = StageDone
	}
}

// Stage returns the current stage.
func (e *Envelope) Stage() Stage { return e.stage }

// Done reports whether the envelope has fully closed.
func (e *Envelope) Done() bool { return e.stage == StageDone }
