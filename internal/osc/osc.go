// Package osc provides the oscillator functions voices render with. An
// oscillator writes a window of samples from a running phase and returns
// the phase it ended on, so callers can resume across blocks.
package osc

import (
	"math"
	"math/rand"
)

const twoPi = 2 * math.Pi

// Func generates length samples into buf starting at offset. Phase is in
// radians; phaseInc is the per-sample increment. When phaseMod is non-nil
// the effective increment for sample i is phaseInc*phaseMod[i]. Output
// stays within [-1, 1]. The end phase is returned.
type Func func(buf []float64, offset, length int, startPhase, phaseInc float64, phaseMod []float64) float64

// Sine is a plain sine oscillator.
func Sine(buf []float64, offset, length int, startPhase, phaseInc float64, phaseMod []float64) float64 {
	phase := startPhase
	for i := 0; i < length; i++ {
		buf[offset+i] = math.Sin(phase)
		phase += step(phaseInc, phaseMod, i)
	}
	return wrap(phase)
}

// Sawtooth is a PolyBLEP-corrected sawtooth.
func Sawtooth(buf []float64, offset, length int, startPhase, phaseInc float64, phaseMod []float64) float64 {
	phase := startPhase
	for i := 0; i < length; i++ {
		inc := step(phaseInc, phaseMod, i)
		t := wrap(phase) / twoPi
		dt := inc / twoPi
		buf[offset+i] = 2*t - 1 - polyBlep(t, dt)
		phase += inc
	}
	return wrap(phase)
}

// Square is a PolyBLEP-corrected square.
func Square(buf []float64, offset, length int, startPhase, phaseInc float64, phaseMod []float64) float64 {
	phase := startPhase
	for i := 0; i < length; i++ {
		inc := step(phaseInc, phaseMod, i)
		t := wrap(phase) / twoPi
		dt := inc / twoPi
		var v float64
		if t < 0.5 {
			v = 1
		} else {
			v = -1
		}
		v += polyBlep(t, dt)
		v -= polyBlep(math.Mod(t+0.5, 1), dt)
		buf[offset+i] = v
		phase += inc
	}
	return wrap(phase)
}

// Triangle ramps linearly between -1 and 1.
func Triangle(buf []float64, offset, length int, startPhase, phaseInc float64, phaseMod []float64) float64 {
	phase := startPhase
	for i := 0; i < length; i++ {
		t := wrap(phase) / twoPi
		if t < 0.5 {
			buf[offset+i] = 4*t - 1
		} else {
			buf[offset+i] = 3 - 4*t
		}
		phase += step(phaseInc, phaseMod, i)
	}
	return wrap(phase)
}

// Impulse emits a single unit sample at each cycle boundary.
func Impulse(buf []float64, offset, length int, startPhase, phaseInc float64, phaseMod []float64) float64 {
	phase := startPhase
	for i := 0; i < length; i++ {
		prev := wrap(phase)
		phase += step(phaseInc, phaseMod, i)
		if wrap(phase) < prev || (i == 0 && prev == 0) {
			buf[offset+i] = 1
		} else {
			buf[offset+i] = 0
		}
	}
	return wrap(phase)
}

// Silent writes zeros. It stands in for oscillator kinds that fail to
// resolve so the rest of the voice still renders.
func Silent(buf []float64, offset, length int, startPhase, phaseInc float64, phaseMod []float64) float64 {
	for i := 0; i < length; i++ {
		buf[offset+i] = 0
	}
	return startPhase
}

// Supersaw sums n detuned PolyBLEP saws and normalises the result by 1/n,
// which keeps the sum within [-1, 1] however the partials align. Each
// partial keeps its own phase inside the returned closure, so a Supersaw
// Func belongs to a single voice.
func Supersaw(n int, detune float64) Func {
	if n < 1 {
		n = 1
	}
	phases := make([]float64, n)
	for i := range phases {
		phases[i] = twoPi * float64(i) / float64(n)
	}
	detunes := make([]float64, n)
	for i := range detunes {
		if n == 1 {
			detunes[i] = 1
		} else {
			// Spread partials evenly across [-detune, +detune].
			detunes[i] = 1 + detune*(2*float64(i)/float64(n-1)-1)
		}
	}
	norm := 1 / float64(n)
	return func(buf []float64, offset, length int, startPhase, phaseInc float64, phaseMod []float64) float64 {
		for i := 0; i < length; i++ {
			buf[offset+i] = 0
		}
		for p := range phases {
			phase := phases[p]
			for i := 0; i < length; i++ {
				inc := step(phaseInc, phaseMod, i) * detunes[p]
				t := wrap(phase) / twoPi
				dt := inc / twoPi
				buf[offset+i] += (2*t - 1 - polyBlep(t, dt)) * norm
				phase += inc
			}
			phases[p] = wrap(phase)
		}
		return phases[0]
	}
}

// WhiteNoise returns a white noise oscillator with its own generator state.
func WhiteNoise(seed int64) Func {
	rng := rand.New(rand.NewSource(seed))
	return func(buf []float64, offset, length int, startPhase, phaseInc float64, phaseMod []float64) float64 {
		for i := 0; i < length; i++ {
			buf[offset+i] = rng.Float64()*2 - 1
		}
		return startPhase
	}
}

// PinkNoise filters white noise with the Kellet three-pole approximation.
func PinkNoise(seed int64) Func {
	rng := rand.New(rand.NewSource(seed))
	var b0, b1, b2 float64
	return func(buf []float64, offset, length int, startPhase, phaseInc float64, phaseMod []float64) float64 {
		for i := 0; i < length; i++ {
			white := rng.Float64()*2 - 1
			b0 = 0.99765*b0 + white*0.0990460
			b1 = 0.96300*b1 + white*0.2965164
			b2 = 0.57000*b2 + white*1.0526913
			v := (b0 + b1 + b2 + white*0.1848) * 0.25
			buf[offset+i] = clampUnit(v)
		}
		return startPhase
	}
}

// BrownNoise integrates white noise with a small leak.
func BrownNoise(seed int64) Func {
	rng := rand.New(rand.NewSource(seed))
	var last float64
	return func(buf []float64, offset, length int, startPhase, phaseInc float64, phaseMod []float64) float64 {
		for i := 0; i < length; i++ {
			white := rng.Float64()*2 - 1
			last = (last + 0.02*white) / 1.02
			buf[offset+i] = clampUnit(last * 3.5)
		}
		return startPhase
	}
}

// ByName resolves an oscillator kind. Unknown names yield (Silent, false)
// so a voice with a bad sound still renders, just inaudibly.
func ByName(name string, seed int64) (Func, bool) {
	switch name {
	case "sine", "sin":
		return Sine, true
	case "sawtooth", "saw":
		return Sawtooth, true
	case "square", "sqr":
		return Square, true
	case "triangle", "tri":
		return Triangle, true
	case "impulse":
		return Impulse, true
	case "white":
		return WhiteNoise(seed), true
	case "pink":
		return PinkNoise(seed), true
	case "brown":
		return BrownNoise(seed), true
	}
	return Silent, false
}

// WithWarmth wraps f in a one-pole low pass. The coefficient is coerced to
// [0, 0.99]; values at or below zero return f unchanged. Chainable.
func WithWarmth(f Func, warmth float64) Func {
	if warmth <= 0 {
		return f
	}
	c := warmth
	if c > 0.99 {
		c = 0.99
	}
	var y float64
	return func(buf []float64, offset, length int, startPhase, phaseInc float64, phaseMod []float64) float64 {
		end := f(buf, offset, length, startPhase, phaseInc, phaseMod)
		for i := 0; i < length; i++ {
			y = c*y + (1-c)*buf[offset+i]
			buf[offset+i] = y
		}
		return end
	}
}

func step(phaseInc float64, phaseMod []float64, i int) float64 {
	if phaseMod != nil {
		return phaseInc * phaseMod[i]
	}
	return phaseInc
}

func wrap(phase float64) float64 {
	if phase >= 0 && phase < twoPi {
		return phase
	}
	phase = math.Mod(phase, twoPi)
	if phase < 0 {
		phase += twoPi
	}
	return phase
}

// polyBlep smooths the discontinuity around a phase wrap. t and dt are in
// cycles, not radians.
func polyBlep(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		x := t / dt
		return x + x - x*x - 1
	}
	if t > 1-dt {
		x := (t - 1) / dt
		return x*x + x + x + 1
	}
	return 0
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
