package fx

// Reverb is a Schroeder network of four damped combs and two allpass
// stages, fed mono from the orbit's reverb send. Buffers are allocated
// once at their maximum size; room changes only move the effective
// lengths.
type Reverb struct {
	combs    [4]damComb
	allpass  [2]allpass
	roomSize float64
	fade     float64
	lp       float64
	dim      float64
	wet      float64
	dimState float64
	maxBase  int
}

type damComb struct {
	buf    []float64
	length int
	pos    int
	fb     float64
	damp   float64
	lp     float64
}

type allpass struct {
	buf    []float64
	length int
	pos    int
}

// Comb and allpass length ratios, prime-ish to avoid stacked resonances.
var combRatios = [4]int{1000, 1117, 1271, 1437}
var allpassRatios = [2]int{347, 213}

// NewReverb allocates a reverb sized for roomSize = 1.
func NewReverb(sampleRate int) *Reverb {
	base := sampleRate / 20
	r := &Reverb{maxBase: base}
	for i := range r.combs {
		r.combs[i].buf = make([]float64, base*combRatios[i]/1000+1)
		r.combs[i].length = 1
	}
	for i := range r.allpass {
		r.allpass[i].buf = make([]float64, base*allpassRatios[i]/1000+1)
		r.allpass[i].length = 1
	}
	return r
}

// Update retunes the network. roomSize scales the comb lengths, roomFade
// sets the comb feedback, roomLp the in-loop damping, roomDim an extra
// one-pole on the wet sum, iResponse the wet mix.
func (r *Reverb) Update(roomSize, roomFade, roomLp, roomDim, iResponse float64) {
	r.roomSize = clamp(roomSize, 0, 1)
	r.fade = clamp(roomFade, 0, 0.98)
	r.lp = clamp(roomLp, 0, 0.99)
	r.dim = clamp(roomDim, 0, 0.99)
	r.wet = clamp(iResponse, 0, 1)
	for i := range r.combs {
		c := &r.combs[i]
		length := int(float64(r.maxBase) * r.roomSize * float64(combRatios[i]) / 1000)
		if length < 10 {
			length = 10
		}
		if length > len(c.buf) {
			length = len(c.buf)
		}
		c.length = length
		c.fb = r.fade
		c.damp = r.lp
	}
	for i := range r.allpass {
		a := &r.allpass[i]
		length := int(float64(r.maxBase) * r.roomSize * float64(allpassRatios[i]) / 1000)
		if length < 4 {
			length = 4
		}
		if length > len(a.buf) {
			length = len(a.buf)
		}
		a.length = length
	}
}

// Enabled reports whether the room is big enough to run.
func (r *Reverb) Enabled() bool { return r.roomSize >= 0.01 }

// Process feeds the send into the network and mixes the wet tail into the
// dry orbit buffers.
func (r *Reverb) Process(dryL, dryR, sendL, sendR []float64) {
	if !r.Enabled() {
		return
	}
	for i := range dryL {
		in := (sendL[i] + sendR[i]) * 0.5
		var out float64
		for c := range r.combs {
			out += r.combs[c].process(in)
		}
		out *= 0.25
		for a := range r.allpass {
			out = r.allpass[a].process(out)
		}
		// roomDim shaves the top off the tail.
		r.dimState += (1 - r.dim) * (out - r.dimState)
		wet := r.dimState * r.wet
		dryL[i] += wet
		dryR[i] += wet
	}
}

// Reset silences the network.
func (r *Reverb) Reset() {
	for i := range r.combs {
		c := &r.combs[i]
		for j := range c.buf {
			c.buf[j] = 0
		}
		c.pos = 0
		c.lp = 0
	}
	for i := range r.allpass {
		a := &r.allpass[i]
		for j := range a.buf {
			a.buf[j] = 0
		}
		a.pos = 0
	}
	r.dimState = 0
}

func (c *damComb) process(in float64) float64 {
	out := c.buf[c.pos]
	c.lp += (1 - c.damp) * (out - c.lp)
	c.buf[c.pos] = in + c.lp*c.fb
	c.pos++
	if c.pos >= c.length {
		c.pos = 0
	}
	return out
}

func (a *allpass) process(in float64) float64 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*0.5
	a.pos++
	if a.pos >= a.length {
		a.pos = 0
	}
	return out
}
