package fx

import "math"

const phaserStages = 6

// Phaser is a six-stage first-order allpass chain per channel, swept by a
// shared sine LFO around a center frequency. It runs as an insert on the
// orbit mix buffer.
type Phaser struct {
	rate       float64
	depth      float64
	centerHz   float64
	sweepHz    float64
	feedback   float64
	sampleRate float64

	lfoPhase float64
	zL       [phaserStages]float64
	zR       [phaserStages]float64
	fbL, fbR float64
}

// NewPhaser creates an idle phaser; Update enables it.
func NewPhaser(sampleRate int) *Phaser {
	return &Phaser{sampleRate: float64(sampleRate)}
}

// Update retunes the sweep. Depth below 0.01 disables the stage.
func (p *Phaser) Update(rate, depth, centerHz, sweepHz, feedback float64) {
	p.rate = clamp(rate, 0, 20)
	p.depth = clamp(depth, 0, 1)
	p.centerHz = centerHz
	p.sweepHz = sweepHz
	p.feedback = clamp(feedback, 0, 0.9)
}

// Enabled reports whether the phaser does anything this block.
func (p *Phaser) Enabled() bool { return p.depth >= 0.01 }

// Process sweeps both channels in place.
func (p *Phaser) Process(left, right []float64) {
	if !p.Enabled() {
		return
	}
	lfoInc := 2 * math.Pi * p.rate / p.sampleRate
	nyquist := p.sampleRate * 0.45
	for i := range left {
		fc := p.centerHz + p.sweepHz*math.Sin(p.lfoPhase)
		if fc < 20 {
			fc = 20
		}
		if fc > nyquist {
			fc = nyquist
		}
		t := math.Tan(math.Pi * fc / p.sampleRate)
		a := (t - 1) / (t + 1)

		l := left[i] + p.fbL*p.feedback
		r := right[i] + p.fbR*p.feedback
		for s := 0; s < phaserStages; s++ {
			yl := a*l + p.zL[s]
			p.zL[s] = l - a*yl
			l = yl
			yr := a*r + p.zR[s]
			p.zR[s] = r - a*yr
			r = yr
		}
		p.fbL = l
		p.fbR = r
		left[i] = left[i]*(1-p.depth) + l*p.depth
		right[i] = right[i]*(1-p.depth) + r*p.depth

		p.lfoPhase += lfoInc
		if p.lfoPhase >= 2*math.Pi {
			p.lfoPhase -= 2 * math.Pi
		}
	}
}

// Reset clears the allpass and feedback state.
func (p *Phaser) Reset() {
	p.zL = [phaserStages]float64{}
	p.zR = [phaserStages]float64{}
	p.fbL, p.fbR = 0, 0
	p.lfoPhase = 0
}
