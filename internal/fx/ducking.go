package fx

import "math"

// Ducking lowers one mono stream by the envelope of another. The detector
// rises instantly so the duck engages within the same block; recovery is
// smoothed by the attack time. Depth 0 bypasses.
type Ducking struct {
	depth      float64
	attack     float64 // recovery coefficient
	sampleRate float64
	env        float64
}

// NewDucking creates an idle ducker; Update enables it.
func NewDucking(sampleRate int) *Ducking {
	return &Ducking{sampleRate: float64(sampleRate)}
}

// Update retunes depth and recovery time.
func (d *Ducking) Update(depth, attackSec float64) {
	d.depth = clamp(depth, 0, 1)
	d.attack = coeff(attackSec, d.sampleRate)
}

// Enabled reports whether the ducker does anything.
func (d *Ducking) Enabled() bool { return d.depth > 0 }

// Process attenuates buf in place by depth times the sidechain envelope.
// buf and side must be distinct unless identical attenuation-in-place is
// intended; they are never the same buffer in the orbit graph.
func (d *Ducking) Process(buf, side []float64) {
	if !d.Enabled() {
		return
	}
	for i := range buf {
		level := math.Abs(side[i])
		if level >= d.env {
			d.env = level
		} else {
			d.env += d.attack * (level - d.env)
		}
		gain := 1 - d.depth*d.env
		if gain < 0 {
			gain = 0
		}
		buf[i] *= gain
	}
}

// Reset zeroes the envelope.
func (d *Ducking) Reset() { d.env = 0 }
