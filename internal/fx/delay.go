// Package fx holds the per-orbit effects: delay, reverb, phaser,
// compressor, and sidechain ducking. Effects process whole blocks of
// float64 samples and are retuned between blocks, never inside one.
package fx

import "math"

// MaxDelaySeconds bounds the delay line; longer times clamp to it.
const MaxDelaySeconds = 4.0

// minDelaySeconds below which the delay is treated as disabled.
const minDelaySeconds = 0.01

// DelayLine is a stereo pair of circular buffers fed from the orbit's
// delay send. Left and right run independently.
type DelayLine struct {
	bufL, bufR   []float64
	pos          int
	delaySamples int
	feedback     float64
	sampleRate   int
	timeSec      float64
}

// NewDelayLine allocates a delay line sized for MaxDelaySeconds.
func NewDelayLine(sampleRate int) *DelayLine {
	size := int(MaxDelaySeconds * float64(sampleRate))
	return &DelayLine{
		bufL:       make([]float64, size),
		bufR:       make([]float64, size),
		sampleRate: sampleRate,
	}
}

// Update retunes time and feedback. It never allocates.
func (d *DelayLine) Update(timeSec, feedback float64) {
	if timeSec > MaxDelaySeconds {
		timeSec = MaxDelaySeconds
	}
	d.timeSec = timeSec
	d.delaySamples = int(timeSec * float64(d.sampleRate))
	if d.delaySamples >= len(d.bufL) {
		d.delaySamples = len(d.bufL) - 1
	}
	d.feedback = clamp(feedback, 0, 0.95)
}

// Enabled reports whether the line is worth running this block.
func (d *DelayLine) Enabled() bool { return d.timeSec >= minDelaySeconds }

// Process reads the wet signal, mixes it into the dry orbit buffers, and
// writes send + feedback*wet back into the line.
func (d *DelayLine) Process(dryL, dryR, sendL, sendR []float64) {
	if !d.Enabled() {
		return
	}
	size := len(d.bufL)
	for i := range dryL {
		read := d.pos - d.delaySamples
		if read < 0 {
			read += size
		}
		wetL := d.bufL[read]
		wetR := d.bufR[read]
		dryL[i] += wetL
		dryR[i] += wetR
		d.bufL[d.pos] = sendL[i] + d.feedback*wetL
		d.bufR[d.pos] = sendR[i] + d.feedback*wetR
		d.pos++
		if d.pos >= size {
			d.pos = 0
		}
	}
}

// Reset silences the line.
func (d *DelayLine) Reset() {
	for i := range d.bufL {
		d.bufL[i] = 0
		d.bufR[i] = 0
	}
	d.pos = 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}
