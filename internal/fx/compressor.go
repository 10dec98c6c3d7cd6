package fx

import (
	"math"
	"strconv"
	"strings"
)

// CompressorSettings is the parsed form of a compressor settings string.
type CompressorSettings struct {
	ThresholdDb float64
	Ratio       float64
	KneeDb      float64
	AttackSec   float64
	ReleaseSec  float64
}

// ParseCompressorSettings parses "thr:ratio[:knee[:attack[:release]]]".
// Missing fields default to knee 6 dB, attack 3 ms, release 100 ms.
// Malformed input returns nil.
func ParseCompressorSettings(s string) *CompressorSettings {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 5 {
		return nil
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil
		}
		vals[i] = f
	}
	out := &CompressorSettings{
		ThresholdDb: vals[0],
		Ratio:       vals[1],
		KneeDb:      6,
		AttackSec:   0.003,
		ReleaseSec:  0.1,
	}
	if out.Ratio < 1 {
		return nil
	}
	if len(vals) > 2 {
		out.KneeDb = vals[2]
	}
	if len(vals) > 3 {
		out.AttackSec = vals[3]
	}
	if len(vals) > 4 {
		out.ReleaseSec = vals[4]
	}
	return out
}

// Compressor is a feed-forward soft-knee compressor with a linked stereo
// detector, so the image does not wander under asymmetric material.
type Compressor struct {
	thresholdDb float64
	ratio       float64
	kneeDb      float64
	attack      float64 // per-sample coefficient
	release     float64
	sampleRate  float64
	env         float64
}

// NewCompressor creates a compressor from settings.
func NewCompressor(sampleRate int, s CompressorSettings) *Compressor {
	c := &Compressor{sampleRate: float64(sampleRate)}
	c.Update(s)
	return c
}

// Update retunes the compressor between blocks.
func (c *Compressor) Update(s CompressorSettings) {
	c.thresholdDb = s.ThresholdDb
	c.ratio = s.Ratio
	if c.ratio < 1 {
		c.ratio = 1
	}
	c.kneeDb = clamp(s.KneeDb, 0, 40)
	c.attack = coeff(s.AttackSec, c.sampleRate)
	c.release = coeff(s.ReleaseSec, c.sampleRate)
}

func coeff(sec, sampleRate float64) float64 {
	if sec <= 0 {
		return 1
	}
	return 1 - math.Exp(-1/(sec*sampleRate))
}

// Process compresses both channels in place from a shared envelope.
func (c *Compressor) Process(left, right []float64) {
	for i := range left {
		peak := math.Abs(left[i])
		if r := math.Abs(right[i]); r > peak {
			peak = r
		}
		if peak > c.env {
			c.env += c.attack * (peak - c.env)
		} else {
			c.env += c.release * (peak - c.env)
		}
		gain := c.gainFor(c.env)
		left[i] *= gain
		right[i] *= gain
	}
}

// gainFor returns the linear gain for a detector level. Below the knee the
// signal passes untouched; inside it, reduction interpolates quadratically;
// above, reduction is overDb*(1 - 1/ratio).
func (c *Compressor) gainFor(env float64) float64 {
	if env <= 0 {
		return 1
	}
	envDb := 20 * math.Log10(env)
	overDb := envDb - c.thresholdDb
	var reductionDb float64
	switch {
	case 2*overDb < -c.kneeDb:
		return 1
	case c.kneeDb > 0 && 2*math.Abs(overDb) <= c.kneeDb:
		d := overDb + c.kneeDb/2
		reductionDb = (d * d) / (2 * c.kneeDb) * (1 - 1/c.ratio)
	case overDb <= 0:
		return 1
	default:
		reductionDb = overDb * (1 - 1/c.ratio)
	}
	return dbToLinear(-reductionDb)
}

// Reset clears the detector.
func (c *Compressor) Reset() { c.env = 0 }
