package engine

import (
	"math"

	"github.com/peekandpoke/klang-go/internal/env"
	"github.com/peekandpoke/klang-go/internal/filter"
	"github.com/peekandpoke/klang-go/internal/osc"
	"github.com/peekandpoke/klang-go/internal/voice"
)

// Voice is one playing note or sample instance. Render mixes one block's
// overlap into the target orbit and reports whether the voice is finished
// and may be dropped at the end of the block.
type Voice interface {
	PlaybackID() string
	OrbitID() int
	StartFrame() int64
	Seq() uint64
	Data() *voice.VoiceData
	Render(ctx *RenderContext) bool
	Release()
}

// voiceCore carries everything shared by the synth and sample variants.
type voiceCore struct {
	playbackID   string
	data         voice.VoiceData
	startFrame   int64
	gateEndFrame int64
	endFrame     int64
	gain         float64
	panL, panR   float64
	filt         filter.AudioFilter
	envelope     *env.Envelope
	vibRate      float64
	vibDepth     float64
	vibPhase     float64
	sampleRate   float64
	seq          uint64
}

func newVoiceCore(sv voice.ScheduledVoice, sampleRate int, seq uint64) voiceCore {
	d := sv.Data
	start := framesFromSeconds(sv.StartTime, sampleRate)
	gateEnd := framesFromSeconds(sv.GateEndTime, sampleRate)
	if gateEnd < start {
		gateEnd = start
	}
	gain := d.Gain
	if gain < 0 {
		gain = 0
	}
	pan := d.Pan
	if pan < -1 {
		pan = -1
	}
	if pan > 1 {
		pan = 1
	}
	// Constant power pan, normalised so a centered voice is unity on both
	// channels.
	angle := (pan + 1) * math.Pi / 4
	core := voiceCore{
		playbackID:   sv.PlaybackID,
		data:         d,
		startFrame:   start,
		gateEndFrame: gateEnd,
		endFrame:     gateEnd + d.ADSR.ReleaseFrames(sampleRate),
		gain:         gain,
		panL:         math.Sqrt2 * math.Cos(angle),
		panR:         math.Sqrt2 * math.Sin(angle),
		filt:         buildFilter(d.Filters, sampleRate),
		envelope:     env.New(d.ADSR, sampleRate),
		sampleRate:   float64(sampleRate),
		seq:          seq,
	}
	if d.Vibrato != nil {
		core.vibRate = d.Vibrato.Rate
		core.vibDepth = d.Vibrato.Depth
	}
	return core
}

func buildFilter(specs []voice.FilterSpec, sampleRate int) filter.AudioFilter {
	filters := make([]filter.AudioFilter, 0, len(specs))
	for _, s := range specs {
		switch s.Kind {
		case voice.FilterHighPass:
			filters = append(filters, filter.NewHighPass(sampleRate, s.CutoffHz, s.Q))
		default:
			filters = append(filters, filter.NewLowPass(sampleRate, s.CutoffHz, s.Q))
		}
	}
	return filter.Combine(filters)
}

func framesFromSeconds(sec float64, sampleRate int) int64 {
	return int64(math.Round(sec * float64(sampleRate)))
}

func (c *voiceCore) PlaybackID() string     { return c.playbackID }
func (c *voiceCore) OrbitID() int           { return c.data.Orbit }
func (c *voiceCore) StartFrame() int64      { return c.startFrame }
func (c *voiceCore) Seq() uint64            { return c.seq }
func (c *voiceCore) Data() *voice.VoiceData { return &c.data }

// Release forces the envelope into its release ramp. The end frame is
// left as it is; the voice is dropped once the ramp closes and the
// envelope reports Done.
func (c *voiceCore) Release() {
	c.envelope.Release()
}

// window clips the voice's lifetime against the block. The returned
// length is zero when there is nothing to render.
func (c *voiceCore) window(ctx *RenderContext) (offset int, length int) {
	blockEnd := ctx.BlockStart + int64(ctx.BlockFrames)
	from := c.startFrame
	if from < ctx.BlockStart {
		from = ctx.BlockStart
	}
	to := c.endFrame
	if c.envelope.Done() {
		return 0, 0
	}
	if to > blockEnd {
		to = blockEnd
	}
	if to <= from {
		return 0, 0
	}
	return int(from - ctx.BlockStart), int(to - from)
}

// fillVibrato writes per-sample phase increment scaling into ctx.Mod and
// returns it, or nil when vibrato is off.
func (c *voiceCore) fillVibrato(ctx *RenderContext, offset, length int) []float64 {
	if c.vibDepth <= 0 || c.vibRate <= 0 {
		return nil
	}
	inc := 2 * math.Pi * c.vibRate / c.sampleRate
	for i := 0; i < length; i++ {
		ctx.Mod[i] = 1 + c.vibDepth*math.Sin(c.vibPhase)
		c.vibPhase += inc
		if c.vibPhase >= 2*math.Pi {
			c.vibPhase -= 2 * math.Pi
		}
	}
	return ctx.Mod[:length]
}

// mix applies filter, envelope, gain, and pan to the scratch window and
// adds the result into the orbit mix and send buffers. Non-finite samples
// are contained here: they become silence instead of reaching the orbit.
func (c *voiceCore) mix(ctx *RenderContext, offset, length int) {
	c.filt.Process(ctx.Scratch, offset, length)

	o := ctx.Orbit
	delaySend := 0.0
	if c.data.Delay != nil {
		delaySend = clampUnitRange(c.data.Delay.Amount)
	}
	reverbSend := 0.0
	if c.data.Reverb != nil {
		reverbSend = clampUnitRange(c.data.Reverb.Room)
	}
	for i := 0; i < length; i++ {
		frame := ctx.BlockStart + int64(offset+i)
		if frame >= c.gateEndFrame {
			c.envelope.Release()
		}
		v := ctx.Scratch[offset+i] * c.gain * c.envelope.Next()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		l := v * c.panL
		r := v * c.panR
		pos := offset + i
		o.Mix.Left[pos] += l
		o.Mix.Right[pos] += r
		if delaySend > 0 {
			o.DelaySend.Left[pos] += l * delaySend
			o.DelaySend.Right[pos] += r * delaySend
		}
		if reverbSend > 0 {
			o.ReverbSend.Left[pos] += l * reverbSend
			o.ReverbSend.Right[pos] += r * reverbSend
		}
	}
}

func clampUnitRange(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SynthVoice renders an oscillator.
type SynthVoice struct {
	voiceCore
	oscFn    osc.Func
	phase    float64
	phaseInc float64
}

// NewSynthVoice builds an oscillator voice from a scheduled description.
// Unknown oscillator kinds fall back to silence; the voice still runs its
// full lifecycle.
func NewSynthVoice(sv voice.ScheduledVoice, sampleRate int, seq uint64) *SynthVoice {
	d := sv.Data
	var fn osc.Func
	if d.Sound == "supersaw" {
		voices, detune := 7, 0.02
		if d.Unison != nil {
			if d.Unison.Voices > 0 {
				voices = d.Unison.Voices
			}
			if d.Unison.Detune > 0 {
				detune = d.Unison.Detune
			}
		}
		fn = osc.Supersaw(voices, detune)
	} else {
		fn, _ = osc.ByName(d.Sound, int64(seq))
	}
	fn = osc.WithWarmth(fn, d.Warmth)
	return &SynthVoice{
		voiceCore: newVoiceCore(sv, sampleRate, seq),
		oscFn:     fn,
		phaseInc:  2 * math.Pi * d.FreqHz / float64(sampleRate),
	}
}

// Render generates the block overlap into the scratch buffer and mixes it
// into the orbit. It returns true when the voice is finished.
func (v *SynthVoice) Render(ctx *RenderContext) bool {
	offset, length := v.window(ctx)
	if length > 0 {
		mod := v.fillVibrato(ctx, offset, length)
		v.phase = v.oscFn(ctx.Scratch, offset, length, v.phase, v.phaseInc, mod)
		v.mix(ctx, offset, length)
	}
	return v.envelope.Done() || ctx.BlockStart+int64(ctx.BlockFrames) >= v.endFrame
}

// SampleVoice renders decoded PCM with linear interpolation.
type SampleVoice struct {
	voiceCore
	pcm   *voice.MonoSamplePcm
	ratio float64
	pos   float64
	done  bool
}

// NewSampleVoice builds a PCM voice. pitchHz is the recorded pitch of the
// sample (0 when unknown); the playback ratio retunes it to the voice's
// target frequency and resamples between the PCM and engine rates.
func NewSampleVoice(sv voice.ScheduledVoice, pcm *voice.MonoSamplePcm, pitchHz float64, sampleRate int, seq uint64) *SampleVoice {
	ratio := 1.0
	if pitchHz > 0 && sv.Data.FreqHz > 0 {
		ratio = sv.Data.FreqHz / pitchHz
	}
	if pcm.SampleRate > 0 {
		ratio *= float64(pcm.SampleRate) / float64(sampleRate)
	}
	return &SampleVoice{
		voiceCore: newVoiceCore(sv, sampleRate, seq),
		pcm:       pcm,
		ratio:     ratio,
	}
}

// Render interpolates the PCM into the scratch window and mixes it into
// the orbit. It returns true when the voice is finished, including when
// the PCM runs out before the envelope does.
func (v *SampleVoice) Render(ctx *RenderContext) bool {
	offset, length := v.window(ctx)
	if length > 0 && !v.done {
		mod := v.fillVibrato(ctx, offset, length)
		pcm := v.pcm.Pcm
		last := float64(len(pcm) - 1)
		for i := 0; i < length; i++ {
			if v.pos >= last {
				for j := i; j < length; j++ {
					ctx.Scratch[offset+j] = 0
				}
				v.done = true
				break
			}
			idx := int(v.pos)
			frac := v.pos - float64(idx)
			ctx.Scratch[offset+i] = float64(pcm[idx])*(1-frac) + float64(pcm[idx+1])*frac
			step := v.ratio
			if mod != nil {
				step *= mod[i]
			}
			v.pos += step
		}
		v.mix(ctx, offset, length)
	}
	return v.done || v.envelope.Done() || ctx.BlockStart+int64(ctx.BlockFrames) >= v.endFrame
}
