package voice

import "math"

// ADSR holds envelope timings in seconds plus the sustain level (0..1).
type ADSR struct {
	AttackSec    float64
	DecaySec     float64
	SustainLevel float64
	ReleaseSec   float64
}

// ReleaseFrames returns the release stage length in frames at the given rate.
func (a ADSR) ReleaseFrames(sampleRate int) int64 {
	if a.ReleaseSec <= 0 {
		return 0
	}
	return int64(math.Round(a.ReleaseSec * float64(sampleRate)))
}

// FilterKind identifies an insert filter variant.
type FilterKind int

const (
	FilterLowPass FilterKind = iota
	FilterHighPass
)

// FilterSpec parameterises one insert filter stage.
type FilterSpec struct {
	Kind     FilterKind
	CutoffHz float64
	Q        float64
}

// DelayParams configures the orbit delay send for a voice.
type DelayParams struct {
	TimeSec  float64
	Feedback float64
	Amount   float64 // send level 0..1
}

// ReverbParams configures the orbit reverb send for a voice.
type ReverbParams struct {
	Room      float64 // send level 0..1
	RoomSize  float64 // 0..1, diffusion/time
	RoomLp    float64 // in-loop damping coefficient
	RoomFade  float64 // tail decay
	RoomDim   float64 // extra output damping
	IResponse float64 // wet mix
}

// PhaserParams configures the orbit insert phaser.
type PhaserParams struct {
	Rate     float64 // LFO Hz
	Depth    float64 // 0..1
	CenterHz float64
	Sweep    float64 // sweep range in Hz
}

// VibratoParams configures per-voice pitch modulation.
type VibratoParams struct {
	Rate  float64 // Hz
	Depth float64 // fraction of the base frequency
}

// CompressorParams configures the orbit compressor.
type CompressorParams struct {
	ThresholdDb float64
	Ratio       float64
	KneeDb      float64
	AttackSec   float64
	ReleaseSec  float64
}

// DuckingParams configures cross-orbit sidechain ducking.
type DuckingParams struct {
	OrbitID   int
	AttackSec float64
	Depth     float64 // 0..1, 0 = bypass
}

// UnisonParams configures supersaw-style detuned unison.
type UnisonParams struct {
	Voices int
	Detune float64 // fractional spread of phase increments
	Spread float64 // stereo spread 0..1
}

// SampleRequest addresses one sample in the index. The zero value asks for
// the default bank. Note is a note name ("c4", "a#3"); empty means pick by
// Index instead. SampleRequest is comparable and used as a map key.
type SampleRequest struct {
	Bank  string
	Sound string
	Note  string
	Index int
}

// MonoSamplePcm is immutable decoded sample data. Pitch and note name live
// on the sample descriptor in the index, not here.
type MonoSamplePcm struct {
	SampleRate int
	Pcm        []float32
}

// VoiceData is the full, planner-visible parameterisation of one voice.
// It is immutable once handed to the scheduler.
type VoiceData struct {
	Sound      string // oscillator kind or sample sound name
	FreqHz     float64
	ADSR       ADSR
	Filters    []FilterSpec
	Pan        float64 // -1..1
	Gain       float64 // >= 0
	Orbit      int
	Delay      *DelayParams
	Reverb     *ReverbParams
	Phaser     *PhaserParams
	Vibrato    *VibratoParams
	Compressor *CompressorParams
	Ducking    *DuckingParams
	Sample     *SampleRequest
	Unison     *UnisonParams
	Warmth     float64 // 0..1, 0 = off
}

// ScheduledVoice is a VoiceData bound to a time window, in seconds.
// The scheduler converts the times to frames on arrival.
type ScheduledVoice struct {
	PlaybackID        string
	Data              VoiceData
	StartTime         float64
	GateEndTime       float64
	PlaybackStartTime float64
}
