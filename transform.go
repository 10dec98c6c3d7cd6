package klang

import (
	"strconv"
	"strings"

	"github.com/peekandpoke/klang-go/internal/fetch"
	"github.com/peekandpoke/klang-go/internal/fx"
	"github.com/peekandpoke/klang-go/internal/music"
	"github.com/peekandpoke/klang-go/internal/pattern"
	"github.com/peekandpoke/klang-go/internal/voice"
)

// oscillatorKinds are the sound names that resolve to a synth voice;
// every other sound is treated as a sample lookup.
var oscillatorKinds = map[string]bool{
	"sine": true, "sin": true,
	"sawtooth": true, "saw": true, "supersaw": true,
	"square": true, "sqr": true,
	"triangle": true, "tri": true,
	"white": true, "pink": true, "brown": true,
	"impulse": true,
}

// EventToVoice returns the default transform from pattern events to
// scheduled voices. Parameter names follow the usual live-coding
// conventions: s/sound, note or freq, gain, pan, orbit, attack, decay,
// sustain, release, cutoff/resonance, hcutoff, delay/delaytime/
// delayfeedback, room/size, and so on. A sound like "bd:3" picks the
// fourth sample of the bd sound.
func EventToVoice(cyclesPerSecond float64) fetch.Transform {
	return func(ev pattern.Event) (voice.ScheduledVoice, bool) {
		get := func(key string) (voice.Value, bool) {
			v, ok := ev.Params[key]
			return v, ok
		}
		num := func(key string, def float64) float64 {
			if v, ok := get(key); ok {
				if f, ok := v.ParseAsDouble(); ok {
					return f
				}
			}
			return def
		}

		sound := ""
		if v, ok := get("s"); ok {
			sound = v.String()
		} else if v, ok := get("sound"); ok {
			sound = v.String()
		}
		if sound == "" {
			return voice.ScheduledVoice{}, false
		}

		d := voice.VoiceData{
			Gain:  num("gain", 1),
			Pan:   num("pan", 0),
			Orbit: int(num("orbit", 0)),
			ADSR: voice.ADSR{
				AttackSec:    num("attack", 0.001),
				DecaySec:     num("decay", 0),
				SustainLevel: num("sustain", 1),
				ReleaseSec:   num("release", 0.01),
			},
			Warmth: num("warmth", 0),
		}

		freq := num("freq", 0)
		noteName := ""
		if v, ok := get("note"); ok {
			if f, isNum := v.ParseAsDouble(); isNum {
				freq = music.MidiToFreq(f)
			} else {
				noteName = v.String()
				if hz, err := music.NoteToFreq(noteName); err == nil {
					freq = hz
				}
			}
		}
		d.FreqHz = freq

		name, index := splitSoundIndex(sound)
		if oscillatorKinds[name] {
			d.Sound = name
			if d.FreqHz == 0 {
				d.FreqHz = 440
			}
			if name == "supersaw" {
				voices := int(num("unison", 7))
				d.Unison = &voice.UnisonParams{
					Voices: voices,
					Detune: num("detune", 0.02),
					Spread: num("spread", 0),
				}
			}
		} else {
			bank := ""
			if v, ok := get("bank"); ok {
				bank = v.String()
			}
			d.Sound = name
			d.Sample = &voice.SampleRequest{
				Bank:  bank,
				Sound: name,
				Note:  noteName,
				Index: index,
			}
		}

		var filters []voice.FilterSpec
		if cutoff := num("cutoff", 0); cutoff > 0 {
			filters = append(filters, voice.FilterSpec{
				Kind: voice.FilterLowPass, CutoffHz: cutoff, Q: num("resonance", 0.707),
			})
		}
		if hcutoff := num("hcutoff", 0); hcutoff > 0 {
			filters = append(filters, voice.FilterSpec{
				Kind: voice.FilterHighPass, CutoffHz: hcutoff, Q: num("hresonance", 0.707),
			})
		}
		d.Filters = filters

		if amount := num("delay", 0); amount > 0 {
			d.Delay = &voice.DelayParams{
				Amount:   amount,
				TimeSec:  num("delaytime", 0.25),
				Feedback: num("delayfeedback", 0.4),
			}
		}
		if room := num("room", 0); room > 0 {
			d.Reverb = &voice.ReverbParams{
				Room:      room,
				RoomSize:  num("size", 0.5),
				RoomLp:    num("roomlp", 0.2),
				RoomFade:  num("roomfade", 0.7),
				RoomDim:   num("roomdim", 0),
				IResponse: num("iresponse", 1),
			}
		}
		if depth := num("phaserdepth", 0); depth > 0 {
			d.Phaser = &voice.PhaserParams{
				Rate:     num("phaserrate", 0.5),
				Depth:    depth,
				CenterHz: num("phasercenter", 1000),
				Sweep:    num("phasersweep", 600),
			}
		}
		if depth := num("vibrato", 0); depth > 0 {
			d.Vibrato = &voice.VibratoParams{
				Rate:  num("vibratorate", 5),
				Depth: depth,
			}
		}
		if v, ok := get("compressor"); ok {
			d.Compressor = parseCompressorValue(v)
		}
		if depth := num("duck", 0); depth > 0 {
			d.Ducking = &voice.DuckingParams{
				OrbitID:   int(num("duckorbit", 0)),
				AttackSec: num("duckattack", 0.01),
				Depth:     depth,
			}
		}

		playbackID := ev.PlaybackID
		if playbackID == "" {
			playbackID = name
		}
		return voice.ScheduledVoice{
			PlaybackID:        playbackID,
			Data:              d,
			StartTime:         ev.StartCycle / cyclesPerSecond,
			GateEndTime:       ev.EndCycle / cyclesPerSecond,
			PlaybackStartTime: ev.StartCycle / cyclesPerSecond,
		}, true
	}
}

// splitSoundIndex splits "bd:3" into ("bd", 3). Without a suffix the
// index is 0.
func splitSoundIndex(s string) (string, int) {
	if i := strings.LastIndex(s, ":"); i > 0 {
		if n, err := strconv.Atoi(s[i+1:]); err == nil {
			return s[:i], n
		}
	}
	return s, 0
}

// parseCompressorValue accepts the "thr:ratio[:knee[:attack[:release]]]"
// settings string; malformed input leaves the compressor off.
func parseCompressorValue(v voice.Value) *voice.CompressorParams {
	s := fx.ParseCompressorSettings(v.String())
	if s == nil {
		return nil
	}
	return &voice.CompressorParams{
		ThresholdDb: s.ThresholdDb,
		Ratio:       s.Ratio,
		KneeDb:      s.KneeDb,
		AttackSec:   s.AttackSec,
		ReleaseSec:  s.ReleaseSec,
	}
}
