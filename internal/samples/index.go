// Package samples resolves sample requests against a bank index and loads
// WAV data for the renderer.
package samples

import (
	"fmt"
	"os"
	"sort"

	jsoniter "github.com/json-iterator/go"

	"github.com/peekandpoke/klang-go/internal/music"
	"github.com/peekandpoke/klang-go/internal/voice"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sample describes one PCM file in a sound. Pitch lives here, not on the
// decoded data.
type Sample struct {
	Path    string  `json:"path"`
	Note    string  `json:"note,omitempty"`
	PitchHz float64 `json:"pitchHz,omitempty"`
}

// Sound is a named set of samples, kept sorted by pitch.
type Sound struct {
	Key     string
	Samples []Sample
}

// Bank groups sounds under one name.
type Bank struct {
	Name   string
	Sounds map[string]*Sound
}

// Index is the full sample catalogue: banks by name plus bank aliases.
type Index struct {
	Banks   map[string]*Bank
	Aliases map[string]string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		Banks:   map[string]*Bank{},
		Aliases: map[string]string{},
	}
}

// Add inserts one sample under bank/sound, creating both as needed and
// keeping the sound's samples sorted by pitch.
func (ix *Index) Add(bank, sound string, s Sample) {
	if s.PitchHz == 0 && s.Note != "" {
		if hz, err := music.NoteToFreq(s.Note); err == nil {
			s.PitchHz = hz
		}
	}
	b, ok := ix.Banks[bank]
	if !ok {
		b = &Bank{Name: bank, Sounds: map[string]*Sound{}}
		ix.Banks[bank] = b
	}
	snd, ok := b.Sounds[sound]
	if !ok {
		snd = &Sound{Key: sound}
		b.Sounds[sound] = snd
	}
	snd.Samples = append(snd.Samples, s)
	sort.SliceStable(snd.Samples, func(i, j int) bool {
		return snd.Samples[i].PitchHz < snd.Samples[j].PitchHz
	})
}

// Alias maps an alternative bank name onto an existing one.
func (ix *Index) Alias(alias, bank string) {
	ix.Aliases[alias] = bank
}

// Resolve picks the sample for a request. Resolution is deterministic and
// total: a missing bank or sound yields (zero, false).
func (ix *Index) Resolve(req voice.SampleRequest) (Sample, bool) {
	bank, ok := ix.Banks[req.Bank]
	if !ok {
		if target, aliased := ix.Aliases[req.Bank]; aliased {
			bank, ok = ix.Banks[target]
		}
	}
	if !ok || bank == nil {
		return Sample{}, false
	}
	sound, ok := bank.Sounds[req.Sound]
	if !ok || len(sound.Samples) == 0 {
		return Sample{}, false
	}
	if req.Note != "" {
		targetHz, err := music.NoteToFreq(req.Note)
		if err == nil {
			for _, s := range sound.Samples {
				if s.PitchHz >= targetHz {
					return s, true
				}
			}
			return sound.Samples[len(sound.Samples)-1], true
		}
	}
	idx := req.Index % len(sound.Samples)
	if idx < 0 {
		idx += len(sound.Samples)
	}
	return sound.Samples[idx], true
}

// manifest is the on-disk shape of banks.json.
type manifest struct {
	Banks   map[string]map[string][]Sample `json:"banks"`
	Aliases map[string]string              `json:"aliases"`
}

// LoadManifest reads a bank manifest from path and merges it into a fresh
// index.
func LoadManifest(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	ix := NewIndex()
	for bankName, sounds := range m.Banks {
		for soundKey, list := range sounds {
			for _, s := range list {
				ix.Add(bankName, soundKey, s)
			}
		}
	}
	for alias, bank := range m.Aliases {
		ix.Alias(alias, bank)
	}
	return ix, nil
}
