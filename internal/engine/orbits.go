package engine

import "github.com/peekandpoke/klang-go/internal/voice"

// MaxOrbitLimit caps the orbit count regardless of configuration.
const MaxOrbitLimit = 32

// Orbits is the bounded set of mix busses, addressed by integer ID.
// Voices targeting id i land in bucket i mod maxOrbits. Iteration order
// is ascending bucket index, which keeps mixing and cleanup stable.
type Orbits struct {
	sampleRate    int
	blockFrames   int
	maxOrbits     int
	slots         []*Orbit // nil until first voice assignment
	cleanupCursor int
}

// NewOrbits creates the collection; maxOrbits is coerced into [1, 32].
func NewOrbits(sampleRate, blockFrames, maxOrbits int) *Orbits {
	if maxOrbits < 1 {
		maxOrbits = 1
	}
	if maxOrbits > MaxOrbitLimit {
		maxOrbits = MaxOrbitLimit
	}
	return &Orbits{
		sampleRate:  sampleRate,
		blockFrames: blockFrames,
		maxOrbits:   maxOrbits,
		slots:       make([]*Orbit, maxOrbits),
	}
}

// MaxOrbits returns the configured bound.
func (os *Orbits) MaxOrbits() int { return os.maxOrbits }

func (os *Orbits) bucket(id int) int {
	b := id % os.maxOrbits
	if b < 0 {
		b += os.maxOrbits
	}
	return b
}

// Get returns the orbit for id, or nil if it has never been initialised.
func (os *Orbits) Get(id int) *Orbit {
	return os.slots[os.bucket(id)]
}

// GetOrInit returns the orbit for id, creating it lazily on first voice
// assignment.
func (os *Orbits) GetOrInit(id int) *Orbit {
	b := os.bucket(id)
	if os.slots[b] == nil {
		os.slots[b] = NewOrbit(b, os.sampleRate, os.blockFrames)
	}
	return os.slots[b]
}

// ClearAll zero-fills every initialised orbit's buffers.
func (os *Orbits) ClearAll() {
	for _, o := range os.slots {
		if o != nil {
			o.Clear()
		}
	}
}

// ProcessAndMix runs each active orbit's effects, applies cross-orbit
// ducking, retires one silent orbit, and sums the survivors into master.
// Master is written only here.
func (os *Orbits) ProcessAndMix(master *StereoBuffer) {
	for _, o := range os.slots {
		if o == nil || !o.isActive {
			continue
		}
		o.ProcessEffects()
	}

	// Ducking reads the sidechain orbit's buffers after its effects ran;
	// a missing sidechain orbit is a no-op.
	for _, o := range os.slots {
		if o == nil || !o.isActive || !o.HasDucking() {
			continue
		}
		side := os.Get(o.DuckOrbitID)
		if side == nil || side == o {
			continue
		}
		o.Duck(side.Mix)
	}

	// Round-robin cleanup: exactly one orbit per block, so the worst-case
	// block cost stays bounded by the block length.
	slot := os.cleanupCursor % os.maxOrbits
	os.cleanupCursor++
	if o := os.slots[slot]; o != nil {
		o.TryDeactivate()
	}

	for _, o := range os.slots {
		if o == nil || !o.isActive {
			continue
		}
		for i := range master.Left {
			master.Left[i] += o.Mix.Left[i]
			master.Right[i] += o.Mix.Right[i]
		}
	}
}

// orbitForVoice prepares the orbit for one rendering voice.
func (os *Orbits) orbitForVoice(d *voice.VoiceData, block int64) *Orbit {
	o := os.GetOrInit(d.Orbit)
	o.UpdateFromVoice(d, block)
	return o
}
