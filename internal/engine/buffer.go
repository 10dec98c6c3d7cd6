// Package engine is the renderer side of the pipeline: voices, orbits,
// the scheduler, and the per-block renderer.
package engine

// StereoBuffer is a pair of equal-length sample arrays.
type StereoBuffer struct {
	Left  []float64
	Right []float64
}

// NewStereoBuffer allocates a zeroed stereo buffer of n frames.
func NewStereoBuffer(n int) *StereoBuffer {
	return &StereoBuffer{
		Left:  make([]float64, n),
		Right: make([]float64, n),
	}
}

// Frames returns the buffer length in frames.
func (b *StereoBuffer) Frames() int { return len(b.Left) }

// Clear zero-fills both channels.
func (b *StereoBuffer) Clear() {
	for i := range b.Left {
		b.Left[i] = 0
		b.Right[i] = 0
	}
}

// RenderContext carries the renderer-owned scratch state a voice borrows
// for the duration of one Render call.
type RenderContext struct {
	Scratch     []float64 // mono voice scratch, blockFrames long
	Mod         []float64 // phase modulation scratch, blockFrames long
	BlockStart  int64
	BlockFrames int
	Orbit       *Orbit
}
