package audio

// HeadlessBackend produces no sound. The owner pulls blocks itself with
// Render, which makes it the backend for tests and offline rendering.
type HeadlessBackend struct {
	renderer BlockRenderer
	started  bool
}

// NewHeadlessBackend wraps a renderer without any device.
func NewHeadlessBackend(r BlockRenderer) *HeadlessBackend {
	return &HeadlessBackend{renderer: r}
}

func (b *HeadlessBackend) Start() error {
	b.started = true
	return nil
}

func (b *HeadlessBackend) Stop() error {
	b.started = false
	return nil
}

// Started reports whether Start has been called without a matching Stop.
func (b *HeadlessBackend) Started() bool { return b.started }

// Render drives n blocks through the renderer and returns the interleaved
// output.
func (b *HeadlessBackend) Render(n int) []int16 {
	frames := b.renderer.BlockFrames()
	out := make([]int16, 0, n*frames*2)
	block := make([]int16, frames*2)
	for i := 0; i < n; i++ {
		b.renderer.RenderBlock(block)
		out = append(out, block...)
	}
	return out
}
