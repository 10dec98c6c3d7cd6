// Package audio connects the renderer's block loop to an output device.
// The ebiten backend is the default; oto is a leaner alternative and the
// headless backend drives blocks by hand for tests and offline use.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// BlockRenderer produces interleaved L/R signed 16-bit blocks.
type BlockRenderer interface {
	RenderBlock(out []int16)
	BlockFrames() int
}

// Backend is an output device wrapping a BlockRenderer.
type Backend interface {
	Start() error
	Stop() error
}

// blockReader adapts a BlockRenderer to an io.Reader of 16-bit LE stereo
// bytes, the format both device backends consume. Reads of any size are
// served from an internal remainder so blocks stay intact.
type blockReader struct {
	mu        sync.Mutex
	renderer  BlockRenderer
	block     []int16
	remainder []byte
}

func newBlockReader(r BlockRenderer) *blockReader {
	return &blockReader{
		renderer: r,
		block:    make([]int16, r.BlockFrames()*2),
	}
}

func (b *blockReader) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for n < len(p) {
		if len(b.remainder) == 0 {
			b.renderer.RenderBlock(b.block)
			if cap(b.remainder) < len(b.block)*2 {
				b.remainder = make([]byte, len(b.block)*2)
			}
			b.remainder = b.remainder[:len(b.block)*2]
			for i, s := range b.block {
				binary.LittleEndian.PutUint16(b.remainder[i*2:], uint16(s))
			}
		}
		c := copy(p[n:], b.remainder)
		n += c
		b.remainder = b.remainder[c:]
	}
	return n, nil
}

func (b *blockReader) Close() error { return nil }

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// EbitenBackend plays through the shared ebiten audio context.
type EbitenBackend struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

// NewEbitenBackend creates the default realtime backend.
func NewEbitenBackend(sampleRate int, r BlockRenderer) (*EbitenBackend, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := newBlockReader(r)
	pl, err := ctx.NewPlayer(reader)
	if err != nil {
		return nil, err
	}
	return &EbitenBackend{player: pl, reader: reader}, nil
}

func (b *EbitenBackend) Start() error {
	b.player.Play()
	return nil
}

func (b *EbitenBackend) Stop() error {
	b.player.Pause()
	if err := b.player.Close(); err != nil {
		return err
	}
	return b.reader.Close()
}
