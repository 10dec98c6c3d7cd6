package samples

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/go-audio/wav"

	"github.com/peekandpoke/klang-go/internal/voice"
)

// Loaded is a fully resolved sample: descriptor plus decoded mono PCM.
type Loaded struct {
	Note    string
	PitchHz float64
	Pcm     *voice.MonoSamplePcm
}

// Registry resolves requests against an index and decodes WAV files off
// the audio path. Decoded PCM is cached by file path. All methods are safe
// for concurrent use; callbacks may run on the loader goroutine.
type Registry struct {
	index *Index

	mu       sync.Mutex
	pcmCache map[string]*voice.MonoSamplePcm
	inflight map[string]bool
}

// NewRegistry wraps an index in a loading registry.
func NewRegistry(index *Index) *Registry {
	return &Registry{
		index:    index,
		pcmCache: map[string]*voice.MonoSamplePcm{},
		inflight: map[string]bool{},
	}
}

// Has reports whether the request resolves to a known sample.
func (r *Registry) Has(req voice.SampleRequest) bool {
	_, ok := r.index.Resolve(req)
	return ok
}

// GetWithCallback resolves the request and invokes cb with the loaded
// sample, or with nil when the request cannot be served. The callback
// fires exactly once, possibly on a loader goroutine.
func (r *Registry) GetWithCallback(req voice.SampleRequest, cb func(*Loaded)) {
	s, ok := r.index.Resolve(req)
	if !ok {
		cb(nil)
		return
	}
	r.mu.Lock()
	if pcm, cached := r.pcmCache[s.Path]; cached {
		r.mu.Unlock()
		cb(&Loaded{Note: s.Note, PitchHz: s.PitchHz, Pcm: pcm})
		return
	}
	r.mu.Unlock()

	go func() {
		pcm, err := DecodeWav(s.Path)
		if err != nil {
			log.Printf("samples: decode %s: %v", s.Path, err)
			cb(nil)
			return
		}
		r.mu.Lock()
		r.pcmCache[s.Path] = pcm
		r.mu.Unlock()
		cb(&Loaded{Note: s.Note, PitchHz: s.PitchHz, Pcm: pcm})
	}()
}

// DecodeWav reads a WAV file and downmixes it to mono float32.
func DecodeWav(path string) (*voice.MonoSamplePcm, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("decode %s: empty pcm", path)
	}
	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	scale := 1.0
	if buf.SourceBitDepth > 0 {
		scale = 1.0 / float64(int(1)<<(buf.SourceBitDepth-1))
	}
	pcm := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var acc float64
		for c := 0; c < channels; c++ {
			acc += float64(buf.Data[i*channels+c])
		}
		pcm[i] = float32(acc / float64(channels) * scale)
	}
	return &voice.MonoSamplePcm{SampleRate: buf.Format.SampleRate, Pcm: pcm}, nil
}
