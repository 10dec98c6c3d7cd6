package audio

import (
	"github.com/ebitengine/oto/v3"
)

// OtoBackend plays straight through oto, without the ebiten context. It
// suits headless hosts that still want a sound card.
type OtoBackend struct {
	ctx    *oto.Context
	player *oto.Player
	reader *blockReader
}

// NewOtoBackend opens an oto context at the given rate.
func NewOtoBackend(sampleRate int, r BlockRenderer) (*OtoBackend, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready
	reader := newBlockReader(r)
	return &OtoBackend{
		ctx:    ctx,
		player: ctx.NewPlayer(reader),
		reader: reader,
	}, nil
}

func (b *OtoBackend) Start() error {
	b.player.Play()
	return nil
}

func (b *OtoBackend) Stop() error {
	b.player.Pause()
	if err := b.player.Close(); err != nil {
		return err
	}
	return b.reader.Close()
}
