package klang

import "encoding/binary"

// RenderOffline runs the planner and renderer in lockstep without an
// audio device and returns the interleaved 16-bit output. The planner
// tick cadence follows the configured fetch period in rendered time
// rather than wall time.
func (p *Player) RenderOffline(seconds float64) []int16 {
	frames := int(seconds * float64(p.cfg.sampleRate))
	blockFrames := p.cfg.blockFrames
	blocks := (frames + blockFrames - 1) / blockFrames

	framesPerTick := int64(p.cfg.sampleRate*p.cfg.fetchPeriodMs) / 1000
	if framesPerTick < 1 {
		framesPerTick = 1
	}
	var nextTick int64

	out := make([]int16, 0, blocks*blockFrames*2)
	block := make([]int16, blockFrames*2)
	for b := 0; b < blocks; b++ {
		for p.renderer.CursorFrame() >= nextTick {
			p.fetcher.Tick()
			nextTick += framesPerTick
		}
		p.renderer.RenderBlock(block)
		out = append(out, block...)
	}
	return out
}

// EncodeWAV wraps interleaved 16-bit PCM in a WAV container.
func EncodeWAV(samples []int16, sampleRate, channels int) []byte {
	dataSize := len(samples) * 2
	byteRate := sampleRate * channels * 2
	blockAlign := channels * 2
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[44+i*2:], uint16(s))
	}
	return out
}
