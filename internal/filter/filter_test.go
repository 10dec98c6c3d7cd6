package filter

import (
	"math"
	"testing"
)

func sineBuf(freq float64, n int) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = math.Sin(2 * math.Pi * freq * float64(i) / 44100)
	}
	return buf
}

func rms(buf []float64) float64 {
	var sum float64
	for _, v := range buf {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(buf)))
}

func TestLowPassAttenuatesAboveCutoff(t *testing.T) {
	low := sineBuf(200, 4096)
	high := sineBuf(8000, 4096)
	NewLowPass(44100, 1000, 0.707).Process(low, 0, len(low))
	NewLowPass(44100, 1000, 0.707).Process(high, 0, len(high))
	if rms(low) < 0.5 {
		t.Errorf("low pass should keep 200 Hz, rms = %f", rms(low))
	}
	if rms(high) > 0.1 {
		t.Errorf("low pass should cut 8 kHz, rms = %f", rms(high))
	}
}

func TestHighPassAttenuatesBelowCutoff(t *testing.T) {
	low := sineBuf(100, 4096)
	high := sineBuf(8000, 4096)
	NewHighPass(44100, 2000, 0.707).Process(low, 0, len(low))
	NewHighPass(44100, 2000, 0.707).Process(high, 0, len(high))
	if rms(low) > 0.1 {
		t.Errorf("high pass should cut 100 Hz, rms = %f", rms(low))
	}
	if rms(high) < 0.5 {
		t.Errorf("high pass should keep 8 kHz, rms = %f", rms(high))
	}
}

func TestCombine(t *testing.T) {
	if _, ok := Combine(nil).(NoOp); !ok {
		t.Error("Combine(nil) should be NoOp")
	}
	lp := NewLowPass(44100, 500, 0.707)
	if got := Combine([]AudioFilter{lp}); got != lp {
		t.Error("Combine of one filter should return it unchanged")
	}
	if _, ok := Combine([]AudioFilter{lp, NoOp{}}).(*Chain); !ok {
		t.Error("Combine of two filters should return a Chain")
	}
}

func TestNoOpLeavesBuffer(t *testing.T) {
	buf := []float64{1, -0.5, 0.25}
	NoOp{}.Process(buf, 0, len(buf))
	if buf[0] != 1 || buf[1] != -0.5 || buf[2] != 0.25 {
		t.Error("NoOp must not modify the buffer")
	}
}

func TestSetCutoffRetunes(t *testing.T) {
	f := NewLowPass(44100, 8000, 0.707)
	buf := sineBuf(4000, 4096)
	f.Process(buf, 0, len(buf))
	open := rms(buf)
	f.SetCutoff(200)
	buf = sineBuf(4000, 4096)
	f.Process(buf, 0, len(buf))
	if closed := rms(buf); closed >= open {
		t.Errorf("lowering cutoff should attenuate more: open %f, closed %f", open, closed)
	}
}
