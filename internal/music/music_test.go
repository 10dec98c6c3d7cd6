package music

import (
	"math"
	"testing"
)

func TestMidiToFreq(t *testing.T) {
	if f := MidiToFreq(69); math.Abs(f-440) > 1e-9 {
		t.Errorf("A4 = %f, want 440", f)
	}
	if f := MidiToFreq(57); math.Abs(f-220) > 1e-9 {
		t.Errorf("A3 = %f, want 220", f)
	}
}

func TestParseNote(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"a4", 69},
		{"A4", 69},
		{"c4", 60},
		{"c#4", 61},
		{"db4", 61},
		{"b3", 59},
		{"eb2", 39},
		{"60", 60},
	}
	for _, c := range cases {
		got, err := ParseNote(c.in)
		if err != nil {
			t.Errorf("ParseNote(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseNote(%q) = %d, want %d", c.in, got, c.want)
		}
	}
	for _, bad := range []string{"", "h4", "c99", "200"} {
		if _, err := ParseNote(bad); err == nil {
			t.Errorf("ParseNote(%q) should fail", bad)
		}
	}
}
