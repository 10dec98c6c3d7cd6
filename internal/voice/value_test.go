package voice

import "testing"

func TestValueParseAsDouble(t *testing.T) {
	cases := []struct {
		v    Value
		want float64
		ok   bool
	}{
		{Number(3.5), 3.5, true},
		{Number(0), 0, true},
		{Text("42"), 42, true},
		{Text(" -0.25 "), -0.25, true},
		{Text("kick"), 0, false},
		{Text(""), 0, false},
	}
	for _, c := range cases {
		got, ok := c.v.ParseAsDouble()
		if got != c.want || ok != c.ok {
			t.Errorf("ParseAsDouble(%q) = (%v, %v), want (%v, %v)", c.v.String(), got, ok, c.want, c.ok)
		}
	}
}

func TestValueTruthy(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Number(1), true},
		{Number(0), false},
		{Number(-0.5), true},
		{Text("yes"), true},
		{Text("false"), false},
		{Text("FALSE"), false},
		{Text(""), false},
		{Text("0"), false},
		{Text("0.0"), false},
		{Text("2"), true},
	}
	for _, c := range cases {
		if got := c.v.Truthy(); got != c.want {
			t.Errorf("Truthy(%q) = %v, want %v", c.v.String(), got, c.want)
		}
	}
}

func TestADSRReleaseFrames(t *testing.T) {
	a := ADSR{ReleaseSec: 0.5}
	if got := a.ReleaseFrames(44100); got != 22050 {
		t.Errorf("ReleaseFrames = %d, want 22050", got)
	}
	if got := (ADSR{}).ReleaseFrames(44100); got != 0 {
		t.Errorf("zero release frames = %d, want 0", got)
	}
}
