package samples

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/peekandpoke/klang-go/internal/voice"
)

func buildIndex() *Index {
	ix := NewIndex()
	ix.Add("drums", "bd", Sample{Path: "bd0.wav"})
	ix.Add("drums", "bd", Sample{Path: "bd1.wav"})
	ix.Add("drums", "bd", Sample{Path: "bd2.wav"})
	ix.Add("keys", "piano", Sample{Path: "p-c3.wav", Note: "c3"})
	ix.Add("keys", "piano", Sample{Path: "p-c4.wav", Note: "c4"})
	ix.Add("keys", "piano", Sample{Path: "p-c5.wav", Note: "c5"})
	ix.Alias("percussion", "drums")
	return ix
}

func TestResolveByIndex(t *testing.T) {
	ix := buildIndex()
	cases := []struct {
		index int
		want  string
	}{
		{0, "bd0.wav"},
		{1, "bd1.wav"},
		{3, "bd0.wav"},
		{5, "bd2.wav"},
	}
	for _, c := range cases {
		s, ok := ix.Resolve(voice.SampleRequest{Bank: "drums", Sound: "bd", Index: c.index})
		if !ok || s.Path != c.want {
			t.Errorf("index %d -> (%q, %v), want %q", c.index, s.Path, ok, c.want)
		}
	}
}

func TestResolveByNotePicksFirstAtOrAbove(t *testing.T) {
	ix := buildIndex()
	s, ok := ix.Resolve(voice.SampleRequest{Bank: "keys", Sound: "piano", Note: "d3"})
	if !ok || s.Path != "p-c4.wav" {
		t.Errorf("d3 -> %q, want p-c4.wav (first pitch >= target)", s.Path)
	}
	s, ok = ix.Resolve(voice.SampleRequest{Bank: "keys", Sound: "piano", Note: "c3"})
	if !ok || s.Path != "p-c3.wav" {
		t.Errorf("c3 -> %q, want exact p-c3.wav", s.Path)
	}
	s, ok = ix.Resolve(voice.SampleRequest{Bank: "keys", Sound: "piano", Note: "c8"})
	if !ok || s.Path != "p-c5.wav" {
		t.Errorf("c8 -> %q, want highest p-c5.wav", s.Path)
	}
}

func TestResolveThroughAlias(t *testing.T) {
	ix := buildIndex()
	s, ok := ix.Resolve(voice.SampleRequest{Bank: "percussion", Sound: "bd"})
	if !ok || s.Path != "bd0.wav" {
		t.Errorf("alias resolve -> (%q, %v), want bd0.wav", s.Path, ok)
	}
}

func TestResolveMissing(t *testing.T) {
	ix := buildIndex()
	if _, ok := ix.Resolve(voice.SampleRequest{Bank: "nope", Sound: "bd"}); ok {
		t.Error("unknown bank should not resolve")
	}
	if _, ok := ix.Resolve(voice.SampleRequest{Bank: "drums", Sound: "zap"}); ok {
		t.Error("unknown sound should not resolve")
	}
}

func TestRegistryCallbackOnMissing(t *testing.T) {
	r := NewRegistry(buildIndex())
	done := make(chan *Loaded, 1)
	r.GetWithCallback(voice.SampleRequest{Bank: "nope", Sound: "bd"}, func(l *Loaded) {
		done <- l
	})
	if l := <-done; l != nil {
		t.Errorf("missing sample should call back with nil, got %+v", l)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "banks.json")
	data := `{
		"banks": {
			"drums": {"bd": [{"path": "bd0.wav"}, {"path": "bd1.wav"}]},
			"keys": {"piano": [{"path": "p.wav", "note": "c4"}]}
		},
		"aliases": {"kit": "drums"}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	ix, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if _, ok := ix.Resolve(voice.SampleRequest{Bank: "kit", Sound: "bd", Index: 1}); !ok {
		t.Error("manifest alias should resolve")
	}
	s, ok := ix.Resolve(voice.SampleRequest{Bank: "keys", Sound: "piano", Note: "c4"})
	if !ok || s.PitchHz < 260 || s.PitchHz > 263 {
		t.Errorf("note pitch should be derived from the manifest note, got %f", s.PitchHz)
	}
}
