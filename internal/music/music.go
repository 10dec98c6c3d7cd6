// Package music maps note names and MIDI numbers to frequencies.
package music

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var noteOffsets = map[byte]int{
	'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11,
}

// MidiToFreq converts a MIDI note number to Hz (A4 = 69 = 440 Hz).
func MidiToFreq(note float64) float64 {
	return 440 * math.Pow(2, (note-69)/12)
}

// ParseNote reads a note name such as "c4", "a#3", or "eb2" and returns
// its MIDI number. A bare integer is taken as a MIDI number directly.
func ParseNote(name string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return 0, fmt.Errorf("empty note name")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 127 {
			return 0, fmt.Errorf("midi note %d out of range", n)
		}
		return n, nil
	}
	offset, ok := noteOffsets[s[0]]
	if !ok {
		return 0, fmt.Errorf("bad note letter in %q", name)
	}
	rest := s[1:]
	for len(rest) > 0 {
		if rest[0] == '#' || rest[0] == 's' {
			offset++
			rest = rest[1:]
		} else if rest[0] == 'b' && len(rest) > 1 {
			// A trailing "b" with no octave digit is ambiguous with the
			// note b itself, so flats require the octave to follow.
			offset--
			rest = rest[1:]
		} else {
			break
		}
	}
	octave := 5
	if rest != "" {
		o, err := strconv.Atoi(rest)
		if err != nil {
			return 0, fmt.Errorf("bad octave in %q", name)
		}
		octave = o
	}
	midi := (octave+1)*12 + offset
	if midi < 0 || midi > 127 {
		return 0, fmt.Errorf("note %q out of midi range", name)
	}
	return midi, nil
}

// NoteToFreq resolves a note name straight to Hz.
func NoteToFreq(name string) (float64, error) {
	midi, err := ParseNote(name)
	if err != nil {
		return 0, err
	}
	return MidiToFreq(float64(midi)), nil
}
