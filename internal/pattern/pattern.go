// Package pattern defines the event-source contract the planner queries,
// plus two adapters: a static looping pattern and an OSC receiver.
package pattern

import (
	"sort"

	"github.com/peekandpoke/klang-go/internal/voice"
)

// Event is one musical event in cycle time. Params carry the per-event
// controls (sound, note, gain, pan, orbit, effect sends) as loosely typed
// values.
type Event struct {
	StartCycle float64
	EndCycle   float64
	PlaybackID string
	Params     map[string]voice.Value
}

// Source yields the events whose start lies in the half-open range
// [fromCycles, toCycles), sorted by start. Query must be pure with
// respect to the range and may run concurrently with rendering, but is
// never re-entered.
type Source interface {
	Query(fromCycles, toCycles float64) []Event
}

// Static is a fixed one-cycle pattern repeated forever. Each stored event
// has a start inside [0, 1); Query shifts copies into every whole cycle
// the range overlaps.
type Static struct {
	events []Event
}

// NewStatic builds a looping pattern. Event starts are folded into [0, 1).
func NewStatic(events []Event) *Static {
	list := make([]Event, len(events))
	copy(list, events)
	for i := range list {
		length := list[i].EndCycle - list[i].StartCycle
		start := fold(list[i].StartCycle)
		list[i].StartCycle = start
		list[i].EndCycle = start + length
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].StartCycle < list[j].StartCycle })
	return &Static{events: list}
}

func fold(c float64) float64 {
	c -= float64(int64(c))
	if c < 0 {
		c++
	}
	return c
}

// Query returns the events of every cycle iteration overlapping the
// range, shifted into absolute cycle time and sorted by start.
func (s *Static) Query(fromCycles, toCycles float64) []Event {
	if toCycles <= fromCycles || len(s.events) == 0 {
		return nil
	}
	var out []Event
	first := int64(fromCycles)
	if fromCycles < 0 && fromCycles != float64(first) {
		first--
	}
	for cycle := first; float64(cycle) < toCycles; cycle++ {
		base := float64(cycle)
		for _, ev := range s.events {
			start := base + ev.StartCycle
			if start < fromCycles || start >= toCycles {
				continue
			}
			shifted := ev
			shifted.StartCycle = start
			shifted.EndCycle = base + ev.EndCycle
			out = append(out, shifted)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartCycle < out[j].StartCycle })
	return out
}
