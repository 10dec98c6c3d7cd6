package pattern

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/hypebeast/go-osc/osc"

	"github.com/peekandpoke/klang-go/internal/voice"
)

// OSCSource collects events pushed over UDP by live-coding clients and
// serves them through the Source contract. Messages use the address
// "/klang/play" with arguments:
//
//	playbackID (string), startCycle (float), endCycle (float),
//	then alternating key (string) / value (float or string) pairs.
type OSCSource struct {
	server *osc.Server

	mu     sync.Mutex
	events []Event
}

// NewOSCSource starts a listener on the given UDP port.
func NewOSCSource(port int) *OSCSource {
	s := &OSCSource{}
	d := osc.NewStandardDispatcher()
	if err := d.AddMsgHandler("/klang/play", s.handlePlay); err != nil {
		log.Printf("osc: register handler: %v", err)
	}
	s.server = &osc.Server{
		Addr:       fmt.Sprintf("127.0.0.1:%d", port),
		Dispatcher: d,
	}
	go func() {
		if err := s.server.ListenAndServe(); err != nil {
			log.Printf("osc: server stopped: %v", err)
		}
	}()
	return s
}

// Close shuts the listener down.
func (s *OSCSource) Close() error {
	if s.server != nil {
		return s.server.CloseConnection()
	}
	return nil
}

func (s *OSCSource) handlePlay(msg *osc.Message) {
	if len(msg.Arguments) < 3 {
		log.Printf("osc: short /klang/play message (%d args)", len(msg.Arguments))
		return
	}
	id, ok := msg.Arguments[0].(string)
	if !ok {
		return
	}
	start, ok := numArg(msg.Arguments[1])
	if !ok {
		return
	}
	end, ok := numArg(msg.Arguments[2])
	if !ok {
		return
	}
	ev := Event{
		PlaybackID: id,
		StartCycle: start,
		EndCycle:   end,
		Params:     map[string]voice.Value{},
	}
	rest := msg.Arguments[3:]
	for i := 0; i+1 < len(rest); i += 2 {
		key, ok := rest[i].(string)
		if !ok {
			continue
		}
		switch v := rest[i+1].(type) {
		case string:
			ev.Params[key] = voice.Text(v)
		case float32:
			ev.Params[key] = voice.Number(float64(v))
		case float64:
			ev.Params[key] = voice.Number(v)
		case int32:
			ev.Params[key] = voice.Number(float64(v))
		case int64:
			ev.Params[key] = voice.Number(float64(v))
		}
	}
	s.Push(ev)
}

// numArg reads a numeric OSC argument as float64.
func numArg(arg any) (float64, bool) {
	switch v := arg.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Push adds one event; exported so local producers can feed the source
// without a socket.
func (s *OSCSource) Push(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	sort.SliceStable(s.events, func(i, j int) bool { return s.events[i].StartCycle < s.events[j].StartCycle })
}

// Query returns buffered events in [fromCycles, toCycles). The buffer is
// left untouched so overlapping look-ahead queries see the same events.
func (s *OSCSource) Query(fromCycles, toCycles float64) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, ev := range s.events {
		if ev.StartCycle >= fromCycles && ev.StartCycle < toCycles {
			out = append(out, ev)
		}
	}
	return out
}

// Prune discards events that start before the given cycle. Query never
// removes events, so pushed events stay buffered until Prune is called.
func (s *OSCSource) Prune(beforeCycles float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.events[:0]
	for _, ev := range s.events {
		if ev.StartCycle >= beforeCycles {
			kept = append(kept, ev)
		}
	}
	s.events = kept
}
