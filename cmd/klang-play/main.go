package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	klang "github.com/peekandpoke/klang-go"
	"github.com/peekandpoke/klang-go/internal/pattern"
	"github.com/peekandpoke/klang-go/internal/samples"
	"github.com/peekandpoke/klang-go/internal/voice"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		blockSize  = flag.Int("block", 512, "frames per render block")
		cps        = flag.Float64("cps", 0.5, "cycles per second (tempo)")
		orbits     = flag.Int("orbits", 8, "maximum number of mix busses")
		backend    = flag.String("backend", "ebiten", "audio backend: ebiten|oto|headless")
		oscPort    = flag.Int("osc-port", 0, "listen for /klang/play events on this UDP port (0 = built-in demo pattern)")
		banksPath  = flag.String("banks", "", "path to a banks.json sample manifest")
		wavPath    = flag.String("wav", "", "render offline to this WAV file instead of playing")
		seconds    = flag.Float64("seconds", 8, "playback or render duration")
		debugLog   = flag.String("debug", "", "if set, write debug logs to this file; empty disables logging")
	)
	flag.Parse()

	if *debugLog != "" {
		f, err := os.Create(*debugLog)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.SetOutput(io.Discard)
	}

	var src pattern.Source
	if *oscPort > 0 {
		oscSrc := pattern.NewOSCSource(*oscPort)
		defer oscSrc.Close()
		src = oscSrc
		fmt.Printf("listening for /klang/play on udp %d\n", *oscPort)
	} else {
		src = demoPattern()
	}

	opts := []klang.PlayerOption{
		klang.WithSampleRate(*sampleRate),
		klang.WithBlockSize(*blockSize),
		klang.WithCyclesPerSecond(*cps),
		klang.WithMaxOrbits(*orbits),
		klang.WithBackend(klang.BackendKind(*backend)),
	}
	if *banksPath != "" {
		ix, err := samples.LoadManifest(*banksPath)
		if err != nil {
			log.Fatal(err)
		}
		opts = append(opts, klang.WithSampleIndex(ix))
	}

	pl, err := klang.NewPlayer(src, opts...)
	if err != nil {
		log.Fatal(err)
	}

	if *wavPath != "" {
		out := pl.RenderOffline(*seconds)
		data := klang.EncodeWAV(out, *sampleRate, 2)
		if err := os.WriteFile(*wavPath, data, 0o644); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s (%0.1fs)\n", *wavPath, *seconds)
		return
	}

	if err := pl.Start(context.Background()); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("playing for %0.1fs (ctrl-c to stop)\n", *seconds)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-time.After(time.Duration(*seconds * float64(time.Second))):
	case <-sig:
	}
	if err := pl.Stop(); err != nil {
		log.Printf("stop: %v", err)
	}
	fmt.Printf("stopped at frame %d\n", pl.CursorFrame())
}

// demoPattern is a one-cycle four-on-the-floor sketch played when no OSC
// source is configured.
func demoPattern() pattern.Source {
	num := voice.Number
	txt := voice.Text
	var events []pattern.Event
	for i := 0; i < 4; i++ {
		events = append(events, pattern.Event{
			StartCycle: float64(i) / 4,
			EndCycle:   float64(i)/4 + 0.1,
			PlaybackID: "bass",
			Params: map[string]voice.Value{
				"s":       txt("sine"),
				"note":    txt("a1"),
				"gain":    num(0.9),
				"release": num(0.05),
			},
		})
	}
	events = append(events,
		pattern.Event{
			StartCycle: 0,
			EndCycle:   0.9,
			PlaybackID: "pad",
			Params: map[string]voice.Value{
				"s":      txt("supersaw"),
				"note":   txt("a3"),
				"gain":   num(0.4),
				"orbit":  num(1),
				"cutoff": num(2000),
				"room":   num(0.3),
				"attack": num(0.1),
			},
		},
		pattern.Event{
			StartCycle: 0.5,
			EndCycle:   0.6,
			PlaybackID: "lead",
			Params: map[string]voice.Value{
				"s":     txt("triangle"),
				"note":  txt("e5"),
				"gain":  num(0.5),
				"orbit": num(1),
				"delay": num(0.4),
			},
		},
	)
	return pattern.NewStatic(events)
}
