// Command vfxdemo runs the effect coordination engine against synthetic
// audio and performance signals, with the best available render backend
// registered as a participant.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/gogpu/vfx"
	"github.com/gogpu/vfx/backend"
	"github.com/gogpu/vfx/backend/gpu"

	_ "github.com/gogpu/vfx/backend/software"
)

// syntheticAudio fabricates a slow musical arc: energy swells, the beat
// speeds up, and the mood brightens over time.
type syntheticAudio struct {
	start time.Time
}

func (s *syntheticAudio) Sample() (vfx.AudioSample, error) {
	t := time.Since(s.start).Seconds()
	mood := vfx.MoodCalm
	if t > 10 {
		mood = vfx.MoodEnergetic
	}
	return vfx.AudioSample{
		PulseIntensity: 0.5 + 0.4*math.Sin(t*0.8),
		Energy:         0.3 + 0.3*math.Sin(t*0.25),
		TempoEstimate:  90 + 30*math.Sin(t*0.1),
		Mood:           mood,
		FlowDirection:  vfx.V2(math.Cos(t*0.2), math.Sin(t*0.2)),
	}, nil
}

// syntheticPerf reports a healthy mid-tier device.
type syntheticPerf struct{}

func (syntheticPerf) Sample() (vfx.PerformanceSample, error) {
	return vfx.PerformanceSample{
		Capability:         vfx.CapabilityMid,
		RecommendedQuality: vfx.QualityHigh,
	}, nil
}

// duskPalette is a fixed evening palette.
type duskPalette struct{}

func (duskPalette) Stops() []vfx.ColorStop {
	return []vfx.ColorStop{
		{Offset: 0.0, Color: vfx.RGB(0.05, 0.02, 0.15)},
		{Offset: 0.5, Color: vfx.RGB(0.8, 0.3, 0.2)},
		{Offset: 1.0, Color: vfx.RGB(1.0, 0.85, 0.5)},
	}
}

func main() {
	var (
		duration = flag.Duration("duration", 15*time.Second, "how long to run")
		width    = flag.Int("width", 800, "surface width")
		height   = flag.Int("height", 600, "surface height")
		simLoss  = flag.Bool("simulate-loss", false, "inject a context loss mid-run")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	vfx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	engine := vfx.NewEngine(
		vfx.WithAudioProvider(&syntheticAudio{start: time.Now()}),
		vfx.WithPerformanceProvider(syntheticPerf{}),
	)

	b, err := backend.InitDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "no backend available: %v\n", err)
		os.Exit(1)
	}
	defer b.Close()

	if r, ok := b.(*gpu.Renderer); ok {
		r.Resize(*width, *height)
	}

	if res := engine.Choreographer().Register(b); !res.Success {
		fmt.Fprintf(os.Stderr, "backend registration failed: %s\n", res.ErrorMessage)
		os.Exit(1)
	}

	sched := vfx.NewScheduler(engine)
	sched.Start()
	defer sched.Stop()

	// Mid-run choreography: shift the palette, then optionally yank the
	// context out from under the GPU backend to exercise recovery.
	time.AfterFunc(*duration/3, func() {
		engine.ChoreographEvent(vfx.EventPaletteShift, duskPalette{}.Stops())
	})
	if *simLoss {
		if r, ok := b.(*gpu.Renderer); ok {
			time.AfterFunc(*duration/2, r.NotifyContextLost)
			time.AfterFunc(*duration/2+300*time.Millisecond, r.NotifyContextRestored)
		}
	}

	time.Sleep(*duration)

	state := engine.State()
	fmt.Printf("backend: %s (phase %s)\n", b.Name(), b.Phase())
	fmt.Printf("ticks: %d\n", engine.TickCount())
	fmt.Printf("final state: intensity=%.2f energy=%.2f temp=%.0fK pulse=%.2fs quality=%.2f continuity=%.3f\n",
		state.MusicIntensity, state.EnergyLevel, state.ColorTemperature,
		state.PulseRate, state.AdaptiveQuality, state.ContinuityIndex)
}
