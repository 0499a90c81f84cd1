// Package vfx coordinates multiple real-time render backends so they
// animate in mutually consistent synchrony, driven by audio-analysis
// signals and device performance telemetry.
//
// # Overview
//
// vfx maintains one canonical animation state (EffectState) that evolves
// on a fixed tick. Signal providers feed the state evolution engine,
// registered participants propose partial contributions, and every tick
// the blended result is broadcast to all participants in stable
// registration order. Render backends (see backend/) are participants
// that consume the broadcast state and draw.
//
// # Quick Start
//
//	engine := vfx.NewEngine(
//	    vfx.WithAudioProvider(audio),
//	    vfx.WithPerformanceProvider(perf),
//	)
//	engine.Choreographer().Register(myBackend)
//
//	sched := vfx.NewScheduler(engine)
//	sched.Start()
//	defer sched.Stop()
//
// # Architecture
//
// The library is organized into:
//   - Public API: EffectState, Contribution, Engine, Choreographer, Scheduler
//   - backend/: render backend contract, lifecycle phases, priority registry
//   - backend/gpu/: resilient GPU gradient backend (gogpu/wgpu)
//   - backend/software/: CPU fallback backend
//
// # Concurrency Model
//
// The engine is the single writer of the canonical state. The state tick
// and the render step share one periodic loop; participants receive
// value-type snapshots on broadcast and never mutate canonical state.
// Nothing blocks: backoff delays, debounce windows, and throttle
// intervals are scheduled callbacks.
//
// # Logging
//
// vfx produces no log output by default. Call SetLogger to enable
// structured logging via log/slog.
package vfx

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"
)
