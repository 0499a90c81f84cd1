package vfx

import "time"

// Option configures an Engine during creation.
// Use functional options to inject providers and tuning overrides.
//
// Example:
//
//	engine := vfx.NewEngine(
//	    vfx.WithAudioProvider(audio),
//	    vfx.WithTransition(vfx.TransitionConfig{Easing: vfx.EasingHarmonic}),
//	)
type Option func(*Engine)

// WithAudioProvider sets the audio-analysis signal provider.
func WithAudioProvider(p AudioProvider) Option {
	return func(e *Engine) {
		e.audio = p
	}
}

// WithPerformanceProvider sets the device performance signal provider.
func WithPerformanceProvider(p PerformanceProvider) Option {
	return func(e *Engine) {
		e.perf = p
	}
}

// WithTransition sets the transition configuration the engine blends with.
func WithTransition(cfg TransitionConfig) Option {
	return func(e *Engine) {
		e.transition = cfg
	}
}

// WithInitialState sets the state the engine starts from. The state is
// clamped to the documented ranges.
func WithInitialState(s EffectState) Option {
	return func(e *Engine) {
		e.state = s.Clamp()
	}
}

// WithTickInterval sets the nominal tick period. The default is 16ms.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tickInterval = d
		}
	}
}

// WithBaseRate sets the un-modulated per-tick transition progress.
// Values are clamped to (0, 1].
func WithBaseRate(rate float64) Option {
	return func(e *Engine) {
		if rate > 0 && rate <= 1 {
			e.baseRate = rate
		}
	}
}

// WithSmoothing sets the exponential weight contributions merge with,
// clamped to (0, 1].
func WithSmoothing(weight float64) Option {
	return func(e *Engine) {
		if weight > 0 && weight <= 1 {
			e.smoothing = weight
		}
	}
}

// SchedulerOption configures a Scheduler during creation.
type SchedulerOption func(*Scheduler)

// WithClock sets the clock driving the scheduler. Tests inject a
// deterministic clock here.
func WithClock(c Clock) SchedulerOption {
	return func(s *Scheduler) {
		if c != nil {
			s.clk = c
		}
	}
}

// WithFrameCallback adds a callback invoked after every tick with the
// freshly broadcast state. Hosts use this to drive presentation work
// that lives outside the participant set.
func WithFrameCallback(fn func(EffectState)) SchedulerOption {
	return func(s *Scheduler) {
		s.onFrame = fn
	}
}
