package vfx

import (
	"math"
	"time"
)

// Easing selects the curve used to shape transition progress. The set is
// closed: dispatch goes through a fixed lookup table of pure functions,
// so adding a variant without a function is a compile-time error.
type Easing uint8

const (
	// EasingSmooth is the classic smoothstep curve.
	EasingSmooth Easing = iota

	// EasingHarmonic follows a half cosine wave.
	EasingHarmonic

	// EasingExponential approaches the target along a normalized
	// exponential decay.
	EasingExponential

	// EasingCubic is an ease-out cubic.
	EasingCubic

	numEasings
)

// easingFuncs maps each Easing variant to its pure curve function.
// Every function maps [0, 1] onto [0, 1] with f(0)=0 and f(1)=1.
var easingFuncs = [numEasings]func(float64) float64{
	EasingSmooth: func(t float64) float64 {
		return t * t * (3 - 2*t)
	},
	EasingHarmonic: func(t float64) float64 {
		return 0.5 - 0.5*math.Cos(math.Pi*t)
	},
	EasingExponential: func(t float64) float64 {
		const k = 6.0
		return (1 - math.Exp(-k*t)) / (1 - math.Exp(-k))
	},
	EasingCubic: func(t float64) float64 {
		u := 1 - t
		return 1 - u*u*u
	},
}

// String returns a human-readable name for the easing.
func (e Easing) String() string {
	switch e {
	case EasingSmooth:
		return "smooth"
	case EasingHarmonic:
		return "harmonic"
	case EasingExponential:
		return "exponential"
	case EasingCubic:
		return "cubic"
	default:
		return "unknown"
	}
}

// Ease applies the easing curve to t. Input is clamped to [0, 1] and
// unknown variants fall back to EasingSmooth.
func (e Easing) Ease(t float64) float64 {
	t = clamp01(t)
	if e >= numEasings {
		e = EasingSmooth
	}
	return easingFuncs[e](t)
}

// TransitionConfig controls how the engine blends the current state
// toward each tick's candidate state.
type TransitionConfig struct {
	// Easing is the progress-shaping curve.
	Easing Easing

	// Duration is the nominal length of a full transition. Together with
	// the tick interval it determines the base per-tick progress rate.
	Duration time.Duration

	// IntensityFactor scales per-tick progress. 1 is neutral.
	IntensityFactor float64

	// CoherenceThreshold is the ContinuityIndex below which backends may
	// treat the state as visually discontinuous (a stability signal only;
	// it never blocks updates).
	CoherenceThreshold float64
}

// DefaultTransition returns the transition configuration used when none
// is supplied.
func DefaultTransition() TransitionConfig {
	return TransitionConfig{
		Easing:             EasingSmooth,
		Duration:           800 * time.Millisecond,
		IntensityFactor:    1.0,
		CoherenceThreshold: 0.35,
	}
}
