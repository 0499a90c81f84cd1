package vfx

import (
	"math"
	"testing"
)

func TestEasingEndpoints(t *testing.T) {
	const eps = 1e-9
	for e := EasingSmooth; e < numEasings; e++ {
		if got := e.Ease(0); math.Abs(got) > eps {
			t.Errorf("%s.Ease(0) = %v, want 0", e, got)
		}
		if got := e.Ease(1); math.Abs(got-1) > eps {
			t.Errorf("%s.Ease(1) = %v, want 1", e, got)
		}
	}
}

func TestEasingMonotonic(t *testing.T) {
	const steps = 1000
	for e := EasingSmooth; e < numEasings; e++ {
		prev := e.Ease(0)
		for i := 1; i <= steps; i++ {
			cur := e.Ease(float64(i) / steps)
			if cur < prev {
				t.Fatalf("%s not monotonic at t=%v: %v < %v",
					e, float64(i)/steps, cur, prev)
			}
			prev = cur
		}
	}
}

func TestEasingClampsInput(t *testing.T) {
	for e := EasingSmooth; e < numEasings; e++ {
		if got := e.Ease(-5); got != e.Ease(0) {
			t.Errorf("%s.Ease(-5) = %v, want Ease(0)", e, got)
		}
		if got := e.Ease(7); got != e.Ease(1) {
			t.Errorf("%s.Ease(7) = %v, want Ease(1)", e, got)
		}
	}
}

func TestEasingUnknownFallsBackToSmooth(t *testing.T) {
	unknown := Easing(200)
	for _, tt := range []float64{0, 0.25, 0.5, 0.75, 1} {
		if got, want := unknown.Ease(tt), EasingSmooth.Ease(tt); got != want {
			t.Errorf("unknown easing at %v = %v, want smooth %v", tt, got, want)
		}
	}
}

func TestDefaultTransition(t *testing.T) {
	cfg := DefaultTransition()
	if cfg.IntensityFactor != 1.0 {
		t.Errorf("IntensityFactor = %v, want 1.0", cfg.IntensityFactor)
	}
	if cfg.Duration <= 0 {
		t.Error("Duration must be positive")
	}
	if cfg.CoherenceThreshold <= 0 || cfg.CoherenceThreshold >= 1 {
		t.Errorf("CoherenceThreshold = %v, want inside (0, 1)", cfg.CoherenceThreshold)
	}
}
