package gpu

import (
	"testing"

	"github.com/gogpu/vfx"
)

func TestProfilesDegradeMonotonically(t *testing.T) {
	// Stepping a tier down must never increase cost on any axis.
	for q := vfx.QualityHigh; q > vfx.QualityEmergency; q-- {
		hi := ProfileFor(q)
		lo := ProfileFor(q - 1)

		if lo.FrameInterval < hi.FrameInterval {
			t.Errorf("%s -> %s: frame interval decreased", q, q-1)
		}
		if lo.TextureMinInterval < hi.TextureMinInterval {
			t.Errorf("%s -> %s: texture interval decreased", q, q-1)
		}
		if lo.ResolutionScale > hi.ResolutionScale {
			t.Errorf("%s -> %s: resolution scale increased", q, q-1)
		}
		// Feature sets only shrink.
		if lo.Features&^hi.Features != 0 {
			t.Errorf("%s -> %s: gained features %b", q, q-1, lo.Features&^hi.Features)
		}
	}
}

func TestProfileForDeterministic(t *testing.T) {
	for q := vfx.QualityEmergency; q <= vfx.QualityHigh; q++ {
		if ProfileFor(q) != ProfileFor(q) {
			t.Errorf("ProfileFor(%s) not deterministic", q)
		}
	}
	// Unknown tiers get the emergency profile.
	if ProfileFor(vfx.QualityTier(99)) != ProfileFor(vfx.QualityEmergency) {
		t.Error("unknown tier did not map to emergency")
	}
}

func TestProfileFeatures(t *testing.T) {
	high := ProfileFor(vfx.QualityHigh)
	if !high.Has(FeatureTurbulence) || !high.Has(FeatureShimmer) || !high.Has(FeaturePulse) {
		t.Errorf("high profile missing features: %b", high.Features)
	}
	if ProfileFor(vfx.QualityEmergency).Features != 0 {
		t.Error("emergency profile has features enabled")
	}
}

func TestTierFromNormalizedRoundtrip(t *testing.T) {
	for q := vfx.QualityEmergency; q <= vfx.QualityHigh; q++ {
		if got := tierFromNormalized(q.Normalized()); got != q {
			t.Errorf("roundtrip %s -> %v -> %s", q, q.Normalized(), got)
		}
	}
	if got := tierFromNormalized(-0.5); got != vfx.QualityEmergency {
		t.Errorf("below zero = %s, want emergency", got)
	}
	if got := tierFromNormalized(3); got != vfx.QualityHigh {
		t.Errorf("above one = %s, want high", got)
	}
}

func TestEffectiveTier(t *testing.T) {
	tests := []struct {
		external, ceiling, want vfx.QualityTier
	}{
		{vfx.QualityHigh, vfx.QualityHigh, vfx.QualityHigh},
		{vfx.QualityHigh, vfx.QualityLow, vfx.QualityLow},
		{vfx.QualityMinimal, vfx.QualityHigh, vfx.QualityMinimal},
		{vfx.QualityEmergency, vfx.QualityMedium, vfx.QualityEmergency},
	}
	for _, tt := range tests {
		if got := effectiveTier(tt.external, tt.ceiling); got != tt.want {
			t.Errorf("effectiveTier(%s, %s) = %s, want %s",
				tt.external, tt.ceiling, got, tt.want)
		}
	}
}
