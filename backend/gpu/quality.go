package gpu

import (
	"time"

	"github.com/gogpu/vfx"
)

// Feature is a renderer feature bit enabled or disabled per quality tier.
type Feature uint8

const (
	// FeatureTurbulence enables the layered flow distortion.
	FeatureTurbulence Feature = 1 << iota

	// FeatureShimmer enables the energy-driven shimmer term.
	FeatureShimmer

	// FeaturePulse enables the pulse breathing term.
	FeaturePulse
)

// Profile is the deterministic render configuration for one quality
// tier. The same tier always yields the same profile.
type Profile struct {
	// FrameInterval is the minimum time between presented frames.
	FrameInterval time.Duration

	// TextureMinInterval is the throttle floor between gradient texture
	// rebuilds.
	TextureMinInterval time.Duration

	// ResolutionScale multiplies the surface size. 1.0 is native.
	ResolutionScale float64

	// Features is the enabled feature set.
	Features Feature
}

// Has reports whether the profile enables f.
func (p Profile) Has(f Feature) bool { return p.Features&f != 0 }

// profiles maps every quality tier to its profile. Tiers degrade
// monotonically: each step down never increases cost on any axis.
var profiles = map[vfx.QualityTier]Profile{
	vfx.QualityHigh: {
		FrameInterval:      time.Second / 60,
		TextureMinInterval: 150 * time.Millisecond,
		ResolutionScale:    1.0,
		Features:           FeatureTurbulence | FeatureShimmer | FeaturePulse,
	},
	vfx.QualityMedium: {
		FrameInterval:      time.Second / 45,
		TextureMinInterval: 250 * time.Millisecond,
		ResolutionScale:    1.0,
		Features:           FeatureTurbulence | FeaturePulse,
	},
	vfx.QualityLow: {
		FrameInterval:      time.Second / 30,
		TextureMinInterval: 500 * time.Millisecond,
		ResolutionScale:    0.75,
		Features:           FeaturePulse,
	},
	vfx.QualityMinimal: {
		FrameInterval:      time.Second / 20,
		TextureMinInterval: time.Second,
		ResolutionScale:    0.5,
		Features:           0,
	},
	vfx.QualityEmergency: {
		FrameInterval:      time.Second / 10,
		TextureMinInterval: 2 * time.Second,
		ResolutionScale:    0.25,
		Features:           0,
	},
}

// ProfileFor returns the render profile for a tier. Unknown tiers get
// the emergency profile.
func ProfileFor(tier vfx.QualityTier) Profile {
	if p, ok := profiles[tier]; ok {
		return p
	}
	return profiles[vfx.QualityEmergency]
}

// tierFromNormalized converts the coordinator's normalized adaptive
// quality back into a discrete tier. Inverse of QualityTier.Normalized.
func tierFromNormalized(q float64) vfx.QualityTier {
	if q <= 0 {
		return vfx.QualityEmergency
	}
	if q >= 1 {
		return vfx.QualityHigh
	}
	steps := float64(vfx.QualityHigh)
	return vfx.QualityTier(q*steps + 0.5)
}

// effectiveTier combines the externally requested tier with the
// internal ceiling imposed by recovery history. The stricter of the two
// wins.
func effectiveTier(external, ceiling vfx.QualityTier) vfx.QualityTier {
	if ceiling < external {
		return ceiling
	}
	return external
}
