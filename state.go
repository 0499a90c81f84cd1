package vfx

import "time"

// Documented ranges for the bounded EffectState fields. Clamp enforces
// these after every mutation; no tick may publish a state outside them.
const (
	// MinColorTemperature and MaxColorTemperature bound the Kelvin-like
	// color temperature scale.
	MinColorTemperature = 1000.0
	MaxColorTemperature = 20000.0

	// MinPulseRate and MaxPulseRate bound the rhythmic pulse period in
	// seconds.
	MinPulseRate = 0.5
	MaxPulseRate = 4.0

	// MinScalingFactor and MaxScalingFactor bound the visual scaling
	// factor applied by backends.
	MinScalingFactor = 0.1
	MaxScalingFactor = 2.0
)

// PerformanceMode selects how aggressively backends trade visual quality
// for headroom.
type PerformanceMode uint8

const (
	// PerformanceAuto lets the engine follow the performance provider.
	PerformanceAuto PerformanceMode = iota

	// PerformanceQuality prefers visual quality over battery and thermals.
	PerformanceQuality

	// PerformanceBalanced is a middle ground.
	PerformanceBalanced

	// PerformancePowerSave prefers battery and thermals over quality.
	PerformancePowerSave
)

// String returns a human-readable name for the mode.
func (m PerformanceMode) String() string {
	switch m {
	case PerformanceAuto:
		return "auto"
	case PerformanceQuality:
		return "quality"
	case PerformanceBalanced:
		return "balanced"
	case PerformancePowerSave:
		return "powersave"
	default:
		return "unknown"
	}
}

// CapabilityTier classifies overall device capability as reported by the
// performance provider.
type CapabilityTier uint8

const (
	// CapabilityLow is a constrained device (integrated graphics, mobile).
	CapabilityLow CapabilityTier = iota

	// CapabilityMid is a mid-range device.
	CapabilityMid

	// CapabilityHigh is a high-end device (discrete GPU).
	CapabilityHigh
)

// String returns a human-readable name for the tier.
func (c CapabilityTier) String() string {
	switch c {
	case CapabilityLow:
		return "low"
	case CapabilityMid:
		return "mid"
	case CapabilityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// QualityTier is the discrete adaptive quality level shared between the
// engine and render backends. Tiers are ordered: a lower value is a
// cheaper rendering configuration.
type QualityTier uint8

const (
	// QualityEmergency is the cheapest configuration that still renders.
	QualityEmergency QualityTier = iota

	// QualityMinimal disables every optional feature.
	QualityMinimal

	// QualityLow reduces resolution and update rates.
	QualityLow

	// QualityMedium is the default tier.
	QualityMedium

	// QualityHigh enables the full feature set.
	QualityHigh
)

// String returns a human-readable name for the tier.
func (q QualityTier) String() string {
	switch q {
	case QualityEmergency:
		return "emergency"
	case QualityMinimal:
		return "minimal"
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// StepDown returns the tier lowered by n notches, clamped at
// QualityEmergency. Used after context-loss recovery to reduce the
// probability of a repeat loss.
func (q QualityTier) StepDown(n int) QualityTier {
	for ; n > 0 && q > QualityEmergency; n-- {
		q--
	}
	return q
}

// Normalized maps the tier onto [0, 1] for the AdaptiveQuality state field.
func (q QualityTier) Normalized() float64 {
	return float64(q) / float64(QualityHigh)
}

// DeviceCapabilities describes the rendering device the backends run on.
// It is carried in the state so every participant sees the same picture.
type DeviceCapabilities struct {
	// Tier is the coarse capability classification.
	Tier CapabilityTier

	// PixelRatio is the device pixel density multiplier for the render
	// surface.
	PixelRatio float64

	// MaxTextureSize is the maximum texture dimension supported, or zero
	// when unknown.
	MaxTextureSize int
}

// EffectState is the canonical, immutable-per-tick snapshot of the shared
// animation state. The engine is its only writer; participants receive it
// by value on broadcast and submit preferences through Contribution.
type EffectState struct {
	// MusicIntensity is the overall intensity of the driving audio, in [0, 1].
	MusicIntensity float64

	// FlowDirection is the direction of visual motion.
	FlowDirection Vec2

	// EnergyLevel is the sustained energy of the audio, in [0, 1].
	EnergyLevel float64

	// ColorTemperature is a Kelvin-like warmth scale in [1000, 20000].
	ColorTemperature float64

	// PulseRate is the rhythmic pulse period in seconds, in [0.5, 4.0].
	PulseRate float64

	// TransitionFluidity shapes how soft transitions feel, in [0, 1].
	TransitionFluidity float64

	// ScalingFactor scales rendered visuals, in [0.1, 2.0].
	ScalingFactor float64

	// AdaptiveQuality is the normalized quality level in [0, 1].
	AdaptiveQuality float64

	// Capabilities describes the rendering device.
	Capabilities DeviceCapabilities

	// Mode is the active performance mode.
	Mode PerformanceMode

	// Timestamp is the monotonic time of the tick that produced this
	// snapshot. It strictly increases across ticks.
	Timestamp time.Time

	// ContinuityIndex measures tick-to-tick stability in [0, 1]:
	// 1 means the state did not move at all this tick.
	ContinuityIndex float64
}

// DefaultState returns the state the engine starts from: a calm, neutral
// configuration with every field inside its documented range.
func DefaultState() EffectState {
	return EffectState{
		MusicIntensity:     0.5,
		FlowDirection:      V2(0, 1),
		EnergyLevel:        0.5,
		ColorTemperature:   6500,
		PulseRate:          2.0,
		TransitionFluidity: 0.7,
		ScalingFactor:      1.0,
		AdaptiveQuality:    QualityMedium.Normalized(),
		Capabilities: DeviceCapabilities{
			Tier:       CapabilityMid,
			PixelRatio: 1.0,
		},
		Mode:            PerformanceAuto,
		ContinuityIndex: 1.0,
	}
}

// Clamp returns a copy of the state with every bounded field forced into
// its documented range.
func (s EffectState) Clamp() EffectState {
	s.MusicIntensity = clamp01(s.MusicIntensity)
	s.EnergyLevel = clamp01(s.EnergyLevel)
	s.ColorTemperature = clamp(s.ColorTemperature, MinColorTemperature, MaxColorTemperature)
	s.PulseRate = clamp(s.PulseRate, MinPulseRate, MaxPulseRate)
	s.TransitionFluidity = clamp01(s.TransitionFluidity)
	s.ScalingFactor = clamp(s.ScalingFactor, MinScalingFactor, MaxScalingFactor)
	s.AdaptiveQuality = clamp01(s.AdaptiveQuality)
	s.ContinuityIndex = clamp01(s.ContinuityIndex)
	return s
}

// clamp01 clamps a value to [0, 1] range.
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// clamp clamps a value to [lo, hi] range.
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
