package vfx

// Mood classifies the emotional character of the driving audio as
// reported by the audio-analysis provider.
type Mood uint8

const (
	// MoodNeutral is the default when analysis is inconclusive.
	MoodNeutral Mood = iota

	// MoodCalm is low-energy, ambient material.
	MoodCalm

	// MoodMelancholic is low-energy, dark material.
	MoodMelancholic

	// MoodEnergetic is high-energy, bright material.
	MoodEnergetic

	// MoodEuphoric is peak-energy material.
	MoodEuphoric
)

// String returns a human-readable name for the mood.
func (m Mood) String() string {
	switch m {
	case MoodNeutral:
		return "neutral"
	case MoodCalm:
		return "calm"
	case MoodMelancholic:
		return "melancholic"
	case MoodEnergetic:
		return "energetic"
	case MoodEuphoric:
		return "euphoric"
	default:
		return "unknown"
	}
}

// AudioSample is one tick's worth of audio-analysis features.
type AudioSample struct {
	// PulseIntensity is the instantaneous beat strength, in [0, 1].
	PulseIntensity float64

	// Energy is the sustained loudness/energy, in [0, 1].
	Energy float64

	// TempoEstimate is the estimated tempo in beats per minute, or zero
	// when no tempo is detectable.
	TempoEstimate float64

	// Mood is the classified emotional character.
	Mood Mood

	// FlowDirection is the suggested direction of visual motion.
	FlowDirection Vec2
}

// PerformanceSample is one tick's worth of device performance telemetry.
type PerformanceSample struct {
	// Capability is the coarse device classification.
	Capability CapabilityTier

	// ThermalThrottle is the thermal pressure, in [0, 1]; 1 means the
	// device is actively throttling.
	ThermalThrottle float64

	// BatteryConservation is the battery-saving pressure, in [0, 1].
	BatteryConservation float64

	// RecommendedQuality is the tier the provider suggests backends run at.
	RecommendedQuality QualityTier
}

// AudioProvider supplies audio-analysis features. Implementations live
// outside this module; the engine only reads them.
//
// Sample is called once per tick from the engine's loop. A returned error
// (or a panic, which the engine recovers) makes the engine keep the last
// good sample for that tick.
type AudioProvider interface {
	Sample() (AudioSample, error)
}

// PerformanceProvider supplies device performance telemetry, read once
// per tick with the same failure semantics as AudioProvider.
type PerformanceProvider interface {
	Sample() (PerformanceSample, error)
}

// ColorStopProvider supplies the ordered gradient stops backends build
// their lookup textures from. Called on each texture regeneration
// trigger, not per tick.
type ColorStopProvider interface {
	Stops() []ColorStop
}
