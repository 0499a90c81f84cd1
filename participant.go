package vfx

// EventType names a discrete choreographed event. The set is open: hosts
// may define their own types alongside the predefined ones.
type EventType string

// Predefined event types.
const (
	// EventIntensitySpike signals a transient burst (a drop, an accent)
	// that backends may flash on without waiting for the state to catch up.
	EventIntensitySpike EventType = "intensity-spike"

	// EventPaletteShift signals that the color-stop provider has new
	// stops and gradient textures should regenerate.
	EventPaletteShift EventType = "palette-shift"

	// EventQualityChange signals an externally forced quality tier change.
	// The payload is the new QualityTier.
	EventQualityChange EventType = "quality-change"
)

// Participant is implemented by every render backend or visual subsystem
// that takes part in the choreography. Participants consume broadcast
// state and may propose preferences back through Contribution.
//
// All methods are called from the engine's single loop; implementations
// must not retain or mutate shared engine state. A panic in any method is
// recovered, logged, and isolated to the offending participant.
type Participant interface {
	// Name returns the unique participant identifier. The choreographer
	// rejects duplicate names.
	Name() string

	// OnStateUpdate delivers the canonical state snapshot once per tick.
	OnStateUpdate(state EffectState)

	// OnEvent delivers a discrete out-of-band event.
	OnEvent(event EventType, payload any)

	// Contribution returns the participant's current partial-state
	// proposal. Returning an error (or a zero Contribution) is valid and
	// simply contributes nothing this cycle.
	Contribution() (Contribution, error)
}

// Contribution is a partial EffectState proposal. Nil fields are "no
// preference". Contributions are merged into the candidate state by
// exponential smoothing; they are never applied directly.
type Contribution struct {
	MusicIntensity     *float64
	FlowDirection      *Vec2
	EnergyLevel        *float64
	ColorTemperature   *float64
	PulseRate          *float64
	TransitionFluidity *float64
	ScalingFactor      *float64
	AdaptiveQuality    *float64
}

// Float is a convenience helper for building Contribution literals.
func Float(v float64) *float64 { return &v }

// Vector is a convenience helper for building Contribution literals.
func Vector(v Vec2) *Vec2 { return &v }

// IsZero reports whether the contribution proposes nothing.
func (c Contribution) IsZero() bool {
	return c.MusicIntensity == nil &&
		c.FlowDirection == nil &&
		c.EnergyLevel == nil &&
		c.ColorTemperature == nil &&
		c.PulseRate == nil &&
		c.TransitionFluidity == nil &&
		c.ScalingFactor == nil &&
		c.AdaptiveQuality == nil
}

// Overlay returns c with every field set in other replacing the matching
// field in c (last-write-wins per field). Used by UpdateContribution.
func (c Contribution) Overlay(other Contribution) Contribution {
	if other.MusicIntensity != nil {
		c.MusicIntensity = other.MusicIntensity
	}
	if other.FlowDirection != nil {
		c.FlowDirection = other.FlowDirection
	}
	if other.EnergyLevel != nil {
		c.EnergyLevel = other.EnergyLevel
	}
	if other.ColorTemperature != nil {
		c.ColorTemperature = other.ColorTemperature
	}
	if other.PulseRate != nil {
		c.PulseRate = other.PulseRate
	}
	if other.TransitionFluidity != nil {
		c.TransitionFluidity = other.TransitionFluidity
	}
	if other.ScalingFactor != nil {
		c.ScalingFactor = other.ScalingFactor
	}
	if other.AdaptiveQuality != nil {
		c.AdaptiveQuality = other.AdaptiveQuality
	}
	return c
}
