package vfx

import (
	"fmt"
	"math"
	"time"
)

// Engine is the state evolution engine: the single writer of the
// canonical EffectState. Each Tick it reads the signal providers, merges
// participant contributions, applies pulse modulation, blends the current
// state toward the candidate, and broadcasts the result through its
// Choreographer.
//
// Construct one Engine explicitly and share it; there is no package-level
// instance.
type Engine struct {
	choreo     *Choreographer
	audio      AudioProvider
	perf       PerformanceProvider
	transition TransitionConfig

	// baseRate is the un-modulated per-tick transition progress.
	baseRate float64

	// smoothing is the per-field exponential weight contributions are
	// merged with each tick.
	smoothing float64

	tickInterval time.Duration

	// configuredMode is the host-selected performance mode, captured from
	// the initial state. While it is PerformanceAuto the broadcast mode is
	// re-derived from performance telemetry on every tick, so a transient
	// stress sample never pins the mode.
	configuredMode PerformanceMode

	state EffectState

	// pulsePhase accumulates rhythmic phase from the previous tick's
	// PulseRate. It is advanced before the new state is computed, so the
	// modulation is always a function of the prior tick only.
	pulsePhase float64

	lastAudio AudioSample
	lastPerf  PerformanceSample
	haveAudio bool
	havePerf  bool

	tickCount uint64
}

// NewEngine creates an engine with its own Choreographer and the default
// state, transition, and rates. Use options to inject providers and
// overrides.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		choreo:       NewChoreographer(),
		transition:   DefaultTransition(),
		baseRate:     0.15,
		smoothing:    0.1,
		tickInterval: 16 * time.Millisecond,
		state:        DefaultState(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.configuredMode = e.state.Mode
	return e
}

// Choreographer returns the engine's participant choreographer.
func (e *Engine) Choreographer() *Choreographer {
	return e.choreo
}

// State returns the current canonical state snapshot.
func (e *Engine) State() EffectState {
	return e.state
}

// TickInterval returns the nominal tick period the engine is tuned for.
func (e *Engine) TickInterval() time.Duration {
	return e.tickInterval
}

// TickCount returns the number of completed ticks.
func (e *Engine) TickCount() uint64 {
	return e.tickCount
}

// Tick runs one full update cycle at the given time and returns the
// broadcast report. Tick never panics: provider and participant failures
// are isolated and degrade to keeping the last good values.
func (e *Engine) Tick(now time.Time) (report BroadcastReport) {
	defer func() {
		if r := recover(); r != nil {
			// Nothing inside the loop is allowed to take the host down.
			Logger().Error("tick recovered from panic", "panic", r)
		}
	}()

	// 1. Signals. Failures retain the last good sample.
	e.readSignals()

	// 2-3. Pulse modulation from the previous tick's state only.
	prev := e.state
	pulseMod := e.advancePulse(prev.PulseRate)

	// 4. Candidate: signal targets overlaid on the current state, then
	// participant contributions folded in by exponential smoothing.
	candidate := e.candidateFromSignals(prev)
	candidate = e.mergeContributions(candidate)
	candidate = candidate.Clamp()

	// 5. Dynamic transition blend toward the candidate.
	progress := e.baseRate * pulseMod * energyModulation(prev.EnergyLevel) * e.transition.IntensityFactor
	eased := e.transition.Easing.Ease(clamp01(progress))
	next := blendStates(prev, candidate, eased).Clamp()

	// 6. Continuity over the fixed metric set; a stability signal only.
	next.ContinuityIndex = continuityIndex(prev, next)

	// Timestamp must strictly increase even under clock stalls.
	if !now.After(prev.Timestamp) {
		now = prev.Timestamp.Add(time.Nanosecond)
	}
	next.Timestamp = now

	e.state = next
	e.tickCount++

	return e.choreo.BroadcastState(next)
}

// ChoreographEvent dispatches a discrete event to all participants,
// independent of the tick cadence.
func (e *Engine) ChoreographEvent(event EventType, payload any) BroadcastReport {
	return e.choreo.ChoreographEvent(event, payload)
}

// readSignals polls both providers, isolating failures and retaining the
// last good samples.
func (e *Engine) readSignals() {
	if e.audio != nil {
		sample, err := safeAudioSample(e.audio)
		if err != nil {
			Logger().Warn("audio provider read failed", "error", err)
		} else {
			e.lastAudio = sample
			e.haveAudio = true
		}
	}
	if e.perf != nil {
		sample, err := safePerformanceSample(e.perf)
		if err != nil {
			Logger().Warn("performance provider read failed", "error", err)
		} else {
			e.lastPerf = sample
			e.havePerf = true
		}
	}
}

// candidateFromSignals overlays the provider-derived targets onto the
// current state. Discrete fields (capabilities, mode) apply directly;
// continuous fields become targets for the transition blend.
func (e *Engine) candidateFromSignals(current EffectState) EffectState {
	candidate := current

	if e.haveAudio {
		a := e.lastAudio
		candidate.MusicIntensity = a.PulseIntensity
		candidate.EnergyLevel = a.Energy
		if a.FlowDirection.Length() > 0 {
			candidate.FlowDirection = a.FlowDirection.Normalize()
		}
		if a.TempoEstimate > 0 {
			// One pulse per beat, bounded to the documented period range.
			candidate.PulseRate = clamp(60/a.TempoEstimate, MinPulseRate, MaxPulseRate)
		}
		candidate.ColorTemperature = moodTemperature(a.Mood)
		candidate.TransitionFluidity = moodFluidity(a.Mood)
	}

	if e.havePerf {
		p := e.lastPerf
		quality := p.RecommendedQuality.Normalized()
		// Thermal pressure pulls quality down regardless of the
		// recommendation.
		quality *= 1 - 0.5*clamp01(p.ThermalThrottle)
		candidate.AdaptiveQuality = quality
		candidate.ScalingFactor = clamp(
			1-0.6*clamp01(p.BatteryConservation),
			MinScalingFactor, MaxScalingFactor)
		candidate.Capabilities.Tier = p.Capability
		if e.configuredMode == PerformanceAuto {
			candidate.Mode = derivedMode(p)
		}
	}

	return candidate
}

// mergeContributions folds the participants' proposals into the
// candidate. Each provided field moves the candidate toward the mean of
// the proposals by the smoothing weight, never a hard overwrite.
func (e *Engine) mergeContributions(candidate EffectState) EffectState {
	contributions := e.choreo.collect()
	if len(contributions) == 0 {
		return candidate
	}

	smoothToward := func(current float64, values []float64) float64 {
		if len(values) == 0 {
			return current
		}
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		target := sum / float64(len(values))
		return current + e.smoothing*(target-current)
	}

	var intensity, energy, temperature, pulse []float64
	var fluidity, scaling, quality []float64
	var flowSum Vec2
	var flowCount int
	for _, c := range contributions {
		if c.MusicIntensity != nil {
			intensity = append(intensity, *c.MusicIntensity)
		}
		if c.EnergyLevel != nil {
			energy = append(energy, *c.EnergyLevel)
		}
		if c.ColorTemperature != nil {
			temperature = append(temperature, *c.ColorTemperature)
		}
		if c.PulseRate != nil {
			pulse = append(pulse, *c.PulseRate)
		}
		if c.TransitionFluidity != nil {
			fluidity = append(fluidity, *c.TransitionFluidity)
		}
		if c.ScalingFactor != nil {
			scaling = append(scaling, *c.ScalingFactor)
		}
		if c.AdaptiveQuality != nil {
			quality = append(quality, *c.AdaptiveQuality)
		}
		if c.FlowDirection != nil {
			flowSum = flowSum.Add(*c.FlowDirection)
			flowCount++
		}
	}

	candidate.MusicIntensity = smoothToward(candidate.MusicIntensity, intensity)
	candidate.EnergyLevel = smoothToward(candidate.EnergyLevel, energy)
	candidate.ColorTemperature = smoothToward(candidate.ColorTemperature, temperature)
	candidate.PulseRate = smoothToward(candidate.PulseRate, pulse)
	candidate.TransitionFluidity = smoothToward(candidate.TransitionFluidity, fluidity)
	candidate.ScalingFactor = smoothToward(candidate.ScalingFactor, scaling)
	candidate.AdaptiveQuality = smoothToward(candidate.AdaptiveQuality, quality)
	if flowCount > 0 {
		target := flowSum.Mul(1 / float64(flowCount))
		candidate.FlowDirection = candidate.FlowDirection.Lerp(target, e.smoothing)
	}

	return candidate
}

// advancePulse advances the rhythmic phase using the previous tick's
// pulse rate and returns the resulting progress modulation. The one-tick
// lag is deliberate: the new state never shapes its own transition.
func (e *Engine) advancePulse(prevPulseRate float64) float64 {
	rate := clamp(prevPulseRate, MinPulseRate, MaxPulseRate)
	e.pulsePhase += e.tickInterval.Seconds() / rate
	e.pulsePhase -= math.Floor(e.pulsePhase)
	return 1 + 0.25*math.Sin(2*math.Pi*e.pulsePhase)
}

// energyModulation maps energy in [0, 1] to a progress multiplier in
// [0.5, 1.5]: higher energy means snappier transitions.
func energyModulation(energy float64) float64 {
	return 0.5 + clamp01(energy)
}

// blendStates moves every continuous field of prev toward candidate by
// the eased fraction t. Discrete fields adopt the candidate's values.
func blendStates(prev, candidate EffectState, t float64) EffectState {
	lerp := func(a, b float64) float64 { return a + t*(b-a) }

	next := prev
	next.MusicIntensity = lerp(prev.MusicIntensity, candidate.MusicIntensity)
	next.FlowDirection = prev.FlowDirection.Lerp(candidate.FlowDirection, t)
	next.EnergyLevel = lerp(prev.EnergyLevel, candidate.EnergyLevel)
	next.ColorTemperature = lerp(prev.ColorTemperature, candidate.ColorTemperature)
	next.PulseRate = lerp(prev.PulseRate, candidate.PulseRate)
	next.TransitionFluidity = lerp(prev.TransitionFluidity, candidate.TransitionFluidity)
	next.ScalingFactor = lerp(prev.ScalingFactor, candidate.ScalingFactor)
	next.AdaptiveQuality = lerp(prev.AdaptiveQuality, candidate.AdaptiveQuality)
	next.Capabilities = candidate.Capabilities
	next.Mode = candidate.Mode
	return next
}

// continuityMetrics is the fixed set of normalized per-field deltas the
// continuity index averages over.
func continuityMetrics(a, b EffectState) []float64 {
	return []float64{
		math.Abs(b.MusicIntensity - a.MusicIntensity),
		math.Abs(b.EnergyLevel - a.EnergyLevel),
		math.Abs(b.TransitionFluidity - a.TransitionFluidity),
		math.Abs(b.AdaptiveQuality - a.AdaptiveQuality),
		math.Abs(b.ColorTemperature-a.ColorTemperature) / (MaxColorTemperature - MinColorTemperature),
		math.Abs(b.PulseRate-a.PulseRate) / (MaxPulseRate - MinPulseRate),
		math.Abs(b.ScalingFactor-a.ScalingFactor) / (MaxScalingFactor - MinScalingFactor),
	}
}

// continuityIndex is 1 minus the mean normalized field delta: exactly 1
// when nothing moved, decreasing as the summed deltas grow.
func continuityIndex(prev, next EffectState) float64 {
	metrics := continuityMetrics(prev, next)
	sum := 0.0
	for _, m := range metrics {
		sum += clamp01(m)
	}
	return clamp01(1 - sum/float64(len(metrics)))
}

// moodTemperature maps the classified mood to a color temperature target.
func moodTemperature(m Mood) float64 {
	switch m {
	case MoodCalm:
		return 4500
	case MoodMelancholic:
		return 3000
	case MoodEnergetic:
		return 9000
	case MoodEuphoric:
		return 12000
	default:
		return 6500
	}
}

// moodFluidity maps the classified mood to a transition fluidity target.
func moodFluidity(m Mood) float64 {
	switch m {
	case MoodCalm:
		return 0.9
	case MoodMelancholic:
		return 0.8
	case MoodEnergetic:
		return 0.5
	case MoodEuphoric:
		return 0.4
	default:
		return 0.7
	}
}

// derivedMode picks a performance mode from telemetry when the host left
// the engine in PerformanceAuto.
func derivedMode(p PerformanceSample) PerformanceMode {
	switch {
	case p.BatteryConservation > 0.7 || p.ThermalThrottle > 0.8:
		return PerformancePowerSave
	case p.Capability == CapabilityHigh && p.ThermalThrottle < 0.2:
		return PerformanceQuality
	default:
		return PerformanceBalanced
	}
}

// safeAudioSample reads the audio provider with panic recovery.
func safeAudioSample(p AudioProvider) (sample AudioSample, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrProviderRead, r)
		}
	}()
	sample, err = p.Sample()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrProviderRead, err)
	}
	return sample, err
}

// safePerformanceSample reads the performance provider with panic recovery.
func safePerformanceSample(p PerformanceProvider) (sample PerformanceSample, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrProviderRead, r)
		}
	}()
	sample, err = p.Sample()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrProviderRead, err)
	}
	return sample, err
}
