package gpu

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gogpu/vfx"
	"github.com/gogpu/vfx/backend"
)

func init() {
	backend.Register(backend.BackendGPU, func() backend.Backend {
		return New()
	})
}

// textureTempDrift is how far the state's color temperature may move
// before the gradient texture is rebuilt, in Kelvin.
const textureTempDrift = 250.0

// Renderer is the GPU gradient backend. It participates in the
// choreographer, renders each broadcast state as a flowing gradient,
// and survives capability failures, shader failures, and context loss
// through the probe, ladder, and recovery machinery.
//
// All mutable state is guarded by mu; callbacks from the regenerator
// and recovery scheduler re-enter through exported-method locking.
type Renderer struct {
	ctx    Context
	clk    vfx.Clock
	stops  vfx.ColorStopProvider
	policy RecoveryPolicy

	mu            sync.Mutex
	phase         backend.Phase
	caps          Capabilities
	shaders       compiledShaders
	texture       TextureHandle
	regen         *regenerator
	recov         *recovery
	width, height int
	pixelRatio    float64
	ceiling       vfx.QualityTier
	external      vfx.QualityTier
	haveExternal  bool
	state         vfx.EffectState
	lastFrame     time.Time
	haveFrame     bool
	lastTexTemp   float64
	started       time.Time
	losses        int
}

// New creates an uninitialized GPU renderer. Call Init before
// registering it with a choreographer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		clk:        vfx.SystemClock{},
		phase:      backend.PhaseUninitialized,
		width:      800,
		height:     600,
		pixelRatio: 1.0,
		ceiling:    vfx.QualityHigh,
		policy:     PolicyFallback,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.ctx == nil {
		r.ctx = NewWGPUContext()
	}
	return r
}

// Name implements vfx.Participant.
func (r *Renderer) Name() string { return backend.BackendGPU }

// Phase returns the current lifecycle phase.
func (r *Renderer) Phase() backend.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Capabilities returns the probed capabilities. Zero before Init.
func (r *Renderer) Capabilities() Capabilities {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.caps
}

// Tier returns the fragment ladder rung in use.
func (r *Renderer) Tier() ShaderTier {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shaders.tier
}

// Losses returns how many context losses have been observed.
func (r *Renderer) Losses() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.losses
}

// Init probes for a context, walks the shader ladder, and builds the
// initial gradient texture. A failed full probe retries reduced before
// giving up; failure of the vertex stage or of both probes ends in
// PhaseFallenBack with an *backend.InitError.
func (r *Renderer) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != backend.PhaseUninitialized {
		return fmt.Errorf("gpu: init from phase %s", r.phase)
	}
	r.setPhaseLocked(backend.PhaseCapabilityProbe)

	caps, err := r.ctx.Acquire(false)
	if err != nil {
		vfx.Logger().Warn("full capability probe failed, trying reduced", "error", err)
		caps, err = r.ctx.Acquire(true)
	}
	if err != nil {
		r.setPhaseLocked(backend.PhaseFallenBack)
		return &backend.InitError{Stage: "capability-probe", Err: err}
	}
	r.caps = caps
	if caps.Reduced {
		r.ceiling = effectiveTier(r.ceiling, vfx.QualityLow)
	}

	r.setPhaseLocked(backend.PhaseCompiling)
	sh, err := compileLadder(r.ctx)
	if err != nil {
		r.ctx.Release()
		r.setPhaseLocked(backend.PhaseFallenBack)
		return &backend.InitError{Stage: "shader-compile", Err: err}
	}
	r.shaders = sh
	if sh.tier == TierEmergency {
		r.ceiling = effectiveTier(r.ceiling, vfx.QualityMinimal)
	}

	r.started = r.clk.Now()
	r.rebuildTextureLocked(vfx.DefaultState().ColorTemperature)

	profile := ProfileFor(r.ceiling)
	r.regen = newRegenerator(r.clk, profile.TextureMinInterval, r.rebuildTexture)
	r.recov = newRecovery(r.clk, r.policy, r.tryRecover, r.fallBack)

	r.setPhaseLocked(backend.PhaseReady)
	vfx.Logger().Info("gpu backend ready",
		"adapter", caps.AdapterName,
		"shader_tier", sh.tier.String(),
		"reduced", caps.Reduced)
	return nil
}

// Close tears everything down. Idempotent.
func (r *Renderer) Close() {
	r.mu.Lock()
	if r.phase == backend.PhaseDestroyed {
		r.mu.Unlock()
		return
	}
	r.setPhaseLocked(backend.PhaseDestroyed)
	regen, recov := r.regen, r.recov
	r.texture = InvalidTexture
	r.shaders = compiledShaders{}
	r.mu.Unlock()

	if regen != nil {
		regen.Cancel()
	}
	if recov != nil {
		recov.Stop()
	}
	r.ctx.Release()
}

// Resize updates the logical surface size. The next frame picks it up;
// the gradient texture is size-independent and survives.
func (r *Renderer) Resize(width, height int) {
	r.mu.Lock()
	r.width, r.height = width, height
	r.mu.Unlock()
}

// OnStateUpdate implements vfx.Participant. Each broadcast state may
// produce a frame, subject to the quality tier's frame interval, and may
// schedule a texture rebuild when the color temperature drifted.
func (r *Renderer) OnStateUpdate(state vfx.EffectState) {
	r.mu.Lock()
	r.state = state
	r.haveExternal = false

	profile := ProfileFor(r.renderTierLocked())
	regen := r.regen
	needRebuild := r.phase == backend.PhaseReady &&
		math.Abs(state.ColorTemperature-r.lastTexTemp) > textureTempDrift
	r.mu.Unlock()

	if regen != nil {
		regen.SetMinInterval(profile.TextureMinInterval)
		if needRebuild {
			regen.Trigger()
		}
	}

	r.renderFrame(state, profile, false)
}

// OnEvent implements vfx.Participant.
func (r *Renderer) OnEvent(event vfx.EventType, payload any) {
	switch event {
	case vfx.EventPaletteShift:
		r.mu.Lock()
		regen := r.regen
		r.mu.Unlock()
		if regen != nil {
			regen.Trigger()
		}

	case vfx.EventQualityChange:
		if tier, ok := payload.(vfx.QualityTier); ok {
			r.mu.Lock()
			r.external = tier
			r.haveExternal = true
			profile := ProfileFor(r.renderTierLocked())
			regen := r.regen
			r.mu.Unlock()
			if regen != nil {
				regen.SetMinInterval(profile.TextureMinInterval)
			}
		}

	case vfx.EventIntensitySpike:
		// A spike bypasses the frame throttle once.
		r.mu.Lock()
		state := r.state
		profile := ProfileFor(r.renderTierLocked())
		r.mu.Unlock()
		r.renderFrame(state, profile, true)
	}
}

// Contribution implements vfx.Participant. The renderer reports its
// quality ceiling back to the coordinator so the shared state never
// promises more than the hardware can deliver.
func (r *Renderer) Contribution() (vfx.Contribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var c vfx.Contribution
	if r.ceiling < vfx.QualityHigh {
		q := r.ceiling.Normalized()
		c.AdaptiveQuality = &q
	}
	if r.phase == backend.PhaseFallenBack {
		s := 0.5
		c.ScalingFactor = &s
	}
	return c, nil
}

// NotifyContextLost is called by the host when the platform reports the
// GPU context gone. Every handle is invalidated, pending texture work is
// cancelled, and the recovery schedule starts.
func (r *Renderer) NotifyContextLost() {
	r.mu.Lock()
	switch r.phase {
	case backend.PhaseReady, backend.PhaseRendering:
	default:
		r.mu.Unlock()
		return
	}
	r.losses++
	r.setPhaseLocked(backend.PhaseContextLost)
	r.texture = InvalidTexture
	r.shaders = compiledShaders{}
	regen, recov := r.regen, r.recov
	losses := r.losses
	r.mu.Unlock()

	vfx.Logger().Warn("gpu context lost", "total_losses", losses)
	if regen != nil {
		regen.Cancel()
	}
	r.ctx.Release()
	if recov != nil {
		recov.OnLoss()
	}
}

// NotifyContextRestored short-circuits the recovery backoff when the
// platform says the context is available again.
func (r *Renderer) NotifyContextRestored() {
	r.mu.Lock()
	recov := r.recov
	r.mu.Unlock()
	if recov != nil {
		recov.OnRestored()
	}
}

// renderFrame presents one frame if the phase and throttle allow it.
func (r *Renderer) renderFrame(state vfx.EffectState, profile Profile, bypassThrottle bool) {
	r.mu.Lock()
	if r.phase != backend.PhaseReady {
		r.mu.Unlock()
		return
	}
	now := r.clk.Now()
	if !bypassThrottle && r.haveFrame && now.Sub(r.lastFrame) < profile.FrameInterval {
		r.mu.Unlock()
		return
	}

	// A frame with no texture synthesizes an emergency one in place.
	// When even that fails the frame is skipped, never presented
	// undefined.
	if r.texture == InvalidTexture {
		r.rebuildTextureLocked(state.ColorTemperature)
		if r.texture == InvalidTexture {
			r.mu.Unlock()
			vfx.Logger().Warn("frame skipped, no gradient texture")
			return
		}
	}

	r.setPhaseLocked(backend.PhaseRendering)
	w := int(float64(r.width) * r.pixelRatio * profile.ResolutionScale)
	h := int(float64(r.height) * r.pixelRatio * profile.ResolutionScale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	frame := Frame{
		Shader:    r.shaders.fragment,
		Texture:   r.texture,
		Width:     w,
		Height:    h,
		Intensity: state.MusicIntensity,
		Energy:    state.EnergyLevel,
		Pulse:     state.PulseRate,
		FlowX:     state.FlowDirection.X,
		FlowY:     state.FlowDirection.Y,
		Scale:     state.ScalingFactor,
		Time:      now.Sub(r.started).Seconds(),
	}

	err := r.ctx.Present(frame)
	r.lastFrame = now
	r.haveFrame = true
	r.setPhaseLocked(backend.PhaseReady)
	r.mu.Unlock()

	if err != nil {
		if errors.Is(err, ErrContextReleased) {
			r.NotifyContextLost()
			return
		}
		vfx.Logger().Warn("present failed, frame dropped", "error", err)
	}
}

// rebuildTexture is the regenerator's build callback.
func (r *Renderer) rebuildTexture() {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.phase {
	case backend.PhaseReady, backend.PhaseRendering, backend.PhaseRecovering:
		r.rebuildTextureLocked(r.state.ColorTemperature)
	}
}

// rebuildTextureLocked synthesizes and uploads a fresh gradient ramp.
// Caller holds r.mu. On upload failure the old texture (if any) is kept.
func (r *Renderer) rebuildTextureLocked(temperature float64) {
	ramp, source := synthesizeRamp(r.stops, temperature, rampWidth)
	ramp = fitRamp(ramp, r.caps.MaxTextureSize)

	handle, err := r.ctx.CreateGradientTexture("gradient-ramp", ramp, len(ramp)/4)
	if err != nil {
		vfx.Logger().Warn("gradient texture rebuild failed",
			"source", source, "error", err)
		return
	}
	if r.texture != InvalidTexture {
		r.ctx.DestroyTexture(r.texture)
	}
	r.texture = handle
	r.lastTexTemp = temperature
	if source != "provider" {
		vfx.Logger().Debug("gradient ramp synthesized", "source", source)
	}
}

// tryRecover is the recovery scheduler's attempt callback. It rebuilds
// the context, shaders, and texture from scratch. Attempts beyond the
// first probe reduced. A success costs quality: one notch, two when the
// first attempt already failed.
func (r *Renderer) tryRecover(attempt int) bool {
	r.mu.Lock()
	if r.phase != backend.PhaseContextLost {
		r.mu.Unlock()
		return true
	}
	r.setPhaseLocked(backend.PhaseRecovering)
	r.mu.Unlock()

	reduced := attempt > 1 || r.caps.Reduced
	caps, err := r.ctx.Acquire(reduced)
	if err == nil {
		var sh compiledShaders
		sh, err = compileLadder(r.ctx)
		if err == nil {
			r.mu.Lock()
			r.caps = caps
			r.shaders = sh
			steps := 1
			if attempt > 1 {
				steps = 2
			}
			r.ceiling = r.ceiling.StepDown(steps)
			r.rebuildTextureLocked(r.state.ColorTemperature)
			r.setPhaseLocked(backend.PhaseReady)
			ceiling := r.ceiling
			r.mu.Unlock()

			vfx.Logger().Info("gpu context recovered",
				"attempt", attempt, "quality_ceiling", ceiling.String())
			return true
		}
	}

	vfx.Logger().Warn("recovery attempt failed",
		"attempt", attempt, "error", err)
	r.ctx.Release()
	r.mu.Lock()
	r.setPhaseLocked(backend.PhaseContextLost)
	r.mu.Unlock()
	return false
}

// fallBack is the recovery scheduler's give-up callback. Runs at most
// once for the lifetime of the renderer.
func (r *Renderer) fallBack() {
	r.mu.Lock()
	if r.phase != backend.PhaseDestroyed {
		r.setPhaseLocked(backend.PhaseFallenBack)
	}
	regen := r.regen
	r.mu.Unlock()

	if regen != nil {
		regen.Cancel()
	}
	r.ctx.Release()
}

// renderTierLocked is the tier frames are rendered at: the coordinator's
// requested tier bounded by the recovery ceiling. Caller holds r.mu.
func (r *Renderer) renderTierLocked() vfx.QualityTier {
	requested := tierFromNormalized(r.state.AdaptiveQuality)
	if r.haveExternal {
		requested = r.external
	}
	return effectiveTier(requested, r.ceiling)
}

// setPhaseLocked performs a checked phase transition. Caller holds r.mu.
func (r *Renderer) setPhaseLocked(next backend.Phase) {
	if !r.phase.CanTransition(next) {
		vfx.Logger().Warn("illegal phase transition dropped",
			"from", r.phase.String(), "to", next.String())
		return
	}
	r.phase = next
}
