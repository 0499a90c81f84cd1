package backend

// Phase is the explicit lifecycle state of a render backend.
//
// The legal transitions are:
//
//	Uninitialized → CapabilityProbe → Compiling → Ready ⇄ Rendering
//	Rendering → ContextLost → Recovering → Ready
//	CapabilityProbe | Compiling | ContextLost (retries exhausted) → FallenBack
//	any → Destroyed
//
// FallenBack is terminal apart from teardown: a backend that fell back
// never attempts recovery again.
type Phase uint8

const (
	// PhaseUninitialized is the state before Init.
	PhaseUninitialized Phase = iota

	// PhaseCapabilityProbe is testing for a usable rendering context.
	PhaseCapabilityProbe

	// PhaseCompiling is walking the shader fallback ladder.
	PhaseCompiling

	// PhaseReady means the backend holds valid resources and can render.
	PhaseReady

	// PhaseRendering is transiently active while a frame is produced.
	PhaseRendering

	// PhaseContextLost means the platform signalled a context loss; all
	// GPU handles are invalid and recovery is scheduled.
	PhaseContextLost

	// PhaseRecovering is re-creating every resource from scratch after a
	// context-restored signal.
	PhaseRecovering

	// PhaseFallenBack is the terminal degraded state: the host should
	// render through a simpler, non-GPU path.
	PhaseFallenBack

	// PhaseDestroyed is the state after explicit teardown.
	PhaseDestroyed
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseCapabilityProbe:
		return "capability-probe"
	case PhaseCompiling:
		return "compiling"
	case PhaseReady:
		return "ready"
	case PhaseRendering:
		return "rendering"
	case PhaseContextLost:
		return "context-lost"
	case PhaseRecovering:
		return "recovering"
	case PhaseFallenBack:
		return "fallen-back"
	case PhaseDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase permits no further rendering
// transitions (teardown excepted for FallenBack).
func (p Phase) Terminal() bool {
	return p == PhaseFallenBack || p == PhaseDestroyed
}

// phaseSuccessors lists the legal non-teardown transitions.
// PhaseDestroyed is reachable from every phase and is handled in
// CanTransition directly.
var phaseSuccessors = map[Phase][]Phase{
	PhaseUninitialized:   {PhaseCapabilityProbe},
	PhaseCapabilityProbe: {PhaseCompiling, PhaseFallenBack},
	PhaseCompiling:       {PhaseReady, PhaseFallenBack},
	PhaseReady:           {PhaseRendering, PhaseContextLost},
	PhaseRendering:       {PhaseReady, PhaseContextLost},
	PhaseContextLost:     {PhaseRecovering, PhaseContextLost, PhaseFallenBack},
	PhaseRecovering:      {PhaseReady, PhaseContextLost, PhaseFallenBack},
}

// CanTransition reports whether moving from p to next is legal.
func (p Phase) CanTransition(next Phase) bool {
	if next == PhaseDestroyed {
		return p != PhaseDestroyed
	}
	for _, s := range phaseSuccessors[p] {
		if s == next {
			return true
		}
	}
	return false
}
