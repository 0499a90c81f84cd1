package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/vfx"
)

//go:embed shaders/vertex.wgsl
var vertexWGSL string

//go:embed shaders/gradient_full.wgsl
var fragmentFullWGSL string

//go:embed shaders/gradient_simplified.wgsl
var fragmentSimplifiedWGSL string

//go:embed shaders/gradient_basic.wgsl
var fragmentBasicWGSL string

//go:embed shaders/gradient_emergency.wgsl
var fragmentEmergencyWGSL string

// vertexStageLabel marks the fullscreen-triangle vertex stage so the
// context can pair it with whichever fragment rung won the ladder.
const vertexStageLabel = "vertex"

// ShaderTier identifies which rung of the fragment fallback ladder is
// in use. Lower values are richer.
type ShaderTier uint8

const (
	// TierFull is the full-quality fragment with turbulence and shimmer.
	TierFull ShaderTier = iota

	// TierSimplified drops turbulence for a single sine distortion.
	TierSimplified

	// TierBasic is a static linear ramp lookup.
	TierBasic

	// TierEmergency is a flat single-sample fragment.
	TierEmergency

	numTiers
)

// String returns a human-readable tier name.
func (t ShaderTier) String() string {
	switch t {
	case TierFull:
		return "full"
	case TierSimplified:
		return "simplified"
	case TierBasic:
		return "basic"
	case TierEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// fragmentLadder is the compile order. The first rung that compiles wins.
var fragmentLadder = [numTiers]struct {
	tier   ShaderTier
	label  string
	source string
}{
	{TierFull, "gradient-full", fragmentFullWGSL},
	{TierSimplified, "gradient-simplified", fragmentSimplifiedWGSL},
	{TierBasic, "gradient-basic", fragmentBasicWGSL},
	{TierEmergency, "gradient-emergency", fragmentEmergencyWGSL},
}

// compiledShaders holds the programs produced by one ladder walk. All
// handles belong to the Context that compiled them and die with it.
type compiledShaders struct {
	vertex   ShaderHandle
	fragment ShaderHandle
	tier     ShaderTier
}

// compileLadder compiles the vertex stage and then walks the fragment
// ladder top down. The vertex stage has no fallback: its failure aborts.
// Each fragment failure is logged and the next rung is tried; only when
// every rung fails does the walk error out.
func compileLadder(ctx Context) (compiledShaders, error) {
	vertex, err := ctx.CompileShader(vertexStageLabel, vertexWGSL)
	if err != nil {
		return compiledShaders{}, fmt.Errorf("vertex stage: %w", err)
	}

	for _, rung := range fragmentLadder {
		fragment, err := ctx.CompileShader(rung.label, rung.source)
		if err != nil {
			vfx.Logger().Warn("fragment tier failed to compile, trying next",
				"tier", rung.tier.String(), "error", err)
			continue
		}
		if rung.tier != TierFull {
			vfx.Logger().Info("fragment ladder settled below full quality",
				"tier", rung.tier.String())
		}
		return compiledShaders{vertex: vertex, fragment: fragment, tier: rung.tier}, nil
	}

	return compiledShaders{}, fmt.Errorf("all %d fragment tiers failed to compile", numTiers)
}
