package gpu

import "errors"

// Context-level errors.
var (
	// ErrNoAdapter is returned when no usable GPU adapter exists.
	ErrNoAdapter = errors.New("gpu: no usable adapter")

	// ErrInsufficientLimits is returned when the probed device limits do
	// not meet the mandatory minimums.
	ErrInsufficientLimits = errors.New("gpu: device limits below mandatory minimum")

	// ErrContextReleased is returned when operating on a released context.
	ErrContextReleased = errors.New("gpu: context has been released")
)

// ShaderHandle represents a compiled shader program handle.
type ShaderHandle uint64

// InvalidShader represents an invalid/uninitialized shader handle.
const InvalidShader ShaderHandle = 0

// TextureHandle represents a GPU texture resource handle.
type TextureHandle uint64

// InvalidTexture represents an invalid/uninitialized texture handle.
const InvalidTexture TextureHandle = 0

// Capabilities reports what the probed context supports.
type Capabilities struct {
	// AdapterName is the human-readable adapter description.
	AdapterName string

	// MaxTextureSize is the maximum 2D texture dimension.
	MaxTextureSize int

	// Compute reports whether compute pipelines are available.
	Compute bool

	// Reduced is true when the context was acquired through the
	// reduced-capability probe.
	Reduced bool
}

// Frame describes one draw of the gradient surface.
type Frame struct {
	// Shader is the fragment program selected by the compile ladder.
	Shader ShaderHandle

	// Texture is the gradient lookup texture.
	Texture TextureHandle

	// Width and Height are the surface size in physical pixels, already
	// scaled by pixel ratio and the quality tier's resolution scale.
	Width, Height int

	// Intensity, Energy, Pulse, FlowX, FlowY, Scale are the uniform
	// values derived from the broadcast state.
	Intensity, Energy, Pulse float64
	FlowX, FlowY             float64
	Scale                    float64

	// Time is the animation clock in seconds since the backend started.
	Time float64
}

// Context abstracts the platform GPU context the backend owns. Exactly
// one backend instance holds a Context; no other component may touch its
// handles. The production implementation is wgpuContext; tests substitute
// a fake.
//
// After a context loss every handle obtained from a Context is invalid
// and must be re-created on a freshly acquired context; handles are
// never reused across a loss boundary.
type Context interface {
	// Acquire probes for a usable context. When reduced is true the
	// probe asks for the low-capability path (low-power adapter, relaxed
	// limits). Errors wrap ErrNoAdapter or ErrInsufficientLimits.
	Acquire(reduced bool) (Capabilities, error)

	// CompileShader compiles WGSL source into a shader program.
	CompileShader(label, source string) (ShaderHandle, error)

	// CreateGradientTexture uploads a width×1 RGBA ramp (4 bytes per
	// pixel) and returns its handle.
	CreateGradientTexture(label string, ramp []uint8, width int) (TextureHandle, error)

	// DestroyTexture releases a single texture.
	DestroyTexture(TextureHandle)

	// Present draws one frame. It must not be called with invalid
	// handles.
	Present(frame Frame) error

	// Release drops every resource and the device itself. The context
	// may be re-acquired afterwards (recovery does exactly that).
	Release()
}
