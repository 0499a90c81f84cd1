package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/vfx"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithContext substitutes the GPU context. Tests use this to inject a
// fake; hosts normally leave the default wgpu context in place.
func WithContext(ctx Context) Option {
	return func(r *Renderer) {
		if ctx != nil {
			r.ctx = ctx
		}
	}
}

// WithDeviceProvider shares the host's GPU device instead of creating a
// dedicated one.
func WithDeviceProvider(provider gpucontext.DeviceProvider) Option {
	return func(r *Renderer) {
		if provider != nil {
			r.ctx = NewSharedContext(provider)
		}
	}
}

// WithClock substitutes the clock driving the frame throttle, texture
// debounce, and recovery backoff.
func WithClock(clk vfx.Clock) Option {
	return func(r *Renderer) {
		if clk != nil {
			r.clk = clk
		}
	}
}

// WithColorStopProvider sets the gradient palette source. Without one
// the renderer synthesizes palettes from the state's color temperature.
func WithColorStopProvider(provider vfx.ColorStopProvider) Option {
	return func(r *Renderer) {
		r.stops = provider
	}
}

// WithSurfaceSize sets the initial logical surface size.
func WithSurfaceSize(width, height int) Option {
	return func(r *Renderer) {
		if width > 0 && height > 0 {
			r.width, r.height = width, height
		}
	}
}

// WithPixelRatio sets the device pixel ratio applied to the surface
// size.
func WithPixelRatio(ratio float64) Option {
	return func(r *Renderer) {
		if ratio > 0 {
			r.pixelRatio = ratio
		}
	}
}

// WithRecoveryPolicy selects what happens when the recovery retry
// budget runs out.
func WithRecoveryPolicy(policy RecoveryPolicy) Option {
	return func(r *Renderer) {
		r.policy = policy
	}
}
