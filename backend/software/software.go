// Package software provides the CPU fallback backend.
//
// It renders the coordinated state as a flowing gradient into a plain
// image.RGBA that hosts can blit wherever they like. It needs no GPU,
// never loses a context, and exists so a host always has a working
// backend when the GPU path falls back.
package software

import (
	"image"
	"math"
	"sync"
	"time"

	"golang.org/x/image/draw"

	"github.com/gogpu/vfx"
	"github.com/gogpu/vfx/backend"
)

func init() {
	backend.Register(backend.BackendSoftware, func() backend.Backend {
		return New()
	})
}

const (
	// frameInterval caps the CPU renderer at 30 frames per second.
	frameInterval = time.Second / 30

	// renderScale renders at reduced resolution and upscales, keeping
	// per-pixel work bounded.
	renderScale = 0.25

	rampWidth = 256

	// tempDrift is the color temperature movement that forces a ramp
	// rebuild, in Kelvin.
	tempDrift = 250.0
)

// Renderer is the CPU gradient backend.
type Renderer struct {
	clk   vfx.Clock
	stops vfx.ColorStopProvider

	mu            sync.Mutex
	phase         backend.Phase
	width, height int
	img           *image.RGBA
	ramp          []uint8
	rampTemp      float64
	haveRamp      bool
	state         vfx.EffectState
	lastFrame     time.Time
	haveFrame     bool
	started       time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock substitutes the frame throttle clock.
func WithClock(clk vfx.Clock) Option {
	return func(r *Renderer) {
		if clk != nil {
			r.clk = clk
		}
	}
}

// WithColorStopProvider sets the gradient palette source.
func WithColorStopProvider(provider vfx.ColorStopProvider) Option {
	return func(r *Renderer) {
		r.stops = provider
	}
}

// WithSurfaceSize sets the output image size.
func WithSurfaceSize(width, height int) Option {
	return func(r *Renderer) {
		if width > 0 && height > 0 {
			r.width, r.height = width, height
		}
	}
}

// New creates an uninitialized software renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		clk:    vfx.SystemClock{},
		phase:  backend.PhaseUninitialized,
		width:  800,
		height: 600,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name implements vfx.Participant.
func (r *Renderer) Name() string { return backend.BackendSoftware }

// Phase returns the current lifecycle phase.
func (r *Renderer) Phase() backend.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Init allocates the output image. It cannot fail: the CPU path has no
// capabilities to probe and nothing to compile, so those phases pass
// straight through.
func (r *Renderer) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != backend.PhaseUninitialized {
		return backend.ErrDestroyed
	}
	r.phase = backend.PhaseCapabilityProbe
	r.phase = backend.PhaseCompiling
	r.img = image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	r.started = r.clk.Now()
	r.phase = backend.PhaseReady
	vfx.Logger().Info("software backend ready", "size",
		image.Pt(r.width, r.height))
	return nil
}

// Close releases the image. Idempotent.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = backend.PhaseDestroyed
	r.img = nil
	r.ramp = nil
}

// Resize changes the output image size from the next frame on.
func (r *Renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width > 0 && height > 0 {
		r.width, r.height = width, height
		if r.phase == backend.PhaseReady {
			r.img = image.NewRGBA(image.Rect(0, 0, width, height))
		}
	}
}

// Image returns the most recently rendered frame. The returned image is
// owned by the renderer and valid until the next frame.
func (r *Renderer) Image() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.img
}

// OnStateUpdate implements vfx.Participant.
func (r *Renderer) OnStateUpdate(state vfx.EffectState) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
	r.render(false)
}

// OnEvent implements vfx.Participant.
func (r *Renderer) OnEvent(event vfx.EventType, _ any) {
	switch event {
	case vfx.EventPaletteShift:
		r.mu.Lock()
		r.haveRamp = false
		r.mu.Unlock()
	case vfx.EventIntensitySpike:
		r.render(true)
	}
}

// Contribution implements vfx.Participant. The CPU path asks the
// coordinator to keep the shared quality modest.
func (r *Renderer) Contribution() (vfx.Contribution, error) {
	q := vfx.QualityLow.Normalized()
	return vfx.Contribution{AdaptiveQuality: &q}, nil
}

// render draws one frame, respecting the frame interval unless forced.
func (r *Renderer) render(force bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != backend.PhaseReady {
		return
	}
	now := r.clk.Now()
	if !force && r.haveFrame && now.Sub(r.lastFrame) < frameInterval {
		return
	}

	if !r.haveRamp || math.Abs(r.state.ColorTemperature-r.rampTemp) > tempDrift {
		r.rebuildRampLocked()
	}

	r.phase = backend.PhaseRendering
	r.drawLocked(now.Sub(r.started).Seconds())
	r.phase = backend.PhaseReady
	r.lastFrame = now
	r.haveFrame = true
}

// rebuildRampLocked refreshes the gradient lookup. Caller holds r.mu.
func (r *Renderer) rebuildRampLocked() {
	var stops []vfx.ColorStop
	if r.stops != nil {
		stops = r.stops.Stops()
	}
	if len(stops) < 2 {
		warm := vfx.TemperatureColor(r.state.ColorTemperature)
		stops = []vfx.ColorStop{
			{Offset: 0, Color: vfx.RGB(0.02, 0.02, 0.05)},
			{Offset: 0.5, Color: warm},
			{Offset: 1, Color: vfx.RGB(0.95, 0.95, 0.9)},
		}
	}
	r.ramp = vfx.BuildRamp(stops, rampWidth, r.state.ColorTemperature)
	r.rampTemp = r.state.ColorTemperature
	r.haveRamp = true
}

// drawLocked renders the gradient at reduced resolution and upscales it
// into the output image. Caller holds r.mu.
func (r *Renderer) drawLocked(t float64) {
	sw := int(float64(r.width) * renderScale)
	sh := int(float64(r.height) * renderScale)
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}

	flow := r.state.FlowDirection.Normalize()
	phase := math.Sin(t*r.state.PulseRate*2*math.Pi) * 0.05 * r.state.MusicIntensity

	small := image.NewRGBA(image.Rect(0, 0, sw, sh))
	for y := 0; y < sh; y++ {
		fy := float64(y) / float64(sh)
		for x := 0; x < sw; x++ {
			fx := float64(x) / float64(sw)
			along := fx*flow.X + fy*flow.Y + phase
			idx := int(clamp01(along) * float64(rampWidth-1))
			o := (y*sw + x) * 4
			small.Pix[o+0] = r.ramp[idx*4+0]
			small.Pix[o+1] = r.ramp[idx*4+1]
			small.Pix[o+2] = r.ramp[idx*4+2]
			small.Pix[o+3] = r.ramp[idx*4+3]
		}
	}

	if r.img == nil || r.img.Rect.Dx() != r.width || r.img.Rect.Dy() != r.height {
		r.img = image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	}
	draw.ApproxBiLinear.Scale(r.img, r.img.Rect, small, small.Rect, draw.Src, nil)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
