package gpu

import (
	"image"
	"sync"
	"time"

	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"

	"github.com/gogpu/vfx"
)

// defaultDebounce is how long a rebuild trigger must stay quiet before
// the texture is actually rebuilt. Bursts of palette events collapse
// into one rebuild.
const defaultDebounce = 120 * time.Millisecond

// regenerator coalesces gradient texture rebuild requests. Triggers are
// debounced, and actual builds are additionally throttled to the
// quality tier's minimum interval. Every delay runs on a vfx.Clock so
// tests drive it deterministically.
type regenerator struct {
	clk      vfx.Clock
	debounce time.Duration
	build    func()

	mu          sync.Mutex
	minInterval time.Duration
	timer       vfx.Timer
	lastBuild   time.Time
	haveBuilt   bool
}

func newRegenerator(clk vfx.Clock, minInterval time.Duration, build func()) *regenerator {
	return &regenerator{
		clk:         clk,
		debounce:    defaultDebounce,
		minInterval: minInterval,
		build:       build,
	}
}

// Trigger requests a rebuild. Repeated triggers inside the debounce
// window reset it; only the trailing edge builds.
func (r *regenerator) Trigger() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = r.clk.AfterFunc(r.debounce, r.fire)
}

// fire runs when the debounce window closes. If the throttle floor has
// not passed since the last build, the build is pushed out to exactly
// lastBuild+minInterval instead of being dropped.
func (r *regenerator) fire() {
	r.mu.Lock()
	now := r.clk.Now()
	if r.haveBuilt {
		if wait := r.minInterval - now.Sub(r.lastBuild); wait > 0 {
			r.timer = r.clk.AfterFunc(wait, r.fire)
			r.mu.Unlock()
			return
		}
	}
	r.lastBuild = now
	r.haveBuilt = true
	r.timer = nil
	r.mu.Unlock()

	r.build()
}

// SetMinInterval adjusts the throttle floor, typically on a quality
// tier change.
func (r *regenerator) SetMinInterval(d time.Duration) {
	r.mu.Lock()
	r.minInterval = d
	r.mu.Unlock()
}

// Cancel drops any pending rebuild. Used on teardown and context loss.
func (r *regenerator) Cancel() {
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.mu.Unlock()
}

// rampWidth is the preferred gradient lookup width.
const rampWidth = 256

// synthesizeRamp produces the best gradient ramp the current inputs
// allow, walking a degradation ladder:
//
//  1. stops from the provider, when it yields at least two
//  2. a ramp derived from the state's color temperature
//  3. the built-in default palette
//  4. a solid fill
//
// The returned source names the rung used, for logging.
func synthesizeRamp(provider vfx.ColorStopProvider, temperature float64, width int) (ramp []uint8, source string) {
	if provider != nil {
		if stops := safeStops(provider); len(stops) >= 2 {
			return vfx.BuildRamp(stops, width, temperature), "provider"
		}
	}

	if temperature >= vfx.MinColorTemperature && temperature <= vfx.MaxColorTemperature {
		return vfx.BuildRamp(temperatureStops(temperature), width, temperature), "temperature"
	}

	if stops := defaultStops(); len(stops) >= 2 {
		return vfx.BuildRamp(stops, width, vfx.MinColorTemperature+5500), "default-palette"
	}

	return solidRamp(width, vfx.RGB(0.1, 0.1, 0.18)), "solid"
}

// safeStops reads provider stops with panic isolation; a panicking
// provider yields nil rather than taking the renderer down.
func safeStops(provider vfx.ColorStopProvider) (stops []vfx.ColorStop) {
	defer func() {
		if r := recover(); r != nil {
			vfx.Logger().Warn("color stop provider panicked", "panic", r)
			stops = nil
		}
	}()
	return provider.Stops()
}

// temperatureStops builds a dark-to-light ramp anchored on the
// black-body color for the given temperature.
func temperatureStops(kelvin float64) []vfx.ColorStop {
	warm := vfx.TemperatureColor(kelvin)
	return []vfx.ColorStop{
		{Offset: 0.0, Color: vfx.RGB(0.02, 0.02, 0.05)},
		{Offset: 0.5, Color: warm},
		{Offset: 1.0, Color: vfx.RGB(0.95, 0.95, 0.9)},
	}
}

// defaultStops is the built-in palette used when no provider exists.
func defaultStops() []vfx.ColorStop {
	return []vfx.ColorStop{
		{Offset: 0.0, Color: vfx.FromColor(colornames.Midnightblue)},
		{Offset: 0.35, Color: vfx.FromColor(colornames.Royalblue)},
		{Offset: 0.7, Color: vfx.FromColor(colornames.Deepskyblue)},
		{Offset: 1.0, Color: vfx.FromColor(colornames.Paleturquoise)},
	}
}

// solidRamp fills the whole ramp with one color.
func solidRamp(width int, c vfx.RGBA) []uint8 {
	ramp := make([]uint8, width*4)
	r, g, b, a := c.Bytes()
	for i := 0; i < width; i++ {
		ramp[i*4+0] = r
		ramp[i*4+1] = g
		ramp[i*4+2] = b
		ramp[i*4+3] = a
	}
	return ramp
}

// fitRamp downscales a ramp that exceeds the device's maximum texture
// dimension. Ramps within bounds pass through untouched.
func fitRamp(ramp []uint8, maxWidth int) []uint8 {
	width := len(ramp) / 4
	if maxWidth <= 0 || width <= maxWidth {
		return ramp
	}

	src := &image.NRGBA{Pix: ramp, Stride: width * 4, Rect: image.Rect(0, 0, width, 1)}
	dst := image.NewNRGBA(image.Rect(0, 0, maxWidth, 1))
	draw.ApproxBiLinear.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)
	return dst.Pix
}
