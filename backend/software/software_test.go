package software

import (
	"bytes"
	"testing"
	"time"

	"github.com/gogpu/vfx"
	"github.com/gogpu/vfx/backend"
	"github.com/gogpu/vfx/internal/clocktest"
)

func newTestRenderer(t *testing.T, opts ...Option) (*Renderer, *clocktest.Fake) {
	t.Helper()
	clk := clocktest.NewFake(time.Unix(0, 0))
	opts = append([]Option{WithClock(clk), WithSurfaceSize(64, 48)}, opts...)
	r := New(opts...)
	t.Cleanup(r.Close)
	return r, clk
}

func snapshot(t *testing.T, r *Renderer) []uint8 {
	t.Helper()
	img := r.Image()
	if img == nil {
		t.Fatal("no image")
	}
	return append([]uint8(nil), img.Pix...)
}

func TestInitAllocatesImage(t *testing.T) {
	r, _ := newTestRenderer(t)
	if err := r.Init(); err != nil {
		t.Fatalf("Init error = %v", err)
	}
	if r.Phase() != backend.PhaseReady {
		t.Errorf("phase = %s, want ready", r.Phase())
	}
	img := r.Image()
	if img == nil {
		t.Fatal("no image after Init")
	}
	if img.Rect.Dx() != 64 || img.Rect.Dy() != 48 {
		t.Errorf("image size = %v, want 64x48", img.Rect)
	}
}

func TestInitTwiceFails(t *testing.T) {
	r, _ := newTestRenderer(t)
	if err := r.Init(); err != nil {
		t.Fatal(err)
	}
	if err := r.Init(); err == nil {
		t.Error("second Init succeeded")
	}
}

func TestRenderFillsImage(t *testing.T) {
	r, _ := newTestRenderer(t)
	if err := r.Init(); err != nil {
		t.Fatal(err)
	}

	r.OnStateUpdate(vfx.DefaultState())

	img := r.Image()
	opaque := true
	for y := 0; y < img.Rect.Dy(); y++ {
		for x := 0; x < img.Rect.Dx(); x++ {
			if img.Pix[img.PixOffset(x, y)+3] != 255 {
				opaque = false
			}
		}
	}
	if !opaque {
		t.Error("rendered frame has transparent pixels")
	}
}

func TestFrameThrottle(t *testing.T) {
	r, clk := newTestRenderer(t)
	if err := r.Init(); err != nil {
		t.Fatal(err)
	}

	warm := vfx.DefaultState()
	warm.ColorTemperature = 1800
	cool := vfx.DefaultState()
	cool.ColorTemperature = 18000

	r.OnStateUpdate(warm)
	first := snapshot(t, r)

	// Inside the frame interval nothing is redrawn, even with a very
	// different state.
	r.OnStateUpdate(cool)
	if !bytes.Equal(first, snapshot(t, r)) {
		t.Error("frame rendered inside the throttle window")
	}

	clk.Advance(frameInterval)
	r.OnStateUpdate(cool)
	if bytes.Equal(first, snapshot(t, r)) {
		t.Error("frame not redrawn after the interval elapsed")
	}
}

func TestIntensitySpikeBypassesThrottle(t *testing.T) {
	r, _ := newTestRenderer(t)
	if err := r.Init(); err != nil {
		t.Fatal(err)
	}

	warm := vfx.DefaultState()
	warm.ColorTemperature = 1800
	r.OnStateUpdate(warm)
	first := snapshot(t, r)

	cool := vfx.DefaultState()
	cool.ColorTemperature = 18000
	r.OnStateUpdate(cool)
	r.OnEvent(vfx.EventIntensitySpike, nil)
	if bytes.Equal(first, snapshot(t, r)) {
		t.Error("spike did not force a redraw")
	}
}

type swapStops struct{ stops []vfx.ColorStop }

func (s *swapStops) Stops() []vfx.ColorStop { return s.stops }

func TestPaletteShiftInvalidatesRamp(t *testing.T) {
	provider := &swapStops{stops: []vfx.ColorStop{
		{Offset: 0, Color: vfx.RGB(1, 0, 0)},
		{Offset: 1, Color: vfx.RGB(1, 0.2, 0.2)},
	}}
	r, _ := newTestRenderer(t, WithColorStopProvider(provider))
	if err := r.Init(); err != nil {
		t.Fatal(err)
	}

	r.OnStateUpdate(vfx.DefaultState())
	red := snapshot(t, r)

	// The ramp is cached: a provider change alone does not show up.
	provider.stops = []vfx.ColorStop{
		{Offset: 0, Color: vfx.RGB(0, 0, 1)},
		{Offset: 1, Color: vfx.RGB(0.2, 0.2, 1)},
	}
	r.OnEvent(vfx.EventIntensitySpike, nil)
	if !bytes.Equal(red, snapshot(t, r)) {
		t.Fatal("cached ramp rebuilt without a palette event")
	}

	// The palette event drops the cache; the next frame picks up the new
	// stops.
	r.OnEvent(vfx.EventPaletteShift, nil)
	r.OnEvent(vfx.EventIntensitySpike, nil)
	if bytes.Equal(red, snapshot(t, r)) {
		t.Error("palette shift did not rebuild the ramp")
	}
}

func TestTemperatureDriftRebuildsRamp(t *testing.T) {
	r, clk := newTestRenderer(t)
	if err := r.Init(); err != nil {
		t.Fatal(err)
	}

	warm := vfx.DefaultState()
	warm.ColorTemperature = 1800
	r.OnStateUpdate(warm)
	first := snapshot(t, r)

	// Drift beyond the threshold forces a ramp rebuild on the next frame.
	clk.Advance(frameInterval)
	drifted := warm
	drifted.ColorTemperature = 1800 + tempDrift + 500
	r.OnStateUpdate(drifted)
	if bytes.Equal(first, snapshot(t, r)) {
		t.Error("temperature drift did not change the ramp")
	}
}

func TestContribution(t *testing.T) {
	r, _ := newTestRenderer(t)
	c, err := r.Contribution()
	if err != nil {
		t.Fatal(err)
	}
	if c.AdaptiveQuality == nil {
		t.Fatal("no quality contribution")
	}
	if *c.AdaptiveQuality != vfx.QualityLow.Normalized() {
		t.Errorf("contributed quality = %v, want %v",
			*c.AdaptiveQuality, vfx.QualityLow.Normalized())
	}
}

func TestResize(t *testing.T) {
	r, clk := newTestRenderer(t)
	if err := r.Init(); err != nil {
		t.Fatal(err)
	}

	r.Resize(32, 16)
	clk.Advance(frameInterval)
	r.OnStateUpdate(vfx.DefaultState())

	img := r.Image()
	if img.Rect.Dx() != 32 || img.Rect.Dy() != 16 {
		t.Errorf("image size after resize = %v, want 32x16", img.Rect)
	}
}

func TestCloseIdempotent(t *testing.T) {
	r, _ := newTestRenderer(t)
	if err := r.Init(); err != nil {
		t.Fatal(err)
	}

	r.Close()
	r.Close()
	if r.Phase() != backend.PhaseDestroyed {
		t.Errorf("phase = %s, want destroyed", r.Phase())
	}
	if r.Image() != nil {
		t.Error("image retained after Close")
	}

	// Updates after teardown are absorbed.
	r.OnStateUpdate(vfx.DefaultState())
	r.OnEvent(vfx.EventIntensitySpike, nil)
}

func TestRendererName(t *testing.T) {
	r, _ := newTestRenderer(t)
	if r.Name() != backend.BackendSoftware {
		t.Errorf("Name = %q, want %q", r.Name(), backend.BackendSoftware)
	}
}
