package vfx

import "sort"

// ColorStop represents a color at a specific position in a gradient.
// The color-stop provider supplies an ordered list of these; backends
// turn them into their gradient lookup textures.
type ColorStop struct {
	Offset float64 // Position in gradient, 0.0 to 1.0
	Color  RGBA    // Color at this position
}

// SortStops returns a copy of stops sorted by offset. The input slice is
// not modified.
func SortStops(stops []ColorStop) []ColorStop {
	if len(stops) == 0 {
		return stops
	}

	sorted := make([]ColorStop, len(stops))
	copy(sorted, stops)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	return sorted
}

// ColorAtOffset returns the interpolated color at offset t in [0, 1].
// Interpolation runs in Lab space. Handles edge cases: empty stops,
// single stop, out-of-bounds t.
func ColorAtOffset(stops []ColorStop, t float64) RGBA {
	// Edge case: no stops
	if len(stops) == 0 {
		return RGBA{}
	}

	// Edge case: single stop
	if len(stops) == 1 {
		return stops[0].Color
	}

	// Sort stops if needed (defensive, callers should pre-sort)
	sorted := SortStops(stops)

	t = clamp01(t)

	// Find the two stops to interpolate between
	idx := sort.Search(len(sorted), func(i int) bool {
		return sorted[i].Offset >= t
	})

	if idx == 0 {
		return sorted[0].Color
	}
	if idx >= len(sorted) {
		return sorted[len(sorted)-1].Color
	}

	stop1 := sorted[idx-1]
	stop2 := sorted[idx]

	// Avoid division by zero for coincident stops
	if stop2.Offset == stop1.Offset {
		return stop1.Color
	}

	localT := (t - stop1.Offset) / (stop2.Offset - stop1.Offset)

	return stop1.Color.BlendLab(stop2.Color, localT)
}

// BuildRamp samples the gradient defined by stops into a horizontal RGBA
// pixel ramp of the given width (4 bytes per pixel, non-premultiplied).
// A warmth tint derived from the color temperature is folded in so the
// whole palette drifts with the state.
//
// Returns nil when width is not positive.
func BuildRamp(stops []ColorStop, width int, temperature float64) []uint8 {
	if width <= 0 {
		return nil
	}

	tint := TemperatureColor(temperature)
	sorted := SortStops(stops)

	ramp := make([]uint8, width*4)
	for x := 0; x < width; x++ {
		t := 0.0
		if width > 1 {
			t = float64(x) / float64(width-1)
		}
		c := ColorAtOffset(sorted, t)
		// A light touch: 15% pull toward the temperature tint keeps the
		// provider's palette recognizable.
		c = c.BlendLab(RGBA{R: tint.R, G: tint.G, B: tint.B, A: c.A}, 0.15)

		ramp[x*4+0] = uint8(clamp255(c.R * 255))
		ramp[x*4+1] = uint8(clamp255(c.G * 255))
		ramp[x*4+2] = uint8(clamp255(c.B * 255))
		ramp[x*4+3] = uint8(clamp255(c.A * 255))
	}
	return ramp
}
