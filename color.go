package vfx

import (
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBA represents a color with red, green, blue, and alpha components.
// Each component is in the range [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// Color converts RGBA to the standard color.Color interface.
func (c RGBA) Color() color.Color {
	return color.NRGBA{
		R: uint8(clamp255(c.R * 255)),
		G: uint8(clamp255(c.G * 255)),
		B: uint8(clamp255(c.B * 255)),
		A: uint8(clamp255(c.A * 255)),
	}
}

// Bytes returns the color as non-premultiplied 8-bit components.
func (c RGBA) Bytes() (r, g, b, a uint8) {
	return uint8(clamp255(c.R * 255)),
		uint8(clamp255(c.G * 255)),
		uint8(clamp255(c.B * 255)),
		uint8(clamp255(c.A * 255))
}

// FromColor converts a standard color.Color to RGBA.
func FromColor(c color.Color) RGBA {
	r, g, b, a := c.RGBA()
	return RGBA{
		R: float64(r) / 65535,
		G: float64(g) / 65535,
		B: float64(b) / 65535,
		A: float64(a) / 65535,
	}
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1.0}
}

// Colorful converts RGBA to a go-colorful color, dropping alpha.
func (c RGBA) Colorful() colorful.Color {
	return colorful.Color{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B)}
}

// BlendLab interpolates between two colors in Lab space, which avoids the
// muddy midpoints of naive RGB interpolation. Alpha interpolates linearly.
func (c RGBA) BlendLab(other RGBA, t float64) RGBA {
	t = clamp01(t)
	blended := c.Colorful().BlendLab(other.Colorful(), t).Clamped()
	return RGBA{
		R: blended.R,
		G: blended.G,
		B: blended.B,
		A: c.A + t*(other.A-c.A),
	}
}

// TemperatureColor approximates the RGB appearance of a black body at the
// given Kelvin-like temperature. Input is clamped to the documented
// [MinColorTemperature, MaxColorTemperature] range.
func TemperatureColor(kelvin float64) RGBA {
	k := clamp(kelvin, MinColorTemperature, MaxColorTemperature) / 100

	var r, g, b float64
	if k <= 66 {
		r = 255
		g = 99.47*math.Log(k) - 161.12
	} else {
		r = 329.70 * math.Pow(k-60, -0.1332)
		g = 288.12 * math.Pow(k-60, -0.0755)
	}
	switch {
	case k >= 66:
		b = 255
	case k <= 19:
		b = 0
	default:
		b = 138.52*math.Log(k-10) - 305.04
	}

	return RGBA{
		R: clamp01(r / 255),
		G: clamp01(g / 255),
		B: clamp01(b / 255),
		A: 1,
	}
}

// clamp255 clamps a value to [0, 255] range.
func clamp255(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return x
}
