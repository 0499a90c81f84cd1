package vfx

import (
	"testing"
)

func TestSortStopsDoesNotMutate(t *testing.T) {
	stops := []ColorStop{
		{Offset: 0.9, Color: RGB(1, 0, 0)},
		{Offset: 0.1, Color: RGB(0, 1, 0)},
		{Offset: 0.5, Color: RGB(0, 0, 1)},
	}
	sorted := SortStops(stops)

	if stops[0].Offset != 0.9 {
		t.Error("SortStops mutated its input")
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Offset < sorted[i-1].Offset {
			t.Fatalf("not sorted at %d: %v", i, sorted)
		}
	}
}

func TestColorAtOffsetEdgeCases(t *testing.T) {
	red := RGB(1, 0, 0)
	blue := RGB(0, 0, 1)

	t.Run("empty stops", func(t *testing.T) {
		if got := ColorAtOffset(nil, 0.5); got != (RGBA{}) {
			t.Errorf("empty stops = %+v, want zero", got)
		}
	})

	t.Run("single stop", func(t *testing.T) {
		stops := []ColorStop{{Offset: 0.5, Color: red}}
		for _, offset := range []float64{0, 0.5, 1} {
			if got := ColorAtOffset(stops, offset); got != red {
				t.Errorf("single stop at %v = %+v, want red", offset, got)
			}
		}
	})

	t.Run("out of bounds clamps to end stops", func(t *testing.T) {
		stops := []ColorStop{
			{Offset: 0.2, Color: red},
			{Offset: 0.8, Color: blue},
		}
		if got := ColorAtOffset(stops, -1); !colorsClose(got, red) {
			t.Errorf("t=-1 = %+v, want red", got)
		}
		if got := ColorAtOffset(stops, 2); !colorsClose(got, blue) {
			t.Errorf("t=2 = %+v, want blue", got)
		}
	})

	t.Run("coincident stops", func(t *testing.T) {
		stops := []ColorStop{
			{Offset: 0.5, Color: red},
			{Offset: 0.5, Color: blue},
		}
		// Must not divide by zero; either stop's color is acceptable.
		got := ColorAtOffset(stops, 0.5)
		if !colorsClose(got, red) && !colorsClose(got, blue) {
			t.Errorf("coincident stops = %+v", got)
		}
	})

	t.Run("midpoint is neither endpoint", func(t *testing.T) {
		stops := []ColorStop{
			{Offset: 0, Color: red},
			{Offset: 1, Color: blue},
		}
		mid := ColorAtOffset(stops, 0.5)
		if colorsClose(mid, red) || colorsClose(mid, blue) {
			t.Errorf("midpoint equals an endpoint: %+v", mid)
		}
	})
}

func TestBuildRamp(t *testing.T) {
	stops := []ColorStop{
		{Offset: 0, Color: RGB(0, 0, 0)},
		{Offset: 1, Color: RGB(1, 1, 1)},
	}

	ramp := BuildRamp(stops, 64, 6500)
	if len(ramp) != 64*4 {
		t.Fatalf("ramp length = %d, want %d", len(ramp), 64*4)
	}

	// Luminance must increase from the dark end to the light end.
	first := int(ramp[0]) + int(ramp[1]) + int(ramp[2])
	last := int(ramp[63*4]) + int(ramp[63*4+1]) + int(ramp[63*4+2])
	if last <= first {
		t.Errorf("ramp not rising: first=%d last=%d", first, last)
	}
}

func TestBuildRampInvalidWidth(t *testing.T) {
	stops := []ColorStop{{Offset: 0, Color: RGB(1, 1, 1)}}
	if got := BuildRamp(stops, 0, 6500); got != nil {
		t.Errorf("width 0 = %v, want nil", got)
	}
	if got := BuildRamp(stops, -5, 6500); got != nil {
		t.Errorf("negative width = %v, want nil", got)
	}
}

func TestBuildRampSingleColumn(t *testing.T) {
	stops := []ColorStop{
		{Offset: 0, Color: RGB(0.5, 0.5, 0.5)},
		{Offset: 1, Color: RGB(1, 1, 1)},
	}
	ramp := BuildRamp(stops, 1, 6500)
	if len(ramp) != 4 {
		t.Fatalf("ramp length = %d, want 4", len(ramp))
	}
}
