package vfx

import (
	"math"
	"testing"
)

func TestVec2Arithmetic(t *testing.T) {
	a := V2(1, 2)
	b := V2(3, -1)

	if got := a.Add(b); got != V2(4, 1) {
		t.Errorf("Add = %v", got)
	}
	if got := a.Sub(b); got != V2(-2, 3) {
		t.Errorf("Sub = %v", got)
	}
	if got := a.Mul(2); got != V2(2, 4) {
		t.Errorf("Mul = %v", got)
	}
	if got := a.Dot(b); got != 1 {
		t.Errorf("Dot = %v, want 1", got)
	}
}

func TestVec2Normalize(t *testing.T) {
	v := V2(3, 4).Normalize()
	if math.Abs(v.Length()-1) > 1e-12 {
		t.Errorf("normalized length = %v, want 1", v.Length())
	}
	if got := (Vec2{}).Normalize(); got != (Vec2{}) {
		t.Errorf("zero vector normalize = %v, want zero", got)
	}
}

func TestVec2Lerp(t *testing.T) {
	a := V2(0, 0)
	b := V2(10, -10)
	if got := a.Lerp(b, 0); got != a {
		t.Errorf("Lerp(0) = %v, want %v", got, a)
	}
	if got := a.Lerp(b, 1); got != b {
		t.Errorf("Lerp(1) = %v, want %v", got, b)
	}
	if got := a.Lerp(b, 0.5); got != V2(5, -5) {
		t.Errorf("Lerp(0.5) = %v, want (5, -5)", got)
	}
}
