package geo

import (
	"math"
	"testing"
)

func TestDistXZIgnoresHeight(t *testing.T) {
	a := Vector3{X: 0, Y: 0, Z: 0}
	b := Vector3{X: 3, Y: 250, Z: 4}
	if got := DistXZ(a, b); got != 5 {
		t.Fatalf("expected horizontal distance 5, got %v", got)
	}
	if got := Dist(a, b); got <= 250 {
		t.Fatalf("expected full distance to include height, got %v", got)
	}
}

func TestWithinXZBoundaryInclusive(t *testing.T) {
	center := Vector3{}
	if !WithinXZ(center, Vector3{X: 5}, 5) {
		t.Fatalf("distance exactly 5 must be within radius 5")
	}
	if WithinXZ(center, Vector3{X: 5.1}, 5) {
		t.Fatalf("distance 5.1 must be outside radius 5")
	}
	if WithinXZ(center, Vector3{X: 1}, -1) {
		t.Fatalf("negative radius can never contain a point")
	}
}

func TestIsFinite(t *testing.T) {
	if !(Vector3{X: 1, Y: 2, Z: 3}).IsFinite() {
		t.Fatalf("plain vector should be finite")
	}
	bad := []Vector3{
		{X: math.NaN()},
		{Y: math.Inf(1)},
		{Z: math.Inf(-1)},
	}
	for i, v := range bad {
		if v.IsFinite() {
			t.Fatalf("case %d: expected non-finite", i)
		}
	}
}

func TestVectorArithmetic(t *testing.T) {
	v := Vector3{X: 1, Y: 2, Z: 3}.Add(Vector3{X: 4, Y: 5, Z: 6})
	if v != (Vector3{X: 5, Y: 7, Z: 9}) {
		t.Fatalf("add: got %+v", v)
	}
	v = v.Sub(Vector3{X: 5, Y: 7, Z: 9})
	if v != Origin {
		t.Fatalf("sub: got %+v", v)
	}
	v = Vector3{X: 1, Y: -2, Z: 2}.Scale(3)
	if v.Length() != 9 {
		t.Fatalf("expected length 9, got %v", v.Length())
	}
}
