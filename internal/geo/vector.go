package geo

import "math"

// Vector3 is an immutable world-space point or direction. Gameplay range
// checks are horizontal (x/z): height differences never disqualify a pickup
// or a zone membership.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

var Origin = Vector3{}

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vector3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Dist is the full Euclidean distance.
func Dist(a, b Vector3) float64 {
	return a.Sub(b).Length()
}

// DistXZ is the horizontal distance, ignoring Y.
func DistXZ(a, b Vector3) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// DistXZSq avoids the square root for threshold comparisons; compare against
// radius*radius so boundary values stay exact.
func DistXZSq(a, b Vector3) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return dx*dx + dz*dz
}

// WithinXZ reports whether b lies within radius of a horizontally, boundary
// inclusive.
func WithinXZ(a, b Vector3, radius float64) bool {
	if radius < 0 {
		return false
	}
	return DistXZSq(a, b) <= radius*radius
}

// IsFinite reports whether every component is a real number. Positions
// arriving off the wire must pass this before they reach range checks.
func (v Vector3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
