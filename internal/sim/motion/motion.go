package motion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"arrakis.gg/internal/geo"
)

// Intent is one tick's movement request: axis pushes in {-1,0,1} and the
// facing yaw in radians.
type Intent struct {
	Forward  int8
	Right    int8
	Rotation float64
}

func (in Intent) zero() bool { return in.Forward == 0 && in.Right == 0 }

// Step integrates one tick of dead-reckoned movement and returns the new
// position plus the velocity used. The exact same routine runs on the
// server and inside the client predictor, so replaying an input sequence
// lands on bit-identical positions.
func Step(pos geo.Vector3, in Intent, speedMps, dtSec float64) (geo.Vector3, geo.Vector3) {
	if in.zero() || speedMps <= 0 || dtSec <= 0 {
		return pos, geo.Vector3{}
	}
	if math.IsNaN(in.Rotation) || math.IsInf(in.Rotation, 0) {
		return pos, geo.Vector3{}
	}
	local := mgl64.Vec3{float64(in.Right), 0, float64(in.Forward)}
	dir := local.Normalize()
	world := mgl64.Rotate3DY(in.Rotation).Mul3x1(dir)
	vel := world.Mul(speedMps)

	next := geo.Vector3{
		X: pos.X + vel.X()*dtSec,
		Y: pos.Y,
		Z: pos.Z + vel.Z()*dtSec,
	}
	return next, geo.Vector3{X: vel.X(), Y: vel.Y(), Z: vel.Z()}
}

// ClampRadius pulls a position back onto the playable disc of the given
// radius, preserving height. Both sides apply it after Step so the world
// edge cannot introduce prediction drift.
func ClampRadius(pos geo.Vector3, radius float64) geo.Vector3 {
	if radius <= 0 {
		return pos
	}
	d := math.Hypot(pos.X, pos.Z)
	if d <= radius {
		return pos
	}
	scale := radius / d
	return geo.Vector3{X: pos.X * scale, Y: pos.Y, Z: pos.Z * scale}
}
