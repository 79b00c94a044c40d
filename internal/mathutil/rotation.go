package mathutil

import "github.com/go-gl/mathgl/mgl64"

// Euler is a rotation expressed as three angles in radians.
//
// Mat4 composes it as Ry(Y) · Rx(-X) · Rz(Z): Z rolls the object in its own
// plane, X tilts its +Z axis toward +Y, Y turns it about the vertical axis.
type Euler struct {
	X, Y, Z float64
}

// Mat4 returns the homogeneous rotation matrix.
func (e Euler) Mat4() mgl64.Mat4 {
	return mgl64.HomogRotate3DY(e.Y).
		Mul4(mgl64.HomogRotate3DX(-e.X)).
		Mul4(mgl64.HomogRotate3DZ(e.Z))
}

// Degrees returns the three angles converted to degrees.
func (e Euler) Degrees() (x, y, z float64) {
	return Rad2Deg(e.X), Rad2Deg(e.Y), Rad2Deg(e.Z)
}

// MirrorX flips the X axis. Applied last to a model transform it inverts the
// winding of its faces.
var MirrorX = mgl64.Scale3D(-1, 1, 1)
