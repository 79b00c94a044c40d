package mathutil

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Spherical converts spherical coordinates to a Y-up cartesian point.
// phi is the colatitude measured from +Y, theta the azimuth from +X toward +Z,
// both in radians.
func Spherical(radius, phi, theta float64) mgl64.Vec3 {
	sp, cp := math.Sincos(phi)
	st, ct := math.Sincos(theta)
	return mgl64.Vec3{
		radius * sp * ct,
		radius * cp,
		radius * sp * st,
	}
}

// OnSphere places a point at the given elevation and azimuth (degrees).
// Elevation 0 lies on the horizon plane, 90 at the zenith.
func OnSphere(radius, elevationDeg, azimuthDeg float64) mgl64.Vec3 {
	return Spherical(radius, Deg2Rad(90-elevationDeg), Deg2Rad(azimuthDeg))
}
