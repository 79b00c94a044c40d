package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"panoviewer/internal/mathutil"
)

// Camera is a perspective camera fixed at the origin.
type Camera struct {
	FieldOfView float64 // vertical, degrees
	Aspect      float64
	Near, Far   float64
	Target      mgl64.Vec3
	Up          mgl64.Vec3

	projection mgl64.Mat4
	view       mgl64.Mat4
}

// NewCamera returns a camera looking along +X with +Y up.
func NewCamera(fov, aspect, near, far float64) *Camera {
	c := &Camera{
		FieldOfView: fov,
		Aspect:      aspect,
		Near:        near,
		Far:         far,
		Target:      mgl64.Vec3{1, 0, 0},
		Up:          mgl64.Vec3{0, 1, 0},
	}
	c.updateProjection()
	c.updateView()
	return c
}

// SetFieldOfView changes the vertical field of view and rebuilds the projection.
func (c *Camera) SetFieldOfView(fov float64) {
	c.FieldOfView = fov
	c.updateProjection()
}

// SetAspect changes the aspect ratio (width / height).
func (c *Camera) SetAspect(aspect float64) {
	if aspect <= 0 {
		return
	}
	c.Aspect = aspect
	c.updateProjection()
}

// SetClip changes the near and far planes.
func (c *Camera) SetClip(near, far float64) {
	c.Near, c.Far = near, far
	c.updateProjection()
}

// LookAt orients the camera toward target.
func (c *Camera) LookAt(target mgl64.Vec3) {
	c.Target = target
	c.updateView()
}

func (c *Camera) Projection() mgl64.Mat4 { return c.projection }
func (c *Camera) View() mgl64.Mat4       { return c.view }

// ViewProjection returns projection · view.
func (c *Camera) ViewProjection() mgl64.Mat4 {
	return c.projection.Mul4(c.view)
}

// Position is always the origin.
func (c *Camera) Position() mgl64.Vec3 {
	return mgl64.Vec3{}
}

func (c *Camera) updateProjection() {
	c.projection = mgl64.Perspective(mathutil.Deg2Rad(c.FieldOfView), c.Aspect, c.Near, c.Far)
}

func (c *Camera) updateView() {
	c.view = mgl64.LookAtV(c.Position(), c.Target, c.Up)
}
