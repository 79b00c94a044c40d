// Package camera turns pointer drags and wheel turns into an orbiting view.
//
// The camera stays at the origin. Dragging changes the longitude and latitude
// of the point it looks at; the wheel changes the field of view.
package camera

import (
	"github.com/go-gl/mathgl/mgl64"

	"panoviewer/internal/mathutil"
)

// Projector is what the controller drives; *scene.Camera satisfies it.
type Projector interface {
	SetFieldOfView(fov float64)
	LookAt(target mgl64.Vec3)
}

const (
	// DefaultSensitivity is degrees of orbit per pixel of drag.
	DefaultSensitivity = 0.1
	// MaxLatitude keeps the look-at target away from the poles.
	MaxLatitude = 85.0
	// DefaultTargetRadius is the distance of the look-at point.
	DefaultTargetRadius = 500.0
	DefaultFieldOfView  = 75.0
	MinFieldOfView      = 10.0
	MaxFieldOfView      = 150.0
)

// Config tunes a Controller. Zero fields take the defaults above.
type Config struct {
	Sensitivity  float64
	TargetRadius float64
	FieldOfView  float64
	MinFOV       float64
	MaxFOV       float64
}

func (c Config) withDefaults() Config {
	if c.Sensitivity == 0 {
		c.Sensitivity = DefaultSensitivity
	}
	if c.TargetRadius <= 0 {
		c.TargetRadius = DefaultTargetRadius
	}
	if c.MinFOV <= 0 {
		c.MinFOV = MinFieldOfView
	}
	if c.MaxFOV <= 0 || c.MaxFOV >= 180 {
		c.MaxFOV = MaxFieldOfView
	}
	if c.MinFOV > c.MaxFOV {
		c.MinFOV, c.MaxFOV = c.MaxFOV, c.MinFOV
	}
	if c.FieldOfView <= 0 {
		c.FieldOfView = DefaultFieldOfView
	}
	c.FieldOfView = mathutil.Clamp(c.FieldOfView, c.MinFOV, c.MaxFOV)
	return c
}

// Mode is the drag state.
type Mode int

const (
	Idle Mode = iota
	Dragging
)

func (m Mode) String() string {
	if m == Dragging {
		return "dragging"
	}
	return "idle"
}

// DragAnchor is captured on pointer down; moves are measured from it.
type DragAnchor struct {
	X, Y      float64
	Longitude float64
	Latitude  float64
}

// State is the controller's camera state. Latitude may briefly leave
// [-MaxLatitude, MaxLatitude] during a drag; Update clamps it.
type State struct {
	Longitude   float64
	Latitude    float64
	FieldOfView float64
	Anchor      *DragAnchor
}

// Controller owns the camera state of one viewing session.
type Controller struct {
	cfg   Config
	state State
	proj  Projector
}

// NewController pushes the initial field of view to proj.
func NewController(cfg Config, proj Projector) *Controller {
	cfg = cfg.withDefaults()
	c := &Controller{
		cfg:   cfg,
		state: State{FieldOfView: cfg.FieldOfView},
		proj:  proj,
	}
	if proj != nil {
		proj.SetFieldOfView(cfg.FieldOfView)
	}
	return c
}

// Config returns the effective configuration.
func (c *Controller) Config() Config { return c.cfg }

// State returns a copy of the current state.
func (c *Controller) State() State {
	s := c.state
	if s.Anchor != nil {
		a := *s.Anchor
		s.Anchor = &a
	}
	return s
}

// Mode reports whether a drag is in progress.
func (c *Controller) Mode() Mode {
	if c.state.Anchor != nil {
		return Dragging
	}
	return Idle
}

// PointerDown starts a drag anchored at (x, y) and the current angles.
func (c *Controller) PointerDown(x, y float64) {
	c.state.Anchor = &DragAnchor{
		X:         x,
		Y:         y,
		Longitude: c.state.Longitude,
		Latitude:  c.state.Latitude,
	}
}

// PointerMove recomputes the angles from the anchor. It is ignored when idle.
func (c *Controller) PointerMove(x, y float64) {
	a := c.state.Anchor
	if a == nil {
		return
	}
	c.state.Longitude = (a.X-x)*c.cfg.Sensitivity + a.Longitude
	c.state.Latitude = (y-a.Y)*c.cfg.Sensitivity + a.Latitude
}

// PointerUp ends the drag.
func (c *Controller) PointerUp() {
	c.state.Anchor = nil
}

// PointerCancel ends the drag when the pointer leaves or is captured elsewhere.
func (c *Controller) PointerCancel() {
	c.PointerUp()
}

// Wheel zooms by a raw wheel event.
func (c *Controller) Wheel(ev WheelEvent) {
	c.Zoom(NormalizeWheel(ev))
}

// Zoom changes the field of view within the configured bounds and updates
// the projection right away.
func (c *Controller) Zoom(d ZoomDelta) {
	fov := mathutil.Clamp(c.state.FieldOfView+float64(d), c.cfg.MinFOV, c.cfg.MaxFOV)
	c.state.FieldOfView = fov
	if c.proj != nil {
		c.proj.SetFieldOfView(fov)
	}
}

// SetView jumps to the given angles, ending any drag.
func (c *Controller) SetView(lon, lat float64) {
	c.state.Anchor = nil
	c.state.Longitude = lon
	c.state.Latitude = lat
}

// Update is the per-frame step: clamp the latitude, compute the look-at
// target and point the projector at it.
func (c *Controller) Update() mgl64.Vec3 {
	c.state.Latitude = mathutil.Clamp(c.state.Latitude, -MaxLatitude, MaxLatitude)
	target := LookTarget(c.state.Longitude, c.state.Latitude, c.cfg.TargetRadius)
	if c.proj != nil {
		c.proj.LookAt(target)
	}
	return target
}

// LookTarget returns the point at radius r seen at the given longitude and
// latitude, using the same spherical convention as panel placement.
func LookTarget(lon, lat, r float64) mgl64.Vec3 {
	return mathutil.OnSphere(r, mathutil.Clamp(lat, -MaxLatitude, MaxLatitude), lon)
}
