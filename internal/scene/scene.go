// Package scene holds what is drawn each frame: the current panel set, the
// reference axis markers and the camera contract a rendering backend consumes.
package scene

import (
	"image"
	"image/color"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"panoviewer/internal/placement"
)

// Quad is a placed panel with its texture.
type Quad struct {
	placement.Panel
	Texture     *image.NRGBA
	Placeholder bool // texture could not be loaded
	model       mgl64.Mat4
}

// NewQuad caches the panel's model matrix.
func NewQuad(p placement.Panel, tex *image.NRGBA, placeholder bool) Quad {
	return Quad{Panel: p, Texture: tex, Placeholder: placeholder, model: p.Model()}
}

// ModelMatrix returns the cached model matrix.
func (q *Quad) ModelMatrix() mgl64.Mat4 { return q.model }

// PanelSet is one loaded panorama. It is never modified once published.
type PanelSet struct {
	ID         string
	Generation uint64
	Quads      []Quad
}

// Len returns the number of quads; a nil set has none.
func (ps *PanelSet) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.Quads)
}

// AxisMarker is a fixed calibration point on one world axis.
type AxisMarker struct {
	Axis     string
	Position mgl64.Vec3
	Color    color.NRGBA
}

// DefaultMarkerDistance is how far from the origin the axis markers sit.
const DefaultMarkerDistance = 500.0

// Scene is the unordered set of panels plus three axis markers.
// The panel set is replaced as a whole; readers see either the old set or
// the new one.
type Scene struct {
	panels  atomic.Pointer[PanelSet]
	markers [3]AxisMarker
	Axes    bool // draw markers
}

// New returns an empty scene with axis markers at distance r.
func New(r float64) *Scene {
	return &Scene{
		markers: [3]AxisMarker{
			{Axis: "x", Position: mgl64.Vec3{r, 0, 0}, Color: color.NRGBA{R: 255, A: 255}},
			{Axis: "y", Position: mgl64.Vec3{0, r, 0}, Color: color.NRGBA{G: 255, A: 255}},
			{Axis: "z", Position: mgl64.Vec3{0, 0, r}, Color: color.NRGBA{B: 255, A: 255}},
		},
		Axes: true,
	}
}

// Replace publishes set and returns the one it replaced.
func (s *Scene) Replace(set *PanelSet) *PanelSet {
	return s.panels.Swap(set)
}

// Clear removes all panels.
func (s *Scene) Clear() *PanelSet {
	return s.Replace(nil)
}

// Panels returns the current panel set, nil when nothing is loaded.
func (s *Scene) Panels() *PanelSet {
	return s.panels.Load()
}

// Markers returns the axis markers.
func (s *Scene) Markers() [3]AxisMarker {
	return s.markers
}

// Backend draws a scene from a camera.
type Backend interface {
	Draw(s *Scene, cam *Camera) error
}
