// Package raster is a software rendering backend: it draws the scene's
// textured panels and axis markers into an RGBA frame buffer.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl64"

	"panoviewer/internal/scene"
)

// ErrViewport is returned when drawing into an empty frame.
var ErrViewport = errors.New("raster: viewport must be at least 1x1")

// quadCorners is the unit quad in its local XY plane, counter-clockwise seen
// from +Z, with v = 0 at the top edge.
var quadCorners = [4]struct{ x, y, u, v float64 }{
	{-0.5, -0.5, 0, 1},
	{0.5, -0.5, 1, 1},
	{0.5, 0.5, 1, 0},
	{-0.5, 0.5, 0, 0},
}

// untextured is the fill of quads without a texture.
var untextured = [4]uint8{160, 160, 170, 255}

// Stats counts what the last Draw did with the scene's quads.
type Stats struct {
	Drawn   int
	Culled  int // facing away
	Clipped int // entirely behind the near plane
	Markers int
}

// Renderer is a scene.Backend that rasterises into memory.
// It is not safe for concurrent use; use one per goroutine.
type Renderer struct {
	Width, Height int
	Background    color.NRGBA
	Grade         Grade
	MarkerSize    int // edge of an axis marker in pixels

	fb      *FrameBuffer
	stats   Stats
	poly    []vertex
	clipped []vertex
	screen  []screenVertex
}

var _ scene.Backend = (*Renderer)(nil)

// NewRenderer returns a renderer for a width x height frame.
func NewRenderer(width, height int) *Renderer {
	return &Renderer{
		Width:      width,
		Height:     height,
		Background: color.NRGBA{R: 16, G: 16, B: 20, A: 255},
		Grade:      DefaultGrade(),
		MarkerSize: 8,
	}
}

// Resize changes the frame size; the buffer is reallocated on the next Draw.
func (r *Renderer) Resize(width, height int) {
	r.Width, r.Height = width, height
}

// Draw renders s as seen by cam.
func (r *Renderer) Draw(s *scene.Scene, cam *scene.Camera) error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrViewport, r.Width, r.Height)
	}
	if r.fb == nil || r.fb.Width != r.Width || r.fb.Height != r.Height {
		r.fb = NewFrameBuffer(r.Width, r.Height)
	}
	r.fb.Clear(r.Background)
	r.stats = Stats{}

	vp := cam.ViewProjection()
	if set := s.Panels(); set != nil {
		for i := range set.Quads {
			r.drawQuad(vp, &set.Quads[i])
		}
	}
	if s.Axes {
		for _, m := range s.Markers() {
			r.drawMarker(vp, m)
		}
	}
	return nil
}

func (r *Renderer) drawQuad(vp mgl64.Mat4, q *scene.Quad) {
	mvp := vp.Mul4(q.ModelMatrix())

	r.poly = r.poly[:0]
	for _, c := range quadCorners {
		r.poly = append(r.poly, vertex{
			clip: mvp.Mul4x1(mgl64.Vec4{c.x, c.y, 0, 1}),
			u:    c.u,
			v:    c.v,
		})
	}

	r.clipped = clipNear(r.poly, r.clipped[:0])
	if len(r.clipped) < 3 {
		r.stats.Clipped++
		return
	}

	r.screen = r.screen[:0]
	for _, v := range r.clipped {
		r.screen = append(r.screen, project(v, r.fb.Width, r.fb.Height))
	}
	if signedArea(r.screen) <= 0 {
		r.stats.Culled++
		return
	}

	for i := 1; i+1 < len(r.screen); i++ {
		rasterizeTriangle(r.fb, r.screen[0], r.screen[i], r.screen[i+1], q.Texture, untextured, r.Grade)
	}
	r.stats.Drawn++
}

func (r *Renderer) drawMarker(vp mgl64.Mat4, m scene.AxisMarker) {
	clip := vp.Mul4x1(m.Position.Vec4(1))
	if clip.Z()+clip.W() < 0 || clip.W() <= 0 {
		return
	}
	sv := project(vertex{clip: clip}, r.fb.Width, r.fb.Height)

	half := max(r.MarkerSize/2, 1)
	cx, cy := int(sv.x), int(sv.y)
	x0, x1 := max(cx-half, 0), min(cx+half, r.fb.Width)
	y0, y1 := max(cy-half, 0), min(cy+half, r.fb.Height)
	if x0 >= x1 || y0 >= y1 {
		return
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			r.fb.plot(x, y, sv.invW, m.Color.R, m.Color.G, m.Color.B, m.Color.A)
		}
	}
	r.stats.Markers++
}

// Frame returns a copy of the last rendered frame.
func (r *Renderer) Frame() *image.NRGBA {
	if r.fb == nil {
		return image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	}
	return r.fb.Image()
}

// Pixels returns the frame's RGBA bytes without copying. They are
// overwritten by the next Draw.
func (r *Renderer) Pixels() []byte {
	if r.fb == nil {
		return nil
	}
	return r.fb.Color
}

// FrameSize returns the size of the last rendered frame.
func (r *Renderer) FrameSize() (int, int) {
	if r.fb == nil {
		return 0, 0
	}
	return r.fb.Width, r.fb.Height
}

// Stats reports what the last Draw did.
func (r *Renderer) Stats() Stats {
	return r.stats
}
