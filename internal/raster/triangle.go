package raster

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// vertex is a clip-space position with its texture coordinate.
type vertex struct {
	clip mgl64.Vec4
	u, v float64
}

// screenVertex is a projected vertex. Attributes are divided by w so they
// interpolate linearly in screen space.
type screenVertex struct {
	x, y   float64 // pixels, y down
	nx, ny float64 // NDC, y up
	invW   float64
	uw, vw float64
}

// clipNear clips a convex polygon against the near plane (z >= -w in clip
// space) with Sutherland-Hodgman, appending the result to dst.
func clipNear(poly []vertex, dst []vertex) []vertex {
	n := len(poly)
	for i := 0; i < n; i++ {
		cur := poly[i]
		next := poly[(i+1)%n]
		dc := cur.clip.Z() + cur.clip.W()
		dn := next.clip.Z() + next.clip.W()

		if dc >= 0 {
			dst = append(dst, cur)
		}
		if (dc >= 0) != (dn >= 0) {
			t := dc / (dc - dn)
			dst = append(dst, vertex{
				clip: cur.clip.Add(next.clip.Sub(cur.clip).Mul(t)),
				u:    cur.u + (next.u-cur.u)*t,
				v:    cur.v + (next.v-cur.v)*t,
			})
		}
	}
	return dst
}

// project performs the perspective divide and viewport mapping.
func project(v vertex, width, height int) screenVertex {
	invW := 1 / v.clip.W()
	nx := v.clip.X() * invW
	ny := v.clip.Y() * invW
	return screenVertex{
		x:    (nx + 1) * 0.5 * float64(width),
		y:    (1 - ny) * 0.5 * float64(height),
		nx:   nx,
		ny:   ny,
		invW: invW,
		uw:   v.u * invW,
		vw:   v.v * invW,
	}
}

// signedArea returns twice the NDC area of a polygon; positive means
// counter-clockwise, which is the front face.
func signedArea(poly []screenVertex) float64 {
	var a float64
	n := len(poly)
	for i := 0; i < n; i++ {
		p, q := poly[i], poly[(i+1)%n]
		a += p.nx*q.ny - q.nx*p.ny
	}
	return a
}

// rasterizeTriangle fills one projected triangle with perspective-correct
// texture mapping and a 1/w depth test. A nil texture fills with fill.
//
// This is the HOT PATH; the pixel loop does not allocate.
func rasterizeTriangle(
	fb *FrameBuffer,
	a, b, c screenVertex,
	tex *image.NRGBA,
	fill [4]uint8,
	grade Grade,
) {
	area := (b.x-a.x)*(c.y-a.y) - (c.x-a.x)*(b.y-a.y)
	if area > -1e-12 && area < 1e-12 {
		return
	}
	invArea := 1.0 / area

	// Bounding box
	minX := max(int(math.Floor(math.Min(math.Min(a.x, b.x), c.x))), 0)
	maxX := min(int(math.Ceil(math.Max(math.Max(a.x, b.x), c.x))), fb.Width-1)
	minY := max(int(math.Floor(math.Min(math.Min(a.y, b.y), c.y))), 0)
	maxY := min(int(math.Ceil(math.Max(math.Max(a.y, b.y), c.y))), fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	identity := grade.Identity()

	for sy := minY; sy <= maxY; sy++ {
		py := float64(sy) + 0.5
		for sx := minX; sx <= maxX; sx++ {
			px := float64(sx) + 0.5

			// Barycentric weights, sign-normalised by the area
			w0 := ((b.x-px)*(c.y-py) - (c.x-px)*(b.y-py)) * invArea
			w1 := ((c.x-px)*(a.y-py) - (a.x-px)*(c.y-py)) * invArea
			w2 := 1.0 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			z := w0*a.invW + w1*b.invW + w2*c.invW
			if z <= fb.ZBuf[sy*fb.Width+sx] {
				continue
			}

			cr, cg, cb, ca := fill[0], fill[1], fill[2], fill[3]
			if tex != nil {
				u := (w0*a.uw + w1*b.uw + w2*c.uw) / z
				v := (w0*a.vw + w1*b.vw + w2*c.vw) / z
				cr, cg, cb, ca = SampleTexture(tex, u, v)
			}

			// Skip transparent texels
			if ca < 8 {
				continue
			}
			if !identity {
				cr, cg, cb = grade.Apply(cr, cg, cb)
			}
			fb.plot(sx, sy, z, cr, cg, cb, ca)
		}
	}
}
