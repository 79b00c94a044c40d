// Package postprocess finishes rendered frames before they are written out.
package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample shrinks a supersampled panorama frame to width x height. The
// rasterizer does no edge antialiasing of its own, so this filter is what
// smooths panel borders and the centre marker in snapshots.
//
// The renderer's default background is opaque and such frames are copied
// straight through. A frame rendered over a transparent background is
// filtered in premultiplied space, so uncovered pixels do not pull dark
// fringes into the panel edges next to them. Frames already no larger than
// the target are returned unchanged.
func Downsample(frame *image.NRGBA, width, height int) *image.NRGBA {
	b := frame.Bounds()
	if width <= 0 || height <= 0 || (b.Dx() <= width && b.Dy() <= height) {
		return frame
	}

	// Scaling an NRGBA source into an RGBA target premultiplies on read.
	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), frame, b, draw.Src, nil)

	if frame.Opaque() {
		return opaqueCopy(scaled)
	}
	return unpremultiply(scaled)
}

// opaqueCopy reinterprets a filtered opaque frame as NRGBA. Catmull-Rom can
// ring a little below full alpha at hard edges, so alpha is pinned.
func opaqueCopy(src *image.RGBA) *image.NRGBA {
	out := image.NewNRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	return out
}

// unpremultiply converts back to straight alpha. Ringing can push a colour
// channel above its alpha, which clamp8 absorbs.
func unpremultiply(src *image.RGBA) *image.NRGBA {
	out := image.NewNRGBA(src.Bounds())
	for i := 0; i < len(src.Pix); i += 4 {
		a := src.Pix[i+3]
		out.Pix[i+3] = a
		if a <= 1 {
			continue
		}
		inv := 255 / float64(a)
		out.Pix[i] = clamp8(float64(src.Pix[i]) * inv)
		out.Pix[i+1] = clamp8(float64(src.Pix[i+1]) * inv)
		out.Pix[i+2] = clamp8(float64(src.Pix[i+2]) * inv)
	}
	return out
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
