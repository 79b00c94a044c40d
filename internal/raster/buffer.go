package raster

import (
	"image"
	"image/color"
	"math"
)

// FrameBuffer holds the rendering target as flat slices for cache locality.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8   // RGBA interleaved, len = W*H*4
	ZBuf   []float64 // 1/w per pixel, larger is nearer; -inf when empty
}

// NewFrameBuffer allocates a transparent color buffer and -inf z-buffer.
func NewFrameBuffer(w, h int) *FrameBuffer {
	fb := &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]uint8, w*h*4),
		ZBuf:   make([]float64, w*h),
	}
	fb.Clear(color.NRGBA{})
	return fb
}

// Clear fills the color buffer with bg and resets depth.
func (fb *FrameBuffer) Clear(bg color.NRGBA) {
	for i := 0; i < len(fb.Color); i += 4 {
		fb.Color[i] = bg.R
		fb.Color[i+1] = bg.G
		fb.Color[i+2] = bg.B
		fb.Color[i+3] = bg.A
	}
	inf := math.Inf(-1)
	for i := range fb.ZBuf {
		fb.ZBuf[i] = inf
	}
}

// Image copies the color buffer into a new NRGBA image.
func (fb *FrameBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	copy(img.Pix, fb.Color)
	return img
}

// plot writes one pixel if z is nearer than what the buffer holds, blending
// non-opaque colors over the existing one.
func (fb *FrameBuffer) plot(x, y int, z float64, r, g, b, a uint8) {
	i := y*fb.Width + x
	if z <= fb.ZBuf[i] {
		return
	}
	fb.ZBuf[i] = z
	p := i * 4
	if a == 255 {
		fb.Color[p], fb.Color[p+1], fb.Color[p+2], fb.Color[p+3] = r, g, b, 255
		return
	}
	sa := float64(a) / 255
	da := 1 - sa
	fb.Color[p] = clamp255(float64(r)*sa + float64(fb.Color[p])*da)
	fb.Color[p+1] = clamp255(float64(g)*sa + float64(fb.Color[p+1])*da)
	fb.Color[p+2] = clamp255(float64(b)*sa + float64(fb.Color[p+2])*da)
	fb.Color[p+3] = clamp255(float64(a) + float64(fb.Color[p+3])*da)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
