package texture

import (
	"image"
	"image/color"
)

const (
	placeholderSize  = 64
	placeholderCheck = 8
)

var placeholder = newPlaceholder()

// Placeholder returns the shared checkerboard used for images that could not
// be loaded. Callers must not modify it.
func Placeholder() *image.NRGBA {
	return placeholder
}

func newPlaceholder() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	dark := color.NRGBA{R: 96, G: 96, B: 96, A: 255}
	light := color.NRGBA{R: 255, G: 0, B: 255, A: 255}
	for y := 0; y < placeholderSize; y++ {
		for x := 0; x < placeholderSize; x++ {
			c := dark
			if (x/placeholderCheck+y/placeholderCheck)%2 == 0 {
				c = light
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}
