package raster

import "math"

// Grade is the color transform applied to every shaded texel.
// The zero value and DefaultGrade leave colors untouched.
type Grade struct {
	Exposure float64 // linear multiplier; 0 means 1
	Tonemap  bool    // ACES filmic curve after exposure
}

// DefaultGrade returns the pass-through grade.
func DefaultGrade() Grade {
	return Grade{Exposure: 1}
}

// Identity reports whether the grade leaves colors unchanged.
func (g Grade) Identity() bool {
	return !g.Tonemap && (g.Exposure == 0 || g.Exposure == 1)
}

// Apply grades one sRGB color.
func (g Grade) Apply(r, gr, b uint8) (uint8, uint8, uint8) {
	if g.Identity() {
		return r, gr, b
	}
	exposure := g.Exposure
	if exposure == 0 {
		exposure = 1
	}
	return g.channel(r, exposure), g.channel(gr, exposure), g.channel(b, exposure)
}

func (g Grade) channel(c uint8, exposure float64) uint8 {
	v := srgbToLinear[c] * exposure
	if g.Tonemap {
		v = ACESTonemap(v)
	}
	return clamp255(math.Pow(v, invGamma) * 255)
}

const invGamma = 1.0 / 2.2

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}
