package camera

// WheelKind names the unit and sign convention of a raw wheel delta.
type WheelKind int

const (
	// WheelPixels reports about 120 units per notch, positive when the
	// wheel turns away from the user.
	WheelPixels WheelKind = iota
	// WheelLines reports about 3 units per notch, positive when the wheel
	// turns toward the user.
	WheelLines
	// WheelNotches reports one unit per notch, positive away from the user.
	WheelNotches
)

func (k WheelKind) String() string {
	switch k {
	case WheelPixels:
		return "pixels"
	case WheelLines:
		return "lines"
	case WheelNotches:
		return "notches"
	}
	return "unknown"
}

// WheelEvent is a raw vertical wheel movement.
type WheelEvent struct {
	Delta float64
	Kind  WheelKind
}

// ZoomDelta is a signed change of field of view in degrees.
// Positive widens the view (zooms out).
type ZoomDelta float64

// Degrees of field of view per unit of each wheel convention.
const (
	PixelZoomRate = 0.05
	LineZoomRate  = 1.0
	NotchZoomRate = 120 * PixelZoomRate
)

// NormalizeWheel converts a raw wheel event into a zoom delta. Turning the
// wheel away from the user zooms in for every convention.
func NormalizeWheel(ev WheelEvent) ZoomDelta {
	switch ev.Kind {
	case WheelPixels:
		return ZoomDelta(-ev.Delta * PixelZoomRate)
	case WheelLines:
		return ZoomDelta(ev.Delta * LineZoomRate)
	case WheelNotches:
		return ZoomDelta(-ev.Delta * NotchZoomRate)
	}
	return 0
}
