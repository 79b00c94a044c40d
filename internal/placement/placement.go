// Package placement turns image placement records into panel transforms.
//
// Every panel of a batch sits on one notional sphere around the origin. Its
// radius is chosen so that a square of edge panelSize fills the batch's shared
// field of view, and each panel faces the origin.
package placement

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"panoviewer/internal/mathutil"
	"panoviewer/internal/panorama"
)

var (
	ErrEmptyPanorama = errors.New("placement: empty panorama")
	ErrFieldOfView   = errors.New("placement: field of view out of range (0, 180)")
	ErrPanelSize     = errors.New("placement: panel size must be positive")
)

// YawOffset turns the quad's default facing into the yaw convention where
// 0° yaw points along +X.
const YawOffset = 90.0

// Panel is the immutable transform of one image.
type Panel struct {
	Name     string
	Position mgl64.Vec3
	Rotation mathutil.Euler // radians: X pitch, Y YawOffset-yaw, Z roll
	Distance float64
	Size     float64
	Mirrored bool
}

// Model returns the panel's model matrix for a unit quad in the XY plane
// scaled to Size: translate · rotate · mirror.
func (p Panel) Model() mgl64.Mat4 {
	m := mgl64.Translate3D(p.Position[0], p.Position[1], p.Position[2]).
		Mul4(p.Rotation.Mat4()).
		Mul4(mgl64.Scale3D(p.Size, p.Size, 1))
	if p.Mirrored {
		m = m.Mul4(mathutil.MirrorX)
	}
	return m
}

// Normal returns the direction the quad's local +Z axis points to in world space.
func (p Panel) Normal() mgl64.Vec3 {
	return p.Rotation.Mat4().Mul4x1(mgl64.Vec4{0, 0, 1, 0}).Vec3()
}

// ValidateFieldOfView checks that fov lies in the open interval (0, 180).
func ValidateFieldOfView(fov float64) error {
	if math.IsNaN(fov) || fov <= 0 || fov >= 180 {
		return fmt.Errorf("%w: %v", ErrFieldOfView, fov)
	}
	return nil
}

// Distance returns the radius of the sphere on which a panel of edge
// panelSize spans fov degrees: (panelSize/2) / cos((180-fov)/2).
func Distance(panelSize, fov float64) (float64, error) {
	if !(panelSize > 0) {
		return 0, fmt.Errorf("%w: %v", ErrPanelSize, panelSize)
	}
	if err := ValidateFieldOfView(fov); err != nil {
		return 0, err
	}
	return (panelSize / 2) / math.Cos(mathutil.Deg2Rad((180-fov)/2)), nil
}

// SharedFieldOfView returns the view of the first record, which every panel
// of the batch is placed with.
func SharedFieldOfView(records []panorama.Record) (float64, error) {
	if len(records) == 0 {
		return 0, ErrEmptyPanorama
	}
	return records[0].View, nil
}

// BuildPanel places one record.
func BuildPanel(rec panorama.Record, sharedFOV, panelSize float64) (Panel, error) {
	d, err := Distance(panelSize, sharedFOV)
	if err != nil {
		return Panel{}, err
	}
	return Panel{
		Name:     rec.Name,
		Position: mathutil.OnSphere(d, rec.Pitch, rec.Yaw),
		Rotation: mathutil.Euler{
			X: mathutil.Deg2Rad(rec.Pitch),
			Y: mathutil.Deg2Rad(YawOffset - rec.Yaw),
			Z: mathutil.Deg2Rad(rec.Roll),
		},
		Distance: d,
		Size:     panelSize,
		Mirrored: true,
	}, nil
}

// BuildBatch places every record of a batch with the batch's shared field of
// view. It fails before placing anything if the batch is empty or the shared
// field of view is out of range.
func BuildBatch(records []panorama.Record, panelSize float64) ([]Panel, error) {
	fov, err := SharedFieldOfView(records)
	if err != nil {
		return nil, err
	}
	if _, err := Distance(panelSize, fov); err != nil {
		return nil, err
	}

	panels := make([]Panel, len(records))
	for i, rec := range records {
		p, err := BuildPanel(rec, fov, panelSize)
		if err != nil {
			return nil, fmt.Errorf("placement: record %d (%s): %w", i, rec.Name, err)
		}
		panels[i] = p
	}
	return panels, nil
}
