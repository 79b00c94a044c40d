package placement

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panoviewer/internal/panorama"
)

const tol = 1e-6

func assertVec(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], tol, "component %d of %v", i, got)
	}
}

func TestBuildPanelExample(t *testing.T) {
	recs := []panorama.Record{{Name: "a.jpg", Yaw: 0, Pitch: 0, Roll: 0, View: 90}}
	panels, err := BuildBatch(recs, 800)
	require.NoError(t, err)
	require.Len(t, panels, 1)

	p := panels[0]
	want := 400 / math.Cos(45*math.Pi/180)
	assert.InDelta(t, 565.685, p.Distance, 1e-3)
	assert.InDelta(t, want, p.Distance, tol)
	assert.InDelta(t, want, p.Position[0], tol)
	assert.InDelta(t, 0, p.Position[1], tol)
	assert.InDelta(t, 0, p.Position[2], tol)
	assert.InDelta(t, math.Pi/2, p.Rotation.Y, tol)
	assert.InDelta(t, 0, p.Rotation.X, tol)
	assert.True(t, p.Mirrored)
	assert.Equal(t, "a.jpg", p.Name)
}

func TestBuildPanelDeterministic(t *testing.T) {
	rec := panorama.Record{Name: "x", Yaw: 123.4, Pitch: -17, Roll: 3.5, View: 61}
	a, err := BuildPanel(rec, 61, 640)
	require.NoError(t, err)
	b, err := BuildPanel(rec, 61, 640)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDistanceMonotonic(t *testing.T) {
	prev := math.Inf(1)
	for fov := 1.0; fov < 180; fov += 0.5 {
		d, err := Distance(800, fov)
		require.NoError(t, err)
		assert.Less(t, d, prev, "fov %v", fov)
		prev = d
	}

	small, err := Distance(800, 1e-6)
	require.NoError(t, err)
	assert.Greater(t, small, 1e6)
}

func TestDistanceRejects(t *testing.T) {
	for _, fov := range []float64{0, -5, 180, 200, math.NaN()} {
		_, err := Distance(800, fov)
		assert.ErrorIs(t, err, ErrFieldOfView, "fov %v", fov)
	}
	_, err := Distance(0, 90)
	assert.ErrorIs(t, err, ErrPanelSize)
}

func TestPoles(t *testing.T) {
	cases := []struct {
		name  string
		pitch float64
		check func(t *testing.T, p Panel)
	}{
		{"zenith", 90, func(t *testing.T, p Panel) {
			assert.InDelta(t, 0, p.Position[0], tol)
			assert.InDelta(t, p.Distance, p.Position[1], tol)
			assert.InDelta(t, 0, p.Position[2], tol)
		}},
		{"nadir", -90, func(t *testing.T, p Panel) {
			assert.InDelta(t, -p.Distance, p.Position[1], tol)
		}},
		{"horizon", 0, func(t *testing.T, p Panel) {
			assert.InDelta(t, 0, p.Position[1], tol)
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p, err := BuildPanel(panorama.Record{Yaw: 37, Pitch: c.pitch, View: 70}, 70, 500)
			require.NoError(t, err)
			c.check(t, p)
		})
	}
}

func TestPanelsFaceOrigin(t *testing.T) {
	for _, rec := range []panorama.Record{
		{Yaw: 0, Pitch: 0, Roll: 0},
		{Yaw: 90, Pitch: 10, Roll: 5},
		{Yaw: -135, Pitch: -40, Roll: -20},
		{Yaw: 400, Pitch: 89, Roll: 180},
	} {
		p, err := BuildPanel(rec, 50, 800)
		require.NoError(t, err)
		radial := p.Position.Normalize()
		assertVec(t, radial, p.Normal())
		assert.InDelta(t, p.Distance, p.Position.Len(), tol)
	}
}

func TestModelUnmirroredFromInside(t *testing.T) {
	p, err := BuildPanel(panorama.Record{View: 90}, 90, 800)
	require.NoError(t, err)

	center := p.Model().Mul4x1(mgl64.Vec4{0, 0, 0, 1}).Vec3()
	assertVec(t, p.Position, center)

	// Seen from the origin looking along +X, screen right is +Z. The quad's
	// local +X edge must land there for the image to read correctly.
	right := p.Model().Mul4x1(mgl64.Vec4{0.5, 0, 0, 1}).Vec3()
	assertVec(t, mgl64.Vec3{p.Distance, 0, 400}, right)
	assert.Less(t, p.Model().Det(), 0.0)
}

func TestBuildBatchSharedFieldOfView(t *testing.T) {
	recs := []panorama.Record{
		{Name: "a", View: 90},
		{Name: "b", View: 30, Yaw: 90},
	}
	panels, err := BuildBatch(recs, 800)
	require.NoError(t, err)
	require.Len(t, panels, 2)
	assert.Equal(t, panels[0].Distance, panels[1].Distance)
}

func TestBuildBatchErrors(t *testing.T) {
	_, err := BuildBatch(nil, 800)
	assert.ErrorIs(t, err, ErrEmptyPanorama)

	_, err = SharedFieldOfView([]panorama.Record{})
	assert.ErrorIs(t, err, ErrEmptyPanorama)

	_, err = BuildBatch([]panorama.Record{{View: 180}, {View: 50}}, 800)
	assert.ErrorIs(t, err, ErrFieldOfView)

	_, err = BuildBatch([]panorama.Record{{View: 50}}, -1)
	assert.ErrorIs(t, err, ErrPanelSize)
}
