package viewer

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panoviewer/internal/panorama"
	"panoviewer/internal/placement"
	"panoviewer/internal/scene"
)

// fakeSource serves fixed records; loads of gated ids wait for their gate.
type fakeSource struct {
	mu      sync.Mutex
	records map[string][]panorama.Record
	gates   map[string]chan struct{}
	loads   map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		records: map[string][]panorama.Record{
			"a": {{Name: "a1.jpg", View: 90}, {Name: "a2.jpg", Yaw: 90, View: 90}},
			"b": {{Name: "b1.jpg", View: 60}},
			"c": {{Name: "missing.jpg", View: 60}, {Name: "c2.jpg", Yaw: 180, View: 60}},
			"e": {},
		},
		gates: map[string]chan struct{}{},
		loads: map[string]int{},
	}
}

func (f *fakeSource) gate(id string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[id] = ch
	return ch
}

func (f *fakeSource) List(ctx context.Context) ([]string, error) {
	return []string{"a", "b", "c", "e"}, nil
}

func (f *fakeSource) Load(ctx context.Context, id string) ([]panorama.Record, error) {
	f.mu.Lock()
	f.loads[id]++
	gate := f.gates[id]
	recs, ok := f.records[id]
	f.mu.Unlock()

	if gate != nil {
		<-gate // ignores ctx so a stale result can still arrive
	}
	if !ok {
		return nil, errors.New("no such panorama")
	}
	return recs, nil
}

type fakeTextures struct{}

func (fakeTextures) Resolve(name string) (*image.NRGBA, bool) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	return img, name == "missing.jpg"
}

type fakeBackend struct {
	draws []string
	err   error
}

func (b *fakeBackend) Draw(s *scene.Scene, cam *scene.Camera) error {
	id := ""
	if set := s.Panels(); set != nil {
		id = set.ID
	}
	b.draws = append(b.draws, id)
	return b.err
}

func newSession(t *testing.T) (*Session, *fakeSource, *fakeBackend) {
	t.Helper()
	src := newFakeSource()
	be := &fakeBackend{}
	s := NewSession(src, fakeTextures{}, be, Options{Workers: 2})
	t.Cleanup(s.Close)
	return s, src, be
}

// tickUntil ticks until cond holds.
func tickUntil(t *testing.T, s *Session, cond func(Status) bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		if err := s.Tick(); err != nil {
			return false
		}
		return cond(s.Status())
	}, 2*time.Second, 2*time.Millisecond)
}

func TestLoadIsAppliedOnTick(t *testing.T) {
	s, _, be := newSession(t)
	ctx := context.Background()

	gen := s.Load(ctx, "a")
	assert.Equal(t, uint64(1), gen)
	assert.Equal(t, "a", s.Status().Pending)
	assert.Nil(t, s.Scene().Panels(), "Load does not touch the scene")

	tickUntil(t, s, func(st Status) bool { return st.ID == "a" })
	st := s.Status()
	assert.Equal(t, gen, st.Generation)
	assert.Equal(t, 2, st.Panels)
	assert.Empty(t, st.Pending)
	assert.NoError(t, st.Err)
	assert.Equal(t, "a", be.draws[len(be.draws)-1])

	set := s.Scene().Panels()
	require.Equal(t, 2, set.Len())
	want, err := placement.BuildPanel(panorama.Record{Name: "a2.jpg", Yaw: 90, View: 90}, 90, 800)
	require.NoError(t, err)
	assert.Equal(t, want, set.Quads[1].Panel)
}

func TestNewerLoadWins(t *testing.T) {
	s, src, _ := newSession(t)
	ctx := context.Background()

	releaseA := src.gate("a")
	s.Load(ctx, "a")
	genB := s.Load(ctx, "b")

	tickUntil(t, s, func(st Status) bool { return st.ID == "b" })
	assert.Equal(t, genB, s.Status().Generation)

	close(releaseA)
	for i := 0; i < 20; i++ {
		require.NoError(t, s.Tick())
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, "b", s.Scene().Panels().ID, "stale load never replaces a newer one")
	assert.Equal(t, "b", s.Status().ID)
}

func TestStaleResultDiscarded(t *testing.T) {
	s, src, _ := newSession(t)
	ctx := context.Background()

	genA := s.Load(ctx, "a")
	tickUntil(t, s, func(st Status) bool { return st.ID == "a" })

	releaseB := src.gate("b")
	genB := s.Load(ctx, "b")
	require.Greater(t, genB, genA)

	// A successful result from an earlier generation that slipped past
	// cancellation.
	s.results <- loadResult{gen: genA, id: "late", set: &scene.PanelSet{ID: "late"}}
	require.NoError(t, s.Tick())
	assert.Equal(t, "a", s.Scene().Panels().ID)
	st := s.Status()
	assert.Equal(t, "a", st.ID)
	assert.Equal(t, genA, st.Generation)
	assert.Equal(t, "b", st.Pending, "stale result leaves the pending load alone")

	close(releaseB)
	tickUntil(t, s, func(st Status) bool { return st.ID == "b" })
	assert.Equal(t, genB, s.Status().Generation)
}

func TestFailedLoadKeepsScene(t *testing.T) {
	s, _, _ := newSession(t)
	ctx := context.Background()

	s.Load(ctx, "a")
	tickUntil(t, s, func(st Status) bool { return st.ID == "a" })

	s.Load(ctx, "nope")
	tickUntil(t, s, func(st Status) bool { return st.Err != nil })
	assert.Equal(t, "a", s.Status().ID)
	assert.Equal(t, "a", s.Scene().Panels().ID)

	s.Load(ctx, "e")
	tickUntil(t, s, func(st Status) bool { return errors.Is(st.Err, placement.ErrEmptyPanorama) })
	assert.Equal(t, "a", s.Scene().Panels().ID)

	s.Load(ctx, "b")
	tickUntil(t, s, func(st Status) bool { return st.ID == "b" })
	assert.NoError(t, s.Status().Err)
}

func TestPlaceholdersCounted(t *testing.T) {
	s, _, _ := newSession(t)
	s.Load(context.Background(), "c")
	tickUntil(t, s, func(st Status) bool { return st.ID == "c" })
	assert.Equal(t, 1, s.Status().Placeholders)
	assert.True(t, s.Scene().Panels().Quads[0].Placeholder)
}

func TestReload(t *testing.T) {
	s, src, _ := newSession(t)
	ctx := context.Background()

	_, ok := s.Reload(ctx)
	assert.False(t, ok)

	s.Load(ctx, "b")
	tickUntil(t, s, func(st Status) bool { return st.ID == "b" })
	gen, ok := s.Reload(ctx)
	require.True(t, ok)
	tickUntil(t, s, func(st Status) bool { return st.Generation == gen })

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, 2, src.loads["b"])
}

func TestTickUpdatesCamera(t *testing.T) {
	s, _, _ := newSession(t)
	s.Controller().SetView(90, 0)
	require.NoError(t, s.Tick())
	target := s.Camera().Target
	for i, want := range []float64{0, 0, 500} {
		assert.InDelta(t, want, target[i], 1e-9, "component %d of %v", i, target)
	}

	s.Controller().SetView(0, 120)
	require.NoError(t, s.Tick())
	assert.Equal(t, 85.0, s.Controller().State().Latitude)
}

func TestAxesOption(t *testing.T) {
	s := NewSession(newFakeSource(), fakeTextures{}, nil, Options{HideAxes: true})
	assert.False(t, s.Scene().Axes)
	assert.NoError(t, s.Tick(), "no backend is fine")

	s.SetAspect(200, 100)
	assert.Equal(t, 2.0, s.Camera().Aspect)
	s.SetAspect(0, 100)
	assert.Equal(t, 2.0, s.Camera().Aspect)
}

func TestRun(t *testing.T) {
	s, _, be := newSession(t)

	frames := make(chan time.Time, 3)
	for i := 0; i < 3; i++ {
		frames <- time.Now()
	}
	close(frames)
	require.NoError(t, Run(context.Background(), s, frames))
	assert.Len(t, be.draws, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Run(ctx, s, make(chan time.Time)), context.Canceled)

	be.err = errors.New("lost device")
	frames = make(chan time.Time, 1)
	frames <- time.Now()
	assert.ErrorContains(t, Run(context.Background(), s, frames), "lost device")
}
