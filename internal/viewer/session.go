// Package viewer ties the camera controller, the scene and a rendering
// backend into one viewing session driven by frame ticks.
package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"panoviewer/internal/camera"
	"panoviewer/internal/panorama"
	"panoviewer/internal/placement"
	"panoviewer/internal/scene"
	"panoviewer/internal/texture"
)

// Options tunes a Session. Zero fields take defaults.
type Options struct {
	PanelSize      float64
	Workers        int // parallel texture loads per panorama
	Camera         camera.Config
	Aspect         float64
	Near, Far      float64
	MarkerDistance float64
	HideAxes       bool
	Log            *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.PanelSize <= 0 {
		o.PanelSize = 800
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Aspect <= 0 {
		o.Aspect = 1
	}
	if o.Near <= 0 {
		o.Near = 1
	}
	if o.Far <= o.Near {
		o.Far = 10000
	}
	if o.MarkerDistance <= 0 {
		o.MarkerDistance = scene.DefaultMarkerDistance
	}
	if o.Log == nil {
		o.Log = slog.Default()
	}
	return o
}

// Status describes the session's panorama.
type Status struct {
	ID           string // shown panorama
	Generation   uint64 // generation of the shown panel set
	Panels       int
	Placeholders int
	LoadedAt     time.Time
	Pending      string // panorama being loaded, "" when idle
	Err          error  // last failed load; cleared by the next success
}

type loadResult struct {
	gen uint64
	id  string
	set *scene.PanelSet
	err error
	dur time.Duration
}

// Session is one viewing session. Load, Tick and the controller must be used
// from a single goroutine; panel sets are built on worker goroutines and
// handed back through Tick.
type Session struct {
	opts     Options
	src      panorama.Source
	textures texture.Resolver
	backend  scene.Backend
	log      *slog.Logger

	ctl   *camera.Controller
	cam   *scene.Camera
	scene *scene.Scene

	gen     atomic.Uint64
	cancel  context.CancelFunc
	results chan loadResult
	status  Status
}

// NewSession creates a session with an empty scene.
func NewSession(src panorama.Source, textures texture.Resolver, backend scene.Backend, opts Options) *Session {
	opts = opts.withDefaults()
	cam := scene.NewCamera(camera.DefaultFieldOfView, opts.Aspect, opts.Near, opts.Far)
	scn := scene.New(opts.MarkerDistance)
	scn.Axes = !opts.HideAxes

	return &Session{
		opts:     opts,
		src:      src,
		textures: textures,
		backend:  backend,
		log:      opts.Log,
		ctl:      camera.NewController(opts.Camera, cam),
		cam:      cam,
		scene:    scn,
		results:  make(chan loadResult, 4),
	}
}

func (s *Session) Controller() *camera.Controller { return s.ctl }
func (s *Session) Camera() *scene.Camera         { return s.cam }
func (s *Session) Scene() *scene.Scene           { return s.scene }
func (s *Session) Status() Status                { return s.status }

// SetAspect follows a viewport resize.
func (s *Session) SetAspect(width, height int) {
	if width > 0 && height > 0 {
		s.cam.SetAspect(float64(width) / float64(height))
	}
}

// Load starts loading panorama id and returns its generation. It does not
// block: the previous in-flight load is cancelled and the new panel set is
// shown by the first Tick after it is ready. Until then the current panel
// set stays on screen.
func (s *Session) Load(ctx context.Context, id string) uint64 {
	gen := s.gen.Add(1)
	if s.cancel != nil {
		s.cancel()
	}
	lctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.status.Pending = id

	s.log.Debug("loading panorama", "id", id, "generation", gen)
	go func() {
		start := time.Now()
		set, err := s.build(lctx, id, gen)
		r := loadResult{gen: gen, id: id, set: set, err: err, dur: time.Since(start)}
		select {
		case s.results <- r:
		case <-lctx.Done():
		}
	}()
	return gen
}

// Reload loads the shown panorama again.
func (s *Session) Reload(ctx context.Context) (uint64, bool) {
	id := s.status.ID
	if s.status.Pending != "" {
		id = s.status.Pending
	}
	if id == "" {
		return 0, false
	}
	return s.Load(ctx, id), true
}

// Close cancels any in-flight load.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// build reads the records, places them and resolves textures in parallel.
// The result is never visible to the backend until Tick swaps it in.
func (s *Session) build(ctx context.Context, id string, gen uint64) (*scene.PanelSet, error) {
	records, err := s.src.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	panels, err := placement.BuildBatch(records, s.opts.PanelSize)
	if err != nil {
		return nil, fmt.Errorf("viewer: %s: %w", id, err)
	}

	quads := make([]scene.Quad, len(panels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, p := range panels {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tex, placeholder := s.textures.Resolve(p.Name)
			quads[i] = scene.NewQuad(p, tex, placeholder)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &scene.PanelSet{ID: id, Generation: gen, Quads: quads}, nil
}

// Tick is one frame: apply the newest finished load, update the camera and
// draw.
func (s *Session) Tick() error {
	s.applyLoads()
	s.ctl.Update()
	if s.backend == nil {
		return nil
	}
	return s.backend.Draw(s.scene, s.cam)
}

func (s *Session) applyLoads() {
	for {
		select {
		case r := <-s.results:
			s.apply(r)
		default:
			return
		}
	}
}

func (s *Session) apply(r loadResult) {
	if latest := s.gen.Load(); r.gen != latest {
		s.log.Debug("discarding stale load", "id", r.id, "generation", r.gen, "latest", latest)
		return
	}
	s.status.Pending = ""

	if r.err != nil {
		s.status.Err = r.err
		s.log.Warn("load failed, keeping current panorama", "id", r.id, "err", r.err)
		return
	}

	s.scene.Replace(r.set)
	placeholders := 0
	for _, q := range r.set.Quads {
		if q.Placeholder {
			placeholders++
		}
	}
	s.status = Status{
		ID:           r.id,
		Generation:   r.gen,
		Panels:       r.set.Len(),
		Placeholders: placeholders,
		LoadedAt:     time.Now(),
	}
	s.log.Info("panorama loaded", "id", r.id, "panels", r.set.Len(),
		"placeholders", placeholders, "took", r.dur.Round(time.Millisecond))
}

// Run calls Tick once per frame signal until frames is closed, ctx is done
// or a tick fails. A tick always finishes before the next frame is read.
func Run(ctx context.Context, s *Session, frames <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-frames:
			if !ok {
				return nil
			}
			if err := s.Tick(); err != nil {
				return err
			}
		}
	}
}
