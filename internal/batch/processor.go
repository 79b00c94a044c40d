// Package batch renders a loaded panorama from many viewpoints without a
// window and writes each frame as a WebP file.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"

	"panoviewer/internal/camera"
	"panoviewer/internal/mathutil"
	"panoviewer/internal/postprocess"
	"panoviewer/internal/raster"
	"panoviewer/internal/scene"
)

// View is one snapshot viewpoint, in degrees.
type View struct {
	Name        string  `json:"name"`
	Longitude   float64 `json:"longitude"`
	Latitude    float64 `json:"latitude"`
	FieldOfView float64 `json:"fov"`
}

// Orbit returns n views evenly spaced in longitude at one latitude.
func Orbit(n int, latitude, fov float64) []View {
	if n <= 0 {
		return nil
	}
	views := make([]View, n)
	for i := range views {
		lon := mathutil.WrapDegrees(360 * float64(i) / float64(n))
		views[i] = View{
			Name:        fmt.Sprintf("view-%03d", i),
			Longitude:   lon,
			Latitude:    latitude,
			FieldOfView: fov,
		}
	}
	return views
}

// Config holds all shared resources for a batch run.
type Config struct {
	Scene        *scene.Scene // read-only during the run
	OutputDir    string
	Width        int
	Height       int
	Supersample  int
	Near, Far    float64
	TargetRadius float64
	Workers      int
	Grade        raster.Grade
	Log          *slog.Logger
}

// Result holds the outcome of rendering one view.
type Result struct {
	View    string
	File    string // relative to OutputDir
	Success bool
	Error   string
}

// Run renders all views using a worker pool. Every worker owns its renderer
// and camera; the scene is shared. Views not started before ctx is done are
// reported as failed.
func Run(ctx context.Context, cfg Config, views []View) []Result {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	workers := max(cfg.Workers, 1)
	total := len(views)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					log.Info("progress", "done", p, "total", total, "views_per_sec", fmt.Sprintf("%.1f", rate))
				}
			}
		}
	}()

	// Worker pool
	viewChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wk := newWorker(cfg)
			for idx := range viewChan {
				results[idx] = wk.process(views[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	sent := 0
send:
	for ; sent < total; sent++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case viewChan <- sent:
		case <-ctx.Done():
			break send
		}
	}
	close(viewChan)

	wg.Wait()
	close(done)

	for i := sent; i < total; i++ {
		results[i] = Result{View: views[i].Name, Error: ctx.Err().Error()}
	}
	return results
}

type worker struct {
	cfg      Config
	renderer *raster.Renderer
	cam      *scene.Camera
}

func newWorker(cfg Config) *worker {
	ss := max(cfg.Supersample, 1)
	r := raster.NewRenderer(cfg.Width*ss, cfg.Height*ss)
	r.Grade = cfg.Grade
	r.MarkerSize *= ss
	aspect := 1.0
	if cfg.Height > 0 {
		aspect = float64(cfg.Width) / float64(cfg.Height)
	}
	return &worker{
		cfg:      cfg,
		renderer: r,
		cam:      scene.NewCamera(camera.DefaultFieldOfView, aspect, cfg.Near, cfg.Far),
	}
}

func (wk *worker) process(v View) Result {
	res := Result{View: v.Name, File: v.Name + ".webp"}

	ctl := camera.NewController(camera.Config{
		FieldOfView:  v.FieldOfView,
		TargetRadius: wk.cfg.TargetRadius,
	}, wk.cam)
	ctl.SetView(v.Longitude, v.Latitude)
	ctl.Update()

	if err := wk.renderer.Draw(wk.cfg.Scene, wk.cam); err != nil {
		res.Error = err.Error()
		return res
	}
	img := wk.renderer.Frame()

	// Post-processing: supersample downsample
	if wk.cfg.Supersample > 1 {
		img = postprocess.Downsample(img, wk.cfg.Width, wk.cfg.Height)
	}

	outPath := filepath.Join(wk.cfg.OutputDir, res.File)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		res.Error = err.Error()
		return res
	}

	f, err := os.Create(outPath)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		res.Error = fmt.Sprintf("WebP encode: %v", err)
		return res
	}

	res.Success = true
	return res
}
