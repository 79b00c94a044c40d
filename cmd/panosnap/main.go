package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"panoviewer/internal/batch"
	"panoviewer/internal/config"
	"panoviewer/internal/logx"
	"panoviewer/internal/panorama"
	"panoviewer/internal/raster"
	"panoviewer/internal/texture"
	"panoviewer/internal/viewer"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config file (.json or .toml)")
	dataDir := flag.String("data", "", "Base directory holding pto/ and img/ (default: auto-detect)")
	outputDir := flag.String("output", "", "Output directory (default: <data>/snapshots)")
	views := flag.Int("views", 8, "Number of views around the horizon")
	latitude := flag.Float64("lat", 0, "Latitude of the views in degrees")
	fov := flag.Float64("fov", 0, "Field of view of the views (default: config fov)")
	width := flag.Int("width", 0, "Snapshot width (default: 1024)")
	height := flag.Int("height", 0, "Snapshot height (default: 640)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	hideAxes := flag.Bool("hide-axes", false, "Do not draw the axis markers")
	tonemap := flag.Bool("tonemap", false, "Apply ACES tone mapping")
	exposure := flag.Float64("exposure", 1, "Linear exposure multiplier")
	verbose := flag.Bool("v", false, "Verbose logging")

	flag.Parse()

	log := logx.New(os.Stderr, logx.LevelFromFlags(*verbose, false))

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: panosnap [flags] <panorama.pto>")
		os.Exit(2)
	}

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		DataDir:   *dataDir,
		OutputDir: *outputDir,
		FOV:       *fov,
		Width:     *width,
		Height:    *height,
		Workers:   *workers,
		HideAxes:  *hideAxes,
	})

	id := filepath.Base(flag.Arg(0))
	if !panorama.IsProject(id) {
		id += panorama.Ext
	}
	src := panorama.NewDir(cfg.PanoDir)
	if dir := filepath.Dir(flag.Arg(0)); dir != "." {
		src = panorama.NewDir(dir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	texIndex := texture.BuildIndex(cfg.ImageDir)
	texCache, err := texture.NewCache(texIndex, cfg.CacheSize, cfg.TextureMaxSize, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Textures: %d indexed\n", texIndex.Len())

	// Load the panorama through a session so placement and textures follow
	// the viewer exactly.
	session := viewer.NewSession(src, texCache, nil, viewer.Options{
		PanelSize: cfg.PanelSize,
		Workers:   cfg.Workers,
		HideAxes:  cfg.HideAxes,
		Log:       log,
	})
	defer session.Close()
	gen := session.Load(ctx, id)
	for session.Status().Generation != gen {
		if err := session.Status().Err; err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", id, err)
			os.Exit(1)
		}
		if ctx.Err() != nil {
			os.Exit(1)
		}
		time.Sleep(5 * time.Millisecond)
		session.Tick()
	}
	st := session.Status()

	snapshots := batch.Orbit(*views, *latitude, cfg.FieldOfView)
	outDir := filepath.Join(cfg.OutputDir, strings.TrimSuffix(id, filepath.Ext(id)))

	fmt.Printf("Panorama: %s (%d panels, %d placeholders)\n", id, st.Panels, st.Placeholders)
	fmt.Printf("Views: %d, Size: %dx%d, Workers: %d\n", len(snapshots), cfg.Width, cfg.Height, cfg.Workers)
	fmt.Printf("Output: %s\n", outDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	results := batch.Run(ctx, batch.Config{
		Scene:        session.Scene(),
		OutputDir:    outDir,
		Width:        cfg.Width,
		Height:       cfg.Height,
		Supersample:  cfg.Supersample,
		Near:         cfg.Near,
		Far:          cfg.Far,
		TargetRadius: cfg.TargetRadius,
		Workers:      cfg.Workers,
		Grade:        raster.Grade{Exposure: *exposure, Tonemap: *tonemap},
		Log:          log,
	}, snapshots)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, failed := 0, 0
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
			fmt.Printf("  %s: %s\n", r.View, r.Error)
		}
	}
	fmt.Printf("Rendered: %d/%d\n", success, len(results))

	// Write manifest
	manifestPath := filepath.Join(outDir, "manifest.json")
	os.MkdirAll(outDir, 0755)
	manifest := batch.NewManifest(id, cfg.Width, cfg.Height, snapshots, results)
	if err := batch.WriteManifest(manifestPath, manifest); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
