package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"panoviewer/internal/config"
	"panoviewer/internal/host"
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
	panoDir := flag.String("pto", "", "Directory of .pto projects (default: <data>/pto)")
	imageDir := flag.String("img", "", "Directory of images (default: <data>/img)")
	pano := flag.String("pano", "", "Panorama to open first (default: first listed)")
	fov := flag.Float64("fov", 0, "Initial field of view in degrees (default: 75)")
	width := flag.Int("width", 0, "Window width (default: 1024)")
	height := flag.Int("height", 0, "Window height (default: 640)")
	workers := flag.Int("workers", 0, "Parallel texture loads (default: NumCPU)")
	hideAxes := flag.Bool("hide-axes", false, "Do not draw the axis markers")
	noWatch := flag.Bool("no-watch", false, "Do not reload panoramas when their files change")
	verbose := flag.Bool("v", false, "Verbose logging")
	quiet := flag.Bool("q", false, "Only log errors")

	flag.Parse()

	log := logx.New(os.Stderr, logx.LevelFromFlags(*verbose, *quiet))

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
		DataDir:  *dataDir,
		PanoDir:  *panoDir,
		ImageDir: *imageDir,
		FOV:      *fov,
		Width:    *width,
		Height:   *height,
		Workers:  *workers,
		HideAxes: *hideAxes,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src := panorama.NewDir(cfg.PanoDir)
	ids, err := src.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing panoramas: %v\n", err)
		os.Exit(1)
	}
	playlist := viewer.NewPlaylist(ids)
	if *pano != "" {
		id := *pano
		if !panorama.IsProject(id) {
			id += panorama.Ext
		}
		if !playlist.Select(id) {
			fmt.Fprintf(os.Stderr, "Error: panorama %q not found in %s\n", *pano, cfg.PanoDir)
			os.Exit(1)
		}
	}

	texIndex := texture.BuildIndex(cfg.ImageDir)
	texCache, err := texture.NewCache(texIndex, cfg.CacheSize, cfg.TextureMaxSize, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.Info("ready", "panoramas", playlist.Len(), "images", texIndex.Len(), "pto", cfg.PanoDir, "img", cfg.ImageDir)

	var changes <-chan panorama.Change
	if !*noWatch {
		changes, err = panorama.Watch(ctx, cfg.PanoDir, log)
		if err != nil {
			log.Warn("not watching for changes", "dir", cfg.PanoDir, "err", err)
		}
	}

	renderer := raster.NewRenderer(cfg.Width, cfg.Height)
	session := viewer.NewSession(src, texCache, renderer, viewer.Options{
		PanelSize: cfg.PanelSize,
		Workers:   cfg.Workers,
		Camera:    cfg.CameraConfig(),
		Aspect:    float64(cfg.Width) / float64(cfg.Height),
		Near:      cfg.Near,
		Far:       cfg.Far,
		HideAxes:  cfg.HideAxes,
		Log:       log,
	})

	game := host.New(ctx, session, renderer, src, playlist, changes, log)
	err = host.Run(game, host.Options{
		Title:  "panoview",
		Width:  cfg.Width,
		Height: cfg.Height,
		TPS:    cfg.TPS,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
