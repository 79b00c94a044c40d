// Package config loads viewer settings from a JSON or TOML file and merges
// command-line overrides and defaults into them.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"panoviewer/internal/camera"
)

// Config holds all configurable paths and viewer settings.
type Config struct {
	// Paths
	BaseDir   string `json:"base_dir" toml:"base_dir"`
	PanoDir   string `json:"pano_dir" toml:"pano_dir"`
	ImageDir  string `json:"image_dir" toml:"image_dir"`
	OutputDir string `json:"output_dir" toml:"output_dir"`

	// Placement
	PanelSize float64 `json:"panel_size" toml:"panel_size"`

	// Camera
	FieldOfView  float64 `json:"fov" toml:"fov"`
	MinFOV       float64 `json:"min_fov" toml:"min_fov"`
	MaxFOV       float64 `json:"max_fov" toml:"max_fov"`
	Sensitivity  float64 `json:"sensitivity" toml:"sensitivity"`
	TargetRadius float64 `json:"target_radius" toml:"target_radius"`
	Near         float64 `json:"near" toml:"near"`
	Far          float64 `json:"far" toml:"far"`

	// Window and frames
	Width    int  `json:"width" toml:"width"`
	Height   int  `json:"height" toml:"height"`
	TPS      int  `json:"tps" toml:"tps"`
	HideAxes bool `json:"hide_axes" toml:"hide_axes"`

	// Textures and workers
	TextureMaxSize int `json:"texture_max_size" toml:"texture_max_size"`
	CacheSize      int `json:"cache_size" toml:"cache_size"`
	Workers        int `json:"workers" toml:"workers"`
	Supersample    int `json:"supersample" toml:"supersample"`
}

// Load reads a config file and returns Config. Files ending in .toml are
// parsed as TOML, everything else as JSON.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	DataDir   string
	PanoDir   string
	ImageDir  string
	OutputDir string
	PanelSize float64
	FOV       float64
	Width     int
	Height    int
	Workers   int
	HideAxes  bool
}

// Resolve fills in any empty fields with auto-detected defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.DataDir != "" {
		c.BaseDir = flags.DataDir
	}
	if flags.PanoDir != "" {
		c.PanoDir = flags.PanoDir
	}
	if flags.ImageDir != "" {
		c.ImageDir = flags.ImageDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.PanelSize > 0 {
		c.PanelSize = flags.PanelSize
	}
	if flags.FOV > 0 {
		c.FieldOfView = flags.FOV
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.HideAxes {
		c.HideAxes = true
	}

	// Auto-detect base dir if still empty
	if c.BaseDir == "" {
		c.BaseDir = detectBaseDir()
	}

	// Resolve relative paths against base dir
	c.PanoDir = c.underBase(c.PanoDir, "pto")
	c.ImageDir = c.underBase(c.ImageDir, "img")
	c.OutputDir = c.underBase(c.OutputDir, "snapshots")

	// Defaults for viewer settings
	if c.PanelSize <= 0 {
		c.PanelSize = 800
	}
	if c.FieldOfView <= 0 {
		c.FieldOfView = camera.DefaultFieldOfView
	}
	if c.MinFOV <= 0 {
		c.MinFOV = camera.MinFieldOfView
	}
	if c.MaxFOV <= 0 {
		c.MaxFOV = camera.MaxFieldOfView
	}
	if c.Sensitivity == 0 {
		c.Sensitivity = camera.DefaultSensitivity
	}
	if c.TargetRadius <= 0 {
		c.TargetRadius = camera.DefaultTargetRadius
	}
	if c.Near <= 0 {
		c.Near = 1
	}
	if c.Far <= c.Near {
		c.Far = 10000
	}
	if c.Width <= 0 {
		c.Width = 1024
	}
	if c.Height <= 0 {
		c.Height = 640
	}
	if c.TPS <= 0 {
		c.TPS = 60
	}
	if c.TextureMaxSize <= 0 {
		c.TextureMaxSize = 1024
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 64
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
}

// CameraConfig returns the camera controller settings.
func (c *Config) CameraConfig() camera.Config {
	return camera.Config{
		Sensitivity:  c.Sensitivity,
		TargetRadius: c.TargetRadius,
		FieldOfView:  c.FieldOfView,
		MinFOV:       c.MinFOV,
		MaxFOV:       c.MaxFOV,
	}
}

func (c *Config) underBase(path, def string) string {
	switch {
	case path == "":
		if c.BaseDir == "" {
			return def
		}
		return filepath.Join(c.BaseDir, def)
	case filepath.IsAbs(path) || c.BaseDir == "":
		return path
	default:
		return filepath.Join(c.BaseDir, path)
	}
}

// isBaseDir reports whether dir holds both pto/ and img/.
func isBaseDir(dir string) bool {
	for _, sub := range []string{"pto", "img"} {
		fi, err := os.Stat(filepath.Join(dir, sub))
		if err != nil || !fi.IsDir() {
			return false
		}
	}
	return true
}

func detectBaseDir() string {
	// Try relative to executable
	exe, _ := os.Executable()
	if exe != "" {
		dir := filepath.Dir(exe)
		for _, base := range []string{dir, filepath.Dir(dir), filepath.Join(dir, "..", "..")} {
			if isBaseDir(base) {
				return base
			}
		}
	}

	// Try current working directory and its parent
	cwd, _ := os.Getwd()
	if cwd == "" {
		return ""
	}
	for _, base := range []string{cwd, filepath.Dir(cwd)} {
		if isBaseDir(base) {
			return base
		}
	}

	return ""
}
