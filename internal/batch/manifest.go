package batch

import (
	"encoding/json"
	"os"
)

// Manifest describes one batch run.
type Manifest struct {
	Panorama string          `json:"panorama"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Views    []ManifestEntry `json:"views"`
}

// ManifestEntry represents one rendered view in the output manifest.
type ManifestEntry struct {
	View
	Image string `json:"image"`
}

// NewManifest lists the views that rendered successfully.
func NewManifest(panorama string, width, height int, views []View, results []Result) Manifest {
	m := Manifest{Panorama: panorama, Width: width, Height: height, Views: []ManifestEntry{}}
	for i, r := range results {
		if !r.Success {
			continue
		}
		m.Views = append(m.Views, ManifestEntry{View: views[i], Image: r.File})
	}
	return m
}

// WriteManifest writes the manifest as indented JSON to path.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
