// Package panorama supplies panorama identifiers and their image placement records.
package panorama

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"panoviewer/internal/pto"
)

// Record describes where one image of a panorama sits. Angles are degrees;
// View is the field of view the image was captured with.
type Record struct {
	Name  string  `json:"name"`
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
	View  float64 `json:"view"`
}

// Source lists panoramas and loads their ordered placement records.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, id string) ([]Record, error)
}

var (
	// ErrInvalidID rejects ids that could escape the panorama directory.
	ErrInvalidID = errors.New("panorama: invalid id")
	// ErrNoImages is returned for project files without image lines.
	ErrNoImages = errors.New("panorama: no images")
)

// Ext is the extension of Hugin project files.
const Ext = ".pto"

// Dir serves the Hugin project files of one directory.
type Dir struct {
	Path string
}

// NewDir returns a Source over the .pto files in path.
func NewDir(path string) *Dir {
	return &Dir{Path: path}
}

// List returns the names of the .pto files in the directory, sorted.
// The extension match is case-insensitive and subdirectories are ignored.
func (d *Dir) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, fmt.Errorf("panorama: list %s: %w", d.Path, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !IsProject(e.Name()) {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// Load scans the project file named id and returns one record per image line.
func (d *Dir) Load(ctx context.Context, id string) ([]Record, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := pto.ScanFile(filepath.Join(d.Path, id))
	if err != nil {
		return nil, fmt.Errorf("panorama: load %s: %w", id, err)
	}
	images, err := f.Images()
	if err != nil {
		return nil, fmt.Errorf("panorama: load %s: %w", id, err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoImages, id)
	}

	records := make([]Record, len(images))
	for i, img := range images {
		records[i] = Record{
			Name:  img.Name,
			Yaw:   img.Yaw,
			Pitch: img.Pitch,
			Roll:  img.Roll,
			View:  img.View,
		}
	}
	return records, nil
}

// ValidateID rejects empty ids, ids containing a path separator and ids
// starting with a dot.
func ValidateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// IsProject reports whether name has the project file extension.
func IsProject(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Ext)
}
