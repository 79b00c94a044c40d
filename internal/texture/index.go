package texture

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// extRank orders formats when several files share a stem; lower wins.
var extRank = map[string]int{
	".jpg":  0,
	".jpeg": 1,
	".png":  2,
	".webp": 3,
	".tif":  4,
	".tiff": 5,
	".tga":  6,
	".bmp":  7,
	".gif":  8,
}

// Supported reports whether the file extension is a decodable image format.
func Supported(path string) bool {
	_, ok := extRank[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Index maps image names to filesystem paths, case-insensitively.
// An exact file name match wins over a match on the stem alone, so a record
// naming "IMG_1.JPG" still resolves when only "img_1.webp" exists.
type Index struct {
	names map[string]string // base.lower() → full path
	stems map[string]string // stem.lower() → full path
}

// BuildIndex scans dir and its subdirectories for supported images.
func BuildIndex(dir string) *Index {
	idx := &Index{
		names: make(map[string]string),
		stems: make(map[string]string),
	}

	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !Supported(path) {
			return nil
		}
		base := strings.ToLower(filepath.Base(path))
		if _, exists := idx.names[base]; !exists {
			idx.names[base] = path
		}

		stem := strings.TrimSuffix(base, filepath.Ext(base))
		existing, exists := idx.stems[stem]
		if !exists || rank(path) < rank(existing) {
			idx.stems[stem] = path
		}
		return nil
	})

	return idx
}

func rank(path string) int {
	return extRank[strings.ToLower(filepath.Ext(path))]
}

// ResolvePath returns the filesystem path for an image name, or ("", false).
func (idx *Index) ResolvePath(name string) (string, bool) {
	// Strip path prefix (e.g. "C:\\photos\\PA030369.JPG" → "pa030369.jpg")
	name = strings.ReplaceAll(name, "\\", "/")
	base := strings.ToLower(filepath.Base(name))

	if path, ok := idx.names[base]; ok {
		return path, true
	}
	path, ok := idx.stems[strings.TrimSuffix(base, filepath.Ext(base))]
	return path, ok
}

// Len returns the number of indexed images.
func (idx *Index) Len() int {
	return len(idx.names)
}
