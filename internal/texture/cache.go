package texture

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned when no indexed file matches an image name.
var ErrNotFound = errors.New("texture: not found")

// Resolver resolves an image name to a texture. A failed load still yields a
// usable texture; placeholder reports that it is the fallback.
type Resolver interface {
	Resolve(name string) (img *image.NRGBA, placeholder bool)
}

// Cache is a concurrency-safe, size-bounded texture cache.
type Cache struct {
	index   *Index
	maxSize int
	items   *lru.Cache // path → *image.NRGBA
	group   singleflight.Group
	log     *slog.Logger
}

// NewCache creates a cache of at most entries decoded images backed by index.
// Images are scaled to fit maxSize. A nil logger uses slog.Default().
func NewCache(index *Index, entries, maxSize int, log *slog.Logger) (*Cache, error) {
	items, err := lru.New(entries)
	if err != nil {
		return nil, fmt.Errorf("texture: cache: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Cache{index: index, maxSize: maxSize, items: items, log: log}, nil
}

// Load returns the decoded image for name, loading it at most once at a time.
func (c *Cache) Load(name string) (*image.NRGBA, error) {
	path, ok := c.index.ResolvePath(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if v, ok := c.items.Get(path); ok {
		return v.(*image.NRGBA), nil
	}

	v, err, _ := c.group.Do(path, func() (any, error) {
		img, err := LoadTexture(path, c.maxSize)
		if err != nil {
			return nil, err
		}
		c.items.Add(path, img)
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*image.NRGBA), nil
}

// Resolve loads name, falling back to the placeholder with a warning.
func (c *Cache) Resolve(name string) (*image.NRGBA, bool) {
	img, err := c.Load(name)
	if err != nil {
		c.log.Warn("using placeholder texture", "image", name, "err", err)
		return Placeholder(), true
	}
	return img, false
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	return c.items.Len()
}
