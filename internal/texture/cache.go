package texture

import (
	"image"
	"log/slog"
	"sync"
)

// Resolver maps a bundle's texture stem to a decoded albedo image.
// Nil means the name is unknown or the file would not decode.
type Resolver interface {
	Resolve(name string) *image.NRGBA
}

// Cache decodes each albedo once and shares the image across batch
// workers. Failed decodes are cached as misses so a broken file is
// only read once per run.
type Cache struct {
	mu     sync.RWMutex
	albedo map[string]*image.NRGBA
	index  *Index
}

// NewCache returns a Cache resolving names through index.
func NewCache(index *Index) *Cache {
	return &Cache{albedo: make(map[string]*image.NRGBA), index: index}
}

// Resolve returns the decoded albedo for name, or nil.
func (c *Cache) Resolve(name string) *image.NRGBA {
	path, ok := c.index.ResolvePath(name)
	if !ok {
		return nil
	}

	c.mu.RLock()
	img, hit := c.albedo[path]
	c.mu.RUnlock()
	if hit {
		return img
	}

	img, err := LoadTexture(path)
	if err != nil {
		slog.Warn("texture: decode failed", "path", path, "err", err)
		img = nil
	}

	c.mu.Lock()
	if prev, hit := c.albedo[path]; hit {
		c.mu.Unlock()
		return prev
	}
	c.albedo[path] = img
	c.mu.Unlock()
	return img
}
