package images

import (
	"context"
	"fmt"
	"image"
	"sync"
)

// ImageCache caches decoded raster images by source.
type ImageCache struct {
	cache map[string]image.Image
	mu    sync.RWMutex
}

func NewImageCache() *ImageCache {
	return &ImageCache{cache: make(map[string]image.Image)}
}

func (c *ImageCache) get(src string) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.cache[src]
	return img, ok
}

func (c *ImageCache) put(src string, img image.Image) {
	c.mu.Lock()
	c.cache[src] = img
	c.mu.Unlock()
}

// Load fetches and decodes a raster image, consulting the cache first.
// SVG sources are rejected; callers render those themselves.
func (c *ImageCache) Load(ctx context.Context, f Fetcher, src string) (image.Image, error) {
	if img, ok := c.get(src); ok {
		return img, nil
	}
	data, mediaType, err := f.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	if IsSVG(mediaType, data) {
		return nil, fmt.Errorf("%s: svg is not a raster image", truncate(src))
	}
	img, _, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", truncate(src), err)
	}
	c.put(src, img)
	return img, nil
}

// LoadImageFromDataURI decodes a data URI without caching.
func LoadImageFromDataURI(uri string) (image.Image, error) {
	_, data, err := ParseDataURI(uri)
	if err != nil {
		return nil, err
	}
	img, _, err := Decode(data)
	return img, err
}

func truncate(src string) string {
	if len(src) > 64 {
		return src[:64] + "..."
	}
	return src
}
