package images

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	stdnet "domsnap/std/net"
)

// Fetcher retrieves the bytes behind an image source.
type Fetcher interface {
	Fetch(ctx context.Context, src string) (data []byte, mediaType string, err error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, src string) ([]byte, string, error)

func (f FetcherFunc) Fetch(ctx context.Context, src string) ([]byte, string, error) {
	return f(ctx, src)
}

// DefaultFetcher handles data URIs, http(s) URLs and file paths. Relative
// sources are resolved against BaseURL when it is a network URL and
// against BaseDir otherwise.
type DefaultFetcher struct {
	BaseURL string
	BaseDir string
}

func (f DefaultFetcher) Fetch(ctx context.Context, src string) ([]byte, string, error) {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return nil, "", fmt.Errorf("empty image source")
	case IsDataURI(src):
		mediaType, data, err := ParseDataURI(src)
		return data, mediaType, err
	case stdnet.IsNetworkURL(src):
		return stdnet.Fetch(ctx, src)
	case stdnet.IsNetworkURL(f.BaseURL):
		return stdnet.Fetch(ctx, stdnet.ResolveURL(f.BaseURL, src))
	}

	path := strings.TrimPrefix(src, "file://")
	if !filepath.IsAbs(path) && f.BaseDir != "" {
		path = filepath.Join(f.BaseDir, path)
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading image %s: %w", path, err)
	}
	return data, mediaTypeFromExt(path), nil
}

func mediaTypeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".webp":
		return "image/webp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".svg":
		return "image/svg+xml"
	}
	return ""
}
