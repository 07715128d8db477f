package snapshot

import "fmt"

// MediaLoadError reports an <img> or <canvas> under the root whose content
// could not be loaded or turned into a data: URI.
type MediaLoadError struct {
	Src string
	Err error
}

func (e *MediaLoadError) Error() string {
	return fmt.Sprintf("snapshot: media %s failed to load: %v", shorten(e.Src), e.Err)
}

func (e *MediaLoadError) Unwrap() error { return e.Err }

// RasterLoadError reports a source string the rasterizer could not load,
// most often a malformed serialized SVG.
type RasterLoadError struct {
	Err error
}

func (e *RasterLoadError) Error() string {
	return fmt.Sprintf("snapshot: rasterizer could not load source: %v", e.Err)
}

func (e *RasterLoadError) Unwrap() error { return e.Err }

// ConfigurationError reports a root that resolves to no element.
type ConfigurationError struct {
	Root string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("snapshot: root %q: %v", e.Root, e.Err)
	}
	return fmt.Sprintf("snapshot: root %q matches no element", e.Root)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func shorten(src string) string {
	if len(src) > 48 {
		return src[:48] + "..."
	}
	return src
}
