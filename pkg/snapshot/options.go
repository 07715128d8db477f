package snapshot

import (
	"context"
	"log/slog"
	"math"

	"domsnap/pkg/css"
	"domsnap/pkg/html"
	"domsnap/pkg/images"
	"domsnap/pkg/layout"
	"domsnap/pkg/logging"
)

// DefaultScale is the device-scale factor used when Config.Scale is unset.
const DefaultScale = 2

// Host is the live document a pipeline captures from.
type Host interface {
	QuerySelector(selector string) (*html.Node, error)
	QuerySelectorAll(root *html.Node, selector string) ([]*html.Node, error)
	// BoundingClientRect is the laid-out border box in page coordinates.
	BoundingClientRect(n *html.Node) layout.Rect
	// ComputedStyle holds a resolved value for every known property,
	// including the used width and height.
	ComputedStyle(n *html.Node) *css.Style
}

// Config selects what to capture. RootNode wins over Root.
type Config struct {
	Root     string
	RootNode *html.Node
	// BackgroundColor replaces the root's background when set.
	BackgroundColor string
	Scale           float64
}

func (c Config) scale() float64 {
	if c.Scale > 0 {
		return c.Scale
	}
	return DefaultScale
}

// Options are resolved from a Config before every capture.
type Options struct {
	Root   *html.Node
	Width  int
	Height int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithJPEGQuality sets the quality, in (0, 1], used by ToJpeg.
func WithJPEGQuality(q float64) Option {
	return func(p *Pipeline) { p.jpegQuality = q }
}

// WithFetcher loads http(s) and file sources met while rasterizing, such as
// images inside a serialized SVG.
func WithFetcher(f images.Fetcher) Option {
	return func(p *Pipeline) { p.fetcher = f }
}

// WithLogger overrides the package logger for this pipeline.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

func (p *Pipeline) logger() *slog.Logger {
	if p.log != nil {
		return p.log
	}
	return logging.Logger()
}

// Options resolves the root and measures it once the images under it have
// settled.
func (p *Pipeline) Options(ctx context.Context) (Options, error) {
	root, err := p.resolveRoot(ctx)
	if err != nil {
		return Options{}, err
	}
	if err := p.waitForImages(ctx, root); err != nil {
		return Options{}, err
	}
	r := p.host.BoundingClientRect(root)
	opts := Options{
		Root:   root,
		Width:  max(int(math.Round(r.Width)), 0),
		Height: max(int(math.Round(r.Height)), 0),
	}
	p.logger().Info("snapshot: options resolved", "root", root.TagName, "width", opts.Width, "height", opts.Height)
	return opts, nil
}

func (p *Pipeline) resolveRoot(ctx context.Context) (*html.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.cfg.RootNode != nil {
		return p.cfg.RootNode, nil
	}
	if p.cfg.Root == "" {
		return nil, &ConfigurationError{}
	}
	n, err := p.host.QuerySelector(p.cfg.Root)
	if err != nil {
		return nil, &ConfigurationError{Root: p.cfg.Root, Err: err}
	}
	if n == nil {
		return nil, &ConfigurationError{Root: p.cfg.Root}
	}
	return n, nil
}
