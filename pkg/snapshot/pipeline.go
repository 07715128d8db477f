// Package snapshot captures a subtree of a live document as a canvas, SVG,
// PNG or JPEG image without a native screenshot facility.
//
// A capture clones the subtree with every computed style written inline,
// replaces images and canvases by embedded data: URIs, wraps the clone in
// an SVG foreignObject and rasterizes that SVG at a device scale.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"

	"domsnap/pkg/canvas"
	"domsnap/pkg/html"
	"domsnap/pkg/images"
)

// Pipeline captures the root named by its Config. Options are resolved
// again before every capture, so a pipeline follows changes in the host.
// Captures on one pipeline must not run concurrently.
type Pipeline struct {
	host        Host
	cfg         Config
	jpegQuality float64
	fetcher     images.Fetcher
	log         *slog.Logger
}

func New(host Host, cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{host: host, cfg: cfg, jpegQuality: images.DefaultJPEGQuality}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) rasterizer(scale float64) *Rasterizer {
	return &Rasterizer{Scale: scale, Fetcher: p.fetcher, Log: p.logger()}
}

// Clone resolves the options and returns the flattened, media-resolved
// clone of the root.
func (p *Pipeline) Clone(ctx context.Context) (*html.Node, error) {
	_, clone, err := p.prepare(ctx)
	return clone, err
}

func (p *Pipeline) prepare(ctx context.Context) (Options, *html.Node, error) {
	opts, err := p.Options(ctx)
	if err != nil {
		return Options{}, nil, err
	}
	c := &cloner{
		host:       p.host,
		background: p.cfg.BackgroundColor,
		log:        p.logger(),
		media: &mediaResolver{
			host:   p.host,
			raster: p.rasterizer(1),
			log:    p.logger(),
		},
	}
	clone, err := c.clone(ctx, opts.Root)
	if err != nil {
		return Options{}, nil, err
	}
	p.logger().Debug("snapshot: clone complete", "steps", c.steps)
	return opts, clone, nil
}

// waitForImages blocks until every <img> under root has settled.
func (p *Pipeline) waitForImages(ctx context.Context, root *html.Node) error {
	var pending []*html.Node
	root.Walk(func(n *html.Node) bool {
		if html.Classify(n) == html.KindRasterImage {
			pending = append(pending, n)
		}
		return true
	})
	for _, n := range pending {
		if n.Image == nil {
			src, _ := n.GetAttribute("src")
			return &MediaLoadError{Src: src, Err: errNoLoadState}
		}
		select {
		case <-n.Image.Done():
		case <-ctx.Done():
			src, _ := n.GetAttribute("src")
			return fmt.Errorf("snapshot: waiting for image %s: %w", shorten(src), ctx.Err())
		}
	}
	return nil
}

// ToSvgString returns the capture as a data:image/svg+xml URI.
func (p *Pipeline) ToSvgString(ctx context.Context) (string, error) {
	opts, clone, err := p.prepare(ctx)
	if err != nil {
		return "", err
	}
	return serialize(clone, opts.Width, opts.Height), nil
}

// ToSvg returns an <svg> element wrapping the clone in a foreignObject.
func (p *Pipeline) ToSvg(ctx context.Context) (*html.Node, error) {
	opts, clone, err := p.prepare(ctx)
	if err != nil {
		return nil, err
	}
	return envelope(clone, opts.Width, opts.Height), nil
}

// ToCanvas rasterizes the capture onto a surface of Width*Scale x
// Height*Scale pixels.
func (p *Pipeline) ToCanvas(ctx context.Context) (*canvas.Canvas, error) {
	c, _, err := p.toCanvas(ctx)
	return c, err
}

func (p *Pipeline) toCanvas(ctx context.Context) (*canvas.Canvas, Options, error) {
	opts, clone, err := p.prepare(ctx)
	if err != nil {
		return nil, Options{}, err
	}
	uri := serialize(clone, opts.Width, opts.Height)
	c, err := p.rasterizer(p.cfg.scale()).Rasterize(ctx, uri, Draw{
		DestWidth:  float64(opts.Width),
		DestHeight: float64(opts.Height),
	})
	if err != nil {
		return nil, Options{}, err
	}
	return c, opts, nil
}

// ToPng returns the capture as a PNG data: URI.
func (p *Pipeline) ToPng(ctx context.Context) (string, error) {
	return p.encode(ctx, "image/png")
}

// ToJpeg returns the capture as a JPEG data: URI.
func (p *Pipeline) ToJpeg(ctx context.Context) (string, error) {
	return p.encode(ctx, "image/jpeg")
}

func (p *Pipeline) encode(ctx context.Context, mime string) (string, error) {
	c, err := p.ToCanvas(ctx)
	if err != nil {
		return "", err
	}
	uri, err := c.ToDataURL(mime, p.jpegQuality)
	if err != nil {
		return "", err
	}
	p.logger().Info("snapshot: encoded", "mime", mime, "width", c.Width(), "height", c.Height(), "bytes", len(uri))
	return uri, nil
}

// ToMultiPic captures the root once and crops out every element under it
// that matches selector, in document order. format is "png" (the default),
// "jpeg" or "jpg". No match gives an empty slice.
func (p *Pipeline) ToMultiPic(ctx context.Context, selector, format string) ([]Region, error) {
	if _, err := mimeFor(format); err != nil {
		return nil, err
	}
	c, opts, err := p.toCanvas(ctx)
	if err != nil {
		return nil, err
	}
	full, err := c.ToDataURL("image/png", 0)
	if err != nil {
		return nil, err
	}
	return p.extractRegions(ctx, full, opts.Root, selector, format)
}
