// Package page is a live document: parsed HTML with its stylesheets,
// scripts, image loads, canvases and layout. A Page answers the queries a
// snapshot pipeline needs, so captures run without a browser.
package page

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"domsnap/pkg/canvas"
	"domsnap/pkg/css"
	"domsnap/pkg/html"
	"domsnap/pkg/images"
	"domsnap/pkg/js"
	"domsnap/pkg/layout"
	"domsnap/pkg/logging"
	"domsnap/pkg/render"
	"domsnap/pkg/snapshot"
	"domsnap/pkg/svg"
	stdnet "domsnap/std/net"
)

// Default viewport, the size of a common laptop window.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Page is not safe for concurrent use, except that image loads complete on
// their own goroutines.
type Page struct {
	doc           *html.Document
	width, height float64
	fetcher       images.Fetcher
	scripts       bool
	log           *slog.Logger

	styles map[*html.Node]*css.Style
	layout *layout.LayoutEngine
	boxes  []*layout.Box

	// dirty is set when an image load settles and the layout is stale.
	dirty atomic.Bool
	loads sync.WaitGroup
}

type Option func(*Page)

// WithViewport sets the viewport size in CSS pixels.
func WithViewport(width, height float64) Option {
	return func(p *Page) { p.width, p.height = width, height }
}

// WithFetcher loads images and linked stylesheets. The default handles
// data: URIs, http(s) URLs and file paths relative to the working directory.
func WithFetcher(f images.Fetcher) Option {
	return func(p *Page) { p.fetcher = f }
}

// WithoutScripts skips the document's <script> elements.
func WithoutScripts() Option {
	return func(p *Page) { p.scripts = false }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Page) { p.log = l }
}

// New parses markup, starts its image loads, runs its scripts and lays it
// out. ctx bounds the scripts and the image loads.
func New(ctx context.Context, markup string, opts ...Option) (*Page, error) {
	p := &Page{
		width:   DefaultWidth,
		height:  DefaultHeight,
		fetcher: images.DefaultFetcher{},
		scripts: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logging.Logger()
	}

	doc, err := html.ParseWithFetcher(markup, p.fetchCSS(ctx))
	if err != nil {
		return nil, fmt.Errorf("page: parsing: %w", err)
	}
	p.doc = doc
	p.Reflow(ctx)

	if p.scripts && len(doc.Scripts) > 0 {
		if err := js.New(p, js.WithLogger(p.log)).Execute(ctx, doc); err != nil {
			p.log.Warn("page: script failed", "error", err)
		}
		p.Reflow(ctx)
	}
	return p, nil
}

// Load reads a document from a file path or an http(s) URL. Relative
// resources resolve against its location.
func Load(ctx context.Context, src string, opts ...Option) (*Page, error) {
	var (
		markup string
		base   images.DefaultFetcher
	)
	if stdnet.IsNetworkURL(src) {
		text, err := stdnet.FetchDocument(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("page: %w", err)
		}
		markup, base.BaseURL = text, src
	} else {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("page: %w", err)
		}
		markup, base.BaseDir = string(data), filepath.Dir(src)
	}
	return New(ctx, markup, append([]Option{WithFetcher(base)}, opts...)...)
}

func (p *Page) fetchCSS(ctx context.Context) html.CSSFetcher {
	return func(uri string) (string, error) {
		data, _, err := p.fetcher.Fetch(ctx, uri)
		if err != nil {
			p.log.Warn("page: stylesheet not loaded", "href", uri, "error", err)
			return "", err
		}
		return string(data), nil
	}
}

// attachMedia gives every <img> a load state and every <canvas> a backing
// surface, skipping nodes that already have one.
func (p *Page) attachMedia(ctx context.Context) {
	p.doc.Root.Walk(func(n *html.Node) bool {
		switch html.Classify(n) {
		case html.KindRasterImage:
			if n.Image == nil {
				n.Image = html.NewImageState()
				src, _ := n.GetAttribute("src")
				p.loads.Add(1)
				go p.loadImage(ctx, n.Image, src)
			}
		case html.KindBitmapCanvas:
			if n.Canvas == nil {
				n.Canvas = canvas.New(canvasSize(n, "width", 300), canvasSize(n, "height", 150))
			}
		}
		return true
	})
}

func canvasSize(n *html.Node, attr string, def int) int {
	v, ok := n.GetAttribute(attr)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return def
	}
	return i
}

func (p *Page) loadImage(ctx context.Context, state *html.ImageState, src string) {
	defer p.loads.Done()
	img, err := p.decodeImage(ctx, src)
	if err != nil {
		p.log.Warn("page: image failed to load", "src", shorten(src), "error", err)
	}
	// Waiters wake on Resolve and must find the layout already stale.
	p.dirty.Store(true)
	state.Resolve(img, err)
}

func (p *Page) decodeImage(ctx context.Context, src string) (image.Image, error) {
	data, mediaType, err := p.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	if images.IsSVG(mediaType, data) {
		return svg.Rasterize(ctx, data, 1, svg.WithFetcher(p.fetcher))
	}
	img, _, err := images.Decode(data)
	return img, err
}

// WaitForImages blocks until every image load started so far has settled.
func (p *Page) WaitForImages(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.loads.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reflow starts loads for images and creates surfaces for canvases added
// since the last call, then recomputes styles and layout. ctx bounds the
// new image loads.
func (p *Page) Reflow(ctx context.Context) {
	p.attachMedia(ctx)
	p.relayout()
}

func (p *Page) relayout() {
	p.dirty.Store(false)
	p.styles = css.ApplyStylesToDocument(p.doc, p.width, p.height)
	p.layout = layout.NewLayoutEngine(p.width, p.height)
	p.boxes = p.layout.Layout(p.doc.Root, p.styles)
	p.log.Debug("page: layout", "boxes", len(p.boxes))
}

func (p *Page) ensureLayout() {
	if p.layout == nil || p.dirty.Load() {
		p.relayout()
	}
}

func (p *Page) Document() *html.Document {
	return p.doc
}

// Size returns the extent of the laid-out document.
func (p *Page) Size() (width, height float64) {
	p.ensureLayout()
	return p.layout.DocumentSize()
}

func (p *Page) QuerySelector(selector string) (*html.Node, error) {
	return css.QuerySelector(p.doc.Root, selector)
}

func (p *Page) QuerySelectorAll(root *html.Node, selector string) ([]*html.Node, error) {
	return css.QuerySelectorAll(root, selector)
}

func (p *Page) BoundingClientRect(n *html.Node) layout.Rect {
	p.ensureLayout()
	return p.layout.BoundingClientRect(n)
}

// ComputedStyle returns a copy of n's computed style with width and height
// replaced by their used values, measured on the border box when
// box-sizing is border-box and on the content box otherwise.
func (p *Page) ComputedStyle(n *html.Node) *css.Style {
	p.ensureLayout()
	s, ok := p.styles[n]
	if !ok {
		return nil
	}
	s = s.Clone()
	boxes := p.layout.BoxesFor(n)
	if len(boxes) == 0 {
		return s
	}
	b := boxes[0]
	if b.Kind == layout.InlineBox || b.Kind == layout.TextBox {
		return s
	}
	r := b.ContentBox()
	if s.IsBorderBox() {
		r = b.BorderBox()
	}
	s.Set("width", css.FormatPx(r.Width))
	s.Set("height", css.FormatPx(r.Height))
	return s
}

// Canvas returns the drawing surface behind a <canvas> element, creating it
// for elements added after the last media pass.
func (p *Page) Canvas(n *html.Node) *canvas.Canvas {
	if html.Classify(n) != html.KindBitmapCanvas {
		return nil
	}
	if c, ok := n.Canvas.(*canvas.Canvas); ok {
		return c
	}
	c := canvas.New(canvasSize(n, "width", 300), canvasSize(n, "height", 150))
	n.Canvas = c
	return c
}

// Snapshot returns a capture pipeline over this page. The page's fetcher
// is used for sources met while rasterizing unless opts override it.
func (p *Page) Snapshot(cfg snapshot.Config, opts ...snapshot.Option) *snapshot.Pipeline {
	opts = append([]snapshot.Option{snapshot.WithFetcher(p.fetcher), snapshot.WithLogger(p.log)}, opts...)
	return snapshot.New(p, cfg, opts...)
}

// Render paints the whole page on a white background at scale.
func (p *Page) Render(scale float64) image.Image {
	p.ensureLayout()
	w, h := p.layout.DocumentSize()
	r := render.NewRenderer(int(w+0.5), int(h+0.5), scale)
	r.Clear(color.White)
	r.Render(p.boxes)
	return r.Image()
}

func shorten(src string) string {
	if len(src) > 48 {
		return src[:48] + "..."
	}
	return src
}
