package snapshot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"domsnap/pkg/html"
	"domsnap/pkg/images"
)

var (
	errNoLoadState = errors.New("image has no load state")
	errNoBacking   = errors.New("canvas has no backing bitmap")
	errNotEmbedded = errors.New("source is not a data: URI")
)

// mediaResolver turns media nodes into loaded <img> elements whose src is
// a data: URI.
type mediaResolver struct {
	host Host
	// raster loads data strings and re-encodes images at natural size.
	raster *Rasterizer
	log    *slog.Logger
}

func (m *mediaResolver) resolve(ctx context.Context, live *html.Node) (*html.Node, error) {
	switch html.Classify(live) {
	case html.KindRasterImage:
		return m.resolveImage(ctx, live)
	case html.KindBitmapCanvas:
		return m.resolveCanvas(ctx, live)
	}
	return live.CloneNode(false), nil
}

func (m *mediaResolver) resolveImage(ctx context.Context, live *html.Node) (*html.Node, error) {
	src, _ := live.GetAttribute("src")
	if live.Image == nil {
		return nil, &MediaLoadError{Src: src, Err: errNoLoadState}
	}
	if !live.Image.Complete() {
		m.log.Debug("snapshot: waiting for image", "src", shorten(src))
	}
	img, err := live.Image.Wait(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, &MediaLoadError{Src: src, Err: err}
	}
	if img == nil {
		return nil, &MediaLoadError{Src: src, Err: errors.New("empty image")}
	}

	if !images.IsDataURI(src) {
		b := img.Bounds()
		c, err := m.raster.DrawBitmap(img, Draw{DestWidth: float64(b.Dx()), DestHeight: float64(b.Dy())})
		if err != nil {
			return nil, &MediaLoadError{Src: src, Err: err}
		}
		uri, err := c.ToDataURL("image/png", 0)
		if err != nil {
			return nil, &MediaLoadError{Src: src, Err: err}
		}
		m.log.Debug("snapshot: image re-encoded", "src", shorten(src), "bytes", len(uri))
		src = uri
	}
	if !strings.HasPrefix(src, "data:") {
		return nil, &MediaLoadError{Src: src, Err: errNotEmbedded}
	}

	out := live.CloneNode(false)
	out.Attributes["src"] = src
	out.Image = html.LoadedImage(img)
	return out, nil
}

func (m *mediaResolver) resolveCanvas(ctx context.Context, live *html.Node) (*html.Node, error) {
	if live.Canvas == nil {
		return nil, &MediaLoadError{Src: "canvas", Err: errNoBacking}
	}
	uri, err := live.Canvas.ToDataURL("image/png", 0)
	if err != nil {
		return nil, &MediaLoadError{Src: "canvas", Err: err}
	}
	s, err := m.raster.load(ctx, uri)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &MediaLoadError{Src: uri, Err: err}
	}
	if s.bitmap == nil {
		return nil, &MediaLoadError{Src: uri, Err: errors.New("canvas content is not a bitmap")}
	}

	out := html.NewElement("img")
	for k, v := range live.Attributes {
		if k == "width" || k == "height" {
			continue
		}
		out.Attributes[k] = v
	}
	r := m.host.BoundingClientRect(live)
	out.Attributes["src"] = uri
	out.Attributes["width"] = strconv.FormatFloat(r.Width, 'f', -1, 64)
	out.Attributes["height"] = strconv.FormatFloat(r.Height, 'f', -1, 64)
	out.Image = html.LoadedImage(s.bitmap)
	m.log.Debug("snapshot: canvas resolved", "width", r.Width, "height", r.Height)
	return out, nil
}
