// Package svg decodes SVG documents into resolution-independent images.
// Plain shapes are drawn with oksvg; foreignObject content is parsed as
// XHTML, laid out and painted with the engine's own renderer.
package svg

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"domsnap/pkg/css"
	"domsnap/pkg/html"
	"domsnap/pkg/images"
	"domsnap/pkg/layout"
	"domsnap/pkg/logging"
	"domsnap/pkg/render"
)

// DefaultWidth and DefaultHeight size an SVG that declares neither a size
// nor a viewBox.
const (
	DefaultWidth  = 300
	DefaultHeight = 150
)

// Image is a decoded SVG document.
type Image struct {
	width, height float64
	shapes        []byte // markup with foreignObject removed; nil without shapes
	objects       []*ForeignObject
}

// ForeignObject is an XHTML subtree embedded in the SVG.
type ForeignObject struct {
	X, Y, Width, Height float64
	Document            *html.Document

	widthAttr, heightAttr string
	markup                string
}

// Option configures Decode.
type Option func(*decoder)

// WithFetcher loads non-data image sources inside foreignObject content.
// Without one only data: URIs are loaded.
func WithFetcher(f images.Fetcher) Option {
	return func(d *decoder) { d.fetcher = f }
}

type decoder struct {
	fetcher images.Fetcher
	cache   *images.ImageCache
}

var shapeElements = map[string]bool{
	"rect": true, "circle": true, "ellipse": true, "line": true,
	"polyline": true, "polygon": true, "path": true,
}

// Decode parses an SVG document and loads the images referenced by its
// foreignObject content. A missing image is left blank, as a browser does
// for SVG used as an image.
func Decode(ctx context.Context, data []byte, opts ...Option) (*Image, error) {
	d := &decoder{cache: images.NewImageCache()}
	for _, opt := range opts {
		opt(d)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	img := &Image{}
	var cuts [][2]int64
	var viewBox []float64
	rootSeen, hasShapes := false, false
	var widthAttr, heightAttr string

	for {
		before := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("svg: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch {
		case !rootSeen:
			if start.Name.Local != "svg" {
				return nil, fmt.Errorf("svg: root element is <%s>", start.Name.Local)
			}
			rootSeen = true
			widthAttr, heightAttr = attr(start, "width"), attr(start, "height")
			viewBox = parseViewBox(attr(start, "viewBox"))
		case start.Name.Local == "foreignObject":
			contentStart := dec.InputOffset()
			contentEnd, err := skipElement(dec)
			if err != nil {
				return nil, fmt.Errorf("svg: foreignObject: %w", err)
			}
			cuts = append(cuts, [2]int64{before, dec.InputOffset()})
			img.objects = append(img.objects, &ForeignObject{
				X:          number(attr(start, "x"), 0, 0),
				Y:          number(attr(start, "y"), 0, 0),
				widthAttr:  attr(start, "width"),
				heightAttr: attr(start, "height"),
				markup:     string(data[contentStart:contentEnd]),
			})
		case shapeElements[start.Name.Local]:
			hasShapes = true
		}
	}
	if !rootSeen {
		return nil, errors.New("svg: no svg element")
	}

	img.width, img.height = DefaultWidth, DefaultHeight
	if len(viewBox) == 4 {
		img.width, img.height = viewBox[2], viewBox[3]
	}
	img.width = number(widthAttr, img.width, img.width)
	img.height = number(heightAttr, img.height, img.height)

	for _, fo := range img.objects {
		fo.Width = number(fo.widthAttr, img.width, img.width)
		fo.Height = number(fo.heightAttr, img.height, img.height)
		doc, err := html.ParseXHTML(fo.markup)
		if err != nil {
			return nil, fmt.Errorf("svg: foreignObject content: %w", err)
		}
		fo.Document = doc
		if err := d.loadImages(ctx, doc); err != nil {
			return nil, err
		}
	}
	if hasShapes {
		img.shapes = cut(data, cuts)
	}
	return img, nil
}

// skipElement consumes tokens up to the end of the current element and
// returns the offset where its end tag starts.
func skipElement(dec *xml.Decoder) (int64, error) {
	depth := 1
	for {
		before := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return 0, err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 {
				return before, nil
			}
		}
	}
}

func cut(data []byte, ranges [][2]int64) []byte {
	out := make([]byte, 0, len(data))
	last := int64(0)
	for _, r := range ranges {
		out = append(out, data[last:r[0]]...)
		last = r[1]
	}
	return append(out, data[last:]...)
}

func attr(e xml.StartElement, name string) string {
	for _, a := range e.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// number parses an SVG length. Percentages refer to base; empty or
// unparsable values give def.
func number(v string, base, def float64) float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	if p, ok := css.ParsePercent(v); ok {
		return p * base
	}
	if l, ok := css.ParseLength(v); ok {
		return l
	}
	return def
}

func parseViewBox(v string) []float64 {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' })
	if len(fields) != 4 {
		return nil
	}
	out := make([]float64, 4)
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil
		}
		out[i] = n
	}
	if out[2] <= 0 || out[3] <= 0 {
		return nil
	}
	return out
}

// loadImages resolves every <img> in doc synchronously.
func (d *decoder) loadImages(ctx context.Context, doc *html.Document) error {
	var imgs []*html.Node
	doc.Root.Walk(func(n *html.Node) bool {
		if html.Classify(n) == html.KindRasterImage {
			imgs = append(imgs, n)
		}
		return true
	})
	for _, n := range imgs {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, _ := n.GetAttribute("src")
		var (
			bitmap image.Image
			err    error
		)
		switch {
		case images.IsDataURI(src):
			bitmap, err = images.LoadImageFromDataURI(src)
		case d.fetcher != nil && src != "":
			bitmap, err = d.cache.Load(ctx, d.fetcher, src)
		default:
			err = fmt.Errorf("%q not loaded", src)
		}
		if err != nil {
			logging.Logger().Debug("svg: image left blank", "error", err)
			n.Image = html.NewImageState()
			n.Image.Resolve(nil, err)
			continue
		}
		n.Image = html.LoadedImage(bitmap)
	}
	return nil
}

// Size returns the natural size in CSS pixels.
func (im *Image) Size() (float64, float64) {
	return im.width, im.height
}

// ForeignObjects returns the embedded XHTML subtrees.
func (im *Image) ForeignObjects() []*ForeignObject {
	return im.objects
}

// Rasterize renders the image into a width x height bitmap. Shapes are
// painted first, then foreignObject content.
func (im *Image) Rasterize(width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("svg: invalid raster size %dx%d", width, height)
	}
	dc := gg.NewContext(width, height)
	if im.shapes != nil {
		if err := im.drawShapes(dc.Image().(*image.RGBA), width, height); err != nil {
			return nil, err
		}
	}

	sx, sy := float64(width)/im.width, float64(height)/im.height
	if sx != sy {
		dc.Scale(1, sy/sx)
	}
	for _, fo := range im.objects {
		im.paintObject(dc, fo, sx)
	}
	return dc.Image(), nil
}

func (im *Image) drawShapes(dst *image.RGBA, width, height int) error {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(im.shapes))
	if err != nil {
		return fmt.Errorf("svg: shapes: %w", err)
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		icon.ViewBox.X, icon.ViewBox.Y = 0, 0
		icon.ViewBox.W, icon.ViewBox.H = im.width, im.height
	}
	icon.SetTarget(0, 0, float64(width), float64(height))
	scanner := rasterx.NewScannerGV(width, height, dst, dst.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1)
	return nil
}

func (im *Image) paintObject(dc *gg.Context, fo *ForeignObject, scale float64) {
	styles := css.ApplyStylesToDocument(fo.Document, fo.Width, fo.Height)
	le := layout.NewLayoutEngine(fo.Width, fo.Height)
	boxes := le.Layout(fo.Document.Root, styles)
	layout.Translate(boxes, fo.X, fo.Y)

	r := render.NewRendererOn(dc, scale)
	r.Clip(layout.Rect{X: fo.X, Y: fo.Y, Width: fo.Width, Height: fo.Height})
	r.Render(boxes)
	logging.Logger().Debug("svg: foreignObject painted", "boxes", len(boxes), "scale", scale)
}

// Rasterize decodes an SVG and renders it at its natural size times scale,
// on a transparent background.
func Rasterize(ctx context.Context, data []byte, scale float64, opts ...Option) (image.Image, error) {
	img, err := Decode(ctx, data, opts...)
	if err != nil {
		return nil, err
	}
	w, h := img.Size()
	return img.Rasterize(max(int(w*scale+0.5), 1), max(int(h*scale+0.5), 1))
}
