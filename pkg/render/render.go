package render

import (
	"image"
	"image/color"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"domsnap/pkg/css"
	"domsnap/pkg/html"
	"domsnap/pkg/images"
	"domsnap/pkg/layout"
	"domsnap/pkg/logging"
	"domsnap/pkg/text"
)

// Renderer paints laid-out boxes onto a gg context. Box coordinates are CSS
// pixels; every coordinate is multiplied by the device scale before it
// reaches the context, and fonts are built at the scaled size so glyphs are
// rasterized at device resolution.
type Renderer struct {
	context *gg.Context
	scale   float64
	faces   map[faceKey]font.Face
	clips   []layout.Rect
}

type faceKey struct {
	size  float64
	style text.FontStyle
}

// NewRenderer allocates a transparent surface for a width x height CSS
// pixel area at the given device scale.
func NewRenderer(width, height int, scale float64) *Renderer {
	if scale <= 0 {
		scale = 1
	}
	w := int(math.Ceil(float64(width) * scale))
	h := int(math.Ceil(float64(height) * scale))
	return NewRendererOn(gg.NewContext(max(w, 1), max(h, 1)), scale)
}

// NewRendererOn paints onto an existing context.
func NewRendererOn(dc *gg.Context, scale float64) *Renderer {
	if scale <= 0 {
		scale = 1
	}
	return &Renderer{context: dc, scale: scale, faces: make(map[faceKey]font.Face)}
}

func (r *Renderer) Context() *gg.Context { return r.context }
func (r *Renderer) Image() image.Image   { return r.context.Image() }

// Clear fills the whole surface with c.
func (r *Renderer) Clear(c color.Color) {
	r.context.SetColor(c)
	r.context.Clear()
}

// Render paints boxes in tree order. Within each box, positioned children
// with a negative z-index paint first, then in-flow children, then the
// remaining positioned children by z-index.
func (r *Renderer) Render(boxes []*layout.Box) {
	for _, b := range stackingOrder(boxes) {
		r.paint(b)
	}
}

// Clip restricts all further painting to rect, in CSS pixels.
func (r *Renderer) Clip(rect layout.Rect) {
	r.pushClip(rect)
}

func (r *Renderer) SavePNG(filename string) error {
	return r.context.SavePNG(filename)
}

func stackingOrder(boxes []*layout.Box) []*layout.Box {
	var negative, flow, positioned []*layout.Box
	for _, b := range boxes {
		switch {
		case b.IsPositioned() && b.ZIndex < 0:
			negative = append(negative, b)
		case b.IsPositioned():
			positioned = append(positioned, b)
		default:
			flow = append(flow, b)
		}
	}
	byZ := func(s []*layout.Box) {
		sort.SliceStable(s, func(i, j int) bool { return s[i].ZIndex < s[j].ZIndex })
	}
	byZ(negative)
	byZ(positioned)
	out := make([]*layout.Box, 0, len(boxes))
	out = append(out, negative...)
	out = append(out, flow...)
	return append(out, positioned...)
}

func (r *Renderer) paint(box *layout.Box) {
	if op := box.Style.GetOpacity(); op < 1 {
		if op > 0 {
			r.paintLayer(box, op)
		}
		return
	}
	r.paintBox(box)
}

// paintLayer paints box into an offscreen layer and composites it with
// the given opacity.
func (r *Renderer) paintLayer(box *layout.Box, opacity float64) {
	bounds := r.context.Image().Bounds()
	layer := &Renderer{
		context: gg.NewContext(bounds.Dx(), bounds.Dy()),
		scale:   r.scale,
		faces:   r.faces,
		clips:   append([]layout.Rect(nil), r.clips...),
	}
	layer.applyClip()
	layer.paintBox(box)

	dst, ok := r.context.Image().(draw.Image)
	if !ok {
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(dst, bounds, layer.context.Image(), bounds.Min, mask, image.Point{}, draw.Over)
}

func (r *Renderer) paintBox(box *layout.Box) {
	if box.Style.IsVisible() {
		switch box.Kind {
		case layout.TextBox:
			r.drawText(box)
			return
		default:
			r.drawBackground(box)
			r.drawBorder(box)
			if box.Replaced {
				r.drawReplaced(box)
			}
		}
	}
	if len(box.Children) == 0 {
		return
	}

	clip := box.Style.ClipsOverflow() && box.Kind != layout.InlineBox
	if clip {
		r.pushClip(box.PaddingBox())
	}
	for _, c := range stackingOrder(box.Children) {
		r.paint(c)
	}
	if clip {
		r.popClip()
	}
}

func (r *Renderer) pushClip(rect layout.Rect) {
	if n := len(r.clips); n > 0 {
		rect = intersect(r.clips[n-1], rect)
	}
	r.clips = append(r.clips, rect)
	r.applyClip()
}

func (r *Renderer) popClip() {
	r.clips = r.clips[:len(r.clips)-1]
	r.applyClip()
}

// applyClip installs the innermost clip. gg keeps the clip mask across
// Push/Pop, so it is reset and redrawn instead.
func (r *Renderer) applyClip() {
	r.context.ResetClip()
	if n := len(r.clips); n > 0 {
		c := r.clips[n-1]
		r.context.DrawRectangle(r.s(c.X), r.s(c.Y), r.s(max(c.Width, 0)), r.s(max(c.Height, 0)))
		r.context.Clip()
	}
}

func intersect(a, b layout.Rect) layout.Rect {
	x, y := max(a.X, b.X), max(a.Y, b.Y)
	return layout.Rect{X: x, Y: y, Width: max(min(a.Right(), b.Right())-x, 0), Height: max(min(a.Bottom(), b.Bottom())-y, 0)}
}

func (r *Renderer) s(v float64) float64 { return v * r.scale }

func (r *Renderer) setColor(c css.Color) {
	r.context.SetColor(c.RGBA())
}

func (r *Renderer) drawBackground(box *layout.Box) {
	bb := box.BorderBox()
	if bb.Empty() {
		return
	}
	radius := box.Style.GetBorderRadius()
	if c, ok := css.ParseColor(box.Style.Value("background-color")); ok && c.A > 0 {
		r.setColor(c)
		r.rect(bb, radius)
		r.context.Fill()
	}
	r.drawBackgroundImage(box)
}

func (r *Renderer) rect(rc layout.Rect, radius float64) {
	if radius > 0 {
		radius = min(radius, rc.Width/2, rc.Height/2)
		r.context.DrawRoundedRectangle(r.s(rc.X), r.s(rc.Y), r.s(rc.Width), r.s(rc.Height), r.s(radius))
		return
	}
	r.context.DrawRectangle(r.s(rc.X), r.s(rc.Y), r.s(rc.Width), r.s(rc.Height))
}

// drawBackgroundImage tiles a data: URI background from the padding box
// origin, clipped to the padding box. Other URLs are not fetched here.
func (r *Renderer) drawBackgroundImage(box *layout.Box) {
	src, ok := backgroundURL(box.Style.Value("background-image"))
	if !ok || !images.IsDataURI(src) {
		return
	}
	img, err := images.LoadImageFromDataURI(src)
	if err != nil {
		logging.Logger().Debug("render: background image skipped", "error", err)
		return
	}
	area := box.PaddingBox()
	b := img.Bounds()
	if b.Empty() {
		return
	}
	r.pushClip(area)
	for y := area.Y; y < area.Bottom(); y += float64(b.Dy()) {
		for x := area.X; x < area.Right(); x += float64(b.Dx()) {
			r.drawImageRect(img, layout.Rect{X: x, Y: y, Width: float64(b.Dx()), Height: float64(b.Dy())})
		}
	}
	r.popClip()
}

func backgroundURL(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "url(") || !strings.HasSuffix(v, ")") {
		return "", false
	}
	return strings.Trim(strings.TrimSpace(v[4:len(v)-1]), `"'`), true
}

func (r *Renderer) borderColor(box *layout.Box, side string) (css.Color, bool) {
	if c, ok := css.ParseColor(box.Style.Value("border-" + side + "-color")); ok {
		return c, c.A > 0
	}
	c := box.Style.GetColor()
	return c, c.A > 0
}

// drawBorder fills each side as a trapezoid so corners miter.
func (r *Renderer) drawBorder(box *layout.Box) {
	bw := box.Border
	if bw.Top <= 0 && bw.Right <= 0 && bw.Bottom <= 0 && bw.Left <= 0 {
		return
	}
	outer := box.BorderBox()
	inner := box.PaddingBox()

	if radius := box.Style.GetBorderRadius(); radius > 0 {
		if c, ok := r.borderColor(box, "top"); ok {
			r.setColor(c)
			w := bw.Top
			r.context.SetLineWidth(r.s(w))
			r.rect(layout.Rect{X: outer.X + w/2, Y: outer.Y + w/2, Width: outer.Width - w, Height: outer.Height - w}, radius-w/2)
			r.context.Stroke()
		}
		return
	}

	type pt struct{ x, y float64 }
	sides := []struct {
		name  string
		width float64
		quad  [4]pt
	}{
		{"top", bw.Top, [4]pt{{outer.X, outer.Y}, {outer.Right(), outer.Y}, {inner.Right(), inner.Y}, {inner.X, inner.Y}}},
		{"right", bw.Right, [4]pt{{outer.Right(), outer.Y}, {outer.Right(), outer.Bottom()}, {inner.Right(), inner.Bottom()}, {inner.Right(), inner.Y}}},
		{"bottom", bw.Bottom, [4]pt{{outer.X, outer.Bottom()}, {outer.Right(), outer.Bottom()}, {inner.Right(), inner.Bottom()}, {inner.X, inner.Bottom()}}},
		{"left", bw.Left, [4]pt{{outer.X, outer.Y}, {outer.X, outer.Bottom()}, {inner.X, inner.Bottom()}, {inner.X, inner.Y}}},
	}
	for _, side := range sides {
		if side.width <= 0 {
			continue
		}
		c, ok := r.borderColor(box, side.name)
		if !ok {
			continue
		}
		r.setColor(c)
		r.context.MoveTo(r.s(side.quad[0].x), r.s(side.quad[0].y))
		for _, p := range side.quad[1:] {
			r.context.LineTo(r.s(p.x), r.s(p.y))
		}
		r.context.ClosePath()
		r.context.Fill()
	}
}

// drawReplaced paints an img or canvas bitmap into the content box.
func (r *Renderer) drawReplaced(box *layout.Box) {
	var img image.Image
	switch html.Classify(box.Node) {
	case html.KindRasterImage:
		if box.Node.Image != nil && box.Node.Image.Complete() {
			img, _ = box.Node.Image.Result()
		}
	case html.KindBitmapCanvas:
		if box.Node.Canvas != nil {
			img = box.Node.Canvas.Bitmap()
		}
	}
	if img == nil {
		return
	}
	r.drawImageRect(img, box.ContentBox())
}

// drawImageRect draws img stretched over dest, given in CSS pixels.
func (r *Renderer) drawImageRect(img image.Image, dest layout.Rect) {
	b := img.Bounds()
	if b.Empty() || dest.Empty() {
		return
	}
	r.context.Push()
	r.context.Translate(r.s(dest.X), r.s(dest.Y))
	r.context.Scale(r.s(dest.Width)/float64(b.Dx()), r.s(dest.Height)/float64(b.Dy()))
	r.context.DrawImage(img, -b.Min.X, -b.Min.Y)
	r.context.Pop()
}

func (r *Renderer) face(s *css.Style) font.Face {
	key := faceKey{size: s.GetFontSize() * r.scale, style: layout.FontStyle(s)}
	if f, ok := r.faces[key]; ok {
		return f
	}
	f, err := text.NewFace(key.size, key.style)
	if err != nil {
		logging.Logger().Warn("render: font face unavailable", "size", key.size, "error", err)
		return nil
	}
	r.faces[key] = f
	return f
}

func (r *Renderer) drawText(box *layout.Box) {
	if box.Text == "" {
		return
	}
	face := r.face(box.Style)
	if face == nil {
		return
	}
	r.context.SetFontFace(face)
	r.setColor(box.Style.GetColor())

	x, y := r.s(box.X), r.s(box.Baseline)
	spacing, _ := css.ParseLength(box.Style.Value("letter-spacing"))
	if spacing == 0 {
		r.context.DrawString(box.Text, x, y)
	} else {
		// Letter spacing is applied after every glyph.
		for rest := box.Text; rest != ""; {
			ch, size := utf8.DecodeRuneInString(rest)
			rest = rest[size:]
			glyph := string(ch)
			r.context.DrawString(glyph, x, y)
			w, _ := r.context.MeasureString(glyph)
			x += w + r.s(spacing)
		}
	}

	fontSize := box.Style.GetFontSize()
	thickness := max(fontSize/12, 1)
	width := box.Width
	start := r.s(box.X)
	if box.Style.HasUnderline() {
		r.line(start, y+r.s(fontSize*0.1), width, thickness)
	}
	if box.Style.HasLineThrough() {
		r.line(start, y-r.s(fontSize*0.3), width, thickness)
	}
}

func (r *Renderer) line(x, y, width, thickness float64) {
	r.context.DrawRectangle(x, y-r.s(thickness)/2, r.s(width), r.s(thickness))
	r.context.Fill()
}
