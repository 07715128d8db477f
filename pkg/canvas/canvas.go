// Package canvas is a 2D drawing surface modelled on the HTML canvas
// context: a current transform, fill and stroke styles, rectangles, paths,
// text, and the nine-argument drawImage.
package canvas

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"domsnap/pkg/css"
	"domsnap/pkg/images"
	"domsnap/pkg/text"
)

// Canvas is an RGBA pixel surface. It is not safe for concurrent use.
type Canvas struct {
	dc     *gg.Context
	matrix gg.Matrix
	stack  []state

	fill      css.Color
	stroke    css.Color
	lineWidth float64
	fontSize  float64
	fontStyle text.FontStyle
}

type state struct {
	matrix    gg.Matrix
	fill      css.Color
	stroke    css.Color
	lineWidth float64
	fontSize  float64
	fontStyle text.FontStyle
}

// New returns a transparent width x height pixel surface.
func New(width, height int) *Canvas {
	return &Canvas{
		dc:        gg.NewContext(max(width, 0), max(height, 0)),
		matrix:    gg.Identity(),
		fill:      css.Color{A: 1},
		stroke:    css.Color{A: 1},
		lineWidth: 1,
		fontSize:  10,
	}
}

// FromImage returns a canvas holding a copy of img.
func FromImage(img image.Image) *Canvas {
	b := img.Bounds()
	c := New(b.Dx(), b.Dy())
	draw.Draw(c.rgba(), c.rgba().Bounds(), img, b.Min, draw.Src)
	return c
}

func (c *Canvas) Width() int  { return c.dc.Width() }
func (c *Canvas) Height() int { return c.dc.Height() }

func (c *Canvas) rgba() *image.RGBA {
	return c.dc.Image().(*image.RGBA)
}

// Bitmap returns the backing pixels. The image aliases the canvas.
func (c *Canvas) Bitmap() image.Image {
	return c.dc.Image()
}

// Context exposes the gg context for painters that draw in device pixels.
func (c *Canvas) Context() *gg.Context {
	return c.dc
}

// ToDataURL encodes the surface; see images.Encode for mime handling.
func (c *Canvas) ToDataURL(mime string, quality float64) (string, error) {
	return images.ToDataURL(c.dc.Image(), mime, quality)
}

// Save pushes the transform and styles.
func (c *Canvas) Save() {
	c.stack = append(c.stack, state{c.matrix, c.fill, c.stroke, c.lineWidth, c.fontSize, c.fontStyle})
	c.dc.Push()
}

// Restore pops the state pushed by Save. Unbalanced calls are ignored.
func (c *Canvas) Restore() {
	n := len(c.stack)
	if n == 0 {
		return
	}
	s := c.stack[n-1]
	c.stack = c.stack[:n-1]
	c.matrix, c.fill, c.stroke, c.lineWidth, c.fontSize, c.fontStyle = s.matrix, s.fill, s.stroke, s.lineWidth, s.fontSize, s.fontStyle
	c.dc.Pop()
}

func (c *Canvas) Scale(sx, sy float64) {
	c.matrix = c.matrix.Scale(sx, sy)
	c.dc.Scale(sx, sy)
}

func (c *Canvas) Translate(x, y float64) {
	c.matrix = c.matrix.Translate(x, y)
	c.dc.Translate(x, y)
}

func (c *Canvas) Rotate(angle float64) {
	c.matrix = c.matrix.Rotate(angle)
	c.dc.Rotate(angle)
}

// ResetTransform sets the transform back to identity.
func (c *Canvas) ResetTransform() {
	c.matrix = gg.Identity()
	c.dc.Identity()
}

// TransformPoint maps a user-space point to device pixels.
func (c *Canvas) TransformPoint(x, y float64) (float64, float64) {
	return c.matrix.TransformPoint(x, y)
}

// SetFillStyle parses a CSS color.
func (c *Canvas) SetFillStyle(v string) error {
	col, ok := css.ParseColor(v)
	if !ok {
		return fmt.Errorf("canvas: invalid fill style %q", v)
	}
	c.fill = col
	return nil
}

// SetStrokeStyle parses a CSS color.
func (c *Canvas) SetStrokeStyle(v string) error {
	col, ok := css.ParseColor(v)
	if !ok {
		return fmt.Errorf("canvas: invalid stroke style %q", v)
	}
	c.stroke = col
	return nil
}

func (c *Canvas) LineWidth() float64 { return c.lineWidth }

func (c *Canvas) SetLineWidth(w float64) {
	if w > 0 {
		c.lineWidth = w
	}
}

var fontSizePattern = regexp.MustCompile(`([0-9]*\.?[0-9]+)px`)

// SetFont accepts the CSS font shorthand. Only the px size, bold, italic
// and a monospace family are honoured.
func (c *Canvas) SetFont(v string) error {
	m := fontSizePattern.FindStringSubmatch(v)
	if m == nil {
		return fmt.Errorf("canvas: font %q has no px size", v)
	}
	size, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return fmt.Errorf("canvas: font %q: %w", v, err)
	}
	lower := strings.ToLower(v)
	c.fontSize = size
	c.fontStyle = text.FontStyle{
		Bold:   strings.Contains(lower, "bold"),
		Italic: strings.Contains(lower, "italic") || strings.Contains(lower, "oblique"),
		Mono:   strings.Contains(lower, "monospace") || strings.Contains(lower, "courier"),
	}
	return nil
}

// userScale is the device length of one user unit, assuming a transform
// without skew.
func (c *Canvas) userScale() float64 {
	m := c.matrix
	return math.Sqrt(math.Abs(m.XX*m.YY - m.XY*m.YX))
}

func (c *Canvas) FillRect(x, y, w, h float64) {
	c.dc.NewSubPath()
	c.dc.DrawRectangle(x, y, w, h)
	c.dc.SetColor(c.fill.RGBA())
	c.dc.Fill()
}

func (c *Canvas) StrokeRect(x, y, w, h float64) {
	c.dc.NewSubPath()
	c.dc.DrawRectangle(x, y, w, h)
	c.dc.SetColor(c.stroke.RGBA())
	c.dc.SetLineWidth(c.lineWidth * c.userScale())
	c.dc.Stroke()
}

// ClearRect sets the pixels under the rectangle to transparent black.
func (c *Canvas) ClearRect(x, y, w, h float64) {
	r := c.deviceRect(x, y, w, h)
	draw.Draw(c.rgba(), r, image.Transparent, image.Point{}, draw.Src)
}

// deviceRect returns the pixel bounds of a user-space rectangle.
func (c *Canvas) deviceRect(x, y, w, h float64) image.Rectangle {
	x0, y0 := c.matrix.TransformPoint(x, y)
	x1, y1 := c.matrix.TransformPoint(x+w, y+h)
	x2, y2 := c.matrix.TransformPoint(x+w, y)
	x3, y3 := c.matrix.TransformPoint(x, y+h)
	minX, maxX := min(x0, x1, x2, x3), max(x0, x1, x2, x3)
	minY, maxY := min(y0, y1, y2, y3), max(y0, y1, y2, y3)
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY))).
		Intersect(c.rgba().Bounds())
}

func (c *Canvas) BeginPath()              { c.dc.ClearPath() }
func (c *Canvas) MoveTo(x, y float64)     { c.dc.MoveTo(x, y) }
func (c *Canvas) LineTo(x, y float64)     { c.dc.LineTo(x, y) }
func (c *Canvas) ClosePath()              { c.dc.ClosePath() }
func (c *Canvas) Rect(x, y, w, h float64) { c.dc.DrawRectangle(x, y, w, h) }

func (c *Canvas) Arc(x, y, r, start, end float64, counterclockwise bool) {
	if counterclockwise {
		start, end = end, start
	}
	for end < start {
		end += 2 * math.Pi
	}
	c.dc.DrawArc(x, y, r, start, end)
}

// Fill fills the current path and keeps it.
func (c *Canvas) Fill() {
	c.dc.SetColor(c.fill.RGBA())
	c.dc.FillPreserve()
}

// Stroke strokes the current path and keeps it.
func (c *Canvas) Stroke() {
	c.dc.SetColor(c.stroke.RGBA())
	c.dc.SetLineWidth(c.lineWidth * c.userScale())
	c.dc.StrokePreserve()
}

// FillText draws text with its baseline at (x, y). The face is built at the
// device size so scaled canvases get crisp glyphs.
func (c *Canvas) FillText(s string, x, y float64) error {
	face, err := text.NewFace(c.fontSize*c.userScale(), c.fontStyle)
	if err != nil {
		return fmt.Errorf("canvas: fill text: %w", err)
	}
	dx, dy := c.matrix.TransformPoint(x, y)
	c.dc.Push()
	c.dc.Identity()
	c.dc.SetFontFace(face)
	c.dc.SetColor(c.fill.RGBA())
	c.dc.DrawString(s, dx, dy)
	c.dc.Pop()
	return nil
}

// MeasureText returns the advance width of s in user units.
func (c *Canvas) MeasureText(s string) float64 {
	w, _ := text.MeasureText(s, c.fontSize, c.fontStyle)
	return w
}

// DrawImage copies the source rectangle (sx, sy, sw, sh), in the source's
// pixels, onto the destination rectangle (dx, dy, dw, dh) in user space.
// The destination is mapped through the current transform. A pixel-aligned
// copy with no scaling is exact.
func (c *Canvas) DrawImage(src image.Image, sx, sy, sw, sh, dx, dy, dw, dh float64) {
	if sw == 0 || sh == 0 || dw == 0 || dh == 0 {
		return
	}
	b := src.Bounds()
	sr := image.Rect(
		b.Min.X+int(math.Floor(sx)), b.Min.Y+int(math.Floor(sy)),
		b.Min.X+int(math.Ceil(sx+sw)), b.Min.Y+int(math.Ceil(sy+sh)),
	).Intersect(b)
	if sr.Empty() {
		return
	}

	kx, ky := dw/sw, dh/sh
	ox, oy := dx-(sx+float64(b.Min.X))*kx, dy-(sy+float64(b.Min.Y))*ky
	m := c.matrix
	s2d := f64.Aff3{
		m.XX * kx, m.XY * ky, m.XX*ox + m.XY*oy + m.X0,
		m.YX * kx, m.YY * ky, m.YX*ox + m.YY*oy + m.Y0,
	}

	dst := c.rgba()
	if isUnitTranslation(s2d) {
		off := image.Pt(int(s2d[2]), int(s2d[5]))
		draw.Draw(dst, sr.Add(off), src, sr.Min, draw.Over)
		return
	}
	draw.BiLinear.Transform(dst, s2d, src, sr, draw.Over, nil)
}

func isUnitTranslation(a f64.Aff3) bool {
	return a[0] == 1 && a[1] == 0 && a[3] == 0 && a[4] == 1 &&
		a[2] == math.Trunc(a[2]) && a[5] == math.Trunc(a[5])
}

// Vector is a resolution-independent image, such as a decoded SVG.
type Vector interface {
	// Size is the natural size in CSS pixels.
	Size() (width, height float64)
	// Rasterize renders the whole image into a width x height bitmap.
	Rasterize(width, height int) (image.Image, error)
}

// DrawVector is DrawImage for vector sources. The vector is rendered at
// the device resolution of the destination and then copied, so scaled
// canvases are not upscaled bitmaps.
func (c *Canvas) DrawVector(v Vector, sx, sy, sw, sh, dx, dy, dw, dh float64) error {
	if sw == 0 || sh == 0 || dw == 0 || dh == 0 {
		return nil
	}
	vw, vh := v.Size()
	us := c.userScale()
	kx, ky := dw/sw*us, dh/sh*us
	pw := int(math.Ceil(vw * kx))
	ph := int(math.Ceil(vh * ky))
	if pw <= 0 || ph <= 0 {
		return nil
	}
	bitmap, err := v.Rasterize(pw, ph)
	if err != nil {
		return fmt.Errorf("canvas: rasterize vector: %w", err)
	}
	c.DrawImage(bitmap, sx*kx, sy*ky, sw*kx, sh*ky, dx, dy, dw, dh)
	return nil
}

// FillAll paints the whole surface with col, ignoring the transform.
func (c *Canvas) FillAll(col color.Color) {
	draw.Draw(c.rgba(), c.rgba().Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}
