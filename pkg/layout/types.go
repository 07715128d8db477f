package layout

import (
	"domsnap/pkg/css"
	"domsnap/pkg/html"
)

type BoxKind int

const (
	BlockBox       BoxKind = iota // block-level box, in flow or positioned
	InlineBlockBox                // atomic inline: inline-block, img, canvas
	InlineBox                     // one line fragment of an inline element
	TextBox                       // one run of text on one line
)

func (k BoxKind) String() string {
	switch k {
	case BlockBox:
		return "block"
	case InlineBlockBox:
		return "inline-block"
	case InlineBox:
		return "inline"
	case TextBox:
		return "text"
	}
	return "unknown"
}

// Box is a laid-out box. X and Y are the top-left corner of the border box
// in page coordinates; Width and Height are the content size.
type Box struct {
	Node     *html.Node
	Style    *css.Style
	Kind     BoxKind
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Margin   css.BoxEdge
	Padding  css.BoxEdge
	Border   css.BoxEdge
	Children []*Box
	Parent   *Box
	Position css.PositionType
	ZIndex   int

	// Text and Baseline are set on text boxes.
	Text     string
	Baseline float64
	// Replaced is set on img and canvas boxes, whose pixels fill the
	// content box.
	Replaced bool
}

type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }
func (r Rect) Empty() bool     { return r.Width <= 0 || r.Height <= 0 }

// Union returns the smallest rect containing r and o. An empty-sized rect
// with no origin contributes nothing.
func (r Rect) Union(o Rect) Rect {
	if r == (Rect{}) {
		return o
	}
	if o == (Rect{}) {
		return r
	}
	x, y := min(r.X, o.X), min(r.Y, o.Y)
	return Rect{X: x, Y: y, Width: max(r.Right(), o.Right()) - x, Height: max(r.Bottom(), o.Bottom()) - y}
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

func (b *Box) BorderBox() Rect {
	return Rect{
		X:      b.X,
		Y:      b.Y,
		Width:  b.Width + b.Padding.Horizontal() + b.Border.Horizontal(),
		Height: b.Height + b.Padding.Vertical() + b.Border.Vertical(),
	}
}

func (b *Box) PaddingBox() Rect {
	return Rect{
		X:      b.X + b.Border.Left,
		Y:      b.Y + b.Border.Top,
		Width:  b.Width + b.Padding.Horizontal(),
		Height: b.Height + b.Padding.Vertical(),
	}
}

func (b *Box) ContentBox() Rect {
	return Rect{
		X:      b.X + b.Border.Left + b.Padding.Left,
		Y:      b.Y + b.Border.Top + b.Padding.Top,
		Width:  b.Width,
		Height: b.Height,
	}
}

func (b *Box) MarginBox() Rect {
	bb := b.BorderBox()
	return Rect{
		X:      bb.X - b.Margin.Left,
		Y:      bb.Y - b.Margin.Top,
		Width:  bb.Width + b.Margin.Horizontal(),
		Height: bb.Height + b.Margin.Vertical(),
	}
}

// translate moves the box and its subtree.
func (b *Box) translate(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	stack := []*Box{b}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cur.X += dx
		cur.Y += dy
		if cur.Kind == TextBox {
			cur.Baseline += dy
		}
		stack = append(stack, cur.Children...)
	}
}

// IsPositioned reports whether the box establishes a containing block for
// absolutely positioned descendants.
func (b *Box) IsPositioned() bool {
	return b.Position != css.PositionStatic
}
