package layout

import (
	"strconv"

	"domsnap/pkg/css"
	"domsnap/pkg/html"
	"domsnap/pkg/text"
)

// LayoutEngine turns a styled node tree into positioned boxes. It handles
// normal block flow with sibling margin collapsing, inline formatting with
// line breaking, inline-block and replaced elements, and relative, absolute
// and fixed positioning. Floats are laid out as shrink-wrapped blocks in the
// flow; flex, grid and table layouts fall back to block flow.
type LayoutEngine struct {
	viewport struct {
		width  float64
		height float64
	}
	styles     map[*html.Node]*css.Style
	boxes      map[*html.Node][]*Box
	roots      []*Box
	containers []*container
	defaults   *css.Style
}

// container collects the absolutely positioned boxes waiting for their
// containing block to be sized. box is nil for the initial containing block.
type container struct {
	box     *Box
	pending []pendingAbsolute
}

type pendingAbsolute struct {
	node             *html.Node
	style            *css.Style
	parent           *Box
	staticX, staticY float64
}

func NewLayoutEngine(viewportWidth, viewportHeight float64) *LayoutEngine {
	le := &LayoutEngine{}
	le.viewport.width = viewportWidth
	le.viewport.height = viewportHeight
	le.defaults = css.ComputeValues(css.NewStyle(), nil, css.Environment{})
	return le
}

// Layout lays out root and returns the top-level boxes. If root is the
// document node its children are laid out in the initial containing block.
func (le *LayoutEngine) Layout(root *html.Node, styles map[*html.Node]*css.Style) []*Box {
	le.styles = styles
	le.boxes = make(map[*html.Node][]*Box)
	le.roots = nil
	initial := &container{}
	le.containers = []*container{initial}

	nodes := []*html.Node{root}
	if root.TagName == "document" && root.Parent == nil {
		nodes = root.Children
	}
	le.layoutFlow(nil, nodes, 0, 0, le.viewport.width, le.viewport.height)
	le.finishContainer(initial, Rect{Width: le.viewport.width, Height: le.viewport.height})
	return le.roots
}

func (le *LayoutEngine) style(n *html.Node) *css.Style {
	if s, ok := le.styles[n]; ok && s != nil {
		return s
	}
	return le.defaults
}

// textStyle is the style a text node inherits from its element.
func (le *LayoutEngine) textStyle(n *html.Node) *css.Style {
	if n.Parent != nil {
		return le.style(n.Parent)
	}
	return le.defaults
}

func (le *LayoutEngine) newBox(n *html.Node, style *css.Style, kind BoxKind, parent *Box) *Box {
	box := &Box{
		Node:     n,
		Style:    style,
		Kind:     kind,
		Parent:   parent,
		Position: style.GetPosition(),
	}
	if box.Position != css.PositionStatic {
		box.ZIndex = style.GetZIndex()
	}
	if n != nil {
		le.boxes[n] = append(le.boxes[n], box)
	}
	return box
}

func (le *LayoutEngine) attach(parent, child *Box) {
	child.Parent = parent
	if parent == nil {
		le.roots = append(le.roots, child)
		return
	}
	parent.Children = append(parent.Children, child)
}

// layoutFlow lays out nodes as the children of a block container whose
// content box starts at (x, y) and is width wide. cbHeight is the definite
// height of the container or negative. It returns the content height used.
func (le *LayoutEngine) layoutFlow(parent *Box, nodes []*html.Node, x, y, width, cbHeight float64) float64 {
	cursor := y
	prevMargin := 0.0
	var run []*html.Node
	flush := func() {
		if len(run) == 0 {
			return
		}
		if h := le.layoutInline(parent, run, x, cursor, width); h > 0 {
			cursor += h
			prevMargin = 0
		}
		run = nil
	}

	for _, n := range nodes {
		switch n.Type {
		case html.CommentNode:
			continue
		case html.TextNode:
			run = append(run, n)
			continue
		}
		style := le.style(n)
		if style.GetDisplay() == css.DisplayNone {
			continue
		}
		if pos := style.GetPosition(); pos == css.PositionAbsolute || pos == css.PositionFixed {
			le.deferAbsolute(n, style, parent, x, cursor)
			continue
		}
		if style.GetDisplay() != css.DisplayBlock {
			run = append(run, n)
			continue
		}
		flush()

		box := le.newBox(n, style, BlockBox, parent)
		le.resolveEdges(box, width)
		collapse := 0.0
		if prevMargin > 0 && box.Margin.Top > 0 {
			collapse = min(prevMargin, box.Margin.Top)
		}
		le.layoutBlockBox(box, x, cursor-collapse, width, cbHeight, style.Value("float") != "none")
		le.attach(parent, box)
		cursor = box.MarginBox().Bottom()
		prevMargin = box.Margin.Bottom
		le.applyRelative(box, width, cbHeight)
	}
	flush()
	return cursor - y
}

// layoutBlockBox sizes and positions a block-level box whose margin box
// starts at (x, y) in a containing block of width cbWidth. Shrink-wrapped
// boxes (floats) take their content width instead of the full width.
func (le *LayoutEngine) layoutBlockBox(box *Box, x, y, cbWidth, cbHeight float64, shrink bool) {
	le.resolveWidth(box, cbWidth, shrink)
	box.X = x + box.Margin.Left
	if box.Style.Value("float") == "right" {
		box.X = x + cbWidth - box.MarginBox().Width + box.Margin.Left
	}
	box.Y = y + box.Margin.Top
	le.layoutContents(box, cbHeight)
}

// layoutContents lays out the box's children and resolves its height. The
// box's width, edges and position must already be set.
func (le *LayoutEngine) layoutContents(box *Box, cbHeight float64) {
	positioned := box.IsPositioned()
	var c *container
	if positioned {
		c = &container{box: box}
		le.containers = append(le.containers, c)
	}

	edgesV := box.Padding.Vertical() + box.Border.Vertical()
	specH, hasH := le.specifiedSize(box.Style, "height", cbHeight, edgesV)
	h := box.Height
	if !box.Replaced {
		childCB := -1.0
		if hasH {
			childCB = specH
		}
		content := box.ContentBox()
		h = le.layoutFlow(box, box.Node.Children, content.X, content.Y, box.Width, childCB)
	}
	if hasH {
		h = specH
	}
	box.Height = le.clampSize(box.Style, "height", h, cbHeight, edgesV)

	if positioned {
		le.containers = le.containers[:len(le.containers)-1]
		le.finishContainer(c, box.PaddingBox())
	}
}

// resolveEdges fills margin, padding and border from the style.
// Percentages refer to the containing block width; auto margins are 0.
func (le *LayoutEngine) resolveEdges(box *Box, cbWidth float64) {
	s := box.Style
	side := func(prop string) float64 {
		v, _ := lengthOrPercent(s, prop, cbWidth)
		return v
	}
	box.Margin = css.BoxEdge{
		Top: side("margin-top"), Right: side("margin-right"),
		Bottom: side("margin-bottom"), Left: side("margin-left"),
	}
	box.Padding = css.BoxEdge{
		Top: max(side("padding-top"), 0), Right: max(side("padding-right"), 0),
		Bottom: max(side("padding-bottom"), 0), Left: max(side("padding-left"), 0),
	}
	box.Border = s.GetBorderWidth()
	box.Replaced = isReplaced(box.Node)
}

// resolveWidth computes the content width, including auto margin centering
// for blocks with a definite width.
func (le *LayoutEngine) resolveWidth(box *Box, cbWidth float64, shrink bool) {
	s := box.Style
	edges := box.Padding.Horizontal() + box.Border.Horizontal()
	avail := max(cbWidth-box.Margin.Horizontal()-edges, 0)

	w, ok := le.specifiedSize(s, "width", cbWidth, edges)
	switch {
	case box.Replaced:
		rw, rh := le.replacedSize(box.Node, s, cbWidth, edges)
		w, ok = rw, true
		box.Height = rh
	case !ok && shrink:
		w = min(le.maxContentWidth(box.Node), avail)
	case !ok:
		w = avail
	}
	box.Width = le.clampSize(s, "width", w, cbWidth, edges)

	if ok && !shrink {
		autoL, autoR := s.Value("margin-left") == "auto", s.Value("margin-right") == "auto"
		free := cbWidth - box.Width - edges - box.Margin.Horizontal()
		switch {
		case autoL && autoR:
			box.Margin.Left += max(free/2, 0)
			box.Margin.Right += max(free/2, 0)
		case autoL:
			box.Margin.Left += max(free, 0)
		case autoR:
			box.Margin.Right += max(free, 0)
		}
	}
}

// specifiedSize returns the content size from width or height. base is
// the containing block size percentages refer to; a negative base makes
// percentages behave as auto.
func (le *LayoutEngine) specifiedSize(s *css.Style, prop string, base, edges float64) (float64, bool) {
	v, ok := lengthOrPercent(s, prop, base)
	if !ok {
		return 0, false
	}
	if s.IsBorderBox() {
		v -= edges
	}
	return max(v, 0), true
}

func (le *LayoutEngine) clampSize(s *css.Style, prop string, v, base, edges float64) float64 {
	if mx, ok := le.specifiedSize(s, "max-"+prop, base, edges); ok {
		v = min(v, mx)
	}
	if mn, ok := le.specifiedSize(s, "min-"+prop, base, edges); ok {
		v = max(v, mn)
	}
	return max(v, 0)
}

// applyRelative shifts a relatively positioned box by its offsets.
func (le *LayoutEngine) applyRelative(box *Box, cbWidth, cbHeight float64) {
	if box.Position != css.PositionRelative {
		return
	}
	var dx, dy float64
	if left, ok := lengthOrPercent(box.Style, "left", cbWidth); ok {
		dx = left
	} else if right, ok := lengthOrPercent(box.Style, "right", cbWidth); ok {
		dx = -right
	}
	if top, ok := lengthOrPercent(box.Style, "top", cbHeight); ok {
		dy = top
	} else if bottom, ok := lengthOrPercent(box.Style, "bottom", cbHeight); ok {
		dy = -bottom
	}
	box.translate(dx, dy)
}

func (le *LayoutEngine) deferAbsolute(n *html.Node, style *css.Style, parent *Box, staticX, staticY float64) {
	c := le.containers[len(le.containers)-1]
	if style.GetPosition() == css.PositionFixed {
		c = le.containers[0]
	}
	c.pending = append(c.pending, pendingAbsolute{node: n, style: style, parent: parent, staticX: staticX, staticY: staticY})
}

// finishContainer lays out the absolutely positioned boxes whose containing
// block is cb. Laying one out may queue more on the same container.
func (le *LayoutEngine) finishContainer(c *container, cb Rect) {
	for i := 0; i < len(c.pending); i++ {
		le.layoutAbsolute(c.pending[i], cb)
	}
	c.pending = nil
}

func (le *LayoutEngine) layoutAbsolute(p pendingAbsolute, cb Rect) {
	s := p.style
	box := le.newBox(p.node, s, BlockBox, p.parent)
	le.resolveEdges(box, cb.Width)

	left, hasL := lengthOrPercent(s, "left", cb.Width)
	right, hasR := lengthOrPercent(s, "right", cb.Width)
	top, hasT := lengthOrPercent(s, "top", cb.Height)
	bottom, hasB := lengthOrPercent(s, "bottom", cb.Height)

	edgesH := box.Padding.Horizontal() + box.Border.Horizontal()
	edgesV := box.Padding.Vertical() + box.Border.Vertical()
	w, ok := le.specifiedSize(s, "width", cb.Width, edgesH)
	switch {
	case box.Replaced:
		rw, rh := le.replacedSize(p.node, s, cb.Width, edgesH)
		w, box.Height = rw, rh
	case !ok && hasL && hasR:
		w = cb.Width - left - right - box.Margin.Horizontal() - edgesH
	case !ok:
		avail := cb.Width - box.Margin.Horizontal() - edgesH
		if hasL {
			avail -= left
		}
		w = min(le.maxContentWidth(p.node), max(avail, 0))
	}
	box.Width = le.clampSize(s, "width", w, cb.Width, edgesH)

	switch {
	case hasL:
		box.X = cb.X + left + box.Margin.Left
	case hasR:
		box.X = cb.Right() - right - box.Margin.Right - box.BorderBox().Width
	default:
		box.X = p.staticX + box.Margin.Left
	}
	box.Y = p.staticY + box.Margin.Top
	if hasT {
		box.Y = cb.Y + top + box.Margin.Top
	}

	_, hasH := le.specifiedSize(s, "height", cb.Height, edgesV)
	le.layoutContents(box, cb.Height)
	if !hasH && !box.Replaced && hasT && hasB {
		box.Height = le.clampSize(s, "height", cb.Height-top-bottom-box.Margin.Vertical()-edgesV, cb.Height, edgesV)
	}
	if hasB && !hasT {
		box.translate(0, cb.Bottom()-bottom-box.Margin.Bottom-box.BorderBox().Bottom())
	}
	le.attach(p.parent, box)
}

// maxContentWidth is the content width n takes when nothing wraps.
func (le *LayoutEngine) maxContentWidth(n *html.Node) float64 {
	best, run := 0.0, 0.0
	for _, c := range n.Children {
		switch c.Type {
		case html.CommentNode:
			continue
		case html.TextNode:
			s := le.textStyle(c)
			run += measureCollapsed(c.Text, s)
			continue
		}
		s := le.style(c)
		if s.GetDisplay() == css.DisplayNone {
			continue
		}
		if pos := s.GetPosition(); pos == css.PositionAbsolute || pos == css.PositionFixed {
			continue
		}
		switch {
		case c.TagName == "br":
			best, run = max(best, run), 0
		case s.GetDisplay() == css.DisplayBlock:
			best, run = max(best, run, le.outerMaxContent(c, s)), 0
		default:
			run += le.outerMaxContent(c, s)
		}
	}
	return max(best, run)
}

func (le *LayoutEngine) outerMaxContent(n *html.Node, s *css.Style) float64 {
	probe := &Box{Node: n, Style: s}
	le.resolveEdges(probe, -1)
	edges := probe.Padding.Horizontal() + probe.Border.Horizontal()
	w, ok := le.specifiedSize(s, "width", -1, edges)
	if !ok {
		if isReplaced(n) {
			w, _ = le.replacedSize(n, s, -1, edges)
		} else {
			w = le.maxContentWidth(n)
		}
	}
	return w + edges + probe.Margin.Horizontal()
}

func isReplaced(n *html.Node) bool {
	return n != nil && html.Classify(n).IsMedia()
}

// replacedSize sizes an img or canvas: width and height attributes act as
// presentational hints over the natural size, CSS sizes override both, and
// a single given dimension keeps the aspect ratio.
func (le *LayoutEngine) replacedSize(n *html.Node, s *css.Style, cbWidth, edges float64) (float64, float64) {
	var nw, nh float64
	switch html.Classify(n) {
	case html.KindRasterImage:
		if n.Image != nil {
			w, h := n.Image.NaturalSize()
			nw, nh = float64(w), float64(h)
		}
	case html.KindBitmapCanvas:
		nw, nh = 300, 150
		if n.Canvas != nil && n.Canvas.Bitmap() != nil {
			b := n.Canvas.Bitmap().Bounds()
			nw, nh = float64(b.Dx()), float64(b.Dy())
		}
	}
	aw, hasAW := attrLength(n, "width")
	ah, hasAH := attrLength(n, "height")
	w, h := fitAspect(nw, nh, aw, hasAW, ah, hasAH)

	cw, hasCW := le.specifiedSize(s, "width", cbWidth, edges)
	ch, hasCH := le.specifiedSize(s, "height", -1, s.GetPadding().Vertical()+s.GetBorderWidth().Vertical())
	return fitAspect(w, h, cw, hasCW, ch, hasCH)
}

func fitAspect(w, h, sw float64, hasW bool, sh float64, hasH bool) (float64, float64) {
	switch {
	case hasW && hasH:
		return sw, sh
	case hasW:
		if w > 0 {
			return sw, sw * h / w
		}
		return sw, h
	case hasH:
		if h > 0 {
			return sh * w / h, sh
		}
		return w, sh
	}
	return w, h
}

func attrLength(n *html.Node, name string) (float64, bool) {
	v, ok := n.GetAttribute(name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		if l, ok := css.ParseLength(v); ok {
			return l, true
		}
		return 0, false
	}
	return f, true
}

// lengthOrPercent reads a px length or a percentage of base. It fails for
// auto, none, and for percentages when base is negative.
func lengthOrPercent(s *css.Style, prop string, base float64) (float64, bool) {
	v := s.Value(prop)
	if p, ok := css.ParsePercent(v); ok {
		if base < 0 {
			return 0, false
		}
		return p * base, true
	}
	return css.ParseLength(v)
}

// FontStyle maps a computed style to one of the embedded faces.
func FontStyle(s *css.Style) text.FontStyle {
	return text.FontStyle{Bold: s.IsBold(), Italic: s.IsItalic(), Mono: s.IsMonospace()}
}
