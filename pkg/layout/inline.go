package layout

import (
	"strings"
	"unicode/utf8"

	"domsnap/pkg/css"
	"domsnap/pkg/html"
	"domsnap/pkg/text"
)

type itemKind int

const (
	itemText itemKind = iota
	itemAtomic
	itemOpen  // start of an inline element
	itemClose // end of an inline element
	itemBreak // <br> or a preserved newline
)

type inlineItem struct {
	kind  itemKind
	node  *html.Node
	style *css.Style
	text  string
	space bool    // a collapsible space precedes the item
	width float64 // advance, excluding the leading space
	lead  float64 // leading space width once placed on a line
	box   *Box    // atomic items
	edge  css.BoxEdge
}

func (it *inlineItem) isContent() bool {
	return it.kind == itemText || it.kind == itemAtomic
}

type inlineCollector struct {
	le           *LayoutEngine
	parent       *Box
	x, y         float64
	width        float64
	items        []inlineItem
	pendingSpace bool
}

// layoutInline lays out a run of inline-level nodes into line boxes starting
// at (x, y) and returns the height of the lines.
func (le *LayoutEngine) layoutInline(parent *Box, nodes []*html.Node, x, y, width float64) float64 {
	c := &inlineCollector{le: le, parent: parent, x: x, y: y, width: width}
	for _, n := range nodes {
		c.collect(n)
	}
	blockStyle := le.defaults
	if parent != nil {
		blockStyle = parent.Style
	}
	lines := breakLines(c.items, width)
	cursor := y
	var open []*openFragment
	for _, line := range lines {
		cursor += le.placeLine(parent, blockStyle, line, x, cursor, width, &open)
	}
	return cursor - y
}

func (c *inlineCollector) collect(n *html.Node) {
	le := c.le
	switch n.Type {
	case html.CommentNode:
		return
	case html.TextNode:
		c.collectText(n)
		return
	}

	s := le.style(n)
	if s.GetDisplay() == css.DisplayNone {
		return
	}
	if pos := s.GetPosition(); pos == css.PositionAbsolute || pos == css.PositionFixed {
		le.deferAbsolute(n, s, c.parent, c.x, c.y)
		return
	}
	if n.TagName == "br" {
		c.items = append(c.items, inlineItem{kind: itemBreak, node: n, style: s})
		c.pendingSpace = false
		return
	}
	if isReplaced(n) || s.GetDisplay() != css.DisplayInline {
		box := le.layoutAtomic(n, s, c.parent, c.width)
		c.items = append(c.items, inlineItem{
			kind: itemAtomic, node: n, style: s, box: box,
			space: c.pendingSpace, width: box.MarginBox().Width,
		})
		c.pendingSpace = false
		return
	}

	probe := &Box{Node: n, Style: s}
	le.resolveEdges(probe, c.width)
	edge := css.BoxEdge{
		Top:    probe.Padding.Top + probe.Border.Top,
		Bottom: probe.Padding.Bottom + probe.Border.Bottom,
		Left:   probe.Margin.Left + probe.Border.Left + probe.Padding.Left,
		Right:  probe.Margin.Right + probe.Border.Right + probe.Padding.Right,
	}
	c.items = append(c.items, inlineItem{kind: itemOpen, node: n, style: s, width: edge.Left, edge: edge})
	for _, child := range n.Children {
		c.collect(child)
	}
	c.items = append(c.items, inlineItem{kind: itemClose, node: n, style: s, width: edge.Right, edge: edge})
}

func (c *inlineCollector) collectText(n *html.Node) {
	s := c.le.textStyle(n)
	content := s.TransformText(n.Text)
	add := func(word string, space bool) {
		c.items = append(c.items, inlineItem{
			kind: itemText, node: n, style: s, text: word, space: space,
			width: measure(word, s),
		})
	}

	switch s.GetWhiteSpace() {
	case css.WhiteSpacePre:
		for i, line := range strings.Split(content, "\n") {
			if i > 0 {
				c.items = append(c.items, inlineItem{kind: itemBreak, node: n, style: s})
			}
			if line = strings.ReplaceAll(line, "\t", "    "); line != "" {
				add(line, false)
			}
		}
		c.pendingSpace = false
		return
	case css.WhiteSpaceNoWrap:
		if words := strings.Fields(content); len(words) > 0 {
			add(strings.Join(words, " "), c.pendingSpace || startsWithSpace(content))
			c.pendingSpace = endsWithSpace(content)
		} else if content != "" {
			c.pendingSpace = true
		}
		return
	}

	words := strings.Fields(content)
	if len(words) == 0 {
		if content != "" {
			c.pendingSpace = true
		}
		return
	}
	space := c.pendingSpace || startsWithSpace(content)
	for _, w := range words {
		add(w, space)
		space = true
	}
	c.pendingSpace = endsWithSpace(content)
}

// layoutAtomic lays out an inline-block or replaced element at the origin;
// placeLine moves it onto its line.
func (le *LayoutEngine) layoutAtomic(n *html.Node, s *css.Style, parent *Box, cbWidth float64) *Box {
	box := le.newBox(n, s, InlineBlockBox, parent)
	le.resolveEdges(box, cbWidth)
	edges := box.Padding.Horizontal() + box.Border.Horizontal()
	w, ok := le.specifiedSize(s, "width", cbWidth, edges)
	switch {
	case box.Replaced:
		w, box.Height = le.replacedSize(n, s, cbWidth, edges)
	case !ok:
		w = min(le.maxContentWidth(n), max(cbWidth-box.Margin.Horizontal()-edges, 0))
	}
	box.Width = le.clampSize(s, "width", w, cbWidth, edges)
	box.X = box.Margin.Left
	box.Y = box.Margin.Top
	le.layoutContents(box, -1)
	return box
}

type lineItems []inlineItem

func (l lineItems) hasContent() bool {
	for i := range l {
		if l[i].isContent() {
			return true
		}
	}
	return false
}

// breakLines distributes items over lines no wider than width. A line
// always takes at least one content item, so a word wider than the line
// overflows instead of looping.
func breakLines(items []inlineItem, width float64) []lineItems {
	var lines []lineItems
	var cur lineItems
	used := 0.0
	for _, it := range items {
		if it.kind == itemBreak {
			lines = append(lines, cur)
			cur, used = nil, 0
			continue
		}
		lead := 0.0
		if it.space && cur.hasContent() {
			lead = spaceWidth(it.style)
		}
		if it.isContent() && cur.hasContent() && used+lead+it.width > width && canWrap(it.style) {
			lines = append(lines, cur)
			cur, used, lead = nil, 0, 0
		}
		it.lead = lead
		cur = append(cur, it)
		used += lead + it.width
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

func canWrap(s *css.Style) bool {
	ws := s.GetWhiteSpace()
	return ws != css.WhiteSpaceNoWrap && ws != css.WhiteSpacePre
}

// openFragment is an inline element still open while a line is placed.
type openFragment struct {
	node   *html.Node
	style  *css.Style
	edge   css.BoxEdge
	startX float64
	first  bool
}

// placeLine positions one line's items and returns the line height. Inline
// element backgrounds are added before the content so they paint beneath it.
func (le *LayoutEngine) placeLine(parent *Box, blockStyle *css.Style, line lineItems, x, y, width float64, open *[]*openFragment) float64 {
	if !line.hasContent() {
		// Keep the open element stack in step even when nothing is drawn.
		for _, it := range line {
			switch it.kind {
			case itemOpen:
				*open = append(*open, &openFragment{node: it.node, style: it.style, edge: it.edge, first: true})
			case itemClose:
				if len(*open) > 0 {
					*open = (*open)[:len(*open)-1]
				}
			}
		}
		if len(line) == 0 {
			// An empty line from consecutive breaks still takes a line.
			a, d := halfLeading(blockStyle)
			return a + d
		}
		return 0
	}

	ascent, descent := halfLeading(blockStyle)
	lineWidth := 0.0
	for _, it := range line {
		lineWidth += it.lead + it.width
		var a, d float64
		switch it.kind {
		case itemAtomic:
			a = it.box.MarginBox().Height
		default:
			a, d = halfLeading(it.style)
		}
		ascent, descent = max(ascent, a), max(descent, d)
	}
	baseline := y + ascent

	cx := x
	if free := width - lineWidth; free > 0 {
		switch blockStyle.GetTextAlign() {
		case css.TextAlignCenter:
			cx += free / 2
		case css.TextAlignRight:
			cx += free
		}
	}
	for _, f := range *open {
		f.startX = cx
	}

	var inlineBoxes, content []*Box
	var lastText *Box
	for _, it := range line {
		cx += it.lead
		switch it.kind {
		case itemText:
			if lastText != nil && lastText.Node == it.node && lastText.Style == it.style {
				if it.lead > 0 {
					lastText.Text += " "
				}
				lastText.Text += it.text
				lastText.Width = cx + it.width - lastText.X
			} else {
				fa, fd := text.Metrics(it.style.GetFontSize(), FontStyle(it.style))
				lastText = le.newBox(it.node, it.style, TextBox, parent)
				lastText.X, lastText.Y = cx, baseline-fa
				lastText.Width, lastText.Height = it.width, fa+fd
				lastText.Text, lastText.Baseline = it.text, baseline
				content = append(content, lastText)
			}
			cx += it.width
			continue
		case itemAtomic:
			mb := it.box.MarginBox()
			it.box.translate(cx-mb.X, baseline-mb.Height-mb.Y)
			it.box.Parent = parent
			content = append(content, it.box)
			le.applyRelative(it.box, width, -1)
			cx += it.width
		case itemOpen:
			*open = append(*open, &openFragment{node: it.node, style: it.style, edge: it.edge, startX: cx, first: true})
			cx += it.width
		case itemClose:
			cx += it.width
			if n := len(*open); n > 0 {
				f := (*open)[n-1]
				*open = (*open)[:n-1]
				inlineBoxes = append(inlineBoxes, le.inlineFragment(parent, f, cx, baseline, true))
			}
		}
		lastText = nil
	}
	for _, f := range *open {
		inlineBoxes = append(inlineBoxes, le.inlineFragment(parent, f, cx, baseline, false))
		f.first = false
	}

	// Inner elements close first; outer backgrounds go underneath.
	for i := len(inlineBoxes) - 1; i >= 0; i-- {
		le.attach(parent, inlineBoxes[i])
	}
	for _, b := range content {
		le.attach(parent, b)
	}
	return ascent + descent
}

// inlineFragment builds the box for the part of an inline element that
// lies on one line, from f.startX to endX.
func (le *LayoutEngine) inlineFragment(parent *Box, f *openFragment, endX, baseline float64, last bool) *Box {
	box := le.newBox(f.node, f.style, InlineBox, parent)
	probe := &Box{Node: f.node, Style: f.style}
	le.resolveEdges(probe, -1)

	fa, fd := text.Metrics(f.style.GetFontSize(), FontStyle(f.style))
	box.Border.Top, box.Border.Bottom = probe.Border.Top, probe.Border.Bottom
	box.Padding.Top, box.Padding.Bottom = probe.Padding.Top, probe.Padding.Bottom
	left, right := f.startX, endX
	if f.first {
		left += probe.Margin.Left
		box.Margin.Left = probe.Margin.Left
		box.Border.Left, box.Padding.Left = probe.Border.Left, probe.Padding.Left
	}
	if last {
		right -= probe.Margin.Right
		box.Margin.Right = probe.Margin.Right
		box.Border.Right, box.Padding.Right = probe.Border.Right, probe.Padding.Right
	}
	box.X = left
	box.Y = baseline - fa - box.Padding.Top - box.Border.Top
	box.Width = max(right-left-box.Padding.Horizontal()-box.Border.Horizontal(), 0)
	box.Height = fa + fd
	return box
}

// halfLeading splits the line height of s around the baseline.
func halfLeading(s *css.Style) (ascent, descent float64) {
	fa, fd := text.Metrics(s.GetFontSize(), FontStyle(s))
	lh := s.GetLineHeight()
	ascent = fa + (lh-(fa+fd))/2
	return ascent, lh - ascent
}

func measure(word string, s *css.Style) float64 {
	w, _ := text.MeasureText(word, s.GetFontSize(), FontStyle(s))
	if ls, ok := css.ParseLength(s.Value("letter-spacing")); ok {
		w += ls * float64(utf8.RuneCountInString(word))
	}
	return w
}

func spaceWidth(s *css.Style) float64 {
	return measure(" ", s)
}

func measureCollapsed(content string, s *css.Style) float64 {
	words := strings.Fields(s.TransformText(content))
	if len(words) == 0 {
		return 0
	}
	return measure(strings.Join(words, " "), s)
}

func startsWithSpace(s string) bool {
	return s != "" && strings.ContainsRune(" \t\n\r\f", rune(s[0]))
}

func endsWithSpace(s string) bool {
	return s != "" && strings.ContainsRune(" \t\n\r\f", rune(s[len(s)-1]))
}
