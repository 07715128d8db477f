package layout

import "domsnap/pkg/html"

// Roots returns the top-level boxes of the last layout.
func (le *LayoutEngine) Roots() []*Box {
	return le.roots
}

// BoxesFor returns the boxes generated for n. An inline element split over
// several lines has one box per line; elements that generate no box return
// nil.
func (le *LayoutEngine) BoxesFor(n *html.Node) []*Box {
	return le.boxes[n]
}

// BoundingClientRect returns n's border box. An inline element split over
// several lines reports the union of its fragments. A node that generates
// no box of its own reports the union of its descendants' boxes, or an
// empty rect.
func (le *LayoutEngine) BoundingClientRect(n *html.Node) Rect {
	var r Rect
	if own := le.boxes[n]; len(own) > 0 {
		for _, b := range own {
			r = r.Union(b.BorderBox())
		}
		return r
	}
	stack := append([]*html.Node(nil), n.Children...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if own := le.boxes[cur]; len(own) > 0 {
			for _, b := range own {
				r = r.Union(b.BorderBox())
			}
			continue
		}
		stack = append(stack, cur.Children...)
	}
	return r
}

// DocumentSize returns the extent of all laid-out content, at least the
// viewport size.
func (le *LayoutEngine) DocumentSize() (width, height float64) {
	width, height = le.viewport.width, le.viewport.height
	stack := append([]*Box(nil), le.roots...)
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		mb := b.MarginBox()
		width, height = max(width, mb.Right()), max(height, mb.Bottom())
		stack = append(stack, b.Children...)
	}
	return width, height
}

// Walk visits boxes depth first in paint order of the tree, parents before
// children. Returning false skips the box's children.
func Walk(roots []*Box, fn func(*Box) bool) {
	stack := make([]*Box, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(b) {
			continue
		}
		for i := len(b.Children) - 1; i >= 0; i-- {
			stack = append(stack, b.Children[i])
		}
	}
}

// Translate moves boxes and their subtrees by (dx, dy).
func Translate(boxes []*Box, dx, dy float64) {
	for _, b := range boxes {
		b.translate(dx, dy)
	}
}
