package snapshot

import (
	"context"
	"fmt"
	"log/slog"

	"domsnap/pkg/html"
)

// frame is one open element of the clone walk: the live node, its clone,
// and the index of the next live child to visit.
type frame struct {
	live  *html.Node
	clone *html.Node
	next  int
}

// cloner deep-clones a live subtree. The walk is iterative, in document
// order, and resolves at most one media node at a time.
type cloner struct {
	host       Host
	media      *mediaResolver
	background string
	log        *slog.Logger

	// cursor is the live node currently being cloned.
	cursor *html.Node
	steps  int
}

func (c *cloner) clone(ctx context.Context, root *html.Node) (*html.Node, error) {
	out, err := c.shallow(ctx, root, 0, c.background)
	if err != nil {
		return nil, err
	}
	if html.Classify(root).IsMedia() {
		return out, nil
	}

	stack := []frame{{live: root, clone: out}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.live.Children) {
			stack = stack[:len(stack)-1]
			continue
		}
		child := top.live.Children[top.next]
		top.next++

		cc, err := c.shallow(ctx, child, len(stack), "")
		if err != nil {
			return nil, err
		}
		top.clone.AddChild(cc)
		if !html.Classify(child).IsMedia() && len(child.Children) > 0 {
			stack = append(stack, frame{live: child, clone: cc})
		}
	}
	c.cursor = nil
	return out, nil
}

// shallow clones one node without its children.
func (c *cloner) shallow(ctx context.Context, live *html.Node, depth int, background string) (*html.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: clone interrupted: %w", err)
	}
	c.cursor = live
	c.steps++
	kind := html.Classify(live)
	c.log.Debug("snapshot: clone step", "step", c.steps, "depth", depth, "kind", kind, "tag", live.TagName)

	switch kind {
	case html.KindText, html.KindOther:
		return live.CloneNode(false), nil
	case html.KindRasterImage, html.KindBitmapCanvas:
		out, err := c.media.resolve(ctx, live)
		if err != nil {
			return nil, fmt.Errorf("snapshot: resolving <%s>: %w", live.TagName, err)
		}
		flattenStyle(c.host, live, out, background)
		return out, nil
	}
	out := live.CloneNode(false)
	flattenStyle(c.host, live, out, background)
	return out, nil
}
