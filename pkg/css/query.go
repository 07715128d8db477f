package css

import "domsnap/pkg/html"

// QuerySelectorAll returns the elements below root matching any selector in
// the group, in document order. root itself is never part of the result.
func QuerySelectorAll(root *html.Node, selector string) ([]*html.Node, error) {
	group, err := ParseSelectorGroup(selector)
	if err != nil {
		return nil, err
	}
	matches := []*html.Node{}
	root.Walk(func(n *html.Node) bool {
		if n == root || n.Type != html.ElementNode {
			return true
		}
		for _, sel := range group {
			if MatchesSelector(n, sel) {
				matches = append(matches, n)
				break
			}
		}
		return true
	})
	return matches, nil
}

// QuerySelector returns the first match below root, or nil.
func QuerySelector(root *html.Node, selector string) (*html.Node, error) {
	matches, err := QuerySelectorAll(root, selector)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return matches[0], nil
}
