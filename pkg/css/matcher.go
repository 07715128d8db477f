package css

import (
	"strconv"
	"strings"

	"domsnap/pkg/html"
)

// MatchesSelector reports whether node matches the complex selector.
// Pseudo-element selectors never match an element.
func MatchesSelector(node *html.Node, selector Selector) bool {
	if node.Type != html.ElementNode || isDocument(node) {
		return false
	}
	if len(selector.Parts) == 0 || selector.PseudoElement != "" {
		return false
	}
	// Start from the rightmost part, the subject of the selector.
	return matchesCompoundSelector(node, selector, len(selector.Parts)-1)
}

func matchesCompoundSelector(node *html.Node, selector Selector, partIndex int) bool {
	if !matchesSelectorPart(node, selector.Parts[partIndex]) {
		return false
	}
	if partIndex == 0 {
		return true
	}

	prev := partIndex - 1
	switch selector.Combinators[prev] {
	case DescendantCombinator:
		for ancestor := node.Parent; ancestor != nil && !isDocument(ancestor); ancestor = ancestor.Parent {
			if matchesCompoundSelector(ancestor, selector, prev) {
				return true
			}
		}
	case ChildCombinator:
		if node.Parent != nil && !isDocument(node.Parent) {
			return matchesCompoundSelector(node.Parent, selector, prev)
		}
	case AdjacentSiblingCombinator:
		if sibling := previousElementSibling(node); sibling != nil {
			return matchesCompoundSelector(sibling, selector, prev)
		}
	case GeneralSiblingCombinator:
		for sibling := previousElementSibling(node); sibling != nil; sibling = previousElementSibling(sibling) {
			if matchesCompoundSelector(sibling, selector, prev) {
				return true
			}
		}
	}
	return false
}

func matchesSelectorPart(node *html.Node, part SelectorPart) bool {
	if part.Element != "" && part.Element != "*" && node.TagName != part.Element {
		return false
	}
	if part.ID != "" {
		if id, ok := node.GetAttribute("id"); !ok || id != part.ID {
			return false
		}
	}
	for _, class := range part.Classes {
		if !node.HasClass(class) {
			return false
		}
	}
	for _, attrSel := range part.Attributes {
		if !matchesAttributeSelector(node, attrSel) {
			return false
		}
	}
	for _, pc := range part.PseudoClasses {
		if !matchesPseudoClass(node, pc) {
			return false
		}
	}
	return true
}

func matchesAttributeSelector(node *html.Node, attr AttributeSelector) bool {
	value, ok := node.GetAttribute(attr.Name)
	if !ok {
		return false
	}
	switch attr.Operator {
	case "":
		return true
	case "=":
		return value == attr.Value
	case "^=":
		return attr.Value != "" && strings.HasPrefix(value, attr.Value)
	case "$=":
		return attr.Value != "" && strings.HasSuffix(value, attr.Value)
	case "*=":
		return attr.Value != "" && strings.Contains(value, attr.Value)
	case "~=":
		for _, word := range strings.Fields(value) {
			if word == attr.Value {
				return true
			}
		}
		return false
	case "|=":
		return value == attr.Value || strings.HasPrefix(value, attr.Value+"-")
	}
	return false
}

// matchesPseudoClass handles the structural pseudo-classes. Dynamic ones
// (hover, focus and the like) never match in a static snapshot.
func matchesPseudoClass(node *html.Node, pc PseudoClass) bool {
	switch pc.Name {
	case "root":
		return node.Parent != nil && isDocument(node.Parent)
	case "first-child":
		return previousElementSibling(node) == nil
	case "last-child":
		return nextElementSibling(node) == nil
	case "only-child":
		return previousElementSibling(node) == nil && nextElementSibling(node) == nil
	case "empty":
		for _, c := range node.Children {
			if c.Type == html.ElementNode || c.Type == html.TextNode && c.Text != "" {
				return false
			}
		}
		return true
	case "nth-child":
		a, b, ok := parseNth(pc.Arg)
		return ok && nthMatches(a, b, elementIndex(node)+1)
	case "not":
		sel, err := ParseSelector(pc.Arg)
		return err == nil && !MatchesSelector(node, sel)
	}
	return false
}

// parseNth parses an+b, odd and even.
func parseNth(arg string) (a, b int, ok bool) {
	arg = strings.ReplaceAll(strings.ToLower(arg), " ", "")
	switch arg {
	case "odd":
		return 2, 1, true
	case "even":
		return 2, 0, true
	}
	n := strings.IndexByte(arg, 'n')
	if n < 0 {
		b, err := strconv.Atoi(arg)
		return 0, b, err == nil
	}
	switch coef := arg[:n]; coef {
	case "", "+":
		a = 1
	case "-":
		a = -1
	default:
		v, err := strconv.Atoi(coef)
		if err != nil {
			return 0, 0, false
		}
		a = v
	}
	if rest := arg[n+1:]; rest != "" {
		v, err := strconv.Atoi(rest)
		if err != nil {
			return 0, 0, false
		}
		b = v
	}
	return a, b, true
}

func nthMatches(a, b, index int) bool {
	if a == 0 {
		return index == b
	}
	k := index - b
	return k%a == 0 && k/a >= 0
}

func elementIndex(node *html.Node) int {
	i := 0
	for s := previousElementSibling(node); s != nil; s = previousElementSibling(s) {
		i++
	}
	return i
}

func previousElementSibling(node *html.Node) *html.Node {
	if node.Parent == nil {
		return nil
	}
	var prev *html.Node
	for _, sibling := range node.Parent.Children {
		if sibling == node {
			return prev
		}
		if sibling.Type == html.ElementNode {
			prev = sibling
		}
	}
	return nil
}

func nextElementSibling(node *html.Node) *html.Node {
	if node.Parent == nil {
		return nil
	}
	seen := false
	for _, sibling := range node.Parent.Children {
		if sibling == node {
			seen = true
			continue
		}
		if seen && sibling.Type == html.ElementNode {
			return sibling
		}
	}
	return nil
}

func isDocument(n *html.Node) bool {
	return n.Type == html.ElementNode && n.TagName == "document" && n.Parent == nil
}
