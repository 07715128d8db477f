package snapshot

import "domsnap/pkg/html"

// flattenStyle writes the live node's computed style on clone as an inline
// style attribute. background, when set, replaces the background colour.
func flattenStyle(host Host, live, clone *html.Node, background string) {
	if clone.Type != html.ElementNode {
		return
	}
	style := host.ComputedStyle(live)
	if style == nil {
		return
	}
	if background != "" {
		style = style.Clone()
		style.Set("background-color", background)
	}
	if clone.Attributes == nil {
		clone.Attributes = make(map[string]string)
	}
	clone.Attributes["style"] = style.CSSText()
}
