package html

import (
	"sort"
	"strings"
)

// XHTMLNamespace is the namespace tagged on content embedded in SVG.
const XHTMLNamespace = "http://www.w3.org/1999/xhtml"

// Serialize returns the innerHTML of this node.
func (n *Node) Serialize() string {
	var sb strings.Builder
	for _, child := range n.Children {
		serializeNode(&sb, child, false)
	}
	return sb.String()
}

// SerializeOuter returns the outerHTML of this node.
func (n *Node) SerializeOuter() string {
	var sb strings.Builder
	serializeNode(&sb, n, false)
	return sb.String()
}

// SerializeXHTML returns the node as well-formed XML: void elements are
// self-closed and every attribute value is quoted and escaped, so the result
// can be embedded in an SVG foreignObject.
func SerializeXHTML(n *Node) string {
	var sb strings.Builder
	serializeNode(&sb, n, true)
	return sb.String()
}

func serializeNode(sb *strings.Builder, n *Node, xml bool) {
	switch n.Type {
	case TextNode:
		sb.WriteString(escapeText(n.Text))
		return
	case CommentNode:
		sb.WriteString("<!--")
		sb.WriteString(escapeComment(n.Text, xml))
		sb.WriteString("-->")
		return
	}
	if n.TagName == "document" {
		for _, child := range n.Children {
			serializeNode(sb, child, xml)
		}
		return
	}

	sb.WriteByte('<')
	sb.WriteString(n.TagName)

	// Sorted for deterministic output.
	if len(n.Attributes) > 0 {
		keys := make([]string, 0, len(n.Attributes))
		for k := range n.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteByte(' ')
			sb.WriteString(k)
			sb.WriteString(`="`)
			sb.WriteString(escapeAttr(n.Attributes[k]))
			sb.WriteByte('"')
		}
	}

	if isVoidElement(n.TagName) {
		if xml {
			sb.WriteString(" />")
		} else {
			sb.WriteByte('>')
		}
		return
	}

	sb.WriteByte('>')
	for _, child := range n.Children {
		serializeNode(sb, child, xml)
	}
	sb.WriteString("</")
	sb.WriteString(n.TagName)
	sb.WriteByte('>')
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;", "<", "&lt;", ">", "&gt;")
)

// escapeComment breaks up "--", which neither HTML nor XML allows inside a
// comment. XML also rejects a comment whose text ends in "-".
func escapeComment(s string, xml bool) string {
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "- -")
	}
	if xml && strings.HasSuffix(s, "-") {
		s += " "
	}
	return s
}

func escapeText(s string) string { return textEscaper.Replace(s) }
func escapeAttr(s string) string { return attrEscaper.Replace(s) }
