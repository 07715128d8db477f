package snapshot

import (
	"strconv"
	"strings"

	"domsnap/pkg/html"
)

const (
	// SVGNamespace is the namespace of the vector envelope.
	SVGNamespace = "http://www.w3.org/2000/svg"
	// VectorPrefix starts every serialized vector image.
	VectorPrefix = "data:image/svg+xml;charset=utf-8,"
)

// payloadEscaper escapes what a data: URI payload cannot carry literally.
// "%" goes first so decoding is exact.
var payloadEscaper = strings.NewReplacer(
	"%", "%25",
	"#", "%23",
	"\n", "%0A",
	"\r", "%0D",
)

// serialize wraps a flattened clone in an SVG foreignObject sized
// width x height and returns it as a data: URI.
func serialize(clone *html.Node, width, height int) string {
	clone.Attributes["xmlns"] = html.XHTMLNamespace
	markup := payloadEscaper.Replace(html.SerializeXHTML(clone))

	var sb strings.Builder
	sb.Grow(len(VectorPrefix) + len(markup) + 160)
	sb.WriteString(VectorPrefix)
	sb.WriteString(`<svg xmlns="` + SVGNamespace + `" width="`)
	sb.WriteString(strconv.Itoa(width))
	sb.WriteString(`" height="`)
	sb.WriteString(strconv.Itoa(height))
	sb.WriteString(`"><foreignObject x="0" y="0" width="100%25" height="100%25">`)
	sb.WriteString(markup)
	sb.WriteString(`</foreignObject></svg>`)
	return sb.String()
}

// envelope builds the same structure as serialize as a node tree.
func envelope(clone *html.Node, width, height int) *html.Node {
	clone.Attributes["xmlns"] = html.XHTMLNamespace

	fo := html.NewElement("foreignObject")
	fo.TagName = "foreignObject"
	fo.Attributes["x"] = "0"
	fo.Attributes["y"] = "0"
	fo.Attributes["width"] = "100%"
	fo.Attributes["height"] = "100%"
	fo.AddChild(clone)

	root := html.NewElement("svg")
	root.Attributes["xmlns"] = SVGNamespace
	root.Attributes["width"] = strconv.Itoa(width)
	root.Attributes["height"] = strconv.Itoa(height)
	root.AddChild(fo)
	return root
}
