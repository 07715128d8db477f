package html

// Kind is the rendering role of a node. Code that treats nodes differently
// switches on Classify instead of testing tags or types ad hoc.
type Kind int

const (
	KindText         Kind = iota // character data
	KindPresentable              // element that carries a computed style
	KindRasterImage              // <img>
	KindBitmapCanvas             // <canvas>
	KindOther                    // comments and the synthetic document root
)

var kindNames = [...]string{
	KindText:         "text",
	KindPresentable:  "presentable",
	KindRasterImage:  "raster-image",
	KindBitmapCanvas: "bitmap-canvas",
	KindOther:        "other",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

func Classify(n *Node) Kind {
	switch n.Type {
	case TextNode:
		return KindText
	case CommentNode:
		return KindOther
	}
	switch n.TagName {
	case "img":
		return KindRasterImage
	case "canvas":
		return KindBitmapCanvas
	case "document":
		return KindOther
	}
	return KindPresentable
}

// IsMedia reports whether the node's pixels come from an embedded bitmap.
func (k Kind) IsMedia() bool {
	return k == KindRasterImage || k == KindBitmapCanvas
}
