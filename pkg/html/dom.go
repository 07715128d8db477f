package html

import (
	"strings"
)

type Node struct {
	Type       NodeType
	TagName    string
	Attributes map[string]string
	Text       string
	Children   []*Node
	Parent     *Node

	// Image is the load state of an <img> element. The host that owns the
	// document creates and resolves it; clones never share it.
	Image *ImageState
	// Canvas is the backing bitmap of a <canvas> element.
	Canvas CanvasBacking
}

type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
	CommentNode
)

type Document struct {
	Root        *Node
	Stylesheets []string // CSS from <style> tags and data: / fetched <link> sheets
	Scripts     []string // JavaScript from <script> tags
}

func NewDocument() *Document {
	return &Document{
		Root: &Node{
			Type:     ElementNode,
			TagName:  "document",
			Children: make([]*Node, 0),
		},
		Stylesheets: make([]string, 0),
		Scripts:     make([]string, 0),
	}
}

// NewElement returns a detached element with an empty attribute map.
func NewElement(tag string) *Node {
	return &Node{
		Type:       ElementNode,
		TagName:    strings.ToLower(tag),
		Attributes: make(map[string]string),
		Children:   make([]*Node, 0),
	}
}

func (n *Node) GetAttribute(name string) (string, bool) {
	if n.Attributes == nil {
		return "", false
	}
	val, ok := n.Attributes[name]
	return val, ok
}

func (n *Node) SetAttribute(name, value string) {
	if n.Attributes == nil {
		n.Attributes = make(map[string]string)
	}
	n.Attributes[name] = value
}

func (n *Node) RemoveAttribute(name string) {
	delete(n.Attributes, name)
}

// AddChild appends child and sets its parent.
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// AppendText creates a text node and adds it as a child.
func (n *Node) AppendText(text string) {
	if text == "" {
		return
	}
	n.AddChild(&Node{Type: TextNode, Text: text})
}

// RemoveChild removes child from n, clears its parent pointer and returns it.
// Returns nil if child is not a child of n.
func (n *Node) RemoveChild(child *Node) *Node {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return child
		}
	}
	return nil
}

// InsertBefore inserts newChild before refChild. A nil or unknown refChild
// appends. newChild is detached from its old parent first.
func (n *Node) InsertBefore(newChild, refChild *Node) *Node {
	if newChild.Parent != nil {
		newChild.Parent.RemoveChild(newChild)
	}
	if refChild != nil {
		for i, c := range n.Children {
			if c == refChild {
				n.Children = append(n.Children, nil)
				copy(n.Children[i+1:], n.Children[i:])
				n.Children[i] = newChild
				newChild.Parent = n
				return newChild
			}
		}
	}
	n.AddChild(newChild)
	return newChild
}

// CloneNode copies the node's type, tag, text and attributes. With deep set,
// descendants are cloned too. Media state (Image, Canvas) is never copied:
// the clone is fully detached from the live node.
func (n *Node) CloneNode(deep bool) *Node {
	clone := &Node{
		Type:     n.Type,
		TagName:  n.TagName,
		Text:     n.Text,
		Children: make([]*Node, 0),
	}
	if n.Attributes != nil {
		clone.Attributes = make(map[string]string, len(n.Attributes))
		for k, v := range n.Attributes {
			clone.Attributes[k] = v
		}
	}
	if deep {
		for _, child := range n.Children {
			clone.AddChild(child.CloneNode(true))
		}
	}
	return clone
}

// Contains reports whether other is n or a descendant of n.
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.Parent {
		if p == n {
			return true
		}
	}
	return false
}

// IndexInParent returns the node's index among its parent's children,
// or -1 if it has no parent.
func (n *Node) IndexInParent() int {
	if n.Parent == nil {
		return -1
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// TextContent concatenates the text of all descendant text nodes.
func (n *Node) TextContent() string {
	if n.Type == TextNode {
		return n.Text
	}
	var sb strings.Builder
	n.Walk(func(d *Node) bool {
		if d.Type == TextNode {
			sb.WriteString(d.Text)
		}
		return true
	})
	return sb.String()
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the visited node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			continue
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
}

// ElementsByTagName returns the descendant elements of n (excluding n) with
// the given tag, in document order.
func (n *Node) ElementsByTagName(tag string) []*Node {
	tag = strings.ToLower(tag)
	var out []*Node
	n.Walk(func(d *Node) bool {
		if d != n && d.Type == ElementNode && (tag == "*" || d.TagName == tag) {
			out = append(out, d)
		}
		return true
	})
	return out
}

// ElementByID returns the first descendant element with the given id.
func (n *Node) ElementByID(id string) *Node {
	var found *Node
	n.Walk(func(d *Node) bool {
		if found != nil {
			return false
		}
		if d.Type == ElementNode {
			if v, ok := d.GetAttribute("id"); ok && v == id {
				found = d
				return false
			}
		}
		return true
	})
	return found
}

// HasClass reports whether the element's class attribute lists name.
func (n *Node) HasClass(name string) bool {
	classAttr, ok := n.GetAttribute("class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(classAttr) {
		if c == name {
			return true
		}
	}
	return false
}
