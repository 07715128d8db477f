package html

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	nethtml "golang.org/x/net/html"
)

// CSSFetcher loads the text of an external stylesheet.
type CSSFetcher func(uri string) (string, error)

// Parser builds a Document from the x/net/html token stream. Tree
// construction is deliberately simple: a stack of open elements, void
// elements never pushed, <p> auto-closed by block elements, end tags
// closing up to the nearest matching open element.
type Parser struct {
	z          *nethtml.Tokenizer
	doc        *Document
	stack      []*Node
	cssFetcher CSSFetcher

	rawTag  string // "style" or "script" while collecting raw text
	rawText strings.Builder
	// xhtml decodes character references in raw text, as an XML parser does.
	xhtml bool
}

func NewParser(html string) *Parser {
	return &Parser{
		z:   nethtml.NewTokenizer(strings.NewReader(html)),
		doc: NewDocument(),
	}
}

func (p *Parser) Parse() (*Document, error) {
	p.stack = []*Node{p.doc.Root}

	for {
		tt := p.z.Next()
		switch tt {
		case nethtml.ErrorToken:
			if err := p.z.Err(); err != io.EOF {
				return nil, fmt.Errorf("tokenizer error: %w", err)
			}
			p.flushRaw()
			return p.doc, nil

		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			p.startTag(p.z.Token(), tt == nethtml.SelfClosingTagToken)

		case nethtml.EndTagToken:
			name, _ := p.z.TagName()
			p.endTag(string(name))

		case nethtml.TextToken:
			text := string(p.z.Text())
			if p.rawTag != "" {
				p.rawText.WriteString(text)
				continue
			}
			p.appendText(text)

		case nethtml.CommentToken:
			if p.rawTag == "" {
				p.currentParent().AddChild(&Node{Type: CommentNode, Text: string(p.z.Text())})
			}

		case nethtml.DoctypeToken:
			// ignored
		}
	}
}

func (p *Parser) startTag(tok nethtml.Token, selfClosing bool) {
	tag := tok.Data
	attrs := make(map[string]string, len(tok.Attr))
	for _, a := range tok.Attr {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + a.Key
		}
		attrs[key] = a.Val
	}

	switch tag {
	case "style", "script":
		if !selfClosing {
			p.rawTag = tag
			p.rawText.Reset()
		}
		return
	}

	if isBlockElement(tag) {
		p.autoCloseP()
	}

	node := &Node{
		Type:       ElementNode,
		TagName:    tag,
		Attributes: attrs,
		Children:   make([]*Node, 0),
	}
	p.currentParent().AddChild(node)

	if tag == "link" && strings.Contains(attrs["rel"], "stylesheet") {
		if css := p.loadLinkStylesheet(attrs["href"]); css != "" {
			p.doc.Stylesheets = append(p.doc.Stylesheets, css)
		}
	}

	if !selfClosing && !isVoidElement(tag) {
		p.stack = append(p.stack, node)
	}
}

func (p *Parser) endTag(tag string) {
	if p.rawTag != "" {
		if tag == p.rawTag {
			p.flushRaw()
		}
		return
	}
	// Pop up to the matching element; ignore stray end tags.
	for i := len(p.stack) - 1; i >= 1; i-- {
		if p.stack[i].TagName == tag {
			p.stack = p.stack[:i]
			return
		}
	}
}

func (p *Parser) flushRaw() {
	text := p.rawText.String()
	if p.xhtml {
		text = nethtml.UnescapeString(text)
	}
	switch p.rawTag {
	case "style":
		p.doc.Stylesheets = append(p.doc.Stylesheets, text)
	case "script":
		p.doc.Scripts = append(p.doc.Scripts, text)
	}
	p.rawTag = ""
	p.rawText.Reset()
}

// appendText merges adjacent text so the tree has one node per run.
func (p *Parser) appendText(text string) {
	if text == "" {
		return
	}
	parent := p.currentParent()
	if n := len(parent.Children); n > 0 && parent.Children[n-1].Type == TextNode {
		parent.Children[n-1].Text += text
		return
	}
	parent.AppendText(text)
}

func (p *Parser) currentParent() *Node {
	return p.stack[len(p.stack)-1]
}

// autoCloseP closes an open <p> unless a block container sits above it.
func (p *Parser) autoCloseP() {
	for i := len(p.stack) - 1; i >= 1; i-- {
		if p.stack[i].TagName == "p" {
			p.stack = p.stack[:i]
			return
		}
		if isBlockElement(p.stack[i].TagName) {
			return
		}
	}
}

func (p *Parser) loadLinkStylesheet(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "data:text/css,") {
		encoded := href[len("data:text/css,"):]
		decoded, err := url.PathUnescape(encoded)
		if err != nil {
			return encoded
		}
		return decoded
	}
	if p.cssFetcher == nil || href == "" {
		return ""
	}
	css, err := p.cssFetcher(href)
	if err != nil {
		return ""
	}
	return css
}

func isBlockElement(tagName string) bool {
	switch tagName {
	case "address", "article", "aside", "blockquote", "details", "dialog",
		"dd", "div", "dl", "dt", "fieldset", "figcaption", "figure",
		"footer", "form", "h1", "h2", "h3", "h4", "h5", "h6",
		"header", "hgroup", "hr", "li", "main", "nav", "ol",
		"p", "pre", "section", "table", "ul":
		return true
	}
	return false
}

func isVoidElement(tag string) bool {
	switch tag {
	case "br", "hr", "img", "input", "meta", "link", "area", "base",
		"col", "embed", "param", "source", "track", "wbr":
		return true
	}
	return false
}

func Parse(html string) (*Document, error) {
	return NewParser(html).Parse()
}

// ParseXHTML parses markup written by SerializeXHTML. Text inside <style>
// and <script> is entity-decoded, since the serializer escapes it.
func ParseXHTML(markup string) (*Document, error) {
	p := NewParser(markup)
	p.xhtml = true
	return p.Parse()
}

// ParseWithFetcher parses html, loading <link rel="stylesheet"> targets
// through fetch. Fetch failures drop the sheet.
func ParseWithFetcher(html string, fetch CSSFetcher) (*Document, error) {
	p := NewParser(html)
	p.cssFetcher = fetch
	return p.Parse()
}
