package js

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/dop251/goja"

	"domsnap/pkg/canvas"
	"domsnap/pkg/css"
	"domsnap/pkg/html"
)

// domContext holds shared state for the DOM bindings of one runtime. Proxies
// are cached per node so the same JS object comes back for the same node,
// which === relies on.
type domContext struct {
	ctx   context.Context // bounds host work started by the running script
	vm    *goja.Runtime
	doc   *html.Document
	host  Host
	cache map[*html.Node]*goja.Object
	nodes map[*goja.Object]*html.Node
}

func newDOMContext(ctx context.Context, vm *goja.Runtime, doc *html.Document, host Host) *domContext {
	return &domContext{
		ctx:   ctx,
		vm:    vm,
		doc:   doc,
		host:  host,
		cache: make(map[*html.Node]*goja.Object),
		nodes: make(map[*goja.Object]*html.Node),
	}
}

// registerDocument sets up the global `document` object.
func registerDocument(ctx context.Context, vm *goja.Runtime, doc *html.Document, host Host) *domContext {
	dc := newDOMContext(ctx, vm, doc, host)

	docObj := vm.NewObject()
	docObj.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		return dc.nodeOrNull(doc.Root.ElementByID(call.Argument(0).String()))
	})
	docObj.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		return dc.elementArray(doc.Root.ElementsByTagName(strings.ToLower(call.Argument(0).String())))
	})
	docObj.Set("getElementsByClassName", func(call goja.FunctionCall) goja.Value {
		return dc.elementArray(elementsByClassName(doc.Root, call.Argument(0).String()))
	})
	docObj.Set("createElement", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(vm.NewTypeError("Failed to execute 'createElement' on 'Document': 1 argument required"))
		}
		return dc.elementProxy(html.NewElement(call.Arguments[0].String()))
	})
	docObj.Set("createTextNode", func(call goja.FunctionCall) goja.Value {
		return dc.elementProxy(&html.Node{Type: html.TextNode, Text: call.Argument(0).String()})
	})
	docObj.Set("querySelector", dc.querySelectorFn(doc.Root))
	docObj.Set("querySelectorAll", dc.querySelectorAllFn(doc.Root))

	find := func(tag string) *html.Node {
		if tag == "html" {
			for _, c := range doc.Root.Children {
				if c.Type == html.ElementNode && c.TagName == "html" {
					return c
				}
			}
			return nil
		}
		if found := doc.Root.ElementsByTagName(tag); len(found) > 0 {
			return found[0]
		}
		return nil
	}
	docObj.DefineAccessorProperty("body", vm.ToValue(func(goja.FunctionCall) goja.Value {
		return dc.nodeOrNull(find("body"))
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	docObj.DefineAccessorProperty("head", vm.ToValue(func(goja.FunctionCall) goja.Value {
		return dc.nodeOrNull(find("head"))
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	docObj.DefineAccessorProperty("documentElement", vm.ToValue(func(goja.FunctionCall) goja.Value {
		return dc.nodeOrNull(find("html"))
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	vm.Set("document", docObj)
	return dc
}

func elementsByClassName(root *html.Node, cls string) []*html.Node {
	var result []*html.Node
	root.Walk(func(n *html.Node) bool {
		if n != root && n.Type == html.ElementNode && n.HasClass(cls) {
			result = append(result, n)
		}
		return true
	})
	return result
}

func (dc *domContext) nodeOrNull(n *html.Node) goja.Value {
	if n == nil {
		return goja.Null()
	}
	return dc.elementProxy(n)
}

// elementArray creates a JS array of element proxies.
func (dc *domContext) elementArray(nodes []*html.Node) goja.Value {
	vals := make([]interface{}, len(nodes))
	for i, n := range nodes {
		vals[i] = dc.elementProxy(n)
	}
	return dc.vm.NewArray(vals...)
}

// elementProxy creates (or retrieves from cache) the JS object for node.
func (dc *domContext) elementProxy(node *html.Node) *goja.Object {
	if v, ok := dc.cache[node]; ok {
		return v
	}
	v := dc.vm.NewDynamicObject(&elementAccessor{dc: dc, node: node})
	dc.cache[node] = v
	dc.nodes[v] = node
	return v
}

// unwrapNode returns the node behind a proxy, or nil.
func (dc *domContext) unwrapNode(val goja.Value) *html.Node {
	obj, ok := val.(*goja.Object)
	if !ok {
		return nil
	}
	return dc.nodes[obj]
}

func (dc *domContext) mustNode(call goja.FunctionCall, i int, method string) *html.Node {
	n := dc.unwrapNode(call.Argument(i))
	if n == nil {
		panic(dc.vm.NewTypeError("Failed to execute '%s': parameter %d is not a Node", method, i+1))
	}
	return n
}

func (dc *domContext) selectors(s string) []css.Selector {
	group, err := css.ParseSelectorGroup(s)
	if err != nil {
		panic(dc.vm.NewTypeError("'%s' is not a valid selector", s))
	}
	return group
}

func (dc *domContext) querySelectorFn(root *html.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		n, err := css.QuerySelector(root, call.Argument(0).String())
		if err != nil {
			panic(dc.vm.NewTypeError("'%s' is not a valid selector", call.Argument(0).String()))
		}
		return dc.nodeOrNull(n)
	}
}

func (dc *domContext) querySelectorAllFn(root *html.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		nodes, err := css.QuerySelectorAll(root, call.Argument(0).String())
		if err != nil {
			panic(dc.vm.NewTypeError("'%s' is not a valid selector", call.Argument(0).String()))
		}
		return dc.elementArray(nodes)
	}
}

func matchesAny(n *html.Node, group []css.Selector) bool {
	if n.Type != html.ElementNode || n.TagName == "document" {
		return false
	}
	for _, sel := range group {
		if css.MatchesSelector(n, sel) {
			return true
		}
	}
	return false
}

// elementAccessor implements goja.DynamicObject over one node.
type elementAccessor struct {
	dc   *domContext
	node *html.Node
}

var elementKeys = []string{
	"nodeType", "nodeName", "nodeValue", "tagName", "id", "className",
	"textContent", "innerHTML", "outerHTML", "style",
	"getAttribute", "setAttribute", "hasAttribute", "removeAttribute",
	"children", "childNodes", "parentElement", "parentNode",
	"firstChild", "lastChild", "nextSibling", "previousSibling",
	"appendChild", "removeChild", "insertBefore", "remove",
	"querySelector", "querySelectorAll", "matches", "closest",
	"cloneNode", "contains", "getBoundingClientRect",
	"width", "height", "src", "complete", "naturalWidth", "naturalHeight",
	"getContext", "toDataURL",
}

var elementKeySet = func() map[string]bool {
	m := make(map[string]bool, len(elementKeys))
	for _, k := range elementKeys {
		m[k] = true
	}
	return m
}()

func (e *elementAccessor) fn(f func(goja.FunctionCall) goja.Value) goja.Value {
	return e.dc.vm.ToValue(f)
}

func (e *elementAccessor) Get(key string) goja.Value {
	vm := e.dc.vm
	n := e.node

	switch key {
	case "nodeType":
		switch n.Type {
		case html.TextNode:
			return vm.ToValue(3)
		case html.CommentNode:
			return vm.ToValue(8)
		}
		return vm.ToValue(1)
	case "nodeName":
		if n.Type == html.TextNode {
			return vm.ToValue("#text")
		}
		return vm.ToValue(strings.ToUpper(n.TagName))
	case "nodeValue":
		if n.Type == html.ElementNode {
			return goja.Null()
		}
		return vm.ToValue(n.Text)
	case "tagName":
		if n.Type != html.ElementNode {
			return goja.Undefined()
		}
		return vm.ToValue(strings.ToUpper(n.TagName))
	case "id":
		id, _ := n.GetAttribute("id")
		return vm.ToValue(id)
	case "className":
		cls, _ := n.GetAttribute("class")
		return vm.ToValue(cls)
	case "textContent":
		return vm.ToValue(n.TextContent())
	case "innerHTML":
		return vm.ToValue(n.Serialize())
	case "outerHTML":
		return vm.ToValue(n.SerializeOuter())
	case "style":
		return vm.NewDynamicObject(&styleAccessor{vm: vm, node: n})

	case "getAttribute":
		return e.fn(func(call goja.FunctionCall) goja.Value {
			val, ok := n.GetAttribute(call.Argument(0).String())
			if !ok {
				return goja.Null()
			}
			return vm.ToValue(val)
		})
	case "setAttribute":
		return e.fn(func(call goja.FunctionCall) goja.Value {
			e.setAttribute(call.Argument(0).String(), call.Argument(1).String())
			return goja.Undefined()
		})
	case "hasAttribute":
		return e.fn(func(call goja.FunctionCall) goja.Value {
			_, ok := n.GetAttribute(call.Argument(0).String())
			return vm.ToValue(ok)
		})
	case "removeAttribute":
		return e.fn(func(call goja.FunctionCall) goja.Value {
			n.RemoveAttribute(call.Argument(0).String())
			return goja.Undefined()
		})

	case "children":
		var els []*html.Node
		for _, c := range n.Children {
			if c.Type == html.ElementNode {
				els = append(els, c)
			}
		}
		return e.dc.elementArray(els)
	case "childNodes":
		return e.dc.elementArray(n.Children)
	case "parentElement", "parentNode":
		if n.Parent == nil || n.Parent.TagName == "document" {
			return goja.Null()
		}
		return e.dc.elementProxy(n.Parent)
	case "firstChild":
		if len(n.Children) == 0 {
			return goja.Null()
		}
		return e.dc.elementProxy(n.Children[0])
	case "lastChild":
		if len(n.Children) == 0 {
			return goja.Null()
		}
		return e.dc.elementProxy(n.Children[len(n.Children)-1])
	case "nextSibling", "previousSibling":
		if n.Parent == nil {
			return goja.Null()
		}
		i := n.IndexInParent()
		if key == "nextSibling" {
			i++
		} else {
			i--
		}
		if i < 0 || i >= len(n.Parent.Children) {
			return goja.Null()
		}
		return e.dc.elementProxy(n.Parent.Children[i])

	case "appendChild":
		return e.fn(func(call goja.FunctionCall) goja.Value {
			child := e.dc.mustNode(call, 0, "appendChild")
			if child.Parent != nil {
				child.Parent.RemoveChild(child)
			}
			n.AddChild(child)
			return e.dc.elementProxy(child)
		})
	case "removeChild":
		return e.fn(func(call goja.FunctionCall) goja.Value {
			child := e.dc.mustNode(call, 0, "removeChild")
			if n.RemoveChild(child) == nil {
				panic(vm.NewTypeError("Failed to execute 'removeChild': The node to be removed is not a child of this node"))
			}
			return e.dc.elementProxy(child)
		})
	case "insertBefore":
		return e.fn(func(call goja.FunctionCall) goja.Value {
			child := e.dc.mustNode(call, 0, "insertBefore")
			ref := e.dc.unwrapNode(call.Argument(1))
			if child.Parent != nil {
				child.Parent.RemoveChild(child)
			}
			n.InsertBefore(child, ref)
			return e.dc.elementProxy(child)
		})
	case "remove":
		return e.fn(func(goja.FunctionCall) goja.Value {
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
			}
			return goja.Undefined()
		})

	case "querySelector":
		return e.fn(e.dc.querySelectorFn(n))
	case "querySelectorAll":
		return e.fn(e.dc.querySelectorAllFn(n))
	case "matches":
		return e.fn(func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(matchesAny(n, e.dc.selectors(call.Argument(0).String())))
		})
	case "closest":
		return e.fn(func(call goja.FunctionCall) goja.Value {
			group := e.dc.selectors(call.Argument(0).String())
			for cur := n; cur != nil; cur = cur.Parent {
				if matchesAny(cur, group) {
					return e.dc.elementProxy(cur)
				}
			}
			return goja.Null()
		})
	case "cloneNode":
		return e.fn(func(call goja.FunctionCall) goja.Value {
			return e.dc.elementProxy(n.CloneNode(call.Argument(0).ToBoolean()))
		})
	case "contains":
		return e.fn(func(call goja.FunctionCall) goja.Value {
			other := e.dc.unwrapNode(call.Argument(0))
			return vm.ToValue(other != nil && n.Contains(other))
		})
	case "getBoundingClientRect":
		return e.fn(func(goja.FunctionCall) goja.Value {
			obj := vm.NewObject()
			if e.dc.host == nil {
				for _, k := range []string{"x", "y", "left", "top", "width", "height", "right", "bottom"} {
					obj.Set(k, 0)
				}
				return obj
			}
			e.dc.host.Reflow(e.dc.ctx)
			r := e.dc.host.BoundingClientRect(n)
			obj.Set("x", r.X)
			obj.Set("y", r.Y)
			obj.Set("left", r.X)
			obj.Set("top", r.Y)
			obj.Set("width", r.Width)
			obj.Set("height", r.Height)
			obj.Set("right", r.Right())
			obj.Set("bottom", r.Bottom())
			return obj
		})
	}
	return e.mediaGet(key)
}

// mediaGet serves the <img> and <canvas> properties.
func (e *elementAccessor) mediaGet(key string) goja.Value {
	vm := e.dc.vm
	n := e.node
	kind := html.Classify(n)

	switch key {
	case "width", "height":
		if kind == html.KindBitmapCanvas {
			if c := e.canvas(); c != nil {
				if key == "width" {
					return vm.ToValue(c.Width())
				}
				return vm.ToValue(c.Height())
			}
		}
		v, _ := n.GetAttribute(key)
		f, _ := strconv.ParseFloat(v, 64)
		return vm.ToValue(f)
	case "src":
		src, _ := n.GetAttribute("src")
		return vm.ToValue(src)
	case "complete":
		return vm.ToValue(kind == html.KindRasterImage && n.Image != nil && n.Image.Complete())
	case "naturalWidth", "naturalHeight":
		if n.Image == nil {
			return vm.ToValue(0)
		}
		w, h := n.Image.NaturalSize()
		if key == "naturalWidth" {
			return vm.ToValue(w)
		}
		return vm.ToValue(h)
	case "getContext":
		if kind != html.KindBitmapCanvas {
			return goja.Undefined()
		}
		return e.fn(func(call goja.FunctionCall) goja.Value {
			c := e.canvas()
			if c == nil || call.Argument(0).String() != "2d" {
				return goja.Null()
			}
			return newContext2D(e.dc, n, c)
		})
	case "toDataURL":
		if kind != html.KindBitmapCanvas {
			return goja.Undefined()
		}
		return e.fn(func(call goja.FunctionCall) goja.Value {
			c := e.canvas()
			if c == nil {
				panic(vm.NewTypeError("canvas has no backing surface"))
			}
			mime := "image/png"
			if !goja.IsUndefined(call.Argument(0)) {
				mime = call.Argument(0).String()
			}
			uri, err := c.ToDataURL(mime, number(call.Argument(1)))
			if err != nil {
				panic(vm.NewGoError(err))
			}
			return vm.ToValue(uri)
		})
	}
	return goja.Undefined()
}

func (e *elementAccessor) setAttribute(name, val string) {
	e.node.SetAttribute(name, val)
	switch {
	case name == "src" && html.Classify(e.node) == html.KindRasterImage:
		// The host starts a new load for images without a state.
		e.node.Image = nil
	case (name == "width" || name == "height") && html.Classify(e.node) == html.KindBitmapCanvas:
		// Resizing clears a canvas.
		e.node.Canvas = nil
	}
}

func (e *elementAccessor) Set(key string, val goja.Value) bool {
	n := e.node
	switch key {
	case "textContent":
		n.Children = nil
		if s := val.String(); s != "" {
			n.AppendText(s)
		}
	case "className":
		n.SetAttribute("class", val.String())
	case "id":
		n.SetAttribute("id", val.String())
	case "innerHTML":
		e.setInnerHTML(val.String())
	case "nodeValue":
		if n.Type != html.ElementNode {
			n.Text = val.String()
		}
	case "width", "height", "src":
		e.setAttribute(key, val.String())
	default:
		return false
	}
	return true
}

// setInnerHTML parses markup and replaces the node's children with it.
// Scripts in the markup are not run.
func (e *elementAccessor) setInnerHTML(markup string) {
	for _, c := range e.node.Children {
		c.Parent = nil
	}
	e.node.Children = nil
	if markup == "" {
		return
	}
	frag, err := html.Parse(markup)
	if err != nil {
		return
	}
	for _, c := range frag.Root.Children {
		e.node.AddChild(c)
	}
}

func (e *elementAccessor) canvas() *canvas.Canvas {
	if e.dc.host == nil {
		return nil
	}
	return e.dc.host.Canvas(e.node)
}

func (e *elementAccessor) Has(key string) bool   { return elementKeySet[key] }
func (e *elementAccessor) Delete(key string) bool { return false }
func (e *elementAccessor) Keys() []string         { return elementKeys }

// styleAccessor maps camelCase property access to the kebab-case
// declarations of the node's style attribute.
type styleAccessor struct {
	vm   *goja.Runtime
	node *html.Node
}

func (s *styleAccessor) Get(key string) goja.Value {
	if key == "cssText" {
		return s.vm.ToValue(s.attr())
	}
	return s.vm.ToValue(parseInlineStyle(s.attr())[camelToKebab(key)])
}

func (s *styleAccessor) Set(key string, val goja.Value) bool {
	if key == "cssText" {
		s.node.SetAttribute("style", val.String())
		return true
	}
	styles := parseInlineStyle(s.attr())
	if v := val.String(); v == "" {
		delete(styles, camelToKebab(key))
	} else {
		styles[camelToKebab(key)] = v
	}
	s.node.SetAttribute("style", serializeInlineStyle(styles))
	return true
}

func (s *styleAccessor) Has(key string) bool { return true }

func (s *styleAccessor) Delete(key string) bool {
	styles := parseInlineStyle(s.attr())
	delete(styles, camelToKebab(key))
	s.node.SetAttribute("style", serializeInlineStyle(styles))
	return true
}

func (s *styleAccessor) Keys() []string {
	styles := parseInlineStyle(s.attr())
	keys := make([]string, 0, len(styles))
	for k := range styles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *styleAccessor) attr() string {
	v, _ := s.node.GetAttribute("style")
	return v
}

// parseInlineStyle parses a CSS inline style string into a map.
func parseInlineStyle(s string) map[string]string {
	result := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		if prop = strings.TrimSpace(prop); prop != "" {
			result[prop] = strings.TrimSpace(val)
		}
	}
	return result
}

// serializeInlineStyle converts a map back to an inline style string,
// sorted by property.
func serializeInlineStyle(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + m[k]
	}
	return strings.Join(parts, "; ")
}

// camelToKebab converts a JS camelCase property name to CSS kebab-case.
func camelToKebab(s string) string {
	if s == "cssFloat" {
		return "float"
	}
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// number converts a JS argument to a float, mapping undefined and NaN to 0.
func number(v goja.Value) float64 {
	f := v.ToFloat()
	if math.IsNaN(f) {
		return 0
	}
	return f
}
