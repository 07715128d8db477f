package js

import (
	"context"
	"image/color"
	"strconv"
	"testing"

	"domsnap/pkg/canvas"
	"domsnap/pkg/css"
	"domsnap/pkg/html"
	"domsnap/pkg/images"
	"domsnap/pkg/layout"
)

// fakeHost lays out a parsed document the way a page does, without
// loading any media.
type fakeHost struct {
	doc    *html.Document
	styles map[*html.Node]*css.Style
	le     *layout.LayoutEngine
}

func newFakeHost(doc *html.Document) *fakeHost {
	h := &fakeHost{doc: doc}
	h.Reflow(context.Background())
	return h
}

func (h *fakeHost) Reflow(context.Context) {
	h.styles = css.ApplyStylesToDocument(h.doc, 400, 300)
	h.le = layout.NewLayoutEngine(400, 300)
	h.le.Layout(h.doc.Root, h.styles)
}

func (h *fakeHost) QuerySelector(selector string) (*html.Node, error) {
	return css.QuerySelector(h.doc.Root, selector)
}

func (h *fakeHost) QuerySelectorAll(root *html.Node, selector string) ([]*html.Node, error) {
	return css.QuerySelectorAll(root, selector)
}

func (h *fakeHost) BoundingClientRect(n *html.Node) layout.Rect {
	return h.le.BoundingClientRect(n)
}

func (h *fakeHost) ComputedStyle(n *html.Node) *css.Style {
	s, ok := h.styles[n]
	if !ok {
		return nil
	}
	s = s.Clone()
	if boxes := h.le.BoxesFor(n); len(boxes) > 0 && boxes[0].Kind != layout.TextBox && boxes[0].Kind != layout.InlineBox {
		s.Set("width", css.FormatPx(boxes[0].ContentBox().Width))
		s.Set("height", css.FormatPx(boxes[0].ContentBox().Height))
	}
	return s
}

func (h *fakeHost) Canvas(n *html.Node) *canvas.Canvas {
	if html.Classify(n) != html.KindBitmapCanvas {
		return nil
	}
	if c, ok := n.Canvas.(*canvas.Canvas); ok {
		return c
	}
	w, _ := n.GetAttribute("width")
	ht, _ := n.GetAttribute("height")
	width, err := strconv.Atoi(w)
	if err != nil {
		width = 300
	}
	height, err := strconv.Atoi(ht)
	if err != nil {
		height = 150
	}
	c := canvas.New(width, height)
	n.Canvas = c
	return c
}

// runHosted executes script with a fakeHost and returns the engine so the
// test can read globals back.
func runHosted(t *testing.T, markup, script string) (*Engine, *fakeHost) {
	t.Helper()
	doc := parseHTML(t, markup)
	doc.Scripts = append(doc.Scripts, script)
	host := newFakeHost(doc)
	e := New(host)
	if err := e.Execute(context.Background(), doc); err != nil {
		t.Fatal(err)
	}
	return e, host
}

func pixel(c *canvas.Canvas, x, y int) color.RGBA {
	return color.RGBAModel.Convert(c.Bitmap().At(x, y)).(color.RGBA)
}

func TestContext2DPaintsBackingCanvas(t *testing.T) {
	_, host := runHosted(t, `<canvas id="c" width="20" height="10"></canvas>`, `
		var ctx = document.getElementById("c").getContext("2d");
		ctx.fillStyle = "red";
		if (ctx.fillStyle !== "red") throw new Error("fillStyle: " + ctx.fillStyle);
		ctx.fillRect(0, 0, 10, 10);
		ctx.fillStyle = "not a colour";
		ctx.lineWidth = 3;
		if (ctx.lineWidth !== 3) throw new Error("lineWidth: " + ctx.lineWidth);
	`)
	c := host.Canvas(host.doc.Root.ElementByID("c"))
	if c.Width() != 20 || c.Height() != 10 {
		t.Fatalf("canvas size = %dx%d, want 20x10", c.Width(), c.Height())
	}
	if got := pixel(c, 5, 5); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("filled pixel = %v, want red", got)
	}
	if got := pixel(c, 15, 5); got.A != 0 {
		t.Errorf("unfilled pixel = %v, want transparent", got)
	}
}

func TestCanvasDrawImageFromCanvas(t *testing.T) {
	_, host := runHosted(t, `<canvas id="a" width="4" height="4"></canvas><canvas id="b" width="8" height="8"></canvas>`, `
		var a = document.getElementById("a");
		var actx = a.getContext("2d");
		actx.fillStyle = "blue";
		actx.fillRect(0, 0, 4, 4);
		document.getElementById("b").getContext("2d").drawImage(a, 0, 0, 8, 8);
	`)
	b := host.Canvas(host.doc.Root.ElementByID("b"))
	if got := pixel(b, 6, 6); got.B < 250 || got.A < 250 {
		t.Errorf("copied pixel = %v, want blue", got)
	}
}

func TestCanvasToDataURL(t *testing.T) {
	e, _ := runHosted(t, `<canvas id="c" width="3" height="2"></canvas>`, `
		var uri = document.getElementById("c").toDataURL();
	`)
	uri := e.vm.Get("uri").String()
	img, err := images.LoadImageFromDataURI(uri)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("decoded size = %v, want 3x2", b.Size())
	}
}

func TestBoundingClientRectUsesLayout(t *testing.T) {
	runHosted(t, `<div id="a" style="width: 50px; height: 20px"></div>`, `
		var r = document.getElementById("a").getBoundingClientRect();
		if (r.width !== 50 || r.height !== 20) throw new Error("rect: " + r.width + "x" + r.height);
		if (r.right !== r.left + 50) throw new Error("right: " + r.right);
	`)
}
