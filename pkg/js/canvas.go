package js

import (
	"image"

	"github.com/dop251/goja"

	"domsnap/pkg/canvas"
	"domsnap/pkg/html"
)

// context2D is the CanvasRenderingContext2D of one <canvas> element.
type context2D struct {
	dc   *domContext
	node *html.Node
	c    *canvas.Canvas

	fillStyle, strokeStyle, font string
}

var context2DKeys = []string{
	"canvas", "fillStyle", "strokeStyle", "lineWidth", "font",
	"save", "restore", "scale", "translate", "rotate", "resetTransform",
	"fillRect", "strokeRect", "clearRect",
	"beginPath", "moveTo", "lineTo", "closePath", "rect", "arc", "fill", "stroke",
	"fillText", "measureText", "drawImage",
}

func newContext2D(dc *domContext, n *html.Node, c *canvas.Canvas) goja.Value {
	return dc.vm.NewDynamicObject(&context2D{
		dc: dc, node: n, c: c,
		fillStyle: "#000000", strokeStyle: "#000000", font: "10px sans-serif",
	})
}

// args reads the first n arguments as numbers.
func args(call goja.FunctionCall, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = number(call.Argument(i))
	}
	return out
}

func (x *context2D) method(n int, f func(a []float64)) goja.Value {
	return x.dc.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		f(args(call, n))
		return goja.Undefined()
	})
}

func (x *context2D) Get(key string) goja.Value {
	vm := x.dc.vm
	c := x.c
	switch key {
	case "canvas":
		return x.dc.elementProxy(x.node)
	case "fillStyle":
		return vm.ToValue(x.fillStyle)
	case "strokeStyle":
		return vm.ToValue(x.strokeStyle)
	case "font":
		return vm.ToValue(x.font)
	case "lineWidth":
		return vm.ToValue(c.LineWidth())

	case "save":
		return x.method(0, func([]float64) { c.Save() })
	case "restore":
		return x.method(0, func([]float64) { c.Restore() })
	case "scale":
		return x.method(2, func(a []float64) { c.Scale(a[0], a[1]) })
	case "translate":
		return x.method(2, func(a []float64) { c.Translate(a[0], a[1]) })
	case "rotate":
		return x.method(1, func(a []float64) { c.Rotate(a[0]) })
	case "resetTransform":
		return x.method(0, func([]float64) { c.ResetTransform() })
	case "fillRect":
		return x.method(4, func(a []float64) { c.FillRect(a[0], a[1], a[2], a[3]) })
	case "strokeRect":
		return x.method(4, func(a []float64) { c.StrokeRect(a[0], a[1], a[2], a[3]) })
	case "clearRect":
		return x.method(4, func(a []float64) { c.ClearRect(a[0], a[1], a[2], a[3]) })
	case "beginPath":
		return x.method(0, func([]float64) { c.BeginPath() })
	case "moveTo":
		return x.method(2, func(a []float64) { c.MoveTo(a[0], a[1]) })
	case "lineTo":
		return x.method(2, func(a []float64) { c.LineTo(a[0], a[1]) })
	case "closePath":
		return x.method(0, func([]float64) { c.ClosePath() })
	case "rect":
		return x.method(4, func(a []float64) { c.Rect(a[0], a[1], a[2], a[3]) })
	case "fill":
		return x.method(0, func([]float64) { c.Fill() })
	case "stroke":
		return x.method(0, func([]float64) { c.Stroke() })
	case "arc":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			a := args(call, 5)
			c.Arc(a[0], a[1], a[2], a[3], a[4], call.Argument(5).ToBoolean())
			return goja.Undefined()
		})
	case "fillText":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if err := c.FillText(call.Argument(0).String(), number(call.Argument(1)), number(call.Argument(2))); err != nil {
				panic(vm.NewGoError(err))
			}
			return goja.Undefined()
		})
	case "measureText":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			m := vm.NewObject()
			m.Set("width", c.MeasureText(call.Argument(0).String()))
			return m
		})
	case "drawImage":
		return vm.ToValue(x.drawImage)
	}
	return goja.Undefined()
}

// drawImage accepts the 3, 5 and 9 argument forms with an <img> or
// <canvas> element as source. Images that have not loaded draw nothing.
func (x *context2D) drawImage(call goja.FunctionCall) goja.Value {
	src := x.dc.unwrapNode(call.Argument(0))
	if src == nil {
		panic(x.dc.vm.NewTypeError("Failed to execute 'drawImage': parameter 1 is not an image element"))
	}
	var img image.Image
	switch html.Classify(src) {
	case html.KindRasterImage:
		if src.Image != nil {
			img, _ = src.Image.Result()
		}
	case html.KindBitmapCanvas:
		if c := x.dc.host.Canvas(src); c != nil {
			img = c.Bitmap()
		}
	}
	if img == nil {
		return goja.Undefined()
	}
	w, h := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())

	a := args(goja.FunctionCall{Arguments: call.Arguments[1:]}, 8)
	switch len(call.Arguments) - 1 {
	case 2:
		x.c.DrawImage(img, 0, 0, w, h, a[0], a[1], w, h)
	case 4:
		x.c.DrawImage(img, 0, 0, w, h, a[0], a[1], a[2], a[3])
	case 8:
		x.c.DrawImage(img, a[0], a[1], a[2], a[3], a[4], a[5], a[6], a[7])
	default:
		panic(x.dc.vm.NewTypeError("Failed to execute 'drawImage': invalid argument count"))
	}
	return goja.Undefined()
}

// Set ignores invalid values, as a browser does.
func (x *context2D) Set(key string, val goja.Value) bool {
	switch key {
	case "fillStyle":
		if x.c.SetFillStyle(val.String()) == nil {
			x.fillStyle = val.String()
		}
	case "strokeStyle":
		if x.c.SetStrokeStyle(val.String()) == nil {
			x.strokeStyle = val.String()
		}
	case "font":
		if x.c.SetFont(val.String()) == nil {
			x.font = val.String()
		}
	case "lineWidth":
		x.c.SetLineWidth(number(val))
	default:
		return false
	}
	return true
}

func (x *context2D) Has(key string) bool {
	for _, k := range context2DKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (x *context2D) Delete(string) bool { return false }
func (x *context2D) Keys() []string     { return context2DKeys }
