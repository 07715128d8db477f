package js

import (
	"github.com/dop251/goja"

	"domsnap/pkg/snapshot"
)

// registerCapture installs the domtoimage global. Its functions take an
// element or a selector and an optional options object with
// backgroundColor, scale and quality, and return data: URIs synchronously.
func registerCapture(e *Engine, dc *domContext) {
	vm := e.vm
	obj := vm.NewObject()

	pipeline := func(call goja.FunctionCall) *snapshot.Pipeline {
		var cfg snapshot.Config
		target := call.Argument(0)
		if n := dc.unwrapNode(target); n != nil {
			cfg.RootNode = n
		} else {
			cfg.Root = target.String()
		}
		var opts []snapshot.Option
		if o, ok := call.Argument(1).(*goja.Object); ok {
			if v := o.Get("backgroundColor"); v != nil && !goja.IsUndefined(v) {
				cfg.BackgroundColor = v.String()
			}
			if v := o.Get("scale"); v != nil && !goja.IsUndefined(v) {
				cfg.Scale = number(v)
			}
			if v := o.Get("quality"); v != nil && !goja.IsUndefined(v) {
				opts = append(opts, snapshot.WithJPEGQuality(number(v)))
			}
		}
		opts = append(opts, snapshot.WithLogger(e.log))
		e.host.Reflow(e.ctx)
		return snapshot.New(e.host, cfg, opts...)
	}
	check := func(err error) {
		if err != nil {
			panic(vm.NewGoError(err))
		}
	}
	str := func(f func(p *snapshot.Pipeline) (string, error)) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			s, err := f(pipeline(call))
			check(err)
			return vm.ToValue(s)
		}
	}

	obj.Set("toPng", str(func(p *snapshot.Pipeline) (string, error) { return p.ToPng(e.ctx) }))
	obj.Set("toJpeg", str(func(p *snapshot.Pipeline) (string, error) { return p.ToJpeg(e.ctx) }))
	obj.Set("toSvg", str(func(p *snapshot.Pipeline) (string, error) { return p.ToSvgString(e.ctx) }))
	obj.Set("toMultiPic", func(call goja.FunctionCall) goja.Value {
		selector, format := call.Argument(1).String(), "png"
		if f := call.Argument(2); !goja.IsUndefined(f) {
			format = f.String()
		}
		p := pipeline(goja.FunctionCall{Arguments: []goja.Value{call.Argument(0), call.Argument(3)}})
		regions, err := p.ToMultiPic(e.ctx, selector, format)
		check(err)
		out := make([]interface{}, len(regions))
		for i, r := range regions {
			ro := vm.NewObject()
			ro.Set("left", r.Left)
			ro.Set("top", r.Top)
			ro.Set("width", r.Width)
			ro.Set("height", r.Height)
			ro.Set("uri", r.URI)
			out[i] = ro
		}
		return vm.NewArray(out...)
	})
	vm.Set("domtoimage", obj)
}
