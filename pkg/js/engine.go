// Package js runs document scripts with goja. Scripts see a small DOM
// (document, elements, inline style), 2D contexts for <canvas> elements,
// and a domtoimage global that captures elements through the snapshot
// pipeline.
package js

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dop251/goja"

	"domsnap/pkg/canvas"
	"domsnap/pkg/html"
	"domsnap/pkg/logging"
	"domsnap/pkg/snapshot"
)

// Host is the live document scripts run against. Without a host, scripts
// still see the DOM but have no canvas contexts, layout or captures.
type Host interface {
	snapshot.Host
	// Canvas returns the surface behind a <canvas> element.
	Canvas(n *html.Node) *canvas.Canvas
	// Reflow starts loads for images added by scripts and brings layout
	// up to date with script mutations.
	Reflow(ctx context.Context)
}

// Engine executes JavaScript against an HTML document's DOM.
type Engine struct {
	vm   *goja.Runtime
	host Host
	log  *slog.Logger
	ctx  context.Context
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an engine with a fresh goja runtime. host may be nil.
func New(host Host, opts ...Option) *Engine {
	e := &Engine{vm: goja.New(), host: host, ctx: context.Background()}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logging.Logger()
	}
	registerConsole(e.vm, e.log)
	return e
}

// Execute runs the document's scripts in order and stops at the first one
// that throws. ctx interrupts a running script and bounds captures.
func (e *Engine) Execute(ctx context.Context, doc *html.Document) error {
	e.ctx = ctx
	defer func() { e.ctx = context.Background() }()
	stop := context.AfterFunc(ctx, func() { e.vm.Interrupt(ctx.Err()) })
	defer stop()

	dc := registerDocument(ctx, e.vm, doc, e.host)
	if e.host != nil {
		registerCapture(e, dc)
	}
	for i, script := range doc.Scripts {
		if _, err := e.vm.RunString(script); err != nil {
			return fmt.Errorf("script %d: %w", i, err)
		}
		e.log.Debug("js: script done", "index", i)
	}
	return nil
}
