package snapshot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"

	"domsnap/pkg/canvas"
	"domsnap/pkg/images"
	"domsnap/pkg/logging"
	"domsnap/pkg/svg"
)

// Draw places a source rectangle on a destination surface. Destination
// values are in CSS pixels; source values are in the source's own units.
// A zero SrcWidth or SrcHeight defaults to the destination size.
type Draw struct {
	DestWidth, DestHeight float64
	DestX, DestY          float64
	SrcWidth, SrcHeight   float64
	SrcX, SrcY            float64
}

func (d Draw) withDefaults() Draw {
	if d.SrcWidth == 0 {
		d.SrcWidth = d.DestWidth
	}
	if d.SrcHeight == 0 {
		d.SrcHeight = d.DestHeight
	}
	return d
}

// Rasterizer turns data strings into pixel surfaces supersampled by Scale.
type Rasterizer struct {
	Scale   float64
	Fetcher images.Fetcher
	Log     *slog.Logger
}

func (r *Rasterizer) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return logging.Logger()
}

// source is a loaded image handle: exactly one of bitmap and vector is set.
type source struct {
	bitmap image.Image
	vector *svg.Image
}

type loadResult struct {
	src source
	err error
}

// Rasterize loads src and draws it onto a new surface of
// ceil(DestWidth*Scale) x ceil(DestHeight*Scale) pixels.
func (r *Rasterizer) Rasterize(ctx context.Context, src string, d Draw) (*canvas.Canvas, error) {
	if strings.Contains(src, "svg+xml") {
		r.logger().Debug("snapshot: rasterizing vector source", "bytes", len(src))
	}
	s, err := r.load(ctx, src)
	if err != nil {
		return nil, err
	}
	return r.draw(s, d)
}

// DrawBitmap draws an already decoded image.
func (r *Rasterizer) DrawBitmap(img image.Image, d Draw) (*canvas.Canvas, error) {
	return r.draw(source{bitmap: img}, d)
}

// load decodes src on its own goroutine and waits for it, or for ctx.
func (r *Rasterizer) load(ctx context.Context, src string) (source, error) {
	done := make(chan loadResult, 1)
	go func() {
		s, err := r.decode(ctx, src)
		done <- loadResult{s, err}
	}()
	select {
	case res := <-done:
		if res.err != nil {
			return source{}, &RasterLoadError{Err: res.err}
		}
		return res.src, nil
	case <-ctx.Done():
		return source{}, fmt.Errorf("snapshot: loading raster source: %w", ctx.Err())
	}
}

func (r *Rasterizer) decode(ctx context.Context, src string) (source, error) {
	var (
		data      []byte
		mediaType string
		err       error
	)
	switch {
	case images.IsDataURI(src):
		mediaType, data, err = images.ParseDataURI(src)
	case r.Fetcher != nil:
		data, mediaType, err = r.Fetcher.Fetch(ctx, src)
	default:
		err = errors.New("no fetcher for non-data source")
	}
	if err != nil {
		return source{}, err
	}
	if images.IsSVG(mediaType, data) {
		var opts []svg.Option
		if r.Fetcher != nil {
			opts = append(opts, svg.WithFetcher(r.Fetcher))
		}
		v, err := svg.Decode(ctx, data, opts...)
		if err != nil {
			return source{}, err
		}
		return source{vector: v}, nil
	}
	img, _, err := images.Decode(data)
	if err != nil {
		return source{}, err
	}
	return source{bitmap: img}, nil
}

func (r *Rasterizer) draw(s source, d Draw) (*canvas.Canvas, error) {
	d = d.withDefaults()
	scale := r.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	w := max(int(math.Ceil(d.DestWidth*scale)), 1)
	h := max(int(math.Ceil(d.DestHeight*scale)), 1)
	c := canvas.New(w, h)
	c.Scale(scale, scale)

	if s.vector != nil {
		if err := c.DrawVector(s.vector, d.SrcX, d.SrcY, d.SrcWidth, d.SrcHeight, d.DestX, d.DestY, d.DestWidth, d.DestHeight); err != nil {
			return nil, &RasterLoadError{Err: err}
		}
	} else {
		c.DrawImage(s.bitmap, d.SrcX, d.SrcY, d.SrcWidth, d.SrcHeight, d.DestX, d.DestY, d.DestWidth, d.DestHeight)
	}
	r.logger().Debug("snapshot: surface drawn", "width", w, "height", h, "scale", scale)
	return c, nil
}
