package snapshot

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"domsnap/pkg/canvas"
	"domsnap/pkg/images"
)

func solidURI(t *testing.T, w, h int, col color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, col)
		}
	}
	uri, err := images.ToDataURL(img, "image/png", 0)
	if err != nil {
		t.Fatal(err)
	}
	return uri
}

func rgba(c *canvas.Canvas, x, y int) color.RGBA {
	return color.RGBAModel.Convert(c.Bitmap().At(x, y)).(color.RGBA)
}

func TestRasterizeSurfaceSize(t *testing.T) {
	src := solidURI(t, 4, 4, color.RGBA{0, 0, 255, 255})
	tests := []struct {
		name  string
		scale float64
		d     Draw
		w, h  int
	}{
		{"scale 2", 2, Draw{DestWidth: 10, DestHeight: 5}, 20, 10},
		{"fractional size rounds up", 2, Draw{DestWidth: 10.2, DestHeight: 5}, 21, 10},
		{"default scale", 0, Draw{DestWidth: 3, DestHeight: 3}, 6, 6},
		{"empty destination", 2, Draw{}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Rasterizer{Scale: tt.scale}
			c, err := r.Rasterize(context.Background(), src, tt.d)
			if err != nil {
				t.Fatal(err)
			}
			if c.Width() != tt.w || c.Height() != tt.h {
				t.Errorf("surface = %dx%d, want %dx%d", c.Width(), c.Height(), tt.w, tt.h)
			}
		})
	}
}

func TestRasterizeCropsSource(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			if x < 2 {
				img.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{0, 255, 0, 255})
			}
		}
	}
	uri, err := images.ToDataURL(img, "image/png", 0)
	if err != nil {
		t.Fatal(err)
	}
	r := &Rasterizer{Scale: 2}
	c, err := r.Rasterize(context.Background(), uri, Draw{
		DestWidth: 1, DestHeight: 1,
		SrcX: 2, SrcWidth: 2, SrcHeight: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := rgba(c, 1, 1); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("cropped pixel = %v, want green", got)
	}
}

func TestRasterizeVector(t *testing.T) {
	src := VectorPrefix + `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10">` +
		`<rect width="10" height="10" fill="blue"/></svg>`
	c, err := (&Rasterizer{Scale: 3}).Rasterize(context.Background(), src, Draw{DestWidth: 10, DestHeight: 10})
	if err != nil {
		t.Fatal(err)
	}
	if c.Width() != 30 {
		t.Errorf("width = %d, want 30", c.Width())
	}
	if got := rgba(c, 15, 15); got.B < 250 || got.A < 250 {
		t.Errorf("centre = %v, want blue", got)
	}
}

func TestRasterizeLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"malformed svg", VectorPrefix + "<html><body></body></html>"},
		{"corrupt png", "data:image/png;base64,AAAA"},
		{"remote without fetcher", "http://example.com/a.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Rasterizer{Scale: 1}).Rasterize(context.Background(), tt.src, Draw{DestWidth: 1, DestHeight: 1})
			var rle *RasterLoadError
			if !errors.As(err, &rle) {
				t.Fatalf("err = %v, want RasterLoadError", err)
			}
		})
	}
}

func TestRasterizeHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	r := &Rasterizer{
		Scale: 1,
		Fetcher: images.FetcherFunc(func(ctx context.Context, src string) ([]byte, string, error) {
			<-release
			return nil, "", errors.New("released")
		}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Rasterize(ctx, "http://example.com/slow.png", Draw{DestWidth: 1, DestHeight: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
