package svg

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"domsnap/pkg/images"
)

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestDecodeSize(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		wantW float64
		wantH float64
	}{
		{"attributes", `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="10"></svg>`, 20, 10},
		{"px attributes", `<svg width="20px" height="10px"></svg>`, 20, 10},
		{"viewBox", `<svg viewBox="0 0 64 32"></svg>`, 64, 32},
		{"default", `<svg></svg>`, DefaultWidth, DefaultHeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(context.Background(), []byte(tt.src))
			if err != nil {
				t.Fatal(err)
			}
			if w, h := img.Size(); w != tt.wantW || h != tt.wantH {
				t.Errorf("size = %vx%v, want %vx%v", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestDecodeRejectsNonSVG(t *testing.T) {
	for _, src := range []string{`<html></html>`, ``, `just text`} {
		if _, err := Decode(context.Background(), []byte(src)); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", src)
		}
	}
}

const foreignDoc = `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="10">` +
	`<foreignObject x="0" y="0" width="100%" height="100%">` +
	`<div xmlns="http://www.w3.org/1999/xhtml" style="display:block;width:10px;height:10px;background-color:red"></div>` +
	`</foreignObject></svg>`

func TestForeignObjectIsParsed(t *testing.T) {
	img, err := Decode(context.Background(), []byte(foreignDoc))
	if err != nil {
		t.Fatal(err)
	}
	objs := img.ForeignObjects()
	if len(objs) != 1 {
		t.Fatalf("got %d foreign objects, want 1", len(objs))
	}
	fo := objs[0]
	if fo.Width != 20 || fo.Height != 10 {
		t.Errorf("foreignObject size = %vx%v, want 20x10", fo.Width, fo.Height)
	}
	divs := fo.Document.Root.ElementsByTagName("div")
	if len(divs) != 1 {
		t.Fatalf("got %d divs, want 1", len(divs))
	}
	if img.shapes != nil {
		t.Error("a foreignObject-only image should have no shapes")
	}
}

func TestRasterizeForeignObjectAtDeviceScale(t *testing.T) {
	img, err := Decode(context.Background(), []byte(foreignDoc))
	if err != nil {
		t.Fatal(err)
	}
	bitmap, err := img.Rasterize(40, 20)
	if err != nil {
		t.Fatal(err)
	}
	if b := bitmap.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("bitmap %v, want 40x20", b.Size())
	}
	if got := rgbaAt(bitmap, 15, 15); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("inside the div = %v, want red", got)
	}
	if got := rgbaAt(bitmap, 30, 10); got.A != 0 {
		t.Errorf("outside the div = %v, want transparent", got)
	}
}

func TestRasterizeShapes(t *testing.T) {
	src := `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10" viewBox="0 0 10 10">` +
		`<rect x="0" y="0" width="10" height="10" fill="blue"/></svg>`
	bitmap, err := Rasterize(context.Background(), []byte(src), 2)
	if err != nil {
		t.Fatal(err)
	}
	if b := bitmap.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Fatalf("bitmap %v, want 20x20", b.Size())
	}
	if got := rgbaAt(bitmap, 10, 10); got.B < 250 || got.A < 250 {
		t.Errorf("center = %v, want blue", got)
	}
}

func TestForeignObjectImagesLoad(t *testing.T) {
	var buf bytes.Buffer
	pixel := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range pixel.Pix {
		pixel.Pix[i] = 255
	}
	if err := png.Encode(&buf, pixel); err != nil {
		t.Fatal(err)
	}
	uri := images.EncodeDataURI("image/png", buf.Bytes())
	src := `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><foreignObject width="100%" height="100%">` +
		`<div xmlns="http://www.w3.org/1999/xhtml"><img src="` + uri + `"/><img src="http://example.invalid/x.png"/></div>` +
		`</foreignObject></svg>`

	img, err := Decode(context.Background(), []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	imgs := img.ForeignObjects()[0].Document.Root.ElementsByTagName("img")
	if len(imgs) != 2 {
		t.Fatalf("got %d images, want 2", len(imgs))
	}
	if w, h := imgs[0].Image.NaturalSize(); w != 4 || h != 4 {
		t.Errorf("data image size = %dx%d, want 4x4", w, h)
	}
	if _, err := imgs[1].Image.Result(); err == nil || !strings.Contains(err.Error(), "not loaded") {
		t.Errorf("remote image without a fetcher: err = %v, want not loaded", err)
	}
}

func TestForeignObjectImagesShareCache(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatal(err)
	}
	fetches := 0
	fetcher := images.FetcherFunc(func(ctx context.Context, src string) ([]byte, string, error) {
		fetches++
		return buf.Bytes(), "image/png", nil
	})
	src := `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><foreignObject width="100%" height="100%">` +
		`<div xmlns="http://www.w3.org/1999/xhtml"><img src="pic.png"/><img src="pic.png"/></div>` +
		`</foreignObject></svg>`

	img, err := Decode(context.Background(), []byte(src), WithFetcher(fetcher))
	if err != nil {
		t.Fatal(err)
	}
	if fetches != 1 {
		t.Errorf("fetches = %d, want 1", fetches)
	}
	for _, n := range img.ForeignObjects()[0].Document.Root.ElementsByTagName("img") {
		if w, h := n.Image.NaturalSize(); w != 3 || h != 2 {
			t.Errorf("image size = %dx%d, want 3x2", w, h)
		}
	}
}

func TestForeignObjectStyleIsDecoded(t *testing.T) {
	src := `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><foreignObject width="100%" height="100%">` +
		`<div xmlns="http://www.w3.org/1999/xhtml"><style>div &gt; p { color: red }</style><p>x</p></div>` +
		`</foreignObject></svg>`

	img, err := Decode(context.Background(), []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	sheets := img.ForeignObjects()[0].Document.Stylesheets
	if len(sheets) != 1 || sheets[0] != "div > p { color: red }" {
		t.Errorf("stylesheets = %q", sheets)
	}
}
