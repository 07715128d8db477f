package canvas

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"domsnap/pkg/images"
)

func at(c *Canvas, x, y int) color.RGBA {
	return color.RGBAModel.Convert(c.Bitmap().At(x, y)).(color.RGBA)
}

func solid(w, h int, col color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, col)
		}
	}
	return img
}

var (
	red   = color.RGBA{255, 0, 0, 255}
	green = color.RGBA{0, 255, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

func TestFillRectHonoursScale(t *testing.T) {
	c := New(20, 20)
	c.Scale(2, 2)
	if err := c.SetFillStyle("red"); err != nil {
		t.Fatal(err)
	}
	c.FillRect(0, 0, 5, 5)

	if got := at(c, 9, 9); got != red {
		t.Errorf("pixel (9,9) = %v, want red", got)
	}
	if got := at(c, 11, 11); got.A != 0 {
		t.Errorf("pixel (11,11) = %v, want transparent", got)
	}
}

func TestSaveRestore(t *testing.T) {
	c := New(10, 10)
	c.Save()
	c.Translate(5, 5)
	_ = c.SetFillStyle("blue")
	c.Restore()
	c.FillRect(0, 0, 2, 2)
	if got := at(c, 1, 1); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("pixel = %v, want black at the untranslated origin", got)
	}
	c.Restore() // unbalanced
}

func TestClearRect(t *testing.T) {
	c := New(10, 10)
	c.FillAll(red)
	c.ClearRect(2, 2, 4, 4)
	if got := at(c, 3, 3); got.A != 0 {
		t.Errorf("cleared pixel = %v, want transparent", got)
	}
	if got := at(c, 8, 8); got != red {
		t.Errorf("untouched pixel = %v, want red", got)
	}
}

func TestDrawImageNineArgumentCrop(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			if x < 2 {
				src.SetRGBA(x, y, red)
			} else {
				src.SetRGBA(x, y, green)
			}
		}
	}

	tests := []struct {
		name           string
		scale          float64
		sx, sy, sw, sh float64
		dx, dy, dw, dh float64
		size           int
		probeX, probeY int
		want           color.RGBA
	}{
		{"right half 1:1", 1, 2, 0, 2, 2, 0, 0, 2, 2, 2, 1, 1, green},
		{"left half 1:1", 1, 0, 0, 2, 2, 0, 0, 2, 2, 2, 1, 1, red},
		{"offset destination", 1, 2, 0, 2, 2, 3, 3, 2, 2, 6, 4, 4, green},
		{"scaled canvas copies device pixels", 2, 4, 0, 4, 4, 0, 0, 2, 2, 4, 3, 3, green},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.size, tt.size)
			c.Scale(tt.scale, tt.scale)
			img := src
			if tt.scale == 2 {
				// A source already at device resolution.
				img = image.NewRGBA(image.Rect(0, 0, 8, 4))
				for y := 0; y < 4; y++ {
					for x := 0; x < 8; x++ {
						img.SetRGBA(x, y, src.RGBAAt(x/2, y/2))
					}
				}
			}
			c.DrawImage(img, tt.sx, tt.sy, tt.sw, tt.sh, tt.dx, tt.dy, tt.dw, tt.dh)
			if got := at(c, tt.probeX, tt.probeY); got != tt.want {
				t.Errorf("probe = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDrawImageStretches(t *testing.T) {
	c := New(8, 8)
	c.DrawImage(solid(2, 2, blue), 0, 0, 2, 2, 0, 0, 8, 8)
	for _, p := range []image.Point{{1, 1}, {4, 4}, {6, 6}} {
		if got := at(c, p.X, p.Y); got.B < 250 || got.A < 250 {
			t.Errorf("pixel %v = %v, want blue", p, got)
		}
	}
}

type fakeVector struct {
	w, h      float64
	requested image.Point
}

func (v *fakeVector) Size() (float64, float64) { return v.w, v.h }

func (v *fakeVector) Rasterize(w, h int) (image.Image, error) {
	v.requested = image.Pt(w, h)
	return solid(w, h, green), nil
}

func TestDrawVectorRendersAtDeviceResolution(t *testing.T) {
	c := New(200, 100)
	c.Scale(2, 2)
	v := &fakeVector{w: 100, h: 50}
	if err := c.DrawVector(v, 0, 0, 100, 50, 0, 0, 100, 50); err != nil {
		t.Fatal(err)
	}
	if v.requested != image.Pt(200, 100) {
		t.Errorf("vector rasterized at %v, want 200x100", v.requested)
	}
	if got := at(c, 199, 99); got != green {
		t.Errorf("corner pixel = %v, want green", got)
	}
}

func TestToDataURL(t *testing.T) {
	c := New(3, 2)
	uri, err := c.ToDataURL("image/png", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("uri = %.40s", uri)
	}
	img, err := images.LoadImageFromDataURI(uri)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("decoded size = %v, want 3x2", b.Size())
	}
}

func TestSetFont(t *testing.T) {
	tests := []struct {
		in      string
		size    float64
		bold    bool
		wantErr bool
	}{
		{"16px sans-serif", 16, false, false},
		{"bold 12.5px serif", 12.5, true, false},
		{"large serif", 0, false, true},
	}
	for _, tt := range tests {
		c := New(1, 1)
		err := c.SetFont(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("SetFont(%q) error = %v", tt.in, err)
			continue
		}
		if tt.wantErr {
			continue
		}
		if c.fontSize != tt.size || c.fontStyle.Bold != tt.bold {
			t.Errorf("SetFont(%q) = %v bold=%v", tt.in, c.fontSize, c.fontStyle.Bold)
		}
	}
}

func TestFillTextInks(t *testing.T) {
	c := New(60, 30)
	_ = c.SetFont("20px sans-serif")
	if err := c.FillText("Hi", 2, 22); err != nil {
		t.Fatal(err)
	}
	inked := false
	for y := 0; y < 30 && !inked; y++ {
		for x := 0; x < 60; x++ {
			if at(c, x, y).A > 0 {
				inked = true
				break
			}
		}
	}
	if !inked {
		t.Error("FillText drew nothing")
	}
}
