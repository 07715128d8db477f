package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func testPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// createTestPNGDataURI creates a small 2x2 red PNG as a data URI.
func createTestPNGDataURI(t *testing.T) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(testPNG(t, 2, 2, color.RGBA{255, 0, 0, 255}))
}

func TestIsDataURI(t *testing.T) {
	if !IsDataURI("data:image/png;base64,abc") {
		t.Error("expected true for data URI")
	}
	if IsDataURI("/path/to/file.png") {
		t.Error("expected false for file path")
	}
	if IsDataURI("") {
		t.Error("expected false for empty string")
	}
}

func TestLoadImageFromDataURI(t *testing.T) {
	img, err := LoadImageFromDataURI(createTestPNGDataURI(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 2 || bounds.Dy() != 2 {
		t.Errorf("expected 2x2 image, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestLoadImageFromDataURI_Invalid(t *testing.T) {
	tests := []string{
		"not-a-data-uri",
		"data:image/png;base64", // no comma
		"data:image/png;base64,!!!invalid-base64!!!",
		"data:image/png;base64,aGVsbG8=", // valid base64 but not an image
	}
	for _, uri := range tests {
		if _, err := LoadImageFromDataURI(uri); err == nil {
			t.Errorf("expected error for %q", uri)
		}
	}
}

func TestImageCacheReusesDecodedImage(t *testing.T) {
	uri := createTestPNGDataURI(t)
	cache := NewImageCache()
	img, err := cache.Load(context.Background(), DefaultFetcher{}, uri)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Second call should hit cache
	img2, err := cache.Load(context.Background(), DefaultFetcher{}, uri)
	if err != nil {
		t.Fatalf("unexpected error on cached load: %v", err)
	}
	if img != img2 {
		t.Error("expected cached image to be the same pointer")
	}
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Errorf("expected 2x2, got %v", b)
	}
}

func TestParseDataURI(t *testing.T) {
	tests := []struct {
		uri, mediaType, data string
	}{
		{"data:,hello", "text/plain", "hello"},
		{"data:text/plain;charset=utf-8,a%20b", "text/plain", "a b"},
		{"data:image/svg+xml;charset=utf-8,<svg>%23x%0A</svg>", "image/svg+xml", "<svg>#x\n</svg>"},
		{"data:text/plain,100%", "text/plain", "100%"},
		{"data:text/plain,50%zz", "text/plain", "50%zz"},
		{"data:text/plain;base64,aGVs bG8=", "text/plain", "hello"},
		{"data:text/plain;base64,aGVsbG8", "text/plain", "hello"},
	}
	for _, tt := range tests {
		mt, data, err := ParseDataURI(tt.uri)
		if err != nil {
			t.Errorf("ParseDataURI(%q): %v", tt.uri, err)
			continue
		}
		if mt != tt.mediaType || string(data) != tt.data {
			t.Errorf("ParseDataURI(%q) = %q, %q", tt.uri, mt, data)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 4))
	img.Set(1, 1, color.RGBA{0, 0, 255, 255})

	for _, mime := range []string{"image/png", "image/jpeg"} {
		uri, err := ToDataURL(img, mime, 0)
		if err != nil {
			t.Fatalf("%s: %v", mime, err)
		}
		mt, data, err := ParseDataURI(uri)
		if err != nil || mt != mime {
			t.Fatalf("%s: bad data URI %q (%v)", mime, mt, err)
		}
		decoded, format, err := Decode(data)
		if err != nil {
			t.Fatalf("%s: %v", mime, err)
		}
		if "image/"+format != mime {
			t.Errorf("expected %s, decoded as %s", mime, format)
		}
		if b := decoded.Bounds(); b.Dx() != 3 || b.Dy() != 4 {
			t.Errorf("%s: expected 3x4, got %v", mime, b)
		}
	}
}

func TestToDataURL_UnknownMimeIsPNG(t *testing.T) {
	uri, err := ToDataURL(image.NewRGBA(image.Rect(0, 0, 1, 1)), "image/webp", 0)
	if err != nil {
		t.Fatal(err)
	}
	if mt, _, _ := ParseDataURI(uri); mt != "image/png" {
		t.Errorf("expected png fallback, got %s", mt)
	}
}

func TestIsSVG(t *testing.T) {
	if !IsSVG("image/svg+xml", nil) {
		t.Error("media type should be enough")
	}
	if !IsSVG("", []byte(`  <?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"/>`)) {
		t.Error("markup should be sniffed")
	}
	if IsSVG("image/png", testPNG(t, 1, 1, color.White)) {
		t.Error("png is not svg")
	}
}

func TestDefaultFetcher(t *testing.T) {
	pngData := testPNG(t, 5, 6, color.White)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.png"), pngData, 0o644); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngData)
	}))
	defer srv.Close()

	ctx := context.Background()
	cache := NewImageCache()
	for _, tc := range []struct {
		name    string
		fetcher Fetcher
		src     string
	}{
		{"relative file", DefaultFetcher{BaseDir: dir}, "a.png"},
		{"absolute file", DefaultFetcher{}, "file://" + filepath.Join(dir, "a.png")},
		{"http", DefaultFetcher{}, srv.URL + "/a.png"},
		{"relative to base URL", DefaultFetcher{BaseURL: srv.URL + "/page.html"}, "img/a.png"},
	} {
		img, err := cache.Load(ctx, tc.fetcher, tc.src)
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if b := img.Bounds(); b.Dx() != 5 || b.Dy() != 6 {
			t.Errorf("%s: expected 5x6, got %v", tc.name, b)
		}
	}

	if _, err := cache.Load(ctx, DefaultFetcher{BaseDir: dir}, "missing.png"); err == nil {
		t.Error("expected an error for a missing file")
	}
	if _, err := cache.Load(ctx, DefaultFetcher{}, "data:image/svg+xml,<svg></svg>"); err == nil {
		t.Error("expected svg to be rejected as a raster image")
	}
}
