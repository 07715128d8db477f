package page

import (
	"context"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"domsnap/pkg/images"
)

func pngBytes(t *testing.T, w, h int, col color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, col)
		}
	}
	data, err := images.Encode(img, "image/png", 0)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func newPage(t *testing.T, markup string, opts ...Option) *Page {
	t.Helper()
	p, err := New(context.Background(), markup, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func waitImages(t *testing.T, p *Page) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.WaitForImages(ctx); err != nil {
		t.Fatal(err)
	}
}

func rgba(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestLayoutQueries(t *testing.T) {
	p := newPage(t, `<div id="a" style="width: 100px; height: 50px"></div><div id="b" style="height: 10px"></div>`,
		WithViewport(300, 200))

	tests := []struct {
		id                  string
		x, y, width, height float64
	}{
		{"a", 0, 0, 100, 50},
		{"b", 0, 50, 300, 10},
	}
	for _, tt := range tests {
		n, err := p.QuerySelector("#" + tt.id)
		if err != nil || n == nil {
			t.Fatalf("QuerySelector(#%s) = %v, %v", tt.id, n, err)
		}
		r := p.BoundingClientRect(n)
		if r.X != tt.x || r.Y != tt.y || r.Width != tt.width || r.Height != tt.height {
			t.Errorf("#%s rect = %+v", tt.id, r)
		}
	}
	if w, h := p.Size(); w != 300 || h != 200 {
		t.Errorf("Size() = %vx%v, want the viewport", w, h)
	}
}

func TestComputedStyleUsesUsedSize(t *testing.T) {
	p := newPage(t, `<div id="content" style="width: 50%; padding: 10px; height: 20px"></div>`+
		`<div id="border" style="box-sizing: border-box; width: 50%; padding: 10px"></div>`,
		WithViewport(200, 100))

	tests := []struct {
		id, width, height string
	}{
		{"content", "100px", "20px"},
		{"border", "100px", "20px"},
	}
	for _, tt := range tests {
		s := p.ComputedStyle(p.Document().Root.ElementByID(tt.id))
		if s == nil {
			t.Fatalf("#%s has no computed style", tt.id)
		}
		if got := s.Value("width"); got != tt.width {
			t.Errorf("#%s width = %q, want %q", tt.id, got, tt.width)
		}
		if got := s.Value("height"); got != tt.height {
			t.Errorf("#%s height = %q, want %q", tt.id, got, tt.height)
		}
	}
}

func TestScripts(t *testing.T) {
	markup := `<div id="root" style="width: 20px; height: 10px; background-color: red"></div>` +
		`<div id="holder"></div><canvas id="c" width="4" height="4"></canvas>` +
		`<script>
			var added = document.createElement("p");
			added.id = "added";
			document.getElementById("holder").appendChild(added);
			var ctx = document.getElementById("c").getContext("2d");
			ctx.fillStyle = "blue";
			ctx.fillRect(0, 0, 4, 4);
			document.getElementById("root").setAttribute("data-uri", domtoimage.toPng("#root"));
		</script>`

	p := newPage(t, markup)
	doc := p.Document()
	if doc.Root.ElementByID("added") == nil {
		t.Error("script mutation missing")
	}
	if got := rgba(p.Canvas(doc.Root.ElementByID("c")).Bitmap(), 2, 2); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("canvas pixel = %v, want blue", got)
	}
	uri, _ := doc.Root.ElementByID("root").GetAttribute("data-uri")
	img, err := images.LoadImageFromDataURI(uri)
	if err != nil {
		t.Fatalf("capture from script: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Errorf("capture size = %v, want 40x20", b.Size())
	}

	quiet := newPage(t, markup, WithoutScripts())
	if quiet.Document().Root.ElementByID("added") != nil {
		t.Error("scripts ran despite WithoutScripts")
	}
}

func TestScriptCapturesScriptCreatedImage(t *testing.T) {
	src := images.EncodeDataURI("image/png", pngBytes(t, 6, 4, color.RGBA{0, 255, 0, 255}))
	markup := `<div id="root" style="width: 20px"></div><div id="out"></div>` +
		`<script>
			var img = document.createElement("img");
			img.setAttribute("src", "` + src + `");
			document.getElementById("root").appendChild(img);
			document.getElementById("out").setAttribute("data-uri", domtoimage.toPng("#root", {scale: 1}));
		</script>`

	p := newPage(t, markup)
	doc := p.Document()
	img := doc.Root.ElementByID("root").Children[0]
	if img.Image == nil || !img.Image.Complete() {
		t.Fatal("script-created image has no settled load state")
	}
	uri, ok := doc.Root.ElementByID("out").GetAttribute("data-uri")
	if !ok {
		t.Fatal("capture from script failed")
	}
	shot, err := images.LoadImageFromDataURI(uri)
	if err != nil {
		t.Fatal(err)
	}
	if b := shot.Bounds(); b.Dx() != 20 || b.Dy() < 4 {
		t.Errorf("capture size = %v, want 20 wide and at least the image's height", b.Size())
	}
}

func TestScriptErrorDoesNotFailPage(t *testing.T) {
	p := newPage(t, `<p id="x">text</p><script>throw new Error("boom")</script>`)
	if p.Document().Root.ElementByID("x") == nil {
		t.Error("document lost after script error")
	}
}

func TestCanvasBacking(t *testing.T) {
	p := newPage(t, `<canvas id="sized" width="20" height="10"></canvas><canvas id="plain"></canvas><div id="d"></div>`)
	doc := p.Document()
	tests := []struct {
		id   string
		w, h int
	}{
		{"sized", 20, 10},
		{"plain", 300, 150},
	}
	for _, tt := range tests {
		c := p.Canvas(doc.Root.ElementByID(tt.id))
		if c == nil || c.Width() != tt.w || c.Height() != tt.h {
			t.Errorf("#%s canvas = %v", tt.id, c)
		}
	}
	if p.Canvas(doc.Root.ElementByID("d")) != nil {
		t.Error("div has a canvas")
	}
}

func TestImageLoadRelayouts(t *testing.T) {
	data := pngBytes(t, 30, 20, color.RGBA{0, 255, 0, 255})
	fetcher := images.FetcherFunc(func(ctx context.Context, src string) ([]byte, string, error) {
		return data, "image/png", nil
	})
	p := newPage(t, `<img id="pic" src="pic.png">`, WithFetcher(fetcher))
	waitImages(t, p)

	n := p.Document().Root.ElementByID("pic")
	if !n.Image.Complete() {
		t.Fatal("image not complete after WaitForImages")
	}
	if r := p.BoundingClientRect(n); r.Width != 30 || r.Height != 20 {
		t.Errorf("rect = %+v, want the natural 30x20", r)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"index.html": []byte(`<link rel="stylesheet" href="site.css"><div id="root"><img src="pic.png"></div>`),
		"site.css":   []byte(`#root { height: 40px; background-color: red }`),
		"pic.png":    pngBytes(t, 3, 2, color.RGBA{0, 0, 255, 255}),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	p, err := Load(context.Background(), filepath.Join(dir, "index.html"), WithViewport(100, 50))
	if err != nil {
		t.Fatal(err)
	}
	waitImages(t, p)
	root := p.Document().Root.ElementByID("root")
	if r := p.BoundingClientRect(root); r.Height != 40 {
		t.Errorf("root height = %v, want 40 from the linked stylesheet", r.Height)
	}
	img := root.Children[0]
	if _, err := img.Image.Result(); err != nil {
		t.Fatalf("image: %v", err)
	}
	if w, h := img.Image.NaturalSize(); w != 3 || h != 2 {
		t.Errorf("natural size = %dx%d", w, h)
	}

	if _, err := Load(context.Background(), filepath.Join(dir, "missing.html")); err == nil {
		t.Error("missing file loaded")
	}
}

func TestLoadFromURL(t *testing.T) {
	pic := pngBytes(t, 5, 5, color.RGBA{255, 0, 0, 255})
	mux := http.NewServeMux()
	mux.HandleFunc("/docs/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<div id="root"><img src="img/pic.png"></div>`))
	})
	mux.HandleFunc("/docs/img/pic.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pic)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p, err := Load(context.Background(), srv.URL+"/docs/index.html")
	if err != nil {
		t.Fatal(err)
	}
	waitImages(t, p)
	img := p.Document().Root.ElementByID("root").Children[0]
	if w, _ := img.Image.NaturalSize(); w != 5 {
		t.Errorf("natural width = %d, want 5", w)
	}
}

func TestRender(t *testing.T) {
	p := newPage(t, `<div style="width: 10px; height: 10px; background-color: red"></div>`, WithViewport(40, 20))
	img := p.Render(2)
	if b := img.Bounds(); b.Dx() != 80 || b.Dy() != 40 {
		t.Fatalf("render size = %v, want 80x40", b.Size())
	}
	if got := rgba(img, 10, 10); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("box pixel = %v, want red", got)
	}
	if got := rgba(img, 60, 30); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("page pixel = %v, want white", got)
	}
}

func TestShorten(t *testing.T) {
	long := "data:image/png;base64," + strings.Repeat("A", 100)
	if got := shorten(long); len(got) != 51 || !strings.HasSuffix(got, "...") {
		t.Errorf("shorten = %q", got)
	}
}
