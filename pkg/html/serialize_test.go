package html

import (
	"encoding/xml"
	"io"
	"strings"
	"testing"
)

func TestSerializeVoidElement(t *testing.T) {
	n := NewElement("div")
	n.AddChild(NewElement("br"))
	if got := n.Serialize(); got != "<br>" {
		t.Errorf("Serialize() = %q, want %q", got, "<br>")
	}
}

func TestSerializeEscaping(t *testing.T) {
	n := NewElement("p")
	n.AppendText(`<b>"hello" & 'world'</b>`)
	want := `&lt;b&gt;"hello" &amp; 'world'&lt;/b&gt;`
	if got := n.Serialize(); got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerializeXHTML(t *testing.T) {
	div := NewElement("div")
	div.SetAttribute("xmlns", XHTMLNamespace)
	div.SetAttribute("style", `font-family: "Go"; width: 10px`)
	img := NewElement("img")
	img.SetAttribute("src", "data:image/png;base64,AAA=")
	div.AddChild(img)
	div.AddChild(&Node{Type: CommentNode, Text: "note"})
	div.AppendText("a < b")

	want := `<div style="font-family: &quot;Go&quot;; width: 10px" xmlns="http://www.w3.org/1999/xhtml">` +
		`<img src="data:image/png;base64,AAA=" /><!--note-->a &lt; b</div>`
	if got := SerializeXHTML(div); got != want {
		t.Errorf("SerializeXHTML() =\n%s\nwant\n%s", got, want)
	}
}

func TestSerializeDocumentRootIsTransparent(t *testing.T) {
	doc, err := Parse(`<p>a</p><p>b</p>`)
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Root.SerializeOuter(); got != "<p>a</p><p>b</p>" {
		t.Errorf("SerializeOuter() = %q", got)
	}
}

func TestSerializeXHTMLRoundTrip(t *testing.T) {
	src := `<div class="x" style="color: red"><img alt="a&amp;b" src="i.png" /><span>t</span></div>`
	doc, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if got := SerializeXHTML(doc.Root.Children[0]); got != src {
		t.Errorf("round trip mismatch:\n got %s\nwant %s", got, src)
	}
}

func TestSerializeXHTMLComments(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"note", "<!--note-->"},
		{"note-", "<!--note- -->"},
		{"a--b", "<!--a- -b-->"},
		{"---", "<!--- - - -->"},
		{"-", "<!--- -->"},
	}
	for _, tt := range tests {
		div := NewElement("div")
		div.AddChild(&Node{Type: CommentNode, Text: tt.text})
		out := SerializeXHTML(div)
		if got := strings.TrimSuffix(strings.TrimPrefix(out, "<div>"), "</div>"); got != tt.want {
			t.Errorf("comment %q = %q, want %q", tt.text, got, tt.want)
		}
		dec := xml.NewDecoder(strings.NewReader(out))
		for {
			_, err := dec.Token()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Errorf("comment %q: %s is not well-formed: %v", tt.text, out, err)
				break
			}
		}
	}
}

func TestSerializeXHTMLRawTextRoundTrip(t *testing.T) {
	div := NewElement("div")
	style := NewElement("style")
	style.AppendText("div > p { color: red }")
	div.AddChild(style)

	doc, err := ParseXHTML(SerializeXHTML(div))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Stylesheets) != 1 || doc.Stylesheets[0] != "div > p { color: red }" {
		t.Errorf("stylesheets = %q", doc.Stylesheets)
	}
}
