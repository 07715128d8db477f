package css

import "testing"

func TestParseInlineStyle(t *testing.T) {
	style := ParseInlineStyle("color: red; background-color: blue !important; width: 100px")

	tests := []struct {
		prop, want string
	}{
		{"color", "red"},
		{"background-color", "blue"},
		{"width", "100px"},
	}
	for _, tt := range tests {
		if got := style.Value(tt.prop); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.prop, tt.want, got)
		}
	}
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"100px", 100, true},
		{"100", 100, true},
		{"12pt", 16, true},
		{"1in", 96, true},
		{"0", 0, true},
		{"auto", 0, false},
		{"50%", 0, false},
		{"2em", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseLength(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseLength(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestShorthandExpansion(t *testing.T) {
	style := NewStyle()
	Declare(style, "margin", "1px 2px 3px")
	Declare(style, "padding", "4px 5px")
	Declare(style, "border", "2px solid rgb(1, 2, 3)")
	Declare(style, "background", "url(a.png) #fff")

	want := map[string]string{
		"margin-top":          "1px",
		"margin-right":        "2px",
		"margin-bottom":       "3px",
		"margin-left":         "2px",
		"padding-top":         "4px",
		"padding-left":        "5px",
		"border-left-width":   "2px",
		"border-top-style":    "solid",
		"border-bottom-color": "rgb(1, 2, 3)",
		"background-color":    "#fff",
		"background-image":    "url(a.png)",
	}
	for prop, v := range want {
		if got := style.Value(prop); got != v {
			t.Errorf("%s: expected %q, got %q", prop, v, got)
		}
	}
}

func TestBorderWidthNeedsStyle(t *testing.T) {
	style := ParseInlineStyle("border-width: 4px; border-left-style: solid")
	bw := style.GetBorderWidth()
	if bw.Left != 4 || bw.Top != 0 || bw.Right != 0 || bw.Bottom != 0 {
		t.Errorf("expected only the left border, got %+v", bw)
	}
}

func TestCSSTextOrder(t *testing.T) {
	style := NewStyle()
	style.Set("color", "red")
	style.Set("display", "block")
	style.Set("zz-custom", "1")
	style.Set("aa-custom", "2")

	want := "display: block; color: red; aa-custom: 2; zz-custom: 1;"
	if got := style.CSSText(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCSSTextRoundTrip(t *testing.T) {
	style := NewStyle()
	style.Set("width", "10px")
	style.Set("background-color", "rgb(1, 2, 3)")
	back := ParseInlineStyle(style.CSSText())
	if back.Value("width") != "10px" || back.Value("background-color") != "rgb(1, 2, 3)" {
		t.Errorf("round trip lost values: %v", back.Properties)
	}
}

func TestAccessors(t *testing.T) {
	style := ParseInlineStyle("display: inline-flex; position: sticky; font-size: 20px; line-height: 1.5; font-weight: 700; opacity: 50%; text-transform: capitalize")

	if style.GetDisplay() != DisplayInlineBlock {
		t.Errorf("expected inline-block, got %s", style.GetDisplay())
	}
	if style.GetPosition() != PositionRelative {
		t.Errorf("expected relative, got %s", style.GetPosition())
	}
	if got := style.GetLineHeight(); got != 30 {
		t.Errorf("expected line height 30, got %v", got)
	}
	if !style.IsBold() {
		t.Error("expected bold")
	}
	if got := style.GetOpacity(); got != 0.5 {
		t.Errorf("expected opacity 0.5, got %v", got)
	}
	if got := style.TransformText("hello big world"); got != "Hello Big World" {
		t.Errorf("unexpected capitalize result %q", got)
	}
}
