package css

import "testing"

func TestParseStylesheet_SelectorList(t *testing.T) {
	sheet, err := ParseStylesheet(`h1, h2.title { margin: 4px; color: red }`)
	if err != nil {
		t.Fatal(err)
	}
	if len(sheet.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(sheet.Rules))
	}
	if sheet.Rules[0].Order >= sheet.Rules[1].Order {
		t.Error("rules should keep source order")
	}
	decls := map[string]string{}
	for _, d := range sheet.Rules[1].Declarations {
		decls[d.Property] = d.Value
	}
	if decls["margin-left"] != "4px" || decls["color"] != "red" {
		t.Errorf("unexpected declarations %v", decls)
	}
}

func TestParseStylesheet_SkipsUnknownSelectorsAndAtRules(t *testing.T) {
	sheet, err := ParseStylesheet(`
		@font-face { font-family: x; src: url(x.woff); }
		@import url(other.css);
		p { color: red; }
		p:::weird { color: blue; }
	`)
	if err != nil {
		t.Fatal(err)
	}
	if len(sheet.Rules) != 1 || sheet.Rules[0].Selector.Raw != "p" {
		t.Errorf("expected only the p rule, got %+v", sheet.Rules)
	}
}

func TestParseStylesheet_Empty(t *testing.T) {
	sheet, err := ParseStylesheet("   ")
	if err != nil || len(sheet.Rules) != 0 {
		t.Errorf("expected empty stylesheet, got %+v, %v", sheet, err)
	}
}

func TestParseDeclarations(t *testing.T) {
	decls := ParseDeclarations("color: red !important; background: url(data:image/png;base64,AAAA); ; bogus")
	got := map[string]Declaration{}
	for _, d := range decls {
		got[d.Property] = d
	}
	if d := got["color"]; d.Value != "red" || !d.Important {
		t.Errorf("unexpected color declaration %+v", d)
	}
	if d := got["background-image"]; d.Value != "url(data:image/png;base64,AAAA)" {
		t.Errorf("semicolon inside url() should not split, got %+v", d)
	}
}

func TestEvaluateMediaQuery(t *testing.T) {
	tests := []struct {
		query string
		w, h  float64
		want  bool
	}{
		{"", 800, 600, true},
		{"screen", 800, 600, true},
		{"print", 800, 600, false},
		{"not print", 800, 600, true},
		{"screen and (min-width: 700px)", 800, 600, true},
		{"screen and (min-width: 900px)", 800, 600, false},
		{"print, (max-height: 700px)", 800, 600, true},
		{"(orientation: portrait)", 800, 600, false},
		{"only screen and (max-width: 40em)", 600, 600, true},
		{"(hover: hover)", 800, 600, false},
	}
	for _, tt := range tests {
		if got := EvaluateMediaQuery(tt.query, tt.w, tt.h); got != tt.want {
			t.Errorf("EvaluateMediaQuery(%q, %v, %v) = %v", tt.query, tt.w, tt.h, got)
		}
	}
}
