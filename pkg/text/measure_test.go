package text

import (
	"strings"
	"testing"
)

func TestMeasureText(t *testing.T) {
	w1, h1 := MeasureText("hello", 16, FontStyle{})
	w2, _ := MeasureText("hello hello", 16, FontStyle{})
	if w1 <= 0 || h1 <= 0 {
		t.Fatalf("expected positive metrics, got %v x %v", w1, h1)
	}
	if w2 <= w1 {
		t.Errorf("longer text should be wider: %v <= %v", w2, w1)
	}
	big, _ := MeasureText("hello", 32, FontStyle{})
	if big <= w1 {
		t.Errorf("larger size should be wider: %v <= %v", big, w1)
	}
}

func TestMonospaceAdvance(t *testing.T) {
	narrow, _ := MeasureText("iiii", 16, FontStyle{Mono: true})
	wide, _ := MeasureText("MMMM", 16, FontStyle{Mono: true})
	if narrow != wide {
		t.Errorf("monospace advances differ: %v vs %v", narrow, wide)
	}
}

func TestMetrics(t *testing.T) {
	ascent, descent := Metrics(20, FontStyle{Bold: true})
	if ascent <= 0 || descent <= 0 || ascent+descent > 30 {
		t.Errorf("unexpected metrics ascent=%v descent=%v", ascent, descent)
	}
}

func TestBreakTextIntoLines(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	oneWord, _ := MeasureText("quick brown", 16, FontStyle{})
	lines := BreakTextIntoLines(text, 16, FontStyle{}, oneWord+1, oneWord+1)
	if len(lines) < 3 {
		t.Fatalf("expected several lines, got %q", lines)
	}
	if got := strings.Join(lines, " "); got != text {
		t.Errorf("lines should rejoin to the input, got %q", got)
	}
	for _, l := range lines {
		if w, _ := MeasureText(l, 16, FontStyle{}); w > oneWord+1 && strings.Contains(l, " ") {
			t.Errorf("line %q overflows", l)
		}
	}
}

func TestBreakTextIntoLines_Fits(t *testing.T) {
	lines := BreakTextIntoLines("short", 16, FontStyle{}, 1000, 1000)
	if len(lines) != 1 || lines[0] != "short" {
		t.Errorf("expected a single line, got %q", lines)
	}
}

func TestBreakTextIntoLines_LongWord(t *testing.T) {
	lines := BreakTextIntoLines("extraordinarily long", 16, FontStyle{}, 10, 10)
	if len(lines) != 2 || lines[0] != "extraordinarily" {
		t.Errorf("expected the long word alone on its line, got %q", lines)
	}
}
