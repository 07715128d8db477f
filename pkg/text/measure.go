package text

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// FontStyle selects one of the embedded Go font faces.
type FontStyle struct {
	Bold   bool
	Italic bool
	Mono   bool
}

func (s FontStyle) data() []byte {
	switch {
	case s.Mono && s.Bold && s.Italic:
		return gomonobolditalic.TTF
	case s.Mono && s.Bold:
		return gomonobold.TTF
	case s.Mono && s.Italic:
		return gomonoitalic.TTF
	case s.Mono:
		return gomono.TTF
	case s.Bold && s.Italic:
		return gobolditalic.TTF
	case s.Bold:
		return gobold.TTF
	case s.Italic:
		return goitalic.TTF
	}
	return goregular.TTF
}

var (
	fontsMu sync.Mutex
	fonts   = map[FontStyle]*opentype.Font{}
)

func parsedFont(style FontStyle) (*opentype.Font, error) {
	fontsMu.Lock()
	defer fontsMu.Unlock()
	if f, ok := fonts[style]; ok {
		return f, nil
	}
	f, err := opentype.Parse(style.data())
	if err != nil {
		return nil, fmt.Errorf("parse font %+v: %w", style, err)
	}
	fonts[style] = f
	return f, nil
}

// NewFace returns a fresh face at size px. Faces are not safe for
// concurrent use; callers that draw get their own.
func NewFace(size float64, style FontStyle) (font.Face, error) {
	f, err := parsedFont(style)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 1
	}
	return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
}

type faceKey struct {
	size  float64
	style FontStyle
}

// measurer owns the cached faces used for layout measurement.
var measurer = struct {
	sync.Mutex
	faces map[faceKey]font.Face
}{faces: map[faceKey]font.Face{}}

func withFace(size float64, style FontStyle, fn func(font.Face)) bool {
	measurer.Lock()
	defer measurer.Unlock()
	key := faceKey{size, style}
	face, ok := measurer.faces[key]
	if !ok {
		var err error
		face, err = NewFace(size, style)
		if err != nil {
			return false
		}
		measurer.faces[key] = face
	}
	fn(face)
	return true
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// MeasureText measures the advance width and line height of text.
func MeasureText(text string, fontSize float64, style FontStyle) (width, height float64) {
	ok := withFace(fontSize, style, func(face font.Face) {
		width = toFloat(font.MeasureString(face, text))
		height = toFloat(face.Metrics().Height)
	})
	if !ok {
		// Rough estimate when the face cannot be built.
		return float64(len(text)) * fontSize * 0.6, fontSize * 1.2
	}
	return width, height
}

// Metrics returns ascent and descent in px.
func Metrics(fontSize float64, style FontStyle) (ascent, descent float64) {
	ok := withFace(fontSize, style, func(face font.Face) {
		m := face.Metrics()
		ascent, descent = toFloat(m.Ascent), toFloat(m.Descent)
	})
	if !ok {
		return fontSize * 0.8, fontSize * 0.2
	}
	return ascent, descent
}

// BreakTextIntoLines breaks text into lines where the first line fits
// within firstLineMax and the following lines within remainingMax. A word
// wider than the line is kept whole on its own line.
func BreakTextIntoLines(text string, fontSize float64, style FontStyle, firstLineMax, remainingMax float64) []string {
	if w, _ := MeasureText(text, fontSize, style); w <= firstLineMax {
		return []string{text}
	}

	words := splitIntoWords(text)
	if len(words) == 0 {
		return []string{text}
	}
	// Leading whitespace matters for text that continues an inline run.
	if text[0] == ' ' || text[0] == '\t' || text[0] == '\n' {
		words[0] = " " + words[0]
	}

	lines := make([]string, 0)
	currentLine := ""
	for _, word := range words {
		testLine := word
		if currentLine != "" {
			testLine = currentLine + " " + word
		}
		maxWidth := remainingMax
		if len(lines) == 0 {
			maxWidth = firstLineMax
		}
		if w, _ := MeasureText(testLine, fontSize, style); w <= maxWidth || currentLine == "" {
			currentLine = testLine
			continue
		}
		lines = append(lines, currentLine)
		currentLine = word
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}
	return lines
}

func splitIntoWords(text string) []string {
	words := make([]string, 0)
	start := -1
	for i, ch := range text {
		if ch == ' ' || ch == '\t' || ch == '\n' {
			if start >= 0 {
				words = append(words, text[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, text[start:])
	}
	return words
}
