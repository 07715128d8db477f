package css

import (
	"strconv"
	"strings"
)

// The getters below read computed styles. They fall back to the initial
// value when a property is missing so they also work on partial styles.

type DisplayType string

const (
	DisplayBlock       DisplayType = "block"
	DisplayInline      DisplayType = "inline"
	DisplayInlineBlock DisplayType = "inline-block"
	DisplayNone        DisplayType = "none"
)

// GetDisplay folds the display values the engine has no layout for into
// the closest one it does.
func (s *Style) GetDisplay() DisplayType {
	switch s.Value("display") {
	case "none":
		return DisplayNone
	case "inline-block", "inline-flex", "inline-grid", "inline-table":
		return DisplayInlineBlock
	case "", "inline", "contents":
		return DisplayInline
	}
	return DisplayBlock
}

type PositionType string

const (
	PositionStatic   PositionType = "static"
	PositionRelative PositionType = "relative"
	PositionAbsolute PositionType = "absolute"
	PositionFixed    PositionType = "fixed"
)

func (s *Style) GetPosition() PositionType {
	switch s.Value("position") {
	case "relative", "sticky":
		return PositionRelative
	case "absolute":
		return PositionAbsolute
	case "fixed":
		return PositionFixed
	}
	return PositionStatic
}

// PositionOffset holds top/right/bottom/left; Has* is false for auto.
type PositionOffset struct {
	Top, Right, Bottom, Left             float64
	HasTop, HasRight, HasBottom, HasLeft bool
}

func (s *Style) GetPositionOffset() PositionOffset {
	var o PositionOffset
	o.Top, o.HasTop = s.GetLength("top")
	o.Right, o.HasRight = s.GetLength("right")
	o.Bottom, o.HasBottom = s.GetLength("bottom")
	o.Left, o.HasLeft = s.GetLength("left")
	return o
}

func (s *Style) GetZIndex() int {
	z, err := strconv.Atoi(strings.TrimSpace(s.Value("z-index")))
	if err != nil {
		return 0
	}
	return z
}

func (s *Style) GetFontSize() float64 {
	if size, ok := s.GetLength("font-size"); ok {
		return size
	}
	return 16.0
}

// GetLineHeight resolves normal to 1.2em and unitless numbers against the
// font size.
func (s *Style) GetLineHeight() float64 {
	fontSize := s.GetFontSize()
	v := strings.TrimSpace(s.Value("line-height"))
	if v == "" || v == "normal" {
		return fontSize * 1.2
	}
	if num, err := strconv.ParseFloat(v, 64); err == nil {
		return num * fontSize
	}
	if lh, ok := ParseLength(v); ok {
		return lh
	}
	return fontSize * 1.2
}

func (s *Style) IsBold() bool {
	w, err := strconv.Atoi(s.Value("font-weight"))
	if err != nil {
		return s.Value("font-weight") == "bold"
	}
	return w >= 600
}

func (s *Style) IsItalic() bool {
	v := s.Value("font-style")
	return v == "italic" || v == "oblique"
}

// IsMonospace reports whether the family list asks for a fixed-pitch face.
func (s *Style) IsMonospace() bool {
	family := strings.ToLower(s.Value("font-family"))
	return strings.Contains(family, "mono") || strings.Contains(family, "courier")
}

func (s *Style) GetColor() Color {
	if c, ok := ParseColor(s.Value("color")); ok {
		return c
	}
	return Color{0, 0, 0, 1}
}

type TextAlign string

const (
	TextAlignLeft   TextAlign = "left"
	TextAlignCenter TextAlign = "center"
	TextAlignRight  TextAlign = "right"
)

func (s *Style) GetTextAlign() TextAlign {
	switch s.Value("text-align") {
	case "center":
		return TextAlignCenter
	case "right", "end":
		return TextAlignRight
	}
	return TextAlignLeft
}

type WhiteSpace string

const (
	WhiteSpaceNormal WhiteSpace = "normal"
	WhiteSpaceNoWrap WhiteSpace = "nowrap"
	WhiteSpacePre    WhiteSpace = "pre"
)

func (s *Style) GetWhiteSpace() WhiteSpace {
	switch s.Value("white-space") {
	case "nowrap":
		return WhiteSpaceNoWrap
	case "pre", "pre-wrap", "pre-line", "break-spaces":
		return WhiteSpacePre
	}
	return WhiteSpaceNormal
}

func (s *Style) GetOpacity() float64 {
	v := strings.TrimSpace(s.Value("opacity"))
	if v == "" {
		return 1
	}
	if p, ok := ParsePercent(v); ok {
		return clamp01(p)
	}
	o, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 1
	}
	return clamp01(o)
}

func (s *Style) GetBorderRadius() float64 {
	r, _ := ParseLength(strings.Fields(s.Value("border-radius") + " 0")[0])
	return r
}

func (s *Style) IsVisible() bool {
	v := s.Value("visibility")
	return v != "hidden" && v != "collapse"
}

func (s *Style) HasUnderline() bool {
	return strings.Contains(s.Value("text-decoration"), "underline")
}

func (s *Style) HasLineThrough() bool {
	return strings.Contains(s.Value("text-decoration"), "line-through")
}

func (s *Style) ClipsOverflow() bool {
	switch s.Value("overflow") {
	case "hidden", "scroll", "auto", "clip":
		return true
	}
	return false
}

func (s *Style) IsBorderBox() bool {
	return s.Value("box-sizing") == "border-box"
}

// TransformText applies text-transform.
func (s *Style) TransformText(text string) string {
	switch s.Value("text-transform") {
	case "uppercase":
		return strings.ToUpper(text)
	case "lowercase":
		return strings.ToLower(text)
	case "capitalize":
		words := strings.Fields(text)
		for i, w := range words {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
		if len(words) == 0 {
			return text
		}
		lead, trail := "", ""
		if strings.HasPrefix(text, " ") {
			lead = " "
		}
		if strings.HasSuffix(text, " ") {
			trail = " "
		}
		return lead + strings.Join(words, " ") + trail
	}
	return text
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
