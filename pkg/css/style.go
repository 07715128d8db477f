package css

import (
	"sort"
	"strconv"
	"strings"
)

type Style struct {
	Properties map[string]string
}

func NewStyle() *Style {
	return &Style{Properties: make(map[string]string)}
}

func (s *Style) Get(property string) (string, bool) {
	val, ok := s.Properties[property]
	return val, ok
}

// Value returns the property value or "" when unset.
func (s *Style) Value(property string) string {
	return s.Properties[property]
}

func (s *Style) Set(property, value string) {
	s.Properties[property] = value
}

func (s *Style) Clone() *Style {
	c := &Style{Properties: make(map[string]string, len(s.Properties))}
	for k, v := range s.Properties {
		c.Properties[k] = v
	}
	return c
}

// GetLength returns a px length. Only absolute units resolve here; em and
// percentages are resolved when the style is computed or laid out.
func (s *Style) GetLength(property string) (float64, bool) {
	val, ok := s.Get(property)
	if !ok {
		return 0, false
	}
	return ParseLength(val)
}

// ParseLength parses "100px", "100", "12pt" or "1in" into px.
func ParseLength(val string) (float64, bool) {
	val = strings.TrimSpace(strings.ToLower(val))
	factor := 1.0
	switch {
	case strings.HasSuffix(val, "px"):
		val = strings.TrimSuffix(val, "px")
	case strings.HasSuffix(val, "pt"):
		val, factor = strings.TrimSuffix(val, "pt"), 4.0/3.0
	case strings.HasSuffix(val, "pc"):
		val, factor = strings.TrimSuffix(val, "pc"), 16
	case strings.HasSuffix(val, "in"):
		val, factor = strings.TrimSuffix(val, "in"), 96
	case strings.HasSuffix(val, "cm"):
		val, factor = strings.TrimSuffix(val, "cm"), 96/2.54
	case strings.HasSuffix(val, "mm"):
		val, factor = strings.TrimSuffix(val, "mm"), 96/25.4
	}
	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return num * factor, true
}

// ParsePercent parses "50%" into 0.5.
func ParsePercent(val string) (float64, bool) {
	val = strings.TrimSpace(val)
	if !strings.HasSuffix(val, "%") {
		return 0, false
	}
	num, err := strconv.ParseFloat(strings.TrimSuffix(val, "%"), 64)
	if err != nil {
		return 0, false
	}
	return num / 100, true
}

// FormatPx writes a length the way computed styles report it.
func FormatPx(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

func ParseInlineStyle(styleAttr string) *Style {
	style := NewStyle()
	for _, decl := range strings.Split(styleAttr, ";") {
		parts := strings.SplitN(decl, ":", 2)
		if len(parts) != 2 {
			continue
		}
		property := strings.TrimSpace(strings.ToLower(parts[0]))
		value := strings.TrimSpace(parts[1])
		if property == "" || value == "" {
			continue
		}
		value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))
		Declare(style, property, value)
	}
	return style
}

// Declare sets property on style, expanding the shorthands the engine knows
// into their longhands.
func Declare(style *Style, property, value string) {
	switch property {
	case "margin", "padding":
		expandBoxProperty(style, property+"-%s", value)
	case "border-width":
		expandBoxProperty(style, "border-%s-width", value)
	case "border-style":
		expandBoxProperty(style, "border-%s-style", value)
	case "border-color":
		expandBoxProperty(style, "border-%s-color", value)
	case "border":
		for _, side := range sides {
			expandBorderSide(style, side, value)
		}
	case "border-top", "border-right", "border-bottom", "border-left":
		expandBorderSide(style, strings.TrimPrefix(property, "border-"), value)
	case "background":
		expandBackground(style, value)
	default:
		style.Set(property, value)
	}
}

// expandBoxProperty applies the 1-4 value box shorthand rule. pattern holds
// a %s for the side name.
func expandBoxProperty(style *Style, pattern, value string) {
	parts := strings.Fields(value)
	var v [4]string
	switch len(parts) {
	case 1:
		v = [4]string{parts[0], parts[0], parts[0], parts[0]}
	case 2:
		v = [4]string{parts[0], parts[1], parts[0], parts[1]}
	case 3:
		v = [4]string{parts[0], parts[1], parts[2], parts[1]}
	case 4:
		v = [4]string{parts[0], parts[1], parts[2], parts[3]}
	default:
		return
	}
	for i, side := range sides {
		style.Set(strings.Replace(pattern, "%s", side, 1), v[i])
	}
}

// expandBorderSide handles "1px solid black" for one side. Missing parts
// reset to their initial values, as the shorthand does.
func expandBorderSide(style *Style, side, value string) {
	width, bstyle, color := "medium", "none", "currentcolor"
	for _, part := range splitValue(value) {
		switch {
		case isBorderStyle(part):
			bstyle = part
		case isLengthLike(part) || part == "thin" || part == "medium" || part == "thick":
			width = part
		default:
			color = part
		}
	}
	style.Set("border-"+side+"-width", width)
	style.Set("border-"+side+"-style", bstyle)
	style.Set("border-"+side+"-color", color)
}

func expandBackground(style *Style, value string) {
	color, image := "transparent", "none"
	for _, part := range splitValue(value) {
		if strings.HasPrefix(part, "url(") || strings.Contains(part, "gradient(") {
			image = part
			continue
		}
		if _, ok := ParseColor(part); ok {
			color = part
		}
	}
	style.Set("background-color", color)
	style.Set("background-image", image)
}

// splitValue splits on whitespace outside parentheses, so rgb(1, 2, 3)
// stays one token.
func splitValue(value string) []string {
	var parts []string
	depth, start := 0, -1
	for i, ch := range value {
		switch {
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		case (ch == ' ' || ch == '\t' || ch == '\n') && depth == 0:
			if start >= 0 {
				parts = append(parts, value[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		parts = append(parts, value[start:])
	}
	return parts
}

func isBorderStyle(v string) bool {
	switch v {
	case "none", "hidden", "solid", "dotted", "dashed", "double", "groove", "ridge", "inset", "outset":
		return true
	}
	return false
}

func isLengthLike(v string) bool {
	if v == "0" {
		return true
	}
	if len(v) == 0 || !(v[0] >= '0' && v[0] <= '9' || v[0] == '.' || v[0] == '-') {
		return false
	}
	return strings.TrimLeft(v, "0123456789.-") != v
}

// CSSText serializes the style as an inline declaration block. Known
// properties come first in table order, anything else follows sorted.
func (s *Style) CSSText() string {
	var sb strings.Builder
	write := func(k, v string) {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(v)
		sb.WriteByte(';')
	}
	for _, p := range Properties {
		if v, ok := s.Properties[p.Name]; ok {
			write(p.Name, v)
		}
	}
	var extra []string
	for k := range s.Properties {
		if _, known := propertyIndex[k]; !known {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		write(k, s.Properties[k])
	}
	return sb.String()
}

// BoxEdge holds the four sides of a box.
type BoxEdge struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

func (e BoxEdge) Horizontal() float64 { return e.Left + e.Right }
func (e BoxEdge) Vertical() float64   { return e.Top + e.Bottom }

func (s *Style) GetMargin() BoxEdge {
	return s.edge("margin-%s")
}

func (s *Style) GetPadding() BoxEdge {
	return s.edge("padding-%s")
}

// GetBorderWidth returns the used border widths; a side whose style is
// none or hidden has no width.
func (s *Style) GetBorderWidth() BoxEdge {
	e := s.edge("border-%s-width")
	if !s.hasBorder("top") {
		e.Top = 0
	}
	if !s.hasBorder("right") {
		e.Right = 0
	}
	if !s.hasBorder("bottom") {
		e.Bottom = 0
	}
	if !s.hasBorder("left") {
		e.Left = 0
	}
	return e
}

func (s *Style) hasBorder(side string) bool {
	v := s.Value("border-" + side + "-style")
	return v != "" && v != "none" && v != "hidden"
}

func (s *Style) edge(pattern string) BoxEdge {
	get := func(side string) float64 {
		v, _ := s.GetLength(strings.Replace(pattern, "%s", side, 1))
		return v
	}
	return BoxEdge{Top: get("top"), Right: get("right"), Bottom: get("bottom"), Left: get("left")}
}
