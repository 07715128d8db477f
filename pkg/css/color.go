package css

import (
	"image/color"
	"strconv"
	"strings"
)

type Color struct {
	R, G, B uint8
	A       float64 // 0..1
}

// RGBA converts to a premultiplied color for image/draw.
func (c Color) RGBA() color.RGBA {
	a := clamp01(c.A)
	return color.RGBA{
		R: uint8(float64(c.R)*a + 0.5),
		G: uint8(float64(c.G)*a + 0.5),
		B: uint8(float64(c.B)*a + 0.5),
		A: uint8(a*255 + 0.5),
	}
}

// WithAlpha scales the alpha channel, used for opacity.
func (c Color) WithAlpha(factor float64) Color {
	c.A *= factor
	return c
}

var namedColors = map[string]Color{
	"black":       {0, 0, 0, 1},
	"white":       {255, 255, 255, 1},
	"red":         {255, 0, 0, 1},
	"green":       {0, 128, 0, 1},
	"blue":        {0, 0, 255, 1},
	"yellow":      {255, 255, 0, 1},
	"cyan":        {0, 255, 255, 1},
	"aqua":        {0, 255, 255, 1},
	"magenta":     {255, 0, 255, 1},
	"fuchsia":     {255, 0, 255, 1},
	"gray":        {128, 128, 128, 1},
	"grey":        {128, 128, 128, 1},
	"darkgray":    {169, 169, 169, 1},
	"lightgray":   {211, 211, 211, 1},
	"lightgrey":   {211, 211, 211, 1},
	"silver":      {192, 192, 192, 1},
	"maroon":      {128, 0, 0, 1},
	"olive":       {128, 128, 0, 1},
	"lime":        {0, 255, 0, 1},
	"navy":        {0, 0, 128, 1},
	"teal":        {0, 128, 128, 1},
	"purple":      {128, 0, 128, 1},
	"orange":      {255, 165, 0, 1},
	"pink":        {255, 192, 203, 1},
	"brown":       {165, 42, 42, 1},
	"gold":        {255, 215, 0, 1},
	"indigo":      {75, 0, 130, 1},
	"violet":      {238, 130, 238, 1},
	"coral":       {255, 127, 80, 1},
	"salmon":      {250, 128, 114, 1},
	"tomato":      {255, 99, 71, 1},
	"crimson":     {220, 20, 60, 1},
	"khaki":       {240, 230, 140, 1},
	"beige":       {245, 245, 220, 1},
	"ivory":       {255, 255, 240, 1},
	"lavender":    {230, 230, 250, 1},
	"skyblue":     {135, 206, 235, 1},
	"steelblue":   {70, 130, 180, 1},
	"royalblue":   {65, 105, 225, 1},
	"darkblue":    {0, 0, 139, 1},
	"darkgreen":   {0, 100, 0, 1},
	"darkred":     {139, 0, 0, 1},
	"lightblue":   {173, 216, 230, 1},
	"lightgreen":  {144, 238, 144, 1},
	"whitesmoke":  {245, 245, 245, 1},
	"gainsboro":   {220, 220, 220, 1},
	"dimgray":     {105, 105, 105, 1},
	"slategray":   {112, 128, 144, 1},
	"transparent": {0, 0, 0, 0},
}

// ParseColor understands named colors, #rgb, #rgba, #rrggbb, #rrggbbaa,
// rgb() and rgba().
func ParseColor(colorStr string) (Color, bool) {
	s := strings.ToLower(strings.TrimSpace(colorStr))
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if strings.HasPrefix(s, "#") {
		return parseHexColor(s[1:])
	}
	if strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba(") {
		return parseRGBFunc(s)
	}
	return Color{}, false
}

func parseHexColor(hex string) (Color, bool) {
	expand := func(s string) string {
		var sb strings.Builder
		for _, ch := range s {
			sb.WriteRune(ch)
			sb.WriteRune(ch)
		}
		return sb.String()
	}
	switch len(hex) {
	case 3, 4:
		hex = expand(hex)
	case 6, 8:
	default:
		return Color{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, false
	}
	if len(hex) == 6 {
		return Color{uint8(v >> 16), uint8(v >> 8), uint8(v), 1}, true
	}
	return Color{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), float64(uint8(v)) / 255}, true
}

func parseRGBFunc(s string) (Color, bool) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return Color{}, false
	}
	body := strings.ReplaceAll(s[open+1:end], "/", " ")
	body = strings.ReplaceAll(body, ",", " ")
	parts := strings.Fields(body)
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, false
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		if p, ok := ParsePercent(parts[i]); ok {
			ch[i] = uint8(clamp01(p)*255 + 0.5)
			continue
		}
		v, err := strconv.ParseFloat(parts[i], 64)
		if err != nil {
			return Color{}, false
		}
		ch[i] = uint8(clamp01(v/255)*255 + 0.5)
	}
	alpha := 1.0
	if len(parts) == 4 {
		if p, ok := ParsePercent(parts[3]); ok {
			alpha = p
		} else {
			v, err := strconv.ParseFloat(parts[3], 64)
			if err != nil {
				return Color{}, false
			}
			alpha = v
		}
	}
	return Color{ch[0], ch[1], ch[2], clamp01(alpha)}, true
}
