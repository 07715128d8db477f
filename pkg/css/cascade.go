package css

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"domsnap/pkg/html"
	"domsnap/pkg/logging"
)

// Cascade levels, lowest first.
const (
	levelUserAgent = iota
	levelAuthor
	levelInline
	levelAuthorImportant
	levelInlineImportant
)

type matchedDeclaration struct {
	Declaration
	level       int
	specificity int
	order       int
}

// Cascade holds the stylesheets that apply to one document.
type Cascade struct {
	Stylesheets    []*Stylesheet // author sheets in document order
	ViewportWidth  float64
	ViewportHeight float64
}

// NewCascade parses the document's stylesheets. A sheet that fails to parse
// is skipped with a warning.
func NewCascade(doc *html.Document, viewportWidth, viewportHeight float64) *Cascade {
	c := &Cascade{ViewportWidth: viewportWidth, ViewportHeight: viewportHeight}
	for i, text := range doc.Stylesheets {
		sheet, err := ParseStylesheet(text)
		if err != nil {
			logging.Logger().Warn("css: stylesheet ignored", "index", i, "error", err)
			continue
		}
		c.Stylesheets = append(c.Stylesheets, sheet)
	}
	return c
}

// ComputeStyle returns the cascaded (specified) declarations for node:
// user agent rules, author rules by specificity then source order, the
// style attribute, then !important declarations.
func ComputeStyle(node *html.Node, stylesheets []*Stylesheet, viewportWidth, viewportHeight float64) *Style {
	finalStyle := NewStyle()
	if node.Type != html.ElementNode {
		return finalStyle
	}

	var all []matchedDeclaration
	collect := func(sheet *Stylesheet, base, sheetIndex int) {
		for _, rule := range sheet.Rules {
			if !EvaluateMediaQuery(rule.MediaQuery, viewportWidth, viewportHeight) {
				continue
			}
			if !MatchesSelector(node, rule.Selector) {
				continue
			}
			for _, d := range rule.Declarations {
				level := base
				if d.Important && base == levelAuthor {
					level = levelAuthorImportant
				}
				all = append(all, matchedDeclaration{
					Declaration: d,
					level:       level,
					specificity: rule.Selector.Specificity,
					order:       sheetIndex<<20 | rule.Order,
				})
			}
		}
	}
	collect(UserAgentStylesheet(), levelUserAgent, 0)
	for i, sheet := range stylesheets {
		collect(sheet, levelAuthor, i+1)
	}
	if styleAttr, ok := node.GetAttribute("style"); ok {
		for i, d := range ParseDeclarations(styleAttr) {
			level := levelInline
			if d.Important {
				level = levelInlineImportant
			}
			all = append(all, matchedDeclaration{Declaration: d, level: level, order: i})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.level != b.level {
			return a.level < b.level
		}
		if a.specificity != b.specificity {
			return a.specificity < b.specificity
		}
		return a.order < b.order
	})
	for _, d := range all {
		finalStyle.Set(d.Property, d.Value)
	}
	return finalStyle
}

// Specified returns the cascaded declarations for node.
func (c *Cascade) Specified(node *html.Node) *Style {
	return ComputeStyle(node, c.Stylesheets, c.ViewportWidth, c.ViewportHeight)
}

// ApplyStylesToDocument computes the style of every element in the
// document, parents before children.
func ApplyStylesToDocument(doc *html.Document, viewportWidth, viewportHeight float64) map[*html.Node]*Style {
	return NewCascade(doc, viewportWidth, viewportHeight).ComputeAll(doc.Root)
}

// ComputeAll computes styles for root's element descendants.
func (c *Cascade) ComputeAll(root *html.Node) map[*html.Node]*Style {
	styles := make(map[*html.Node]*Style)
	env := Environment{ViewportWidth: c.ViewportWidth, ViewportHeight: c.ViewportHeight, RootFontSize: 16}
	root.Walk(func(n *html.Node) bool {
		if n.Type != html.ElementNode || isDocument(n) {
			return true
		}
		var parent *Style
		if n.Parent != nil {
			parent = styles[n.Parent]
		}
		computed := ComputeValues(c.Specified(n), parent, env)
		if n.Parent != nil && isDocument(n.Parent) {
			env.RootFontSize = computed.GetFontSize()
		}
		styles[n] = computed
		return true
	})
	return styles
}

// Environment carries what relative units resolve against.
type Environment struct {
	RootFontSize   float64
	ViewportWidth  float64
	ViewportHeight float64
}

var fontSizeKeywords = map[string]float64{
	"xx-small": 9, "x-small": 10, "small": 13, "medium": 16,
	"large": 18, "x-large": 24, "xx-large": 32, "xxx-large": 48,
}

var borderWidthKeywords = map[string]float64{"thin": 1, "medium": 3, "thick": 5}

// lengthProperties are resolved to px when given in relative units other
// than percentages.
var lengthProperties = []string{
	"top", "right", "bottom", "left",
	"width", "height", "min-width", "min-height", "max-width", "max-height",
	"margin-top", "margin-right", "margin-bottom", "margin-left",
	"padding-top", "padding-right", "padding-bottom", "padding-left",
	"border-radius", "letter-spacing",
}

// ComputeValues turns a specified style into a computed one: every property
// of the table gets a value (inherited from parent or initial), keywords
// are resolved, and relative lengths become px. Colors keep their authored
// form. Percentages that depend on the containing block are left for
// layout.
func ComputeValues(specified, parent *Style, env Environment) *Style {
	if env.RootFontSize == 0 {
		env.RootFontSize = 16
	}
	out := NewStyle()
	for _, p := range Properties {
		v, ok := specified.Get(p.Name)
		switch {
		case !ok && p.Inherited, ok && v == "inherit", ok && v == "unset" && p.Inherited:
			v = inheritedValue(parent, p)
		case !ok, v == "initial", v == "unset":
			v = p.Initial
		}
		out.Set(p.Name, v)
	}
	for k, v := range specified.Properties {
		if _, known := propertyIndex[k]; !known {
			out.Set(k, v)
		}
	}

	parentFontSize := 16.0
	if parent != nil {
		parentFontSize = parent.GetFontSize()
	}
	fontSize := resolveFontSize(out.Value("font-size"), parentFontSize, env)
	out.Set("font-size", FormatPx(fontSize))

	for _, name := range lengthProperties {
		if px, ok := resolveLength(out.Value(name), fontSize, env); ok {
			out.Set(name, FormatPx(px))
		}
	}
	if lh := out.Value("line-height"); lh != "normal" {
		if _, err := strconv.ParseFloat(lh, 64); err != nil {
			if p, ok := ParsePercent(lh); ok {
				out.Set("line-height", FormatPx(p*fontSize))
			} else if px, ok := resolveLength(lh, fontSize, env); ok {
				out.Set("line-height", FormatPx(px))
			}
		}
	}

	out.Set("font-weight", resolveFontWeight(out.Value("font-weight"), parent))

	color := out.Value("color")
	if strings.EqualFold(color, "currentcolor") {
		color = inheritedValue(parent, Property{Name: "color", Initial: "black"})
		out.Set("color", color)
	}
	for _, side := range sides {
		width := "border-" + side + "-width"
		if !out.hasBorder(side) {
			out.Set(width, "0px")
		} else if kw, ok := borderWidthKeywords[out.Value(width)]; ok {
			out.Set(width, FormatPx(kw))
		} else if px, ok := resolveLength(out.Value(width), fontSize, env); ok {
			out.Set(width, FormatPx(px))
		}
		if c := "border-" + side + "-color"; strings.EqualFold(out.Value(c), "currentcolor") {
			out.Set(c, color)
		}
	}

	// Floats and absolutely positioned boxes are blockified.
	if out.Value("float") != "none" || out.GetPosition() == PositionAbsolute || out.GetPosition() == PositionFixed {
		switch out.Value("display") {
		case "inline", "inline-block":
			out.Set("display", "block")
		}
	}
	return out
}

func inheritedValue(parent *Style, p Property) string {
	if parent != nil {
		if v, ok := parent.Get(p.Name); ok {
			return v
		}
	}
	return p.Initial
}

func resolveFontSize(v string, parentSize float64, env Environment) float64 {
	if kw, ok := fontSizeKeywords[v]; ok {
		return kw
	}
	switch v {
	case "smaller":
		return parentSize / 1.2
	case "larger":
		return parentSize * 1.2
	}
	if p, ok := ParsePercent(v); ok {
		return p * parentSize
	}
	if px, ok := resolveLength(v, parentSize, env); ok {
		return px
	}
	return parentSize
}

// resolveLength converts em, rem, ex, ch, vw, vh and absolute units to px.
// It fails for percentages, auto and anything else it does not know.
func resolveLength(v string, fontSize float64, env Environment) (float64, bool) {
	v = strings.TrimSpace(strings.ToLower(v))
	relative := []struct {
		unit   string
		factor float64
	}{
		{"rem", env.RootFontSize},
		{"em", fontSize},
		{"ex", fontSize / 2},
		{"ch", fontSize / 2},
		{"vw", env.ViewportWidth / 100},
		{"vh", env.ViewportHeight / 100},
		{"vmin", math.Min(env.ViewportWidth, env.ViewportHeight) / 100},
		{"vmax", math.Max(env.ViewportWidth, env.ViewportHeight) / 100},
	}
	for _, r := range relative {
		if strings.HasSuffix(v, r.unit) {
			num, err := strconv.ParseFloat(strings.TrimSuffix(v, r.unit), 64)
			if err != nil {
				return 0, false
			}
			return num * r.factor, true
		}
	}
	return ParseLength(v)
}

func resolveFontWeight(v string, parent *Style) string {
	parentWeight := 400
	if parent != nil {
		if w, err := strconv.Atoi(parent.Value("font-weight")); err == nil {
			parentWeight = w
		}
	}
	switch v {
	case "normal":
		return "400"
	case "bold":
		return "700"
	case "bolder":
		switch {
		case parentWeight < 400:
			return "400"
		case parentWeight < 600:
			return "700"
		}
		return "900"
	case "lighter":
		switch {
		case parentWeight < 600:
			return "100"
		case parentWeight < 800:
			return "400"
		}
		return "700"
	}
	return v
}
