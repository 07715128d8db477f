package css

import (
	"fmt"
	"strconv"
	"strings"

	dcss "github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Rule is one selector of a style rule; a rule with a selector list becomes
// several Rules sharing declarations.
type Rule struct {
	Selector     Selector
	Declarations []Declaration
	MediaQuery   string // prelude of the enclosing @media, "" if none
	Order        int    // source position within the stylesheet
}

type Stylesheet struct {
	Rules []Rule
}

// ParseStylesheet parses CSS text with douceur. Rules whose selectors the
// matcher does not understand are dropped; at-rules other than @media are
// ignored.
func ParseStylesheet(text string) (*Stylesheet, error) {
	sheet := &Stylesheet{}
	if strings.TrimSpace(text) == "" {
		return sheet, nil
	}
	parsed, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse stylesheet: %w", err)
	}
	order := 0
	sheet.addRules(parsed.Rules, "", &order)
	return sheet, nil
}

func (sheet *Stylesheet) addRules(rules []*dcss.Rule, media string, order *int) {
	for _, r := range rules {
		if r.Kind == dcss.AtRule {
			if strings.EqualFold(r.Name, "@media") {
				sheet.addRules(r.Rules, strings.TrimSpace(r.Prelude), order)
			}
			continue
		}
		decls := convertDeclarations(r.Declarations)
		if len(decls) == 0 {
			continue
		}
		selectors := r.Selectors
		if len(selectors) == 0 {
			selectors = splitTopLevel(r.Prelude, ',')
		}
		for _, raw := range selectors {
			sel, err := ParseSelector(raw)
			if err != nil {
				continue
			}
			sheet.Rules = append(sheet.Rules, Rule{
				Selector:     sel,
				Declarations: decls,
				MediaQuery:   media,
				Order:        *order,
			})
			*order++
		}
	}
}

func convertDeclarations(in []*dcss.Declaration) []Declaration {
	var out []Declaration
	for _, d := range in {
		out = append(out, expandDeclaration(strings.ToLower(strings.TrimSpace(d.Property)), strings.TrimSpace(d.Value), d.Important)...)
	}
	return out
}

// ParseDeclarations parses a declaration block such as a style attribute,
// keeping the !important flag.
func ParseDeclarations(text string) []Declaration {
	var out []Declaration
	for _, decl := range splitTopLevel(text, ';') {
		parts := strings.SplitN(decl, ":", 2)
		if len(parts) != 2 {
			continue
		}
		property := strings.TrimSpace(strings.ToLower(parts[0]))
		value := strings.TrimSpace(parts[1])
		important := false
		if i := strings.Index(strings.ToLower(value), "!important"); i >= 0 {
			value, important = strings.TrimSpace(value[:i]), true
		}
		if property == "" || value == "" {
			continue
		}
		out = append(out, expandDeclaration(property, value, important)...)
	}
	return out
}

func expandDeclaration(property, value string, important bool) []Declaration {
	if property == "" || value == "" {
		return nil
	}
	tmp := NewStyle()
	Declare(tmp, property, value)
	out := make([]Declaration, 0, len(tmp.Properties))
	for k, v := range tmp.Properties {
		out = append(out, Declaration{Property: k, Value: v, Important: important})
	}
	return out
}

// EvaluateMediaQuery reports whether query applies at the given viewport.
// It understands media types, "not", "only" and the width, height and
// orientation features; a comma separated list matches if any entry does.
func EvaluateMediaQuery(query string, viewportWidth, viewportHeight float64) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, q := range strings.Split(query, ",") {
		if evaluateMediaClause(strings.TrimSpace(q), viewportWidth, viewportHeight) {
			return true
		}
	}
	return false
}

func evaluateMediaClause(q string, w, h float64) bool {
	negate := false
	if strings.HasPrefix(q, "not ") {
		negate, q = true, strings.TrimSpace(q[4:])
	}
	q = strings.TrimPrefix(q, "only ")
	result := true
	for _, term := range strings.Split(q, " and ") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if !evaluateMediaTerm(term, w, h) {
			result = false
			break
		}
	}
	return result != negate
}

func evaluateMediaTerm(term string, w, h float64) bool {
	if !strings.HasPrefix(term, "(") {
		return term == "all" || term == "screen"
	}
	feature := strings.Trim(term, "()")
	name, value, _ := strings.Cut(feature, ":")
	name, value = strings.TrimSpace(name), strings.TrimSpace(value)
	length := func() float64 {
		if v, ok := ParseLength(value); ok {
			return v
		}
		if strings.HasSuffix(value, "em") {
			if v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSuffix(value, "em"), "r"), 64); err == nil {
				return v * 16
			}
		}
		return 0
	}
	switch name {
	case "min-width":
		return w >= length()
	case "max-width":
		return w <= length()
	case "width":
		return w == length()
	case "min-height":
		return h >= length()
	case "max-height":
		return h <= length()
	case "height":
		return h == length()
	case "orientation":
		if value == "portrait" {
			return h >= w
		}
		return w > h
	case "prefers-color-scheme":
		return value == "light"
	}
	return false
}
