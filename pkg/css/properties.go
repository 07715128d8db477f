package css

// Property describes one longhand the engine computes.
type Property struct {
	Name      string
	Initial   string
	Inherited bool
}

// Properties lists every longhand in a computed style, in the order
// CSSText writes them.
var Properties = []Property{
	{"display", "inline", false},
	{"position", "static", false},
	{"top", "auto", false},
	{"right", "auto", false},
	{"bottom", "auto", false},
	{"left", "auto", false},
	{"float", "none", false},
	{"clear", "none", false},
	{"z-index", "auto", false},
	{"box-sizing", "content-box", false},
	{"width", "auto", false},
	{"height", "auto", false},
	{"min-width", "0px", false},
	{"min-height", "0px", false},
	{"max-width", "none", false},
	{"max-height", "none", false},
	{"margin-top", "0px", false},
	{"margin-right", "0px", false},
	{"margin-bottom", "0px", false},
	{"margin-left", "0px", false},
	{"padding-top", "0px", false},
	{"padding-right", "0px", false},
	{"padding-bottom", "0px", false},
	{"padding-left", "0px", false},
	{"border-top-width", "3px", false},
	{"border-right-width", "3px", false},
	{"border-bottom-width", "3px", false},
	{"border-left-width", "3px", false},
	{"border-top-style", "none", false},
	{"border-right-style", "none", false},
	{"border-bottom-style", "none", false},
	{"border-left-style", "none", false},
	{"border-top-color", "currentcolor", false},
	{"border-right-color", "currentcolor", false},
	{"border-bottom-color", "currentcolor", false},
	{"border-left-color", "currentcolor", false},
	{"border-radius", "0px", false},
	{"background-color", "transparent", false},
	{"background-image", "none", false},
	{"color", "black", true},
	{"font-family", "serif", true},
	{"font-size", "16px", true},
	{"font-style", "normal", true},
	{"font-weight", "400", true},
	{"line-height", "normal", true},
	{"text-align", "left", true},
	{"text-decoration", "none", false},
	{"text-transform", "none", true},
	{"letter-spacing", "normal", true},
	{"white-space", "normal", true},
	{"vertical-align", "baseline", false},
	{"visibility", "visible", true},
	{"opacity", "1", false},
	{"overflow", "visible", false},
}

var propertyIndex = func() map[string]int {
	m := make(map[string]int, len(Properties))
	for i, p := range Properties {
		m[p.Name] = i
	}
	return m
}()

// LookupProperty returns the table entry for name.
func LookupProperty(name string) (Property, bool) {
	i, ok := propertyIndex[name]
	if !ok {
		return Property{}, false
	}
	return Properties[i], true
}

// IsInherited reports whether name inherits by default. Unknown properties
// do not.
func IsInherited(name string) bool {
	p, ok := LookupProperty(name)
	return ok && p.Inherited
}

var sides = [4]string{"top", "right", "bottom", "left"}
