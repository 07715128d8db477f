package css

import (
	"fmt"
	"strings"
)

type Combinator int

const (
	DescendantCombinator      Combinator = iota // "a b"
	ChildCombinator                             // "a > b"
	AdjacentSiblingCombinator                   // "a + b"
	GeneralSiblingCombinator                    // "a ~ b"
)

// AttributeSelector is [name], [name=value] or one of the substring forms.
type AttributeSelector struct {
	Name     string
	Operator string // "", "=", "~=", "|=", "^=", "$=", "*="
	Value    string
}

type PseudoClass struct {
	Name string
	Arg  string // for nth-child(...) and not(...)
}

// SelectorPart is one compound selector such as div.a#b[x].
type SelectorPart struct {
	Element       string
	ID            string
	Classes       []string
	Attributes    []AttributeSelector
	PseudoClasses []PseudoClass
}

// Selector is a complex selector. Combinators[i] joins Parts[i] and
// Parts[i+1].
type Selector struct {
	Raw           string
	Parts         []SelectorPart
	Combinators   []Combinator
	PseudoElement string
	Specificity   int
}

// ParseSelectorGroup parses a comma separated selector list.
func ParseSelectorGroup(s string) ([]Selector, error) {
	var out []Selector
	for _, raw := range splitTopLevel(s, ',') {
		sel, err := ParseSelector(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty selector %q", s)
	}
	return out, nil
}

func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	sel := Selector{Raw: s}
	if s == "" {
		return sel, fmt.Errorf("empty selector")
	}
	p := &selectorParser{src: s}
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		if len(sel.Parts) > 0 {
			comb := DescendantCombinator
			switch p.peek() {
			case '>':
				comb = ChildCombinator
				p.pos++
			case '+':
				comb = AdjacentSiblingCombinator
				p.pos++
			case '~':
				comb = GeneralSiblingCombinator
				p.pos++
			}
			p.skipSpace()
			sel.Combinators = append(sel.Combinators, comb)
		}
		part, pseudoElement, err := p.compound()
		if err != nil {
			return sel, fmt.Errorf("selector %q: %w", s, err)
		}
		sel.Parts = append(sel.Parts, part)
		if pseudoElement != "" {
			sel.PseudoElement = pseudoElement
			p.skipSpace()
			if !p.eof() {
				return sel, fmt.Errorf("selector %q: pseudo-element must be last", s)
			}
		}
	}
	if len(sel.Combinators) >= len(sel.Parts) {
		return sel, fmt.Errorf("selector %q: dangling combinator", s)
	}
	sel.Specificity = specificity(sel)
	return sel, nil
}

// specificity packs (ids, classes, types) as a*10000 + b*100 + c.
func specificity(sel Selector) int {
	var a, b, c int
	for _, part := range sel.Parts {
		if part.ID != "" {
			a++
		}
		b += len(part.Classes) + len(part.Attributes)
		for _, pc := range part.PseudoClasses {
			if pc.Name == "not" {
				if inner, err := ParseSelector(pc.Arg); err == nil {
					b += inner.Specificity / 100 % 100
					a += inner.Specificity / 10000
					c += inner.Specificity % 100
				}
				continue
			}
			b++
		}
		if part.Element != "" && part.Element != "*" {
			c++
		}
	}
	if sel.PseudoElement != "" {
		c++
	}
	return a*10000 + b*100 + c
}

type selectorParser struct {
	src string
	pos int
}

func (p *selectorParser) eof() bool  { return p.pos >= len(p.src) }
func (p *selectorParser) peek() byte { return p.src[p.pos] }

func (p *selectorParser) skipSpace() {
	for !p.eof() && isSpace(p.peek()) {
		p.pos++
	}
}

func (p *selectorParser) ident() string {
	start := p.pos
	for !p.eof() {
		ch := p.peek()
		if ch == '\\' && p.pos+1 < len(p.src) {
			p.pos += 2
			continue
		}
		if !isIdentChar(ch) {
			break
		}
		p.pos++
	}
	return strings.ReplaceAll(p.src[start:p.pos], `\`, "")
}

func (p *selectorParser) compound() (SelectorPart, string, error) {
	var part SelectorPart
	start := p.pos
	if !p.eof() && p.peek() == '*' {
		part.Element = "*"
		p.pos++
	} else if !p.eof() && isIdentChar(p.peek()) {
		part.Element = strings.ToLower(p.ident())
	}
	for !p.eof() {
		switch ch := p.peek(); ch {
		case '#':
			p.pos++
			part.ID = p.ident()
			if part.ID == "" {
				return part, "", fmt.Errorf("empty id at %d", p.pos)
			}
		case '.':
			p.pos++
			class := p.ident()
			if class == "" {
				return part, "", fmt.Errorf("empty class at %d", p.pos)
			}
			part.Classes = append(part.Classes, class)
		case '[':
			attr, err := p.attribute()
			if err != nil {
				return part, "", err
			}
			part.Attributes = append(part.Attributes, attr)
		case ':':
			p.pos++
			if !p.eof() && p.peek() == ':' {
				p.pos++
				name := strings.ToLower(p.ident())
				if name == "" {
					return part, "", fmt.Errorf("empty pseudo-element at %d", p.pos)
				}
				return part, name, nil
			}
			name := strings.ToLower(p.ident())
			if name == "" {
				return part, "", fmt.Errorf("empty pseudo-class at %d", p.pos)
			}
			switch name {
			case "before", "after", "first-line", "first-letter":
				return part, name, nil
			}
			pc := PseudoClass{Name: name}
			if !p.eof() && p.peek() == '(' {
				arg, err := p.parenthesized()
				if err != nil {
					return part, "", err
				}
				pc.Arg = arg
			}
			part.PseudoClasses = append(part.PseudoClasses, pc)
		default:
			if p.pos == start {
				return part, "", fmt.Errorf("unexpected %q at %d", ch, p.pos)
			}
			return part, "", nil
		}
	}
	if p.pos == start {
		return part, "", fmt.Errorf("missing selector at %d", p.pos)
	}
	return part, "", nil
}

func (p *selectorParser) attribute() (AttributeSelector, error) {
	end := strings.IndexByte(p.src[p.pos:], ']')
	if end < 0 {
		return AttributeSelector{}, fmt.Errorf("unterminated attribute selector")
	}
	body := strings.TrimSpace(p.src[p.pos+1 : p.pos+end])
	p.pos += end + 1

	var attr AttributeSelector
	for _, op := range []string{"~=", "|=", "^=", "$=", "*=", "="} {
		if i := strings.Index(body, op); i > 0 {
			attr.Name = strings.ToLower(strings.TrimSpace(body[:i]))
			attr.Operator = op
			v := strings.TrimSpace(body[i+len(op):])
			v = strings.TrimSuffix(strings.TrimSuffix(v, " i"), " s")
			attr.Value = strings.Trim(v, `"'`)
			return attr, nil
		}
	}
	attr.Name = strings.ToLower(body)
	if attr.Name == "" {
		return attr, fmt.Errorf("empty attribute selector")
	}
	return attr, nil
}

func (p *selectorParser) parenthesized() (string, error) {
	depth, start := 0, p.pos+1
	for ; !p.eof(); p.pos++ {
		switch p.peek() {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				arg := strings.TrimSpace(p.src[start:p.pos])
				p.pos++
				return arg, nil
			}
		}
	}
	return "", fmt.Errorf("unterminated pseudo-class argument")
}

// splitTopLevel splits on sep outside brackets and parentheses.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case sep:
			if depth == 0 {
				if part := strings.TrimSpace(s[start:i]); part != "" {
					out = append(out, part)
				}
				start = i + 1
			}
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		out = append(out, part)
	}
	return out
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f'
}

func isIdentChar(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' ||
		ch == '-' || ch == '_' || ch >= 0x80
}
