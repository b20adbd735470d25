package xpointer

import (
	"fmt"
	"maps"
	"strings"
	"unicode/utf8"

	"github.com/jacoelho/xinclude/internal/xmlnames"
)

// ElementPathNamespace is the namespace of the elementpath() scheme.
const ElementPathNamespace = "http://jacoelho.github.io/xinclude/elementpath"

// PartKind identifies the kind of a pointer part.
type PartKind uint8

const (
	// PartShorthand selects the element whose ID equals Name.
	PartShorthand PartKind = iota + 1
	// PartNamespaceDecl binds Prefix to URI for later parts.
	PartNamespaceDecl
	// PartExpression carries xpointer() scheme data.
	PartExpression
	// PartElementPath carries elementpath() scheme data.
	PartElementPath
	// PartUnsupported is a scheme this package does not know; its data is dropped.
	PartUnsupported
)

// String returns the part kind name.
func (k PartKind) String() string {
	switch k {
	case PartShorthand:
		return "shorthand"
	case PartNamespaceDecl:
		return "xmlns"
	case PartExpression:
		return "xpointer"
	case PartElementPath:
		return "elementpath"
	case PartUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("PartKind(%d)", k)
	}
}

// SchemeName is a scheme name with its prefix and the namespace bound to it.
type SchemeName struct {
	Prefix string
	Local  string
	Space  string
}

// String returns the lexical scheme name.
func (n SchemeName) String() string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

// Part is one part of a pointer. Which fields are set depends on Kind.
type Part struct {
	// Namespaces holds the xmlns() bindings in effect for an expression or
	// element path part.
	Namespaces map[string]string
	Scheme     SchemeName
	Name       string
	Prefix     string
	URI        string
	Data       string
	Kind       PartKind
}

// Pointer is a parsed pointer.
type Pointer struct {
	Text  string
	Parts []Part
}

// IsShorthand reports whether p is a shorthand pointer.
func (p Pointer) IsShorthand() bool {
	return len(p.Parts) == 1 && p.Parts[0].Kind == PartShorthand
}

// String returns the pointer text.
func (p Pointer) String() string {
	return p.Text
}

// Parse parses pointer text.
func Parse(text string) (Pointer, error) {
	if strings.TrimSpace(text) == "" {
		return Pointer{}, syntaxErrorf(text, 0, "pointer is empty")
	}
	if xmlnames.IsNCName(text) {
		return Pointer{Text: text, Parts: []Part{{Kind: PartShorthand, Name: text}}}, nil
	}
	p := &parser{input: text, bindings: map[string]string{}}
	parts, err := p.parseSchemeBased()
	if err != nil {
		return Pointer{}, err
	}
	return Pointer{Text: text, Parts: parts}, nil
}

type parser struct {
	bindings map[string]string
	input    string
	pos      int
}

func (p *parser) parseSchemeBased() ([]Part, error) {
	var parts []Part
	for {
		p.skipSpace()
		if p.atEnd() {
			return parts, nil
		}
		start := p.pos
		name, err := p.schemeName()
		if err != nil {
			return nil, err
		}
		if !p.consume('(') {
			if p.atEnd() {
				return nil, p.errorf(p.pos, "expected '(' after scheme name %q", name)
			}
			return nil, p.errorf(p.pos, "unexpected character %q after scheme name %q", p.input[p.pos], name)
		}
		data, err := p.schemeData(p.pos - 1)
		if err != nil {
			return nil, err
		}
		part, err := p.dispatch(name, data, start)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
}

func (p *parser) schemeName() (SchemeName, error) {
	start := p.pos
	first := p.readNCName()
	if p.peek(':') {
		if first == "" {
			return SchemeName{}, p.errorf(start, "scheme name has an empty prefix")
		}
		p.pos++
		local := p.readNCName()
		if local == "" {
			return SchemeName{}, p.errorf(p.pos, "scheme name %q has an empty local name", first+":")
		}
		return SchemeName{Prefix: first, Local: local}, nil
	}
	if first == "" {
		return SchemeName{}, p.errorf(start, "expected scheme name")
	}
	return SchemeName{Local: first}, nil
}

// schemeData reads escaped scheme data up to the parenthesis matching the one at open.
// Balanced unescaped parentheses are kept literally.
func (p *parser) schemeData(open int) (string, error) {
	var b strings.Builder
	depth := 0
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case '^':
			if p.pos+1 >= len(p.input) {
				return "", p.errorf(p.pos, "escape character '^' at end of pointer")
			}
			next := p.input[p.pos+1]
			if next != '(' && next != ')' && next != '^' {
				return "", p.errorf(p.pos, "invalid escape sequence '^%c'", next)
			}
			b.WriteByte(next)
			p.pos += 2
			continue
		case '(':
			depth++
		case ')':
			if depth == 0 {
				p.pos++
				return b.String(), nil
			}
			depth--
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", p.errorf(open, "unbalanced parenthesis: missing ')'")
}

func (p *parser) dispatch(name SchemeName, data string, start int) (Part, error) {
	if name.Prefix == "" {
		switch name.Local {
		case "xmlns":
			return p.namespaceDecl(name, data, start)
		case "xpointer":
			return Part{Kind: PartExpression, Scheme: name, Data: data, Namespaces: maps.Clone(p.bindings)}, nil
		default:
			return Part{Kind: PartUnsupported, Scheme: name}, nil
		}
	}

	ns, ok := p.bindings[name.Prefix]
	if !ok {
		return Part{Kind: PartUnsupported, Scheme: name}, nil
	}
	name.Space = ns
	if ns == ElementPathNamespace && name.Local == "elementpath" {
		return Part{Kind: PartElementPath, Scheme: name, Data: data, Namespaces: maps.Clone(p.bindings)}, nil
	}
	return Part{Kind: PartUnsupported, Scheme: name}, nil
}

func (p *parser) namespaceDecl(name SchemeName, data string, start int) (Part, error) {
	before, after, ok := strings.Cut(data, "=")
	if !ok {
		return Part{}, p.errorf(start, "xmlns scheme data %q must have the form prefix=namespace", data)
	}
	prefix := strings.TrimSpace(before)
	uri := strings.TrimSpace(after)
	if prefix == "" {
		return Part{}, p.errorf(start, "xmlns scheme data %q has an empty prefix", data)
	}
	if !xmlnames.IsNCName(prefix) {
		return Part{}, p.errorf(start, "xmlns prefix %q is not a valid name", prefix)
	}
	p.bindings[prefix] = uri
	return Part{Kind: PartNamespaceDecl, Scheme: name, Prefix: prefix, URI: uri}, nil
}

func (p *parser) readNCName() string {
	start := p.pos
	for p.pos < len(p.input) {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if p.pos == start {
			if !xmlnames.IsNameStart(r) {
				break
			}
		} else if !xmlnames.IsNameChar(r) {
			break
		}
		p.pos += size
	}
	return p.input[start:p.pos]
}

func (p *parser) peek(c byte) bool {
	return p.pos < len(p.input) && p.input[p.pos] == c
}

func (p *parser) consume(c byte) bool {
	if p.peek(c) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && isSpace(p.input[p.pos]) {
		p.pos++
	}
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.input)
}

func (p *parser) errorf(offset int, format string, args ...any) error {
	return syntaxErrorf(p.input, offset, format, args...)
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}
