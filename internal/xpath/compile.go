package xpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jacoelho/xinclude/internal/xmlnames"
)

// Axis describes the XPath axis used in a step.
type Axis int

const (
	AxisChild Axis = iota
	AxisDescendant
	AxisSelf
)

// NodeTest matches element or attribute names.
type NodeTest struct {
	Local     string
	Namespace string
	// Any matches every name; Local "*" with a namespace matches every name in it.
	Any bool
}

// Matches reports whether the test matches the given name.
func (t NodeTest) Matches(space, local string) bool {
	if t.Any {
		return true
	}
	if t.Namespace != space {
		return false
	}
	return t.Local == "*" || t.Local == local
}

// PredicateKind identifies a step predicate.
type PredicateKind int

const (
	PredicatePosition PredicateKind = iota
	PredicateLast
	PredicateAttrExists
	PredicateAttrEquals
)

// Predicate filters the nodes selected by a step.
type Predicate struct {
	Attr     NodeTest
	Value    string
	Kind     PredicateKind
	Position int
}

// Step represents a single element step in a path.
type Step struct {
	Predicates []Predicate
	Test       NodeTest
	Axis       Axis
}

// Path is a location path. Paths are evaluated from the document node; a
// path starting with id() starts from the element carrying that ID.
type Path struct {
	ID    string
	Steps []Step
	HasID bool
}

// Expression represents a union of paths.
type Expression struct {
	Paths []Path
}

// ErrInvalidXPath reports that the expression does not conform to the restricted XPath syntax.
var ErrInvalidXPath = errors.New("invalid xpath")

func xpathErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidXPath}, args...)...)
}

// Parse compiles an XPath expression. Prefixes resolve through nsContext;
// unprefixed names are in no namespace.
func Parse(expr string, nsContext map[string]string) (Expression, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Expression{}, xpathErrorf("xpath cannot be empty")
	}

	parts, err := splitUnion(expr)
	if err != nil {
		return Expression{}, err
	}
	paths := make([]Path, 0, len(parts))
	for _, raw := range parts {
		part := strings.TrimSpace(raw)
		if part == "" {
			return Expression{}, xpathErrorf("xpath contains empty union branch: %s", expr)
		}
		path, err := parsePath(part, nsContext)
		if err != nil {
			return Expression{}, err
		}
		paths = append(paths, path)
	}
	return Expression{Paths: paths}, nil
}

// splitUnion splits on '|' outside of predicates and string literals.
func splitUnion(expr string) ([]string, error) {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth < 0 {
				return nil, xpathErrorf("xpath has unbalanced ']': %s", expr)
			}
		case c == '|' && depth == 0:
			parts = append(parts, expr[start:i])
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, xpathErrorf("xpath has unterminated string literal: %s", expr)
	}
	if depth != 0 {
		return nil, xpathErrorf("xpath has unbalanced '[': %s", expr)
	}
	return append(parts, expr[start:]), nil
}

func parsePath(expr string, nsContext map[string]string) (Path, error) {
	var path Path
	reader := &pathReader{input: expr}

	axis := AxisChild
	switch {
	case reader.consume("//"):
		axis = AxisDescendant
	case reader.consume("/"):
		if reader.atEnd() {
			return Path{}, xpathErrorf("xpath must select elements, not the document node: %s", expr)
		}
	case reader.consume("id("):
		id, err := reader.readLiteral()
		if err != nil {
			return Path{}, err
		}
		if !reader.consume(")") {
			return Path{}, xpathErrorf("xpath id() takes one string literal: %s", expr)
		}
		path.ID = id
		path.HasID = true
		if reader.atEnd() {
			return path, nil
		}
		nextAxis, ok := reader.consumeSeparator()
		if !ok {
			return Path{}, xpathErrorf("xpath has invalid trailing content: %s", expr)
		}
		axis = nextAxis
	}

	for {
		step, err := parseStep(reader, axis, nsContext)
		if err != nil {
			return Path{}, err
		}
		path.Steps = append(path.Steps, step)

		if reader.atEnd() {
			return path, nil
		}
		nextAxis, ok := reader.consumeSeparator()
		if !ok {
			return Path{}, xpathErrorf("xpath has invalid trailing content: %s", expr)
		}
		axis = nextAxis
	}
}

func parseStep(reader *pathReader, axis Axis, nsContext map[string]string) (Step, error) {
	token := reader.readToken()
	if token == "" {
		return Step{}, xpathErrorf("xpath step is missing a node test")
	}

	if before, after, ok := strings.Cut(token, "::"); ok {
		explicit, err := axisFromName(strings.TrimSpace(before))
		if err != nil {
			return Step{}, err
		}
		if explicit == AxisDescendant && axis == AxisDescendant {
			return Step{}, xpathErrorf("xpath step has invalid axis: %s", token)
		}
		if explicit == AxisDescendant {
			axis = AxisDescendant
		}
		token = strings.TrimSpace(after)
		if token == "" {
			return Step{}, xpathErrorf("xpath step is missing a node test")
		}
	}

	if strings.HasPrefix(token, "@") {
		return Step{}, xpathErrorf("xpath cannot select attributes: %s", token)
	}
	if strings.Contains(token, "(") || strings.Contains(token, ")") {
		return Step{}, xpathErrorf("xpath cannot use functions in steps: %s", token)
	}

	var step Step
	if token == "." {
		if axis != AxisChild {
			return Step{}, xpathErrorf("xpath step has invalid axis")
		}
		step = Step{Axis: AxisSelf, Test: NodeTest{Any: true}}
	} else {
		test, err := parseNodeTest(token, nsContext, false)
		if err != nil {
			return Step{}, err
		}
		step = Step{Axis: axis, Test: test}
	}

	for reader.consume("[") {
		pred, err := parsePredicate(reader, nsContext)
		if err != nil {
			return Step{}, err
		}
		if !reader.consume("]") {
			return Step{}, xpathErrorf("xpath predicate is missing ']'")
		}
		step.Predicates = append(step.Predicates, pred)
	}
	return step, nil
}

func parsePredicate(reader *pathReader, nsContext map[string]string) (Predicate, error) {
	reader.skipSpace()
	if digits := reader.readDigits(); digits != "" {
		n, err := strconv.Atoi(digits)
		if err != nil || n < 1 {
			return Predicate{}, xpathErrorf("xpath position must be a positive integer: %s", digits)
		}
		return Predicate{Kind: PredicatePosition, Position: n}, nil
	}
	if reader.consume("last()") {
		return Predicate{Kind: PredicateLast}, nil
	}
	if !reader.consume("@") {
		return Predicate{}, xpathErrorf("xpath predicate must be a position, last() or an attribute test")
	}
	name := reader.readName()
	attr, err := parseNodeTest(name, nsContext, true)
	if err != nil {
		return Predicate{}, err
	}
	if !reader.consume("=") {
		return Predicate{Kind: PredicateAttrExists, Attr: attr}, nil
	}
	value, err := reader.readLiteral()
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{Kind: PredicateAttrEquals, Attr: attr, Value: value}, nil
}

func parseNodeTest(token string, nsContext map[string]string, attribute bool) (NodeTest, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return NodeTest{}, xpathErrorf("xpath step is missing a node test")
	}
	if token == "*" {
		return NodeTest{Any: true}, nil
	}

	if before, ok := strings.CutSuffix(token, ":*"); ok {
		if !xmlnames.IsNCName(before) {
			return NodeTest{}, xpathErrorf("xpath step has invalid prefix %q", token)
		}
		nsURI, err := xmlnames.ResolvePrefix(before, nsContext)
		if err != nil {
			return NodeTest{}, xpathErrorf("xpath step uses %v", err)
		}
		return NodeTest{Local: "*", Namespace: nsURI}, nil
	}

	if !xmlnames.IsQName(token) {
		if attribute {
			return NodeTest{}, xpathErrorf("xpath attribute test has invalid QName %q", token)
		}
		return NodeTest{}, xpathErrorf("xpath step has invalid QName %q", token)
	}
	prefix, local, hasPrefix := xmlnames.SplitQName(token)
	if !hasPrefix {
		return NodeTest{Local: local}, nil
	}
	nsURI, err := xmlnames.ResolvePrefix(prefix, nsContext)
	if err != nil {
		return NodeTest{}, xpathErrorf("xpath step uses %v", err)
	}
	return NodeTest{Local: local, Namespace: nsURI}, nil
}

func axisFromName(name string) (Axis, error) {
	switch name {
	case "child":
		return AxisChild, nil
	case "descendant":
		return AxisDescendant, nil
	default:
		return AxisChild, xpathErrorf("xpath uses disallowed axis '%s::'", name)
	}
}

type pathReader struct {
	input string
	pos   int
}

// readToken reads a step up to the next separator or predicate.
func (r *pathReader) readToken() string {
	r.skipSpace()
	start := r.pos
	for r.pos < len(r.input) {
		ch := r.input[r.pos]
		if isXPathWhitespace(ch) || ch == '/' || ch == '[' || ch == ']' {
			break
		}
		r.pos++
	}
	return r.input[start:r.pos]
}

// readName reads a QName inside a predicate.
func (r *pathReader) readName() string {
	r.skipSpace()
	start := r.pos
	for r.pos < len(r.input) {
		ch := r.input[r.pos]
		if isXPathWhitespace(ch) || ch == '=' || ch == ']' {
			break
		}
		r.pos++
	}
	return r.input[start:r.pos]
}

func (r *pathReader) readDigits() string {
	start := r.pos
	for r.pos < len(r.input) && r.input[r.pos] >= '0' && r.input[r.pos] <= '9' {
		r.pos++
	}
	return r.input[start:r.pos]
}

func (r *pathReader) readLiteral() (string, error) {
	r.skipSpace()
	if r.pos >= len(r.input) {
		return "", xpathErrorf("xpath expected string literal")
	}
	quote := r.input[r.pos]
	if quote != '\'' && quote != '"' {
		return "", xpathErrorf("xpath expected string literal at %q", r.input[r.pos:])
	}
	end := strings.IndexByte(r.input[r.pos+1:], quote)
	if end < 0 {
		return "", xpathErrorf("xpath has unterminated string literal")
	}
	value := r.input[r.pos+1 : r.pos+1+end]
	r.pos += end + 2
	return value, nil
}

// consumeSeparator consumes '/' or '//' and returns the axis of the next step.
func (r *pathReader) consumeSeparator() (Axis, bool) {
	if r.consume("//") {
		return AxisDescendant, true
	}
	if r.consume("/") {
		return AxisChild, true
	}
	return AxisChild, false
}

func (r *pathReader) consume(s string) bool {
	r.skipSpace()
	if strings.HasPrefix(r.input[r.pos:], s) {
		r.pos += len(s)
		return true
	}
	return false
}

func (r *pathReader) skipSpace() {
	for r.pos < len(r.input) && isXPathWhitespace(r.input[r.pos]) {
		r.pos++
	}
}

func (r *pathReader) atEnd() bool {
	r.skipSpace()
	return r.pos >= len(r.input)
}

func isXPathWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}
