package xmlevent

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

const readerBufferSize = 64 * 1024

// Reader produces namespace-resolved events from an XML document.
// It emits a KindLocator event referring to itself, then the document events,
// and io.EOF after KindEndDocument. Reader implements Locator: the position
// is the start of the most recently returned event.
type Reader struct {
	dec      *xml.Decoder
	systemID string
	ns       nsStack
	elems    []QName
	pending  []Event
	err      error
	line     int
	column   int
	started  bool
	ended    bool
	sawRoot  bool
}

// NewReader creates a Reader for the document identified by systemID.
func NewReader(r io.Reader, systemID string) (*Reader, error) {
	if r == nil {
		return nil, errNilReader
	}
	dec := xml.NewDecoder(bufio.NewReaderSize(r, readerBufferSize))
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel
	return &Reader{dec: dec, systemID: systemID}, nil
}

// SystemID returns the document identity.
func (r *Reader) SystemID() string { return r.systemID }

// Line returns the line of the most recent event.
func (r *Reader) Line() int { return r.line }

// Column returns the column of the most recent event.
func (r *Reader) Column() int { return r.column }

// Next returns the next event.
func (r *Reader) Next() (Event, error) {
	if r == nil || r.dec == nil {
		return Event{}, errNilReader
	}
	for {
		if len(r.pending) > 0 {
			ev := r.pending[0]
			r.pending = r.pending[1:]
			r.line, r.column = ev.Line, ev.Column
			return ev, nil
		}
		if r.err != nil {
			return Event{}, r.err
		}
		if !r.started {
			r.started = true
			r.pending = append(r.pending,
				Event{Kind: KindLocator, Locator: r, Line: 1, Column: 1},
				Event{Kind: KindStartDocument, Line: 1, Column: 1},
			)
			continue
		}
		if r.ended {
			return Event{}, io.EOF
		}
		if err := r.readToken(); err != nil {
			r.err = err
		}
	}
}

func (r *Reader) readToken() error {
	line, column := r.dec.InputPos()
	tok, err := r.dec.RawToken()
	if errors.Is(err, io.EOF) {
		return r.finish(line, column)
	}
	if err != nil {
		return r.syntaxError(line, column, err)
	}

	switch t := tok.(type) {
	case xml.StartElement:
		return r.startElement(t, line, column)
	case xml.EndElement:
		return r.endElement(t, line, column)
	case xml.CharData:
		if len(r.elems) == 0 {
			if strings.TrimSpace(string(t)) != "" {
				return r.syntaxError(line, column, errTextOutsideRoot)
			}
			return nil
		}
		r.pending = append(r.pending, Event{Kind: KindCharData, Text: string(t), Line: line, Column: column})
	case xml.Comment:
		r.pending = append(r.pending, Event{Kind: KindComment, Text: string(t), Line: line, Column: column})
	case xml.ProcInst:
		if t.Target == "xml" {
			return nil
		}
		inst := strings.TrimLeft(string(t.Inst), " \t\r\n")
		r.pending = append(r.pending, Event{Kind: KindProcInst, Target: t.Target, Text: inst, Line: line, Column: column})
	case xml.Directive:
		// DOCTYPE and friends are not part of the event vocabulary.
	}
	return nil
}

func (r *Reader) startElement(t xml.StartElement, line, column int) error {
	if len(r.elems) == 0 && r.sawRoot {
		return r.syntaxError(line, column, errMultipleRoots)
	}
	r.sawRoot = true

	scope := collectNamespaceScope(t.Attr)
	r.ns.push(scope)
	name, err := r.ns.resolveElement(t.Name)
	if err != nil {
		return r.syntaxError(line, column, fmt.Errorf("%w %q", err, t.Name.Space))
	}

	var attrs []Attr
	if n := len(t.Attr) - len(scope.decls); n > 0 {
		attrs = make([]Attr, 0, n)
	}
	for _, attr := range t.Attr {
		if isNamespaceDecl(attr.Name) {
			continue
		}
		attrName, err := r.ns.resolveAttr(attr.Name)
		if err != nil {
			return r.syntaxError(line, column, fmt.Errorf("%w %q", err, attr.Name.Space))
		}
		attrs = append(attrs, Attr{Name: attrName, Value: attr.Value})
	}

	for _, decl := range scope.decls {
		r.pending = append(r.pending, Event{Kind: KindStartPrefixMapping, Prefix: decl.Prefix, URI: decl.URI, Line: line, Column: column})
	}
	r.pending = append(r.pending, Event{Kind: KindStartElement, Name: name, Attrs: attrs, Line: line, Column: column})
	r.elems = append(r.elems, name)
	return nil
}

func (r *Reader) endElement(t xml.EndElement, line, column int) error {
	if len(r.elems) == 0 {
		return r.syntaxError(line, column, errMismatchedEnd)
	}
	name := r.elems[len(r.elems)-1]
	if name.Prefix != t.Name.Space || name.Local != t.Name.Local {
		return r.syntaxError(line, column, fmt.Errorf("%w: <%s> closed by </%s>", errMismatchedEnd, name, rawName(t.Name)))
	}
	r.elems = r.elems[:len(r.elems)-1]
	scope := r.ns.pop()

	r.pending = append(r.pending, Event{Kind: KindEndElement, Name: name, Line: line, Column: column})
	for i := len(scope.decls) - 1; i >= 0; i-- {
		r.pending = append(r.pending, Event{Kind: KindEndPrefixMapping, Prefix: scope.decls[i].Prefix, Line: line, Column: column})
	}
	return nil
}

func (r *Reader) finish(line, column int) error {
	if len(r.elems) > 0 {
		return r.syntaxError(line, column, errUnclosed)
	}
	if !r.sawRoot {
		return r.syntaxError(line, column, errNoRoot)
	}
	r.ended = true
	r.pending = append(r.pending, Event{Kind: KindEndDocument, Line: line, Column: column})
	return nil
}

func (r *Reader) syntaxError(line, column int, err error) error {
	var xmlErr *xml.SyntaxError
	if errors.As(err, &xmlErr) {
		err = errors.New(xmlErr.Msg)
		line = xmlErr.Line
	}
	return &SyntaxError{SystemID: r.systemID, Line: line, Column: column, Err: err}
}

func rawName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}
