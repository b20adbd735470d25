package xmlevent

import "strconv"

// Kind identifies the kind of streaming XML event.
type Kind uint8

const (
	// KindLocator announces the position-reporting handle for the events that follow.
	KindLocator Kind = iota + 1
	KindStartDocument
	KindEndDocument
	KindStartPrefixMapping
	KindEndPrefixMapping
	KindStartElement
	KindEndElement
	KindCharData
	KindComment
	KindProcInst
)

var kindNames = [...]string{
	KindLocator:            "Locator",
	KindStartDocument:      "StartDocument",
	KindEndDocument:        "EndDocument",
	KindStartPrefixMapping: "StartPrefixMapping",
	KindEndPrefixMapping:   "EndPrefixMapping",
	KindStartElement:       "StartElement",
	KindEndElement:         "EndElement",
	KindCharData:           "CharData",
	KindComment:            "Comment",
	KindProcInst:           "ProcInst",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// QName is a namespace-qualified name. Prefix is the lexical prefix used in
// the source document and is kept for serialization only.
type QName struct {
	Space  string
	Local  string
	Prefix string
}

// String returns the lexical prefix:local form.
func (q QName) String() string {
	if q.Prefix == "" {
		return q.Local
	}
	return q.Prefix + ":" + q.Local
}

// Is reports whether q has the given namespace and local name.
func (q QName) Is(space, local string) bool {
	return q.Space == space && q.Local == local
}

// Attr is a namespace-qualified attribute.
type Attr struct {
	Name  QName
	Value string
}

// Locator reports the document and position of the most recent event.
type Locator interface {
	SystemID() string
	Line() int
	Column() int
}

// Position is a fixed Locator.
type Position struct {
	System string
	L      int
	C      int
}

// SystemID returns the document identity.
func (p Position) SystemID() string { return p.System }

// Line returns the line number.
func (p Position) Line() int { return p.L }

// Column returns the column number.
func (p Position) Column() int { return p.C }

// Event is a single streaming XML event. Which fields are meaningful depends on Kind:
// Locator for KindLocator, Name and Attrs for elements, Prefix and URI for
// prefix mappings, Text for character data and comments, Target and Text for
// processing instructions.
type Event struct {
	Locator Locator
	Name    QName
	Attrs   []Attr
	Prefix  string
	URI     string
	Text    string
	Target  string
	Kind    Kind
	Line    int
	Column  int
}

// Attr returns the value of the attribute with the given namespace and local name.
//
//nolint:gocritic // events are passed by value throughout the package.
func (e Event) Attr(space, local string) (string, bool) {
	for _, attr := range e.Attrs {
		if attr.Name.Is(space, local) {
			return attr.Value, true
		}
	}
	return "", false
}

// Clone returns a copy of e that does not share its attribute slice.
//
//nolint:gocritic // events are passed by value throughout the package.
func (e Event) Clone() Event {
	if e.Attrs != nil {
		e.Attrs = append([]Attr(nil), e.Attrs...)
	}
	return e
}
