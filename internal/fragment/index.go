package fragment

import (
	"maps"
	"slices"

	"github.com/jacoelho/xinclude/pkg/xmlevent"
)

type node struct {
	parent   *node
	scope    map[string]string
	name     xmlevent.QName
	attrs    []xmlevent.Attr
	children []*node
	start    int
	end      int
	order    int
}

func (n *node) isDocument() bool {
	return n.parent == nil
}

func (n *node) id() (string, bool) {
	for _, attr := range n.attrs {
		if attr.Name.Is(xmlevent.XMLNamespace, "id") {
			return attr.Value, true
		}
	}
	for _, attr := range n.attrs {
		if attr.Name.Space == "" && attr.Name.Local == "id" {
			return attr.Value, true
		}
	}
	return "", false
}

// index is the element tree of a buffered document. The document node has
// no parent and order -1.
type index struct {
	doc    *node
	events []xmlevent.Event
	nodes  []*node
}

func buildIndex(events []xmlevent.Event) *index {
	idx := &index{events: events, doc: &node{order: -1}}
	stack := []*node{idx.doc}
	var pending []xmlevent.Event
	for i, ev := range events {
		switch ev.Kind {
		case xmlevent.KindStartPrefixMapping:
			pending = append(pending, ev)
		case xmlevent.KindStartElement:
			parent := stack[len(stack)-1]
			n := &node{
				parent: parent,
				scope:  parent.scope,
				name:   ev.Name,
				attrs:  ev.Attrs,
				start:  i,
				end:    i,
				order:  len(idx.nodes),
			}
			if len(pending) > 0 {
				n.scope = make(map[string]string, len(parent.scope)+len(pending))
				maps.Copy(n.scope, parent.scope)
				for _, decl := range pending {
					n.scope[decl.Prefix] = decl.URI
				}
				pending = pending[:0]
			}
			parent.children = append(parent.children, n)
			idx.nodes = append(idx.nodes, n)
			stack = append(stack, n)
		case xmlevent.KindEndElement:
			if len(stack) > 1 {
				stack[len(stack)-1].end = i
				stack = stack[:len(stack)-1]
			}
		}
	}
	return idx
}

func (idx *index) root() *node {
	if len(idx.doc.children) == 0 {
		return nil
	}
	return idx.doc.children[0]
}

func (idx *index) byID(id string) *node {
	for _, n := range idx.nodes {
		if v, ok := n.id(); ok && v == id {
			return n
		}
	}
	return nil
}

// span returns the events of n wrapped in the namespace bindings in scope
// at n, so the span is well formed outside its document.
func (idx *index) span(n *node) xmlevent.Span {
	prefixes := make([]string, 0, len(n.scope))
	for prefix, uri := range n.scope {
		if prefix == "" && uri == "" {
			continue
		}
		prefixes = append(prefixes, prefix)
	}
	slices.Sort(prefixes)

	body := idx.events[n.start : n.end+1]
	span := make(xmlevent.Span, 0, len(body)+2*len(prefixes))
	for _, prefix := range prefixes {
		span = append(span, xmlevent.Event{
			Kind:   xmlevent.KindStartPrefixMapping,
			Prefix: prefix,
			URI:    n.scope[prefix],
			Line:   idx.events[n.start].Line,
			Column: idx.events[n.start].Column,
		})
	}
	span = append(span, body...)
	for i := len(prefixes) - 1; i >= 0; i-- {
		span = append(span, xmlevent.Event{
			Kind:   xmlevent.KindEndPrefixMapping,
			Prefix: prefixes[i],
			Line:   idx.events[n.end].Line,
			Column: idx.events[n.end].Column,
		})
	}
	return span
}

func sortByOrder(nodes []*node) {
	slices.SortFunc(nodes, func(a, b *node) int {
		return a.order - b.order
	})
}
