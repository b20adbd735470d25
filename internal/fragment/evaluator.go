package fragment

import (
	"fmt"
	"iter"

	xierrors "github.com/jacoelho/xinclude/errors"
	"github.com/jacoelho/xinclude/internal/xpath"
	"github.com/jacoelho/xinclude/pkg/xmlevent"
	"github.com/jacoelho/xinclude/pkg/xpointer"
)

// Evaluator selects fragments from a buffered document.
// The zero value is ready to use.
type Evaluator struct{}

// New returns the default evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

// Evaluate reads src to the end and returns the spans selected by ptr in
// document order. Parts are tried in order and the first part selecting at
// least one element wins. The returned sequence can be consumed once.
//
// Failures are *errors.Inclusion values: ErrResourceIO when src cannot be
// read, ErrPointerSyntax when no part matched and one failed to compile, and
// ErrFragmentNotFound when nothing was selected.
func (e *Evaluator) Evaluate(ptr xpointer.Pointer, src xmlevent.Source) (iter.Seq[xmlevent.Span], error) {
	events, err := xmlevent.Record(src)
	if err != nil {
		return nil, xierrors.Wrap(xierrors.ErrResourceIO, err, "read resource")
	}
	idx := buildIndex(events)

	var compileErr error
	for _, part := range ptr.Parts {
		nodes, err := idx.selectPart(part)
		if err != nil {
			if compileErr == nil {
				compileErr = err
			}
			continue
		}
		if len(nodes) > 0 {
			return spans(idx, nodes), nil
		}
	}
	if compileErr != nil {
		return nil, xierrors.Wrap(xierrors.ErrPointerSyntax, compileErr, fmt.Sprintf("pointer %q", ptr.Text))
	}
	return nil, xierrors.Newf(xierrors.ErrFragmentNotFound, "pointer %q selects nothing", ptr.Text)
}

func (idx *index) selectPart(part xpointer.Part) ([]*node, error) {
	switch part.Kind {
	case xpointer.PartShorthand:
		if n := idx.byID(part.Name); n != nil {
			return []*node{n}, nil
		}
		return nil, nil
	case xpointer.PartExpression:
		expr, err := xpath.Parse(part.Data, part.Namespaces)
		if err != nil {
			return nil, err
		}
		return idx.selectExpression(expr), nil
	case xpointer.PartElementPath:
		steps, err := compileElementPath(part.Data, part.Namespaces)
		if err != nil {
			return nil, err
		}
		if n := idx.selectElementPath(steps); n != nil {
			return []*node{n}, nil
		}
		return nil, nil
	default:
		return nil, nil
	}
}

// spans yields the span of each node lazily. A second iteration yields nothing.
func spans(idx *index, nodes []*node) iter.Seq[xmlevent.Span] {
	consumed := false
	return func(yield func(xmlevent.Span) bool) {
		if consumed {
			return
		}
		consumed = true
		for _, n := range nodes {
			if !yield(idx.span(n)) {
				return
			}
		}
	}
}
