package include

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	xierrors "github.com/jacoelho/xinclude/errors"
	"github.com/jacoelho/xinclude/internal/baseuri"
	"github.com/jacoelho/xinclude/internal/validity"
	"github.com/jacoelho/xinclude/pkg/xmlevent"
)

// frame identifies the document a Filter is streaming. Frames form a chain
// from the innermost inclusion to the outermost document.
type frame struct {
	parent  *frame
	href    string
	pointer string
	depth   int
}

// contains reports whether f or one of its ancestors streams href with pointer.
func (f *frame) contains(href, pointer string) bool {
	for fr := f; fr != nil; fr = fr.parent {
		if fr.href == href && fr.pointer == pointer {
			return true
		}
	}
	return false
}

type mode uint8

const (
	// modeSuppressed discards the body of an include element.
	modeSuppressed mode = iota + 1
	// modeFallback passes the content of the active fallback element through.
	modeFallback
)

// openDirective is the state of an include element that has not ended.
type openDirective struct {
	// err is the recoverable failure waiting for a fallback.
	err           error
	decls         []xmlevent.Event
	fallbackDecls []xmlevent.Event
	depth         int
	fallbackDepth int
	fallbacks     int
	mode          mode
}

// Filter is a Handler that resolves include directives in the events it
// receives and forwards the result to the next Handler.
// A Filter processes one document and is not safe for concurrent use.
type Filter struct {
	ctx        context.Context
	cfg        *Config
	next       xmlevent.Handler
	frame      *frame
	base       *baseuri.Tracker
	locator    xmlevent.Locator
	directives []*openDirective
	pending    []xmlevent.Event
	// dropped holds, per open element, how many end prefix mappings to drop.
	dropped   []int
	fixupBase string
	dropEnds  int
	depth     int
}

// NewFilter returns the Filter of the outermost document. systemID may be
// empty, in which case the document location is taken from the first locator.
// A document with no location from either source is not recorded in the
// validity set.
func NewFilter(ctx context.Context, cfg Config, systemID string, next xmlevent.Handler) (*Filter, error) {
	if next == nil {
		return nil, fmt.Errorf("nil next handler")
	}
	href := ""
	if systemID != "" {
		canonical, err := baseuri.Canonical(systemID)
		if err != nil {
			return nil, fmt.Errorf("system id %q: %w", systemID, err)
		}
		href = canonical
	}
	return &Filter{
		ctx:   ctx,
		cfg:   cfg.withDefaults(),
		next:  next,
		frame: &frame{href: href},
		base:  baseuri.NewTracker(href),
	}, nil
}

// Validity returns the token set the Filter records into.
func (f *Filter) Validity() *validity.Aggregator {
	return f.cfg.Validity
}

// HandleEvent processes one event.
//
//nolint:gocritic // events are passed by value throughout the package.
func (f *Filter) HandleEvent(ev xmlevent.Event) error {
	switch ev.Kind {
	case xmlevent.KindLocator:
		return f.setLocator(ev)
	case xmlevent.KindStartDocument:
		if f.nested() {
			return nil
		}
		if f.frame.href != "" {
			if err := f.cfg.Validity.Add(validity.Token{Source: f.frame.href, Stamp: f.cfg.RootStamp}); err != nil {
				return err
			}
		}
		return f.next.HandleEvent(ev)
	case xmlevent.KindEndDocument:
		if f.nested() {
			return nil
		}
		if len(f.directives) > 0 {
			return f.errorAt(xierrors.New(xierrors.ErrXMLParse, "document ended inside an include element"), ev)
		}
		f.cfg.Validity.Close()
		return f.next.HandleEvent(ev)
	case xmlevent.KindStartPrefixMapping:
		f.pending = append(f.pending, ev)
		return nil
	case xmlevent.KindEndPrefixMapping:
		if f.dropEnds > 0 {
			f.dropEnds--
			return nil
		}
		return f.next.HandleEvent(ev)
	case xmlevent.KindStartElement:
		return f.startElement(ev)
	case xmlevent.KindEndElement:
		return f.endElement(ev)
	default:
		if f.suppressed() {
			return nil
		}
		return f.next.HandleEvent(ev)
	}
}

func (f *Filter) nested() bool {
	return f.frame.parent != nil
}

func (f *Filter) top() *openDirective {
	if len(f.directives) == 0 {
		return nil
	}
	return f.directives[len(f.directives)-1]
}

// suppressed reports whether events are inside an include body with no active fallback.
func (f *Filter) suppressed() bool {
	d := f.top()
	return d != nil && d.mode == modeSuppressed
}

//nolint:gocritic // events are passed by value throughout the package.
func (f *Filter) setLocator(ev xmlevent.Event) error {
	f.locator = ev.Locator
	if f.frame.href == "" && ev.Locator != nil && ev.Locator.SystemID() != "" {
		href, err := baseuri.Canonical(ev.Locator.SystemID())
		if err != nil {
			return fmt.Errorf("document location %q: %w", ev.Locator.SystemID(), err)
		}
		f.frame.href = href
		f.base.Seed(href)
	}
	return f.next.HandleEvent(ev)
}

//nolint:gocritic // events are passed by value throughout the package.
func (f *Filter) startElement(ev xmlevent.Event) error {
	decls := f.pending
	f.pending = nil
	f.depth++
	xmlBase, hasBase := ev.Attr(xmlevent.XMLNamespace, "base")
	if err := f.base.Push(xmlBase, hasBase); err != nil {
		f.cfg.Logger.Warn("ignoring malformed xml:base",
			zap.String("system_id", f.systemID()),
			zap.Int("line", ev.Line),
			zap.Error(err),
		)
	}

	if d := f.top(); d != nil && d.mode == modeSuppressed {
		f.dropped = append(f.dropped, len(decls))
		return f.startSuppressed(d, ev, decls)
	}

	if ev.Name.Space == Namespace {
		f.dropped = append(f.dropped, len(decls))
		switch ev.Name.Local {
		case "include":
			return f.startInclude(ev, decls)
		case "fallback":
			return f.errorAt(xierrors.New(xierrors.ErrFallbackMisplaced, "fallback must be a child of include"), ev)
		default:
			return f.errorAt(xierrors.Newf(xierrors.ErrUnknownElement, "unknown element %s in the XInclude namespace", ev.Name), ev)
		}
	}

	f.dropped = append(f.dropped, 0)
	if err := f.forward(decls); err != nil {
		return err
	}
	return f.next.HandleEvent(f.fixup(ev))
}

// startSuppressed handles an element inside an include body. Only direct
// children in the XInclude namespace matter.
//
//nolint:gocritic // events are passed by value throughout the package.
func (f *Filter) startSuppressed(d *openDirective, ev xmlevent.Event, decls []xmlevent.Event) error {
	if ev.Name.Space != Namespace || f.depth != d.depth+1 {
		return nil
	}
	switch ev.Name.Local {
	case "fallback":
		d.fallbacks++
		if d.fallbacks > 1 {
			return f.errorAt(xierrors.New(xierrors.ErrMultipleFallbacks, "include has more than one fallback"), ev)
		}
		if d.err == nil {
			return nil
		}
		f.cfg.Logger.Debug("using fallback",
			zap.String("system_id", f.systemID()),
			zap.Int("line", ev.Line),
			zap.NamedError("cause", d.err),
		)
		d.mode = modeFallback
		d.fallbackDepth = f.depth
		d.fallbackDecls = decls
		if err := f.forward(d.decls); err != nil {
			return err
		}
		return f.forward(decls)
	case "include":
		return f.errorAt(xierrors.New(xierrors.ErrUnknownElement, "include cannot contain include"), ev)
	default:
		return f.errorAt(xierrors.Newf(xierrors.ErrUnknownElement, "unknown element %s in the XInclude namespace", ev.Name), ev)
	}
}

//nolint:gocritic // events are passed by value throughout the package.
func (f *Filter) endElement(ev xmlevent.Event) error {
	if n := len(f.dropped); n > 0 {
		f.dropEnds += f.dropped[n-1]
		f.dropped = f.dropped[:n-1]
	}
	depth := f.depth
	f.depth--
	f.base.Pop()

	d := f.top()
	switch {
	case d == nil:
	case d.mode == modeFallback && depth == d.fallbackDepth:
		d.mode = modeSuppressed
		if err := f.unmap(d.fallbackDecls); err != nil {
			return err
		}
		return f.unmap(d.decls)
	case d.mode == modeSuppressed && depth == d.depth:
		f.directives = f.directives[:len(f.directives)-1]
		if d.err != nil && d.fallbacks == 0 {
			return xierrors.Escalate(d.err)
		}
		return nil
	case d.mode == modeSuppressed:
		return nil
	}
	return f.next.HandleEvent(ev)
}

//nolint:gocritic // events are passed by value throughout the package.
func (f *Filter) startInclude(ev xmlevent.Event, decls []xmlevent.Event) error {
	d := &openDirective{depth: f.depth, mode: modeSuppressed, decls: decls}
	f.directives = append(f.directives, d)
	err := f.include(ev)
	if err == nil {
		return nil
	}
	if !xierrors.IsRecoverable(err) {
		return err
	}
	f.cfg.Logger.Debug("inclusion failed, looking for fallback",
		zap.String("system_id", f.systemID()),
		zap.Int("line", ev.Line),
		zap.Error(err),
	)
	d.err = err
	return nil
}

// fixup adds xml:base to a top-level element of included content.
//
//nolint:gocritic // events are passed by value throughout the package.
func (f *Filter) fixup(ev xmlevent.Event) xmlevent.Event {
	if !f.cfg.BaseFixup || !f.nested() || f.depth != 1 {
		return ev
	}
	base := f.base.Current()
	if base == "" || base == f.fixupBase {
		return ev
	}
	ev = ev.Clone()
	for i, attr := range ev.Attrs {
		if attr.Name.Is(xmlevent.XMLNamespace, "base") {
			ev.Attrs[i].Value = base
			return ev
		}
	}
	ev.Attrs = append(ev.Attrs, xmlevent.Attr{
		Name:  xmlevent.QName{Space: xmlevent.XMLNamespace, Local: "base", Prefix: "xml"},
		Value: base,
	})
	return ev
}

func (f *Filter) forward(decls []xmlevent.Event) error {
	for _, decl := range decls {
		if err := f.next.HandleEvent(decl); err != nil {
			return err
		}
	}
	return nil
}

// unmap ends the mappings started from decls, innermost first.
func (f *Filter) unmap(decls []xmlevent.Event) error {
	for i := len(decls) - 1; i >= 0; i-- {
		end := xmlevent.Event{
			Kind:   xmlevent.KindEndPrefixMapping,
			Prefix: decls[i].Prefix,
			Line:   decls[i].Line,
			Column: decls[i].Column,
		}
		if err := f.next.HandleEvent(end); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filter) systemID() string {
	if f.frame.href != "" {
		return f.frame.href
	}
	if f.locator != nil {
		return f.locator.SystemID()
	}
	return ""
}

//nolint:gocritic // events are passed by value throughout the package.
func (f *Filter) errorAt(err *xierrors.Inclusion, ev xmlevent.Event) *xierrors.Inclusion {
	return err.At(f.systemID(), ev.Line, ev.Column)
}
