package include

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	xierrors "github.com/jacoelho/xinclude/errors"
	"github.com/jacoelho/xinclude/internal/baseuri"
	"github.com/jacoelho/xinclude/internal/validity"
	"github.com/jacoelho/xinclude/pkg/xmlevent"
	"github.com/jacoelho/xinclude/pkg/xpointer"
)

// include processes one include element. Recoverable errors are returned
// as *errors.Inclusion values that Recoverable reports true for.
//
//nolint:gocritic // events are passed by value throughout the package.
func (f *Filter) include(ev xmlevent.Event) (err error) {
	dir, err := f.parseDirective(ev)
	if err != nil {
		return err
	}

	ctx, span := f.cfg.Tracer.Start(f.ctx, "xinclude.include", trace.WithAttributes(
		attribute.String("xinclude.href", dir.href),
		attribute.String("xinclude.parse", dir.mode.String()),
		attribute.String("xinclude.xpointer", dir.pointer),
		attribute.String("xinclude.system_id", f.systemID()),
		attribute.Int("xinclude.depth", f.frame.depth),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	location, err := f.location(dir, ev)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("xinclude.location", location))

	var ptr xpointer.Pointer
	if dir.mode == ModeXML {
		if f.frame.contains(location, dir.pointer) {
			return f.errorAt(xierrors.Newf(xierrors.ErrLoopDetected, "inclusion loop: %s", describeTarget(location, dir.pointer)), ev)
		}
		if f.frame.depth+1 > f.cfg.MaxDepth {
			return f.errorAt(xierrors.Newf(xierrors.ErrDepthExceeded, "inclusion depth exceeds %d", f.cfg.MaxDepth), ev)
		}
		if dir.pointer != "" {
			ptr, err = xpointer.Parse(dir.pointer)
			if err != nil {
				return f.errorAt(xierrors.Wrap(xierrors.ErrPointerSyntax, err, "xpointer"), ev)
			}
		}
	}

	res, err := f.resolve(ctx, dir, location)
	if err != nil {
		return f.classify(err, location, ev)
	}
	f.cfg.Logger.Debug("resolved",
		zap.String("location", location),
		zap.String("resource", res.SystemID),
		zap.String("parse", dir.mode.String()),
		zap.Int("depth", f.frame.depth+1),
	)

	if dir.mode == ModeText {
		return f.includeText(dir, res, ev)
	}
	return f.includeXML(ctx, dir, ptr, location, res, ev)
}

// location returns the absolute URI the directive refers to.
//
//nolint:gocritic // events are passed by value throughout the package.
func (f *Filter) location(dir directive, ev xmlevent.Event) (string, error) {
	if dir.href == "" {
		if f.frame.href == "" {
			return "", f.errorAt(xierrors.New(xierrors.ErrNoCurrentDocument, "same-document reference without a document location"), ev)
		}
		return f.frame.href, nil
	}
	location, err := f.base.MakeAbsolute(dir.href)
	if err != nil {
		return "", f.errorAt(xierrors.Wrap(xierrors.ErrMalformedReference, err, "href "+dir.href), ev)
	}
	return location, nil
}

// resolve opens the resource and records its validity token. A failed
// attempt is recorded with an empty stamp.
func (f *Filter) resolve(ctx context.Context, dir directive, location string) (Resource, error) {
	if f.cfg.Resolver == nil {
		return Resource{}, fmt.Errorf("no resolver configured")
	}
	res, err := f.cfg.Resolver.Resolve(ctx, ResolveRequest{
		BaseSystemID:   f.frame.href,
		Location:       location,
		Accept:         dir.accept,
		AcceptLanguage: dir.acceptLanguage,
		Mode:           dir.mode,
	})
	if err != nil {
		if addErr := f.cfg.Validity.Add(validity.Token{Source: location}); addErr != nil {
			return Resource{}, errors.Join(err, addErr)
		}
		return Resource{}, err
	}
	if res.Body == nil {
		return Resource{}, fmt.Errorf("resolver returned no content for %s", location)
	}
	if res.SystemID == "" {
		res.SystemID = location
	}
	tok := res.Validity
	if tok.Source == "" {
		tok.Source = location
	}
	if err := f.cfg.Validity.Add(tok); err != nil {
		_ = res.Body.Close()
		return Resource{}, err
	}
	return res, nil
}

// classify maps a resolution failure to an inclusion error.
//
//nolint:gocritic // events are passed by value throughout the package.
func (f *Filter) classify(err error, location string, ev xmlevent.Event) error {
	switch {
	case errors.Is(err, validity.ErrClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, fs.ErrNotExist):
		return f.errorAt(xierrors.Wrap(xierrors.ErrResourceNotFound, err, location+" not found"), ev)
	case errors.Is(err, baseuri.ErrMalformed), errors.Is(err, fs.ErrInvalid):
		return f.errorAt(xierrors.Wrap(xierrors.ErrMalformedReference, err, "resolve "+location), ev)
	}
	if inc, ok := xierrors.AsInclusion(err); ok {
		return f.errorAt(xierrors.Wrap(inc.Code, inc.Err, inc.Message), ev)
	}
	return f.errorAt(xierrors.Wrap(xierrors.ErrResourceIO, err, "resolve "+location), ev)
}

//nolint:gocritic // events are passed by value throughout the package.
func (f *Filter) includeText(dir directive, res Resource, ev xmlevent.Event) error {
	text, err := readText(res.Body, dir.encoding)
	if closeErr := res.Body.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return f.errorAt(xierrors.Wrap(xierrors.ErrResourceIO, err, "read "+res.SystemID), ev)
	}
	if text == "" {
		return nil
	}
	return f.next.HandleEvent(xmlevent.Event{
		Kind:   xmlevent.KindCharData,
		Text:   text,
		Line:   ev.Line,
		Column: ev.Column,
	})
}

// readText decodes r with enc, UTF-8 when enc is nil. A byte order mark
// overrides the declared encoding.
func readText(r io.Reader, enc encoding.Encoding) (string, error) {
	var dec transform.Transformer = unicode.UTF8.NewDecoder()
	if enc != nil {
		dec = enc.NewDecoder()
	}
	data, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(dec)))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

//nolint:gocritic // events are passed by value throughout the package.
func (f *Filter) includeXML(ctx context.Context, dir directive, ptr xpointer.Pointer, location string, res Resource, ev xmlevent.Event) error {
	spans, err := f.load(dir, ptr, res)
	if err != nil {
		var inc *xierrors.Inclusion
		if errors.As(err, &inc) {
			return f.errorAt(inc, ev)
		}
		return err
	}

	child := f.child(ctx, location, dir.pointer)
	if dir.pointer != "" {
		loc := xmlevent.Event{Kind: xmlevent.KindLocator, Locator: xmlevent.Position{System: res.SystemID}}
		if err := child.HandleEvent(loc); err != nil {
			return err
		}
	}
	for _, span := range spans {
		if err := span.Replay(child); err != nil {
			return xierrors.Escalate(err)
		}
	}
	if len(child.directives) > 0 {
		return f.errorAt(xierrors.Newf(xierrors.ErrXMLParse, "included content from %s ended inside an include element", location), ev)
	}
	if f.locator != nil {
		return f.next.HandleEvent(xmlevent.Event{Kind: xmlevent.KindLocator, Locator: f.locator, Line: ev.Line, Column: ev.Column})
	}
	return nil
}

// load reads the resource into spans and closes it.
func (f *Filter) load(dir directive, ptr xpointer.Pointer, res Resource) (spans []xmlevent.Span, err error) {
	defer func() {
		if closeErr := res.Body.Close(); closeErr != nil && err == nil {
			err = xierrors.Wrap(xierrors.ErrResourceIO, closeErr, "close "+res.SystemID)
		}
	}()

	reader, err := xmlevent.NewReader(res.Body, res.SystemID)
	if err != nil {
		return nil, xierrors.Wrap(xierrors.ErrResourceIO, err, "read "+res.SystemID)
	}
	if dir.pointer == "" {
		events, err := xmlevent.Record(reader)
		if err != nil {
			return nil, xierrors.Wrap(xierrors.ErrResourceIO, err, "read "+res.SystemID)
		}
		return []xmlevent.Span{events}, nil
	}

	seq, err := f.cfg.Evaluator.Evaluate(ptr, reader)
	if err != nil {
		if inc, ok := xierrors.AsInclusion(err); ok {
			return nil, xierrors.Wrap(inc.Code, inc.Err, inc.Message+" in "+res.SystemID)
		}
		return nil, xierrors.Wrap(xierrors.ErrResourceIO, err, "evaluate "+describeTarget(res.SystemID, dir.pointer))
	}
	for span := range seq {
		spans = append(spans, span)
	}
	if len(spans) == 0 {
		return nil, xierrors.Newf(xierrors.ErrFragmentNotFound, "%s selects nothing", describeTarget(res.SystemID, dir.pointer))
	}
	return spans, nil
}

// child returns the Filter that streams an included document.
func (f *Filter) child(ctx context.Context, href, pointer string) *Filter {
	return &Filter{
		ctx:       ctx,
		cfg:       f.cfg,
		next:      f.next,
		frame:     &frame{parent: f.frame, href: href, pointer: pointer, depth: f.frame.depth + 1},
		base:      baseuri.NewTracker(href),
		fixupBase: f.base.Current(),
	}
}

func describeTarget(location, pointer string) string {
	if pointer == "" {
		return location
	}
	return location + "#" + pointer
}
