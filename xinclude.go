// Package xinclude resolves XInclude directives in streaming XML.
//
// A Transformer reads a document, replaces every xi:include element with
// the content it references and writes the merged document. Resources are
// resolved through a Resolver (an fs.FS by default), fragments are selected
// with XPointer expressions and every source touched is reported in the
// Result so callers can tell when a cached result is stale.
package xinclude

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	xierrors "github.com/jacoelho/xinclude/errors"
	"github.com/jacoelho/xinclude/internal/baseuri"
	"github.com/jacoelho/xinclude/internal/include"
	"github.com/jacoelho/xinclude/pkg/xmlevent"
)

// Namespace is the XInclude namespace.
const Namespace = include.Namespace

// CacheKey identifies the inclusion result of one invocation. It is paired
// with Result.Validity, which tells whether a stored result is still fresh.
const CacheKey = "xinclude"

// Result describes one completed transformation.
type Result struct {
	Key string
	// Validity lists every source read (or attempted), root document first.
	Validity []ValidityToken
}

// Transformer resolves inclusions. It is safe for concurrent use; every
// call runs with its own state.
type Transformer struct {
	cfg      include.Config
	omitDecl bool
}

// New returns a Transformer that resolves resources from fsys.
func New(fsys fs.FS) (*Transformer, error) {
	return NewWithOptions(fsys, NewOptions())
}

// NewWithOptions returns a Transformer with explicit configuration. fsys may
// be nil when a resolver is configured.
func NewWithOptions(fsys fs.FS, opts Options) (*Transformer, error) {
	var fallback Resolver
	if fsys != nil {
		fallback = include.NewFSResolver(fsys)
	}
	cfg, err := opts.config(fallback)
	if err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("new transformer: nil fs and no resolver")
	}
	return &Transformer{cfg: cfg, omitDecl: opts.omitDecl}, nil
}

// TransformFile processes the file at path, resolving references relative
// to its directory.
func TransformFile(ctx context.Context, path string, out io.Writer) (Result, error) {
	t, err := New(os.DirFS(filepath.Dir(path)))
	if err != nil {
		return Result{}, err
	}
	return t.TransformLocation(ctx, filepath.Base(path), out)
}

// TransformLocation resolves location and processes it.
func (t *Transformer) TransformLocation(ctx context.Context, location string, out io.Writer) (Result, error) {
	canonical, err := baseuri.Canonical(location)
	if err != nil {
		return Result{}, fmt.Errorf("transform %s: %w", location, err)
	}
	res, err := t.cfg.Resolver.Resolve(ctx, ResolveRequest{Location: canonical, Mode: ModeXML})
	if err != nil {
		return Result{}, fmt.Errorf("transform %s: %w", location, err)
	}
	if res.Body == nil {
		return Result{}, fmt.Errorf("transform %s: resolver returned no content", location)
	}
	defer res.Body.Close()

	systemID := res.SystemID
	if systemID == "" {
		systemID = canonical
	}
	return t.run(ctx, res.Body, systemID, res.Validity.Stamp, out)
}

// Transform processes the document read from r. systemID locates the
// document; relative references are resolved against it. The document
// itself is recorded in Result.Validity only when systemID is not empty,
// since a reader alone has no location to record.
func (t *Transformer) Transform(ctx context.Context, r io.Reader, systemID string, out io.Writer) (Result, error) {
	if r == nil {
		return Result{}, xierrors.New(xierrors.ErrXMLParse, "nil reader")
	}
	return t.run(ctx, r, systemID, "", out)
}

// NewFilter returns a Filter for callers that produce and consume events
// themselves. Filter.Validity reports the dependencies once the document ends.
func (t *Transformer) NewFilter(ctx context.Context, systemID string, next xmlevent.Handler) (*Filter, error) {
	return include.NewFilter(ctx, t.cfg, systemID, next)
}

func (t *Transformer) run(ctx context.Context, r io.Reader, systemID, stamp string, out io.Writer) (Result, error) {
	src, err := xmlevent.NewReader(r, systemID)
	if err != nil {
		return Result{}, fmt.Errorf("transform %s: %w", systemID, err)
	}
	var opts []xmlevent.WriterOption
	if t.omitDecl {
		opts = append(opts, xmlevent.WithoutDeclaration())
	}
	w := xmlevent.NewWriter(out, opts...)

	cfg := t.cfg
	cfg.RootStamp = stamp
	cfg.Validity = nil
	filter, err := include.NewFilter(ctx, cfg, systemID, w)
	if err != nil {
		return Result{}, fmt.Errorf("transform %s: %w", systemID, err)
	}
	if err := xmlevent.Pump(src, filter); err != nil {
		return Result{}, rootError(err)
	}
	if err := w.Flush(); err != nil {
		return Result{}, fmt.Errorf("transform %s: flush: %w", systemID, err)
	}
	return Result{Key: CacheKey, Validity: filter.Validity().Snapshot()}, nil
}

// rootError reports syntax errors of the outermost document as fatal
// inclusion errors. Everything else is returned unchanged.
func rootError(err error) error {
	var syntax *xmlevent.SyntaxError
	if errors.As(err, &syntax) {
		if _, ok := xierrors.AsInclusion(err); !ok {
			return xierrors.Wrap(xierrors.ErrXMLParse, syntax.Err, "malformed document").
				At(syntax.SystemID, syntax.Line, syntax.Column)
		}
	}
	return err
}
