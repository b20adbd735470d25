package include

import (
	"iter"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/jacoelho/xinclude/internal/fragment"
	"github.com/jacoelho/xinclude/internal/validity"
	"github.com/jacoelho/xinclude/pkg/xmlevent"
	"github.com/jacoelho/xinclude/pkg/xpointer"
)

// Namespace is the XInclude namespace.
const Namespace = "http://www.w3.org/2001/XInclude"

// DefaultMaxDepth is the inclusion nesting limit used when Config.MaxDepth is zero.
const DefaultMaxDepth = 64

// Evaluator selects fragments of a resolved document. The returned
// sequence yields well-formed spans in document order and is consumed once.
// An empty sequence means the fragment was not found.
type Evaluator interface {
	Evaluate(ptr xpointer.Pointer, src xmlevent.Source) (iter.Seq[xmlevent.Span], error)
}

// Config is shared by every Filter of one run.
type Config struct {
	Resolver  Resolver
	Evaluator Evaluator
	Logger    *zap.Logger
	Tracer    trace.Tracer
	// Validity receives one token per source touched. The root Filter closes
	// it when the outermost document ends.
	Validity *validity.Aggregator
	// RootStamp is the validity stamp recorded for the outermost document.
	RootStamp string
	MaxDepth  int
	// BaseFixup adds xml:base to top-level included elements whose base
	// differs from the including context.
	BaseFixup bool
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.Evaluator == nil {
		out.Evaluator = fragment.New()
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	if out.Tracer == nil {
		out.Tracer = noop.NewTracerProvider().Tracer("")
	}
	if out.Validity == nil {
		out.Validity = validity.New()
	}
	if out.MaxDepth <= 0 {
		out.MaxDepth = DefaultMaxDepth
	}
	return &out
}
