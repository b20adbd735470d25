package xinclude

import (
	"fmt"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/jacoelho/xinclude/internal/catalog"
	"github.com/jacoelho/xinclude/internal/include"
)

const tracerName = "github.com/jacoelho/xinclude"

// NewOptions returns a default, valid options value.
func NewOptions() Options {
	return Options{}
}

// Validate validates option values.
func (o Options) Validate() error {
	_, err := o.config(nil)
	return err
}

// WithLogger sets the logger used for warnings and debug output.
func (o Options) WithLogger(logger *zap.Logger) Options {
	o.logger = logger
	o.loggerSet = true
	return o
}

// WithTracerProvider sets the provider of the tracer that records one span per include directive.
func (o Options) WithTracerProvider(tp trace.TracerProvider) Options {
	o.tracerProvider = tp
	return o
}

// WithResolver replaces the filesystem resolver.
func (o Options) WithResolver(r Resolver) Options {
	o.resolver = r
	return o
}

// WithEvaluator replaces the default fragment evaluator.
func (o Options) WithEvaluator(e Evaluator) Options {
	o.evaluator = e
	return o
}

// WithCatalog rewrites locations through c before they are resolved.
func (o Options) WithCatalog(c *Catalog) Options {
	o.catalog = c
	return o
}

// WithMaxDepth sets the inclusion nesting limit (0 uses the default of 64).
func (o Options) WithMaxDepth(value int) Options {
	o.maxDepth = intOption{value: value, set: true}
	return o
}

// WithBaseFixup controls whether top-level included elements get an xml:base attribute.
func (o Options) WithBaseFixup(value bool) Options {
	o.baseFixup = value
	return o
}

// WithoutDeclaration suppresses the XML declaration in serialized output.
func (o Options) WithoutDeclaration() Options {
	o.omitDecl = true
	return o
}

// config resolves the options into an engine configuration. fallback is
// used when no resolver was set.
func (o Options) config(fallback Resolver) (include.Config, error) {
	if o.loggerSet && o.logger == nil {
		return include.Config{}, fmt.Errorf("logger is nil")
	}
	depth := o.maxDepth.resolved()
	if depth < 0 {
		return include.Config{}, fmt.Errorf("max depth %d must not be negative", depth)
	}

	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tp := o.tracerProvider
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	resolver := o.resolver
	if resolver == nil {
		resolver = fallback
	}
	if o.catalog != nil && resolver != nil {
		resolver = catalog.NewResolver(o.catalog, resolver)
	}
	return include.Config{
		Resolver:  resolver,
		Evaluator: o.evaluator,
		Logger:    logger,
		Tracer:    tp.Tracer(tracerName),
		MaxDepth:  depth,
		BaseFixup: o.baseFixup,
	}, nil
}
