package xinclude

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type intOption struct {
	value int
	set   bool
}

func (o intOption) resolved() int {
	if !o.set {
		return 0
	}
	return o.value
}

// Options configures a Transformer.
type Options struct {
	logger         *zap.Logger
	tracerProvider trace.TracerProvider
	resolver       Resolver
	evaluator      Evaluator
	catalog        *Catalog
	maxDepth       intOption
	loggerSet      bool
	baseFixup      bool
	omitDecl       bool
}
