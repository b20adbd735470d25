package xinclude

import (
	"io"
	"io/fs"

	"github.com/jacoelho/xinclude/internal/catalog"
	"github.com/jacoelho/xinclude/internal/include"
	"github.com/jacoelho/xinclude/internal/validity"
)

// Mode identifies how a resource is to be parsed.
type Mode = include.Mode

const (
	ModeXML  Mode = include.ModeXML
	ModeText Mode = include.ModeText
)

// ResolveRequest describes one resource resolution request.
type ResolveRequest = include.ResolveRequest

// Resource is a resolved resource. Body must be closed by the caller.
type Resource = include.Resource

// Resolver resolves locations into readable resources.
type Resolver = include.Resolver

// ResolverFunc adapts a function to Resolver.
type ResolverFunc = include.ResolverFunc

// FSResolver resolves file: and scheme-less locations against an fs.FS.
type FSResolver = include.FSResolver

// NewFSResolver returns a resolver rooted at fsys.
func NewFSResolver(fsys fs.FS) *FSResolver {
	return include.NewFSResolver(fsys)
}

// Evaluator selects fragments of included documents.
type Evaluator = include.Evaluator

// Filter is the streaming inclusion filter of one document.
type Filter = include.Filter

// ValidityToken identifies one source a result depends on.
type ValidityToken = validity.Token

// Catalog rewrites locations before they are resolved.
type Catalog = catalog.Catalog

// LoadCatalog decodes a YAML catalog.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	return catalog.Load(r)
}
