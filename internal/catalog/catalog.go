// Package catalog maps resource URIs to other locations before they are
// resolved. Catalogs are YAML documents:
//
//	map:
//	  http://example.com/common.xml: /vendor/common.xml
//	rewrite:
//	  - prefix: http://example.com/docs/
//	    replacement: /docs/
//
// Exact map entries win over rewrites; the longest matching prefix wins
// among rewrites.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jacoelho/xinclude/internal/baseuri"
	"github.com/jacoelho/xinclude/internal/include"
)

// Rewrite replaces a URI prefix.
type Rewrite struct {
	Prefix      string `yaml:"prefix"`
	Replacement string `yaml:"replacement"`
}

// File is the YAML representation of a catalog.
type File struct {
	Map     map[string]string `yaml:"map"`
	Rewrite []Rewrite         `yaml:"rewrite"`
}

// Catalog is a compiled catalog.
type Catalog struct {
	entries  map[string]string
	rewrites []Rewrite
}

// Load decodes and compiles a YAML catalog. Unknown fields are rejected.
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var file File
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return New(File{})
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(file)
}

// New compiles a catalog. Map keys are canonicalized so lookups match the
// absolute locations produced while resolving includes.
func New(file File) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]string, len(file.Map))}
	for uri, location := range file.Map {
		if location == "" {
			return nil, fmt.Errorf("catalog entry %q has an empty location", uri)
		}
		key, err := baseuri.Canonical(uri)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %q: %w", uri, err)
		}
		c.entries[key] = location
	}
	for i, rw := range file.Rewrite {
		if rw.Prefix == "" {
			return nil, fmt.Errorf("catalog rewrite %d has an empty prefix", i)
		}
		c.rewrites = append(c.rewrites, rw)
	}
	slices.SortStableFunc(c.rewrites, func(a, b Rewrite) int {
		return len(b.Prefix) - len(a.Prefix)
	})
	return c, nil
}

// Lookup returns the location uri maps to.
func (c *Catalog) Lookup(uri string) (string, bool) {
	if c == nil {
		return "", false
	}
	if location, ok := c.entries[uri]; ok {
		return location, true
	}
	for _, rw := range c.rewrites {
		if rest, ok := strings.CutPrefix(uri, rw.Prefix); ok {
			return rw.Replacement + rest, true
		}
	}
	return "", false
}

// Len returns the number of map and rewrite entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries) + len(c.rewrites)
}

// Resolver rewrites request locations through a catalog and delegates to
// another resolver.
type Resolver struct {
	catalog *Catalog
	next    include.Resolver
}

// NewResolver returns a resolver that consults c before next.
func NewResolver(c *Catalog, next include.Resolver) *Resolver {
	return &Resolver{catalog: c, next: next}
}

// Resolve implements include.Resolver.
func (r *Resolver) Resolve(ctx context.Context, req include.ResolveRequest) (include.Resource, error) {
	if r == nil || r.next == nil {
		return include.Resource{}, fmt.Errorf("no resolver configured")
	}
	if location, ok := r.catalog.Lookup(req.Location); ok {
		req.Location = location
	}
	return r.next.Resolve(ctx, req)
}
