package include

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"strconv"
	"strings"

	"github.com/jacoelho/xinclude/internal/validity"
)

// Mode is the parse mode requested by a directive.
type Mode uint8

const (
	ModeXML Mode = iota
	ModeText
)

// String returns the parse attribute value of the mode.
func (m Mode) String() string {
	if m == ModeText {
		return "text"
	}
	return "xml"
}

// ResolveRequest describes a resource resolution request.
type ResolveRequest struct {
	// BaseSystemID is the document containing the directive.
	BaseSystemID string
	// Location is the absolute URI of the requested resource.
	Location       string
	Accept         string
	AcceptLanguage string
	Mode           Mode
}

// Resource is a resolved resource. Body must be closed by the caller.
type Resource struct {
	Body     io.ReadCloser
	SystemID string
	Validity validity.Token
}

// Resolver resolves absolute URIs into readable resources.
type Resolver interface {
	Resolve(ctx context.Context, req ResolveRequest) (Resource, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, req ResolveRequest) (Resource, error)

// Resolve calls f(ctx, req).
func (f ResolverFunc) Resolve(ctx context.Context, req ResolveRequest) (Resource, error) {
	return f(ctx, req)
}

// FSResolver resolves file: and scheme-less URIs from an fs.FS.
// Absolute paths map to paths relative to the filesystem root.
type FSResolver struct {
	fsys fs.FS
}

// NewFSResolver creates a resolver backed by the provided filesystem.
func NewFSResolver(fsys fs.FS) *FSResolver {
	return &FSResolver{fsys: fsys}
}

// Resolve implements Resolver. The validity stamp combines the file
// modification time and size.
func (r *FSResolver) Resolve(_ context.Context, req ResolveRequest) (Resource, error) {
	if r == nil || r.fsys == nil {
		return Resource{}, fmt.Errorf("no filesystem configured")
	}
	name, err := fsPath(req.Location)
	if err != nil {
		return Resource{}, err
	}
	f, err := r.fsys.Open(name)
	if err != nil {
		return Resource{}, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return Resource{}, err
	}
	if info.IsDir() {
		_ = f.Close()
		return Resource{}, fmt.Errorf("open %s: is a directory", name)
	}
	stamp := strconv.FormatInt(info.ModTime().UnixNano(), 10) + "-" + strconv.FormatInt(info.Size(), 10)
	return Resource{
		Body:     f,
		SystemID: req.Location,
		Validity: validity.Token{Source: req.Location, Stamp: stamp},
	}, nil
}

func fsPath(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parse location %q: %w", location, err)
	}
	if u.Scheme != "" && u.Scheme != "file" {
		return "", fmt.Errorf("location %q: unsupported scheme %q: %w", location, u.Scheme, fs.ErrNotExist)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("location %q: remote host %q: %w", location, u.Host, fs.ErrNotExist)
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		name = "."
	}
	if !fs.ValidPath(name) {
		return "", fmt.Errorf("location %q: invalid path: %w", location, fs.ErrInvalid)
	}
	return name, nil
}
