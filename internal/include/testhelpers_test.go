package include

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jacoelho/xinclude/pkg/xmlevent"
)

const xiNS = `xmlns:xi="http://www.w3.org/2001/XInclude"`

// process streams name from fsys through a Filter and returns the serialized output.
func process(t *testing.T, fsys fstest.MapFS, name string, cfg Config) (string, error) {
	t.Helper()
	var out strings.Builder
	err := processTo(t, fsys, name, cfg, xmlevent.NewWriter(&out, xmlevent.WithoutDeclaration()))
	return out.String(), err
}

func processTo(t *testing.T, fsys fstest.MapFS, name string, cfg Config, h xmlevent.Handler) error {
	t.Helper()
	if cfg.Resolver == nil {
		cfg.Resolver = NewFSResolver(fsys)
	}
	file, ok := fsys[name]
	if !ok {
		t.Fatalf("fixture %s missing", name)
	}
	r, err := xmlevent.NewReader(strings.NewReader(string(file.Data)), name)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	filter, err := NewFilter(context.Background(), cfg, name, h)
	if err != nil {
		t.Fatalf("NewFilter() error = %v", err)
	}
	return xmlevent.Pump(r, filter)
}

func doc(s string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(s)}
}
