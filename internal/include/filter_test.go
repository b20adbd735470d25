package include

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	xierrors "github.com/jacoelho/xinclude/errors"
	"github.com/jacoelho/xinclude/internal/validity"
	"github.com/jacoelho/xinclude/pkg/xmlevent"
)

func TestFilterOutput(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
		want string
	}{
		{
			name: "whole document",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="part.xml"/></doc>`),
				"part.xml": doc(`<part>p</part>`),
			},
			want: `<doc ` + xiNS + `><part>p</part></doc>`,
		},
		{
			name: "missing resource uses fallback",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="missing.xml"><xi:fallback>X</xi:fallback></xi:include></doc>`),
			},
			want: `<doc ` + xiNS + `>X</doc>`,
		},
		{
			name: "fallback ignored when inclusion succeeds",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="part.xml"><xi:fallback>X</xi:fallback></xi:include></doc>`),
				"part.xml": doc(`<part/>`),
			},
			want: `<doc ` + xiNS + `><part/></doc>`,
		},
		{
			name: "empty fallback",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="missing.xml"><xi:fallback/></xi:include></doc>`),
			},
			want: `<doc ` + xiNS + `/>`,
		},
		{
			name: "include inside fallback",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="missing.xml"><xi:fallback><xi:include href="part.xml"/></xi:fallback></xi:include></doc>`),
				"part.xml": doc(`<part/>`),
			},
			want: `<doc ` + xiNS + `><part/></doc>`,
		},
		{
			name: "nested fallbacks",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="a.xml"><xi:fallback><xi:include href="b.xml"><xi:fallback><c/></xi:fallback></xi:include></xi:fallback></xi:include></doc>`),
			},
			want: `<doc ` + xiNS + `><c/></doc>`,
		},
		{
			name: "fallback keeps prefixes declared on include",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc><xi:include ` + xiNS + ` xmlns:p="urn:p" href="missing.xml"><xi:fallback><p:x/></xi:fallback></xi:include></doc>`),
			},
			want: `<doc><p:x xmlns:xi="http://www.w3.org/2001/XInclude" xmlns:p="urn:p"/></doc>`,
		},
		{
			name: "malformed resource uses fallback",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="bad.xml"><xi:fallback>bad</xi:fallback></xi:include></doc>`),
				"bad.xml":  doc(`<part><unclosed></part>`),
			},
			want: `<doc ` + xiNS + `>bad</doc>`,
		},
		{
			name: "pointer selecting nothing uses fallback",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="part.xml" xpointer="nothing"><xi:fallback>none</xi:fallback></xi:include></doc>`),
				"part.xml": doc(`<part/>`),
			},
			want: `<doc ` + xiNS + `>none</doc>`,
		},
		{
			name: "pointer syntax error uses fallback",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="part.xml" xpointer="xpointer(/part"><xi:fallback>syntax</xi:fallback></xi:include></doc>`),
				"part.xml": doc(`<part/>`),
			},
			want: `<doc ` + xiNS + `>syntax</doc>`,
		},
		{
			name: "pointer selects elements",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="lib.xml" xpointer="xpointer(/lib/item[@kind='b'])"/></doc>`),
				"lib.xml":  doc(`<lib><item kind="a">1</item><item kind="b">2</item><item kind="b">3</item></lib>`),
			},
			want: `<doc ` + xiNS + `><item kind="b">2</item><item kind="b">3</item></doc>`,
		},
		{
			name: "nested includes resolve relative to the included document",
			fsys: fstest.MapFS{
				"main.xml":      doc(`<doc ` + xiNS + `><xi:include href="sub/part.xml"/></doc>`),
				"sub/part.xml":  doc(`<part ` + xiNS + `><xi:include href="inner.xml"/></part>`),
				"sub/inner.xml": doc(`<inner/>`),
			},
			want: `<doc ` + xiNS + `><part ` + xiNS + `><inner/></part></doc>`,
		},
		{
			name: "xml:base on include element",
			fsys: fstest.MapFS{
				"main.xml":      doc(`<doc ` + xiNS + `><xi:include xml:base="sub/" href="inner.xml"/></doc>`),
				"sub/inner.xml": doc(`<inner/>`),
			},
			want: `<doc ` + xiNS + `><inner/></doc>`,
		},
		{
			name: "same document fragment",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><p xml:id="x">hi</p><xi:include xpointer="x"/></doc>`),
			},
			want: `<doc ` + xiNS + `><p xml:id="x">hi</p><p ` + xiNS + ` xml:id="x">hi</p></doc>`,
		},
		{
			name: "unknown XInclude element inside a nested include body is ignored",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="part.xml"><other><xi:unknown/></other></xi:include></doc>`),
				"part.xml": doc(`<part/>`),
			},
			want: `<doc ` + xiNS + `><part/></doc>`,
		},
		{
			name: "text",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="note.txt" parse="text"/></doc>`),
				"note.txt": doc("a < b & c\n"),
			},
			want: `<doc ` + xiNS + ">a &lt; b &amp; c\n</doc>",
		},
		{
			name: "text with encoding",
			fsys: fstest.MapFS{
				"main.xml":  doc(`<doc ` + xiNS + `><xi:include href="latin.txt" parse="text" encoding="iso-8859-1"/></doc>`),
				"latin.txt": {Data: []byte("caf\xe9")},
			},
			want: `<doc ` + xiNS + `>café</doc>`,
		},
		{
			name: "text strips byte order mark",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="bom.txt" parse="text"/></doc>`),
				"bom.txt":  {Data: []byte("\xef\xbb\xbfhello")},
			},
			want: `<doc ` + xiNS + `>hello</doc>`,
		},
		{
			name: "missing text uses fallback",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="none.txt" parse="text"><xi:fallback>none</xi:fallback></xi:include></doc>`),
			},
			want: `<doc ` + xiNS + `>none</doc>`,
		},
		{
			name: "comments and processing instructions pass through",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><!--c--><?pi data?><xi:include href="part.xml"/></doc>`),
				"part.xml": doc(`<!--top--><part/>`),
			},
			want: `<doc ` + xiNS + `><!--c--><?pi data?><!--top--><part/></doc>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := process(t, tt.fsys, "main.xml", Config{})
			if err != nil {
				t.Fatalf("process() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilterFatalErrors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
		code xierrors.ErrorCode
		line int
	}{
		{
			name: "missing without fallback",
			fsys: fstest.MapFS{
				"main.xml": doc("<doc " + xiNS + ">\n  <xi:include href=\"missing.xml\"/>\n</doc>"),
			},
			code: xierrors.ErrResourceNotFound,
			line: 2,
		},
		{
			name: "loop through another document",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="b.xml"/></doc>`),
				"b.xml":    doc("<b " + xiNS + ">\n<xi:include href=\"main.xml\"><xi:fallback>never</xi:fallback></xi:include></b>"),
			},
			code: xierrors.ErrLoopDetected,
			line: 2,
		},
		{
			name: "self inclusion",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include/></doc>`),
			},
			code: xierrors.ErrLoopDetected,
			line: 1,
		},
		{
			name: "fallback outside include",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:fallback/></doc>`),
			},
			code: xierrors.ErrFallbackMisplaced,
			line: 1,
		},
		{
			name: "unknown element",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:included/></doc>`),
			},
			code: xierrors.ErrUnknownElement,
			line: 1,
		},
		{
			name: "unknown element as include child",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="missing.xml"><xi:other/><xi:fallback/></xi:include></doc>`),
			},
			code: xierrors.ErrUnknownElement,
			line: 1,
		},
		{
			name: "include as include child",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="part.xml"><xi:include href="part.xml"/></xi:include></doc>`),
				"part.xml": doc(`<part/>`),
			},
			code: xierrors.ErrUnknownElement,
			line: 1,
		},
		{
			name: "two fallbacks",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="missing.xml"><xi:fallback/><xi:fallback/></xi:include></doc>`),
			},
			code: xierrors.ErrMultipleFallbacks,
			line: 1,
		},
		{
			name: "text with pointer",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="a.txt" parse="text" xpointer="x"><xi:fallback/></xi:include></doc>`),
				"a.txt":    doc("a"),
			},
			code: xierrors.ErrTextWithPointer,
			line: 1,
		},
		{
			name: "text with fragment identifier",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="a.txt#x" parse="text"/></doc>`),
				"a.txt":    doc("a"),
			},
			code: xierrors.ErrTextWithPointer,
			line: 1,
		},
		{
			name: "invalid parse",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="a.xml" parse="html"/></doc>`),
			},
			code: xierrors.ErrInvalidParse,
			line: 1,
		},
		{
			name: "unknown encoding",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="a.txt" parse="text" encoding="no-such-charset"/></doc>`),
				"a.txt":    doc("a"),
			},
			code: xierrors.ErrInvalidEncoding,
			line: 1,
		},
		{
			name: "nested failure without fallback is not rescued by outer fallback",
			fsys: fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `><xi:include href="b.xml"><xi:fallback>outer</xi:fallback></xi:include></doc>`),
				"b.xml":    doc("<b " + xiNS + ">\n\n<xi:include href=\"missing.xml\"/></b>"),
			},
			code: xierrors.ErrResourceNotFound,
			line: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := process(t, tt.fsys, "main.xml", Config{})
			if err == nil {
				t.Fatalf("process() expected error")
			}
			inc, ok := xierrors.AsInclusion(err)
			if !ok {
				t.Fatalf("error %v is not an inclusion error", err)
			}
			if inc.Code != tt.code {
				t.Fatalf("code = %q, want %q (%v)", inc.Code, tt.code, err)
			}
			if inc.Recoverable() {
				t.Fatalf("error %v must be fatal", err)
			}
			if inc.Line != tt.line {
				t.Fatalf("line = %d, want %d (%v)", inc.Line, tt.line, err)
			}
		})
	}
}

func TestMissingWithoutFallbackLocation(t *testing.T) {
	fsys := fstest.MapFS{
		"main.xml": doc("<doc " + xiNS + ">\n  <xi:include href=\"missing.xml\"/>\n</doc>"),
	}
	_, err := process(t, fsys, "main.xml", Config{})
	inc, ok := xierrors.AsInclusion(err)
	if !ok {
		t.Fatalf("error = %v, want inclusion error", err)
	}
	if inc.SystemID != "/main.xml" || inc.Line != 2 || inc.Column != 3 {
		t.Fatalf("location = %s:%d:%d, want /main.xml:2:3", inc.SystemID, inc.Line, inc.Column)
	}
	if !strings.Contains(err.Error(), "/missing.xml not found") {
		t.Fatalf("error = %q, want not found description", err)
	}
}

func TestLoopIsNeverAResourceError(t *testing.T) {
	fsys := fstest.MapFS{
		"a.xml": doc(`<a ` + xiNS + `><xi:include href="b.xml"/></a>`),
		"b.xml": doc(`<b ` + xiNS + `><xi:include href="a.xml"/></b>`),
	}
	_, err := process(t, fsys, "a.xml", Config{})
	if got := xierrors.CodeOf(err); got != xierrors.ErrLoopDetected {
		t.Fatalf("code = %q, want %q (%v)", got, xierrors.ErrLoopDetected, err)
	}
}

func TestSelfInclusionWithDotSegments(t *testing.T) {
	main := `<doc ` + xiNS + `><xi:include href="main.xml"/></doc>`
	fsys := fstest.MapFS{"a/main.xml": doc(main)}
	agg := validity.New()

	err := processString(t, main, "file:///a/./main.xml", Config{Resolver: NewFSResolver(fsys), Validity: agg})
	if got := xierrors.CodeOf(err); got != xierrors.ErrLoopDetected {
		t.Fatalf("code = %q, want %q (%v)", got, xierrors.ErrLoopDetected, err)
	}
	inc, _ := xierrors.AsInclusion(err)
	if inc.SystemID != "file:///a/main.xml" {
		t.Fatalf("loop reported in %q, want the root document", inc.SystemID)
	}
	want := []validity.Token{{Source: "file:///a/main.xml"}}
	if diff := cmp.Diff(want, agg.Snapshot()); diff != "" {
		t.Fatalf("validity mismatch (-want +got):\n%s", diff)
	}
}

func TestSameDocumentDifferentPointerIsNotALoop(t *testing.T) {
	fsys := fstest.MapFS{
		"main.xml": doc(`<doc ` + xiNS + `><a xml:id="a"><xi:include xpointer="b"/></a><b xml:id="b">B</b></doc>`),
	}
	got, err := process(t, fsys, "main.xml", Config{})
	if err != nil {
		t.Fatalf("process() error = %v", err)
	}
	want := `<doc ` + xiNS + `><a xml:id="a"><b ` + xiNS + ` xml:id="b">B</b></a><b xml:id="b">B</b></doc>`
	if got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestDepthLimit(t *testing.T) {
	fsys := fstest.MapFS{
		"main.xml": doc(`<doc ` + xiNS + `><xi:include href="a.xml"/></doc>`),
		"a.xml":    doc(`<a ` + xiNS + `><xi:include href="b.xml"/></a>`),
		"b.xml":    doc(`<b/>`),
	}
	if _, err := process(t, fsys, "main.xml", Config{MaxDepth: 2}); err != nil {
		t.Fatalf("depth 2: error = %v", err)
	}
	_, err := process(t, fsys, "main.xml", Config{MaxDepth: 1})
	if got := xierrors.CodeOf(err); got != xierrors.ErrDepthExceeded {
		t.Fatalf("code = %q, want %q", got, xierrors.ErrDepthExceeded)
	}
}

func TestNoCurrentDocument(t *testing.T) {
	r, err := xmlevent.NewReader(strings.NewReader(`<doc `+xiNS+`><xi:include xpointer="x"/></doc>`), "")
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	var out strings.Builder
	filter, err := NewFilter(t.Context(), Config{Resolver: NewFSResolver(fstest.MapFS{})}, "", xmlevent.NewWriter(&out))
	if err != nil {
		t.Fatalf("NewFilter() error = %v", err)
	}
	err = xmlevent.Pump(r, filter)
	if got := xierrors.CodeOf(err); got != xierrors.ErrNoCurrentDocument {
		t.Fatalf("code = %q, want %q (%v)", got, xierrors.ErrNoCurrentDocument, err)
	}
}

func TestValidityTokens(t *testing.T) {
	fsys := fstest.MapFS{
		"main.xml": doc(`<doc ` + xiNS + `><xi:include href="a.xml"/><xi:include href="missing.xml"><xi:fallback/></xi:include><xi:include href="t.txt" parse="text"/></doc>`),
		"a.xml":    doc(`<a ` + xiNS + `><xi:include href="b.xml"/></a>`),
		"b.xml":    doc(`<b/>`),
		"t.txt":    doc(`t`),
	}
	agg := validity.New()
	if _, err := process(t, fsys, "main.xml", Config{Validity: agg, RootStamp: "root"}); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if !agg.Closed() {
		t.Fatalf("validity set must be closed after the document ends")
	}

	snapshot := agg.Snapshot()
	var sources []string
	for _, tok := range snapshot {
		sources = append(sources, tok.Source)
	}
	want := []string{"/main.xml", "/a.xml", "/b.xml", "/missing.xml", "/t.txt"}
	if diff := cmp.Diff(want, sources); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}
	if snapshot[0].Stamp != "root" {
		t.Fatalf("root stamp = %q, want root", snapshot[0].Stamp)
	}
	if snapshot[3].Stamp != "" {
		t.Fatalf("missing source stamp = %q, want empty", snapshot[3].Stamp)
	}
	for _, i := range []int{1, 2, 4} {
		if snapshot[i].Stamp == "" {
			t.Fatalf("token %s has no stamp", snapshot[i].Source)
		}
	}
	if diff := cmp.Diff(snapshot, agg.Snapshot()); diff != "" {
		t.Fatalf("second snapshot differs (-first +second):\n%s", diff)
	}
	if err := agg.Add(validity.Token{Source: "/late.xml"}); !errors.Is(err, validity.ErrClosed) {
		t.Fatalf("Add() after close error = %v, want ErrClosed", err)
	}
}

func TestRoundTrip(t *testing.T) {
	source := `<doc xmlns="urn:d" xmlns:p="urn:p"><p:a x="1">text<!--c--></p:a><?pi x?><b/></doc>`
	fsys := fstest.MapFS{
		"main.xml": doc(source),
	}

	r, err := xmlevent.NewReader(strings.NewReader(source), "main.xml")
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	want, err := xmlevent.Record(r)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	var rec xmlevent.Recorder
	if err := processTo(t, fsys, "main.xml", Config{}, &rec); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if diff := cmp.Diff(want, rec.Events(), cmpopts.IgnoreFields(xmlevent.Event{}, "Locator")); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestLocatorRestoredAfterInclusion(t *testing.T) {
	fsys := fstest.MapFS{
		"main.xml": doc(`<doc ` + xiNS + `><xi:include href="part.xml"/><after/></doc>`),
		"part.xml": doc(`<part/>`),
	}
	var rec xmlevent.Recorder
	if err := processTo(t, fsys, "main.xml", Config{}, &rec); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	var systems []string
	for _, ev := range rec.Events() {
		if ev.Kind == xmlevent.KindLocator {
			systems = append(systems, ev.Locator.SystemID())
		}
	}
	want := []string{"main.xml", "/part.xml", "main.xml"}
	if diff := cmp.Diff(want, systems); diff != "" {
		t.Fatalf("locators mismatch (-want +got):\n%s", diff)
	}
}

func TestBaseFixup(t *testing.T) {
	fsys := fstest.MapFS{
		"main.xml":     doc(`<doc ` + xiNS + `><xi:include href="sub/part.xml"/><xi:include href="local.xml"/></doc>`),
		"sub/part.xml": doc(`<part><child/></part>`),
		"local.xml":    doc(`<local/>`),
	}
	got, err := process(t, fsys, "main.xml", Config{BaseFixup: true})
	if err != nil {
		t.Fatalf("process() error = %v", err)
	}
	want := `<doc ` + xiNS + `><part xml:base="/sub/part.xml"><child/></part><local xml:base="/local.xml"/></doc>`
	if got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestFragmentIdentifierCompatibility(t *testing.T) {
	part := `<part><s xml:id="a">A</s><s xml:id="b">B</s></part>`
	tests := []struct {
		name    string
		include string
		want    string
		warning string
	}{
		{
			name:    "fragment becomes pointer",
			include: `<xi:include href="part.xml#a"/>`,
			want:    `<s xml:id="a">A</s>`,
			warning: "fragment identifier in href is deprecated, use the xpointer attribute",
		},
		{
			name:    "xpointer attribute wins",
			include: `<xi:include href="part.xml#a" xpointer="b"/>`,
			want:    `<s xml:id="b">B</s>`,
			warning: "ignoring fragment identifier in href, xpointer attribute takes precedence",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			fsys := fstest.MapFS{
				"main.xml": doc(`<doc ` + xiNS + `>` + tt.include + `</doc>`),
				"part.xml": doc(part),
			}
			got, err := process(t, fsys, "main.xml", Config{Logger: zap.New(core)})
			if err != nil {
				t.Fatalf("process() error = %v", err)
			}
			want := `<doc ` + xiNS + `>` + tt.want + `</doc>`
			if got != want {
				t.Fatalf("output = %q, want %q", got, want)
			}
			if n := logs.FilterMessage(tt.warning).Len(); n != 1 {
				t.Fatalf("warnings %q = %d, want 1 (all: %v)", tt.warning, n, logs.All())
			}
		})
	}
}

func TestConsumerErrorIsReturnedUnchanged(t *testing.T) {
	boom := errors.New("consumer failed")
	fsys := fstest.MapFS{
		"main.xml": doc(`<doc ` + xiNS + `><xi:include href="part.xml"><xi:fallback>f</xi:fallback></xi:include></doc>`),
		"part.xml": doc(`<part/>`),
	}
	h := xmlevent.HandlerFunc(func(ev xmlevent.Event) error {
		if ev.Kind == xmlevent.KindStartElement && ev.Name.Local == "part" {
			return boom
		}
		return nil
	})
	err := processTo(t, fsys, "main.xml", Config{}, h)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want consumer error", err)
	}
	if xierrors.IsRecoverable(err) {
		t.Fatalf("consumer errors must be fatal")
	}
}

func TestResolverRequest(t *testing.T) {
	var got []ResolveRequest
	fsys := fstest.MapFS{
		"part.xml": doc(`<part/>`),
	}
	fsResolver := NewFSResolver(fsys)
	resolver := ResolverFunc(func(ctx context.Context, req ResolveRequest) (Resource, error) {
		got = append(got, req)
		return fsResolver.Resolve(ctx, req)
	})
	main := fstest.MapFS{
		"dir/main.xml": doc(`<doc ` + xiNS + `><xi:include href="../part.xml" accept="application/xml" accept-language="en"/></doc>`),
	}
	if _, err := process(t, main, "dir/main.xml", Config{Resolver: resolver}); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	want := []ResolveRequest{{
		BaseSystemID:   "/dir/main.xml",
		Location:       "/part.xml",
		Accept:         "application/xml",
		AcceptLanguage: "en",
		Mode:           ModeXML,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("requests mismatch (-want +got):\n%s", diff)
	}
}
