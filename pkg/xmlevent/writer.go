package xmlevent

import (
	"bufio"
	"io"
	"strings"
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"\n", "&#xA;",
		"\r", "&#xD;",
		"\t", "&#x9;",
	)
)

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithoutDeclaration suppresses the XML declaration on KindStartDocument.
func WithoutDeclaration() WriterOption {
	return func(w *Writer) {
		w.omitDecl = true
	}
}

// Writer is a Handler that serializes events as XML text.
// Namespace declarations are written from prefix mapping events; empty
// elements are written in their short form.
type Writer struct {
	w         *bufio.Writer
	pendingNS []NamespaceDecl
	omitDecl  bool
	open      bool
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	out := &Writer{w: bufio.NewWriter(w)}
	for _, opt := range opts {
		opt(out)
	}
	return out
}

// HandleEvent serializes ev.
//
//nolint:gocritic // events are passed by value throughout the package.
func (w *Writer) HandleEvent(ev Event) error {
	switch ev.Kind {
	case KindStartDocument:
		if !w.omitDecl {
			return w.writeString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
		}
	case KindEndDocument:
		if err := w.closeStart(); err != nil {
			return err
		}
		return w.Flush()
	case KindStartPrefixMapping:
		w.pendingNS = append(w.pendingNS, NamespaceDecl{Prefix: ev.Prefix, URI: ev.URI})
	case KindEndPrefixMapping:
		// a mapping that ends before any element started is dropped
		for i := len(w.pendingNS) - 1; i >= 0; i-- {
			if w.pendingNS[i].Prefix == ev.Prefix {
				w.pendingNS = append(w.pendingNS[:i], w.pendingNS[i+1:]...)
				break
			}
		}
	case KindStartElement:
		return w.startElement(ev)
	case KindEndElement:
		if w.open {
			w.open = false
			return w.writeString("/>")
		}
		return w.writeString("</" + ev.Name.String() + ">")
	case KindCharData:
		if err := w.closeStart(); err != nil {
			return err
		}
		return w.writeString(textEscaper.Replace(ev.Text))
	case KindComment:
		if err := w.closeStart(); err != nil {
			return err
		}
		return w.writeString("<!--" + ev.Text + "-->")
	case KindProcInst:
		if err := w.closeStart(); err != nil {
			return err
		}
		if ev.Text == "" {
			return w.writeString("<?" + ev.Target + "?>")
		}
		return w.writeString("<?" + ev.Target + " " + ev.Text + "?>")
	}
	return nil
}

// Flush writes any buffered output.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

//nolint:gocritic // events are passed by value throughout the package.
func (w *Writer) startElement(ev Event) error {
	if err := w.closeStart(); err != nil {
		return err
	}
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(ev.Name.String())
	for _, decl := range w.pendingNS {
		if decl.Prefix == "" {
			b.WriteString(` xmlns="`)
		} else {
			b.WriteString(` xmlns:`)
			b.WriteString(decl.Prefix)
			b.WriteString(`="`)
		}
		b.WriteString(attrEscaper.Replace(decl.URI))
		b.WriteByte('"')
	}
	w.pendingNS = w.pendingNS[:0]
	for _, attr := range ev.Attrs {
		b.WriteByte(' ')
		b.WriteString(attr.Name.String())
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(attr.Value))
		b.WriteByte('"')
	}
	w.open = true
	return w.writeString(b.String())
}

func (w *Writer) closeStart() error {
	if !w.open {
		return nil
	}
	w.open = false
	return w.writeString(">")
}

func (w *Writer) writeString(s string) error {
	_, err := w.w.WriteString(s)
	return err
}
