package include

import (
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	xierrors "github.com/jacoelho/xinclude/errors"
	"github.com/jacoelho/xinclude/internal/baseuri"
	"github.com/jacoelho/xinclude/pkg/xmlevent"
)

// directive holds the attributes of one include element.
type directive struct {
	encoding       encoding.Encoding
	href           string
	pointer        string
	accept         string
	acceptLanguage string
	mode           Mode
}

// parseDirective reads the include attributes. Every error it returns is fatal.
//
//nolint:gocritic // events are passed by value throughout the package.
func (f *Filter) parseDirective(ev xmlevent.Event) (directive, error) {
	var dir directive

	switch parse, _ := ev.Attr("", "parse"); parse {
	case "", "xml":
		dir.mode = ModeXML
	case "text":
		dir.mode = ModeText
	default:
		return directive{}, f.errorAt(xierrors.Newf(xierrors.ErrInvalidParse, "parse attribute %q must be xml or text", parse), ev)
	}

	href, _ := ev.Attr("", "href")
	pointer, _ := ev.Attr("", "xpointer")
	if before, frag, ok := baseuri.SplitFragment(href); ok {
		href = before
		if pointer != "" {
			f.cfg.Logger.Warn("ignoring fragment identifier in href, xpointer attribute takes precedence",
				zap.String("href", before+"#"+frag),
				zap.String("xpointer", pointer),
				zap.String("system_id", f.systemID()),
				zap.Int("line", ev.Line),
			)
		} else {
			f.cfg.Logger.Warn("fragment identifier in href is deprecated, use the xpointer attribute",
				zap.String("href", before+"#"+frag),
				zap.String("system_id", f.systemID()),
				zap.Int("line", ev.Line),
			)
			pointer = frag
		}
	}
	dir.href = href
	dir.pointer = pointer

	if dir.mode == ModeText {
		if dir.pointer != "" {
			return directive{}, f.errorAt(xierrors.New(xierrors.ErrTextWithPointer, "parse=\"text\" cannot be combined with a fragment pointer"), ev)
		}
		if name, ok := ev.Attr("", "encoding"); ok && name != "" {
			enc, err := htmlindex.Get(name)
			if err != nil {
				return directive{}, f.errorAt(xierrors.Wrap(xierrors.ErrInvalidEncoding, err, "encoding "+name), ev)
			}
			dir.encoding = enc
		}
	}

	dir.accept, _ = ev.Attr("", "accept")
	dir.acceptLanguage, _ = ev.Attr("", "accept-language")
	return dir, nil
}
