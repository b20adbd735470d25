package xmlevent

import (
	"fmt"
	"strings"
	"testing"
)

// describe renders events in a compact form for comparisons.
func describe(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		switch ev.Kind {
		case KindStartElement:
			var attrs []string
			for _, a := range ev.Attrs {
				attrs = append(attrs, fmt.Sprintf("{%s}%s=%s", a.Name.Space, a.Name.Local, a.Value))
			}
			s := fmt.Sprintf("start {%s}%s", ev.Name.Space, ev.Name.Local)
			if len(attrs) > 0 {
				s += " " + strings.Join(attrs, " ")
			}
			out = append(out, s)
		case KindEndElement:
			out = append(out, fmt.Sprintf("end {%s}%s", ev.Name.Space, ev.Name.Local))
		case KindCharData:
			out = append(out, "text "+ev.Text)
		case KindComment:
			out = append(out, "comment "+ev.Text)
		case KindProcInst:
			out = append(out, "pi "+ev.Target+" "+ev.Text)
		case KindStartPrefixMapping:
			out = append(out, "ns "+ev.Prefix+"="+ev.URI)
		case KindEndPrefixMapping:
			out = append(out, "endns "+ev.Prefix)
		default:
			out = append(out, ev.Kind.String())
		}
	}
	return out
}

func readAll(t *testing.T, doc, systemID string) []Event {
	t.Helper()
	r, err := NewReader(strings.NewReader(doc), systemID)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	events, err := Record(r)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	return events
}
