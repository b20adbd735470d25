// Package xmlevent defines the streaming XML event vocabulary shared by the
// inclusion engine, its producers and its consumers. It provides a
// namespace-aware Reader built on encoding/xml raw tokens, a Writer that
// serializes events back to XML, and helpers to record and replay balanced
// event spans.
package xmlevent
