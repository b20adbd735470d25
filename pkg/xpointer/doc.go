// Package xpointer parses XPointer framework pointers into typed parts.
//
// A pointer is either a shorthand (a bare NCName selecting the element with
// that ID) or a sequence of scheme-based parts such as
//
//	xmlns(p=urn:example) xpointer(//p:section[2]) p:unknown(skipped)
//
// Only the grammar, escaping and scheme dispatch are handled here; evaluating
// parts against a document is left to the caller. Namespace bindings declared
// with xmlns() apply to later parts of the same pointer only.
package xpointer
