package xpointer

import (
	"errors"
	"fmt"
)

// ErrSyntax reports that a pointer does not conform to the pointer grammar.
var ErrSyntax = errors.New("invalid pointer")

// SyntaxError describes a pointer syntax error and the byte offset where it was found.
type SyntaxError struct {
	Pointer string
	Reason  string
	Offset  int
}

// Error returns the error string.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v %q at offset %d: %s", ErrSyntax, e.Pointer, e.Offset, e.Reason)
}

// Unwrap returns ErrSyntax.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

func syntaxErrorf(pointer string, offset int, format string, args ...any) error {
	return &SyntaxError{Pointer: pointer, Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
