package xmlevent

import (
	"errors"
	"fmt"
)

var (
	errNilReader       = errors.New("nil XML reader")
	errNoRoot          = errors.New("document has no root element")
	errMultipleRoots   = errors.New("document has more than one root element")
	errTextOutsideRoot = errors.New("character data outside of the root element")
	errUnclosed        = errors.New("unexpected end of document inside an element")
	errMismatchedEnd   = errors.New("end element does not match start element")
)

// SyntaxError reports malformed XML with the location where it was detected.
type SyntaxError struct {
	Err      error
	SystemID string
	Line     int
	Column   int
}

// Error returns the error string.
func (e *SyntaxError) Error() string {
	if e.SystemID != "" {
		return fmt.Sprintf("xml syntax error at %s:%d:%d: %v", e.SystemID, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("xml syntax error at line %d, column %d: %v", e.Line, e.Column, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SyntaxError) Unwrap() error {
	return e.Err
}
