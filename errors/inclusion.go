package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies an inclusion failure class.
// See: https://www.w3.org/TR/xinclude/#terminology
type ErrorCode string

const (
	// ErrLoopDetected indicates an inclusion references a document (and pointer)
	// that is already being included further up the chain.
	ErrLoopDetected ErrorCode = "xinclude-loop"
	// ErrUnknownElement indicates an element in the XInclude namespace other than include or fallback.
	ErrUnknownElement ErrorCode = "xinclude-unknown-element"
	// ErrFallbackMisplaced indicates a fallback element outside of an include element.
	ErrFallbackMisplaced ErrorCode = "xinclude-fallback-misplaced"
	// ErrMultipleFallbacks indicates an include element with more than one fallback child.
	ErrMultipleFallbacks ErrorCode = "xinclude-multiple-fallbacks"
	// ErrTextWithPointer indicates parse="text" combined with a fragment pointer.
	ErrTextWithPointer ErrorCode = "xinclude-text-pointer"
	// ErrInvalidParse indicates a parse attribute value other than xml or text.
	ErrInvalidParse ErrorCode = "xinclude-invalid-parse"
	// ErrInvalidEncoding indicates an unknown encoding attribute for parse="text".
	ErrInvalidEncoding ErrorCode = "xinclude-invalid-encoding"
	// ErrNoCurrentDocument indicates a same-document reference with no known document location.
	ErrNoCurrentDocument ErrorCode = "xinclude-no-current-document"
	// ErrDepthExceeded indicates the inclusion nesting limit was reached.
	ErrDepthExceeded ErrorCode = "xinclude-depth-exceeded"
	// ErrXMLParse indicates the document being processed could not be parsed.
	ErrXMLParse ErrorCode = "xml-parse-error"

	// ErrResourceNotFound indicates the referenced resource does not exist.
	ErrResourceNotFound ErrorCode = "xinclude-resource-not-found"
	// ErrPointerSyntax indicates an invalid fragment pointer.
	ErrPointerSyntax ErrorCode = "xinclude-pointer-syntax"
	// ErrMalformedReference indicates an href that is not a valid URI reference.
	ErrMalformedReference ErrorCode = "xinclude-malformed-reference"
	// ErrResourceIO indicates the resource could not be read or decoded.
	ErrResourceIO ErrorCode = "xinclude-resource-io"
	// ErrFragmentNotFound indicates a pointer that selected nothing in the resource.
	ErrFragmentNotFound ErrorCode = "xinclude-fragment-not-found"
)

// Recoverable reports whether failures with this code may be replaced by fallback content.
func (c ErrorCode) Recoverable() bool {
	switch c {
	case ErrResourceNotFound, ErrPointerSyntax, ErrMalformedReference, ErrResourceIO, ErrFragmentNotFound:
		return true
	default:
		return false
	}
}

// Inclusion describes an inclusion failure with its code and the location of
// the directive that triggered it.
//
//nolint:errname // public API name uses XInclude domain term.
type Inclusion struct {
	Err      error
	Code     ErrorCode
	Message  string
	SystemID string
	Line     int
	Column   int
	fatal    bool
}

// Error formats the failure for display, including code, message and location.
func (e *Inclusion) Error() string {
	if e == nil {
		return "inclusion <nil>"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))
	switch {
	case e.SystemID != "" && e.Line > 0 && e.Column > 0:
		b.WriteString(fmt.Sprintf(" at %s:%d:%d", e.SystemID, e.Line, e.Column))
	case e.SystemID != "":
		b.WriteString(fmt.Sprintf(" at %s", e.SystemID))
	case e.Line > 0 && e.Column > 0:
		b.WriteString(fmt.Sprintf(" at line %d, column %d", e.Line, e.Column))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Inclusion) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Recoverable reports whether fallback content may replace this failure.
// Escalated failures are never recoverable.
func (e *Inclusion) Recoverable() bool {
	return e != nil && !e.fatal && e.Code.Recoverable()
}

// Fatal reports whether the failure must abort processing.
func (e *Inclusion) Fatal() bool {
	return !e.Recoverable()
}

// New builds an Inclusion with a code and message.
func New(code ErrorCode, msg string) *Inclusion {
	return &Inclusion{Code: code, Message: msg}
}

// Newf formats a message and builds an Inclusion.
func Newf(code ErrorCode, format string, args ...any) *Inclusion {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap builds an Inclusion with a code and message around a cause.
func Wrap(code ErrorCode, err error, msg string) *Inclusion {
	return &Inclusion{Code: code, Message: msg, Err: err}
}

// At records the location at which the failure was detected.
func (e *Inclusion) At(systemID string, line, column int) *Inclusion {
	e.SystemID = systemID
	e.Line = line
	e.Column = column
	return e
}

// Escalate marks err as fatal. Inclusion errors keep their code and location;
// other errors are returned unchanged since they are already fatal.
func Escalate(err error) error {
	inc, ok := AsInclusion(err)
	if !ok || inc.fatal {
		return err
	}
	escalated := *inc
	escalated.fatal = true
	return &escalated
}

// IsRecoverable reports whether err is an inclusion failure that fallback content may replace.
func IsRecoverable(err error) bool {
	inc, ok := AsInclusion(err)
	return ok && inc.Recoverable()
}

// AsInclusion extracts an Inclusion from an error chain.
func AsInclusion(err error) (*Inclusion, bool) {
	if err == nil {
		return nil, false
	}
	var inc *Inclusion
	if errors.As(err, &inc) && inc != nil {
		return inc, true
	}
	return nil, false
}

// CodeOf returns the inclusion code of err, or the empty code.
func CodeOf(err error) ErrorCode {
	if inc, ok := AsInclusion(err); ok {
		return inc.Code
	}
	return ""
}
