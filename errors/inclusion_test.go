package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestInclusionErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		want string
		e    *Inclusion
	}{
		{
			name: "message only",
			e:    New(ErrLoopDetected, "inclusion loop"),
			want: "[xinclude-loop] inclusion loop",
		},
		{
			name: "with system id",
			e:    New(ErrResourceNotFound, "missing.xml not found").At("/doc.xml", 0, 0),
			want: "[xinclude-resource-not-found] missing.xml not found at /doc.xml",
		},
		{
			name: "with position",
			e:    New(ErrResourceNotFound, "missing.xml not found").At("/doc.xml", 3, 5),
			want: "[xinclude-resource-not-found] missing.xml not found at /doc.xml:3:5",
		},
		{
			name: "position without system id",
			e:    New(ErrUnknownElement, "unknown element").At("", 2, 1),
			want: "[xinclude-unknown-element] unknown element at line 2, column 1",
		},
		{
			name: "with cause",
			e:    Wrap(ErrResourceIO, fs.ErrPermission, "read a.xml").At("/doc.xml", 1, 1),
			want: "[xinclude-resource-io] read a.xml at /doc.xml:1:1: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInclusionNilError(t *testing.T) {
	var e *Inclusion
	if got := e.Error(); got != "inclusion <nil>" {
		t.Fatalf("Error() = %q", got)
	}
	if e.Recoverable() {
		t.Fatalf("nil inclusion must not be recoverable")
	}
}

func TestRecoverableCodes(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want bool
	}{
		{ErrResourceNotFound, true},
		{ErrPointerSyntax, true},
		{ErrMalformedReference, true},
		{ErrResourceIO, true},
		{ErrFragmentNotFound, true},
		{ErrLoopDetected, false},
		{ErrUnknownElement, false},
		{ErrFallbackMisplaced, false},
		{ErrMultipleFallbacks, false},
		{ErrTextWithPointer, false},
		{ErrInvalidParse, false},
		{ErrInvalidEncoding, false},
		{ErrNoCurrentDocument, false},
		{ErrDepthExceeded, false},
		{ErrXMLParse, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.Recoverable(); got != tt.want {
				t.Fatalf("Recoverable() = %v, want %v", got, tt.want)
			}
			if got := New(tt.code, "x").Recoverable(); got != tt.want {
				t.Fatalf("Inclusion.Recoverable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEscalate(t *testing.T) {
	original := New(ErrResourceNotFound, "missing").At("/a.xml", 4, 2)
	wrapped := fmt.Errorf("include: %w", original)

	escalated := Escalate(wrapped)
	if IsRecoverable(escalated) {
		t.Fatalf("escalated error must not be recoverable")
	}
	inc, ok := AsInclusion(escalated)
	if !ok {
		t.Fatalf("AsInclusion() ok = false")
	}
	if inc.Code != ErrResourceNotFound || inc.Line != 4 || inc.Column != 2 {
		t.Fatalf("escalated = %+v, want code and location preserved", inc)
	}
	if !original.Recoverable() {
		t.Fatalf("Escalate mutated the original error")
	}

	plain := errors.New("consumer failed")
	if got := Escalate(plain); got != plain {
		t.Fatalf("Escalate(plain) = %v, want unchanged", got)
	}
	if IsRecoverable(plain) {
		t.Fatalf("plain errors are never recoverable")
	}
}

func TestAsInclusionUnwrap(t *testing.T) {
	cause := fs.ErrNotExist
	err := fmt.Errorf("resolve: %w", Wrap(ErrResourceNotFound, cause, "missing"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("errors.Is(err, fs.ErrNotExist) = false")
	}
	if got := CodeOf(err); got != ErrResourceNotFound {
		t.Fatalf("CodeOf() = %q", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Fatalf("CodeOf(nil) = %q", got)
	}
}
