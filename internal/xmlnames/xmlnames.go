package xmlnames

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// XMLPrefix is the reserved prefix for the XML namespace.
	XMLPrefix = "xml"
	// XMLNamespace is the XML namespace URI.
	XMLNamespace = "http://www.w3.org/XML/1998/namespace"
)

// IsNameStart reports whether r may start an NCName.
func IsNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

// IsNameChar reports whether r may continue an NCName.
func IsNameChar(r rune) bool {
	switch {
	case IsNameStart(r), unicode.IsDigit(r):
		return true
	case r == '-', r == '.', r == 0xB7:
		return true
	default:
		return unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
	}
}

// IsNCName reports whether s is a non-colonized XML name.
func IsNCName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == utf8.RuneError {
			return false
		}
		if i == 0 {
			if !IsNameStart(r) {
				return false
			}
			continue
		}
		if !IsNameChar(r) {
			return false
		}
	}
	return true
}

// IsQName reports whether s is an NCName or prefix:local with both parts NCNames.
func IsQName(s string) bool {
	prefix, local, hasPrefix := SplitQName(s)
	if !hasPrefix {
		return IsNCName(local)
	}
	return IsNCName(prefix) && IsNCName(local)
}

// SplitQName splits a lexical QName at its first colon.
func SplitQName(s string) (prefix, local string, hasPrefix bool) {
	if before, after, ok := strings.Cut(s, ":"); ok {
		return before, after, true
	}
	return "", s, false
}

// ResolvePrefix returns the namespace bound to prefix in bindings.
// The xml prefix is always bound to XMLNamespace.
func ResolvePrefix(prefix string, bindings map[string]string) (string, error) {
	if prefix == XMLPrefix {
		return XMLNamespace, nil
	}
	ns, ok := bindings[prefix]
	if !ok {
		return "", fmt.Errorf("undeclared prefix %q", prefix)
	}
	return ns, nil
}
