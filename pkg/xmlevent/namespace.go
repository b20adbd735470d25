package xmlevent

import (
	"encoding/xml"
	"errors"
)

// Common XML namespaces.
const (
	XMLNamespace   = "http://www.w3.org/XML/1998/namespace"
	XMLNSNamespace = "http://www.w3.org/2000/xmlns/"
)

// ErrUnboundPrefix reports usage of an undeclared namespace prefix.
var ErrUnboundPrefix = errors.New("unbound namespace prefix")

// NamespaceDecl reports a namespace declaration on an element.
type NamespaceDecl struct {
	Prefix string
	URI    string
}

type nsScope struct {
	prefixes   map[string]string
	defaultNS  string
	decls      []NamespaceDecl
	defaultSet bool
}

type nsStack struct {
	scopes []nsScope
}

func (s *nsStack) push(scope nsScope) {
	s.scopes = append(s.scopes, scope)
}

func (s *nsStack) pop() nsScope {
	if len(s.scopes) == 0 {
		return nsScope{}
	}
	top := s.scopes[len(s.scopes)-1]
	s.scopes = s.scopes[:len(s.scopes)-1]
	return top
}

func (s *nsStack) lookup(prefix string) (string, bool) {
	if prefix == "xml" {
		return XMLNamespace, true
	}
	if prefix == "" {
		for i := len(s.scopes) - 1; i >= 0; i-- {
			if s.scopes[i].defaultSet {
				return s.scopes[i].defaultNS, true
			}
		}
		// no default namespace declared; use empty namespace.
		return "", true
	}
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if ns, ok := s.scopes[i].prefixes[prefix]; ok {
			return ns, true
		}
	}
	return "", false
}

func collectNamespaceScope(attrs []xml.Attr) nsScope {
	scope := nsScope{}
	for _, attr := range attrs {
		if isDefaultNamespaceDecl(attr.Name) {
			scope.defaultNS = attr.Value
			scope.defaultSet = true
			scope.decls = append(scope.decls, NamespaceDecl{Prefix: "", URI: attr.Value})
			continue
		}
		if !isPrefixedNamespaceDecl(attr.Name) {
			continue
		}
		if attr.Name.Local == "xml" || attr.Name.Local == "xmlns" {
			continue
		}
		if scope.prefixes == nil {
			scope.prefixes = make(map[string]string, 1)
		}
		scope.prefixes[attr.Name.Local] = attr.Value
		scope.decls = append(scope.decls, NamespaceDecl{Prefix: attr.Name.Local, URI: attr.Value})
	}
	return scope
}

func isNamespaceDecl(name xml.Name) bool {
	return isDefaultNamespaceDecl(name) || isPrefixedNamespaceDecl(name)
}

func isDefaultNamespaceDecl(name xml.Name) bool {
	return name.Space == "" && name.Local == "xmlns"
}

func isPrefixedNamespaceDecl(name xml.Name) bool {
	return name.Space == "xmlns"
}

func (s *nsStack) resolveElement(name xml.Name) (QName, error) {
	ns, ok := s.lookup(name.Space)
	if !ok {
		return QName{}, ErrUnboundPrefix
	}
	return QName{Space: ns, Local: name.Local, Prefix: name.Space}, nil
}

func (s *nsStack) resolveAttr(name xml.Name) (QName, error) {
	if name.Space == "" {
		return QName{Local: name.Local}, nil
	}
	ns, ok := s.lookup(name.Space)
	if !ok {
		return QName{}, ErrUnboundPrefix
	}
	return QName{Space: ns, Local: name.Local, Prefix: name.Space}, nil
}
