// Package baseuri tracks the base URI in effect for each open element and
// resolves relative references against it.
package baseuri

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ErrMalformed reports a reference that is not a valid URI reference.
var ErrMalformed = errors.New("malformed URI reference")

// Canonical returns the canonical absolute form of uri.
// References without a scheme are rooted and cleaned ("a/./b.xml" becomes
// "/a/b.xml"); dot segments are removed from every hierarchical path and
// fragments are dropped.
func Canonical(uri string) (string, error) {
	u, err := parse(uri)
	if err != nil {
		return "", err
	}
	u.Fragment = ""
	u.RawFragment = ""
	if u.Scheme == "" && u.Host == "" {
		p := u.Path
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		u.Path = path.Clean(p)
		u.RawPath = ""
		return u.String(), nil
	}
	return u.ResolveReference(&url.URL{}).String(), nil
}

// Resolve resolves ref against base.
func Resolve(base, ref string) (string, error) {
	r, err := parse(ref)
	if err != nil {
		return "", err
	}
	if base == "" {
		return Canonical(r.String())
	}
	b, err := parse(base)
	if err != nil {
		return "", err
	}
	resolved := b.ResolveReference(r)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String(), nil
}

// SplitFragment splits a "#fragment" suffix off a reference.
func SplitFragment(ref string) (string, string, bool) {
	before, after, ok := strings.Cut(ref, "#")
	return before, after, ok
}

func parse(raw string) (*url.URL, error) {
	if strings.ContainsAny(raw, "\x00\\") {
		return nil, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return u, nil
}

// Tracker is a stack of base URIs, one entry per open element.
type Tracker struct {
	seed  string
	stack []string
}

// NewTracker returns a Tracker whose base is seed until an element overrides it.
func NewTracker(seed string) *Tracker {
	return &Tracker{seed: seed}
}

// Seed sets the document base used when no element is open.
func (t *Tracker) Seed(base string) {
	t.seed = base
}

// Current returns the base URI in effect.
func (t *Tracker) Current() string {
	if len(t.stack) == 0 {
		return t.seed
	}
	return t.stack[len(t.stack)-1]
}

// Depth returns the number of open elements.
func (t *Tracker) Depth() int {
	return len(t.stack)
}

// Push records an element start. When ok is true, override (an xml:base
// value) is resolved against the current base and becomes the new base.
// On error the element is still pushed with the inherited base so Pop stays balanced.
func (t *Tracker) Push(override string, ok bool) error {
	current := t.Current()
	if !ok {
		t.stack = append(t.stack, current)
		return nil
	}
	next, err := Resolve(current, override)
	if err != nil {
		t.stack = append(t.stack, current)
		return err
	}
	t.stack = append(t.stack, next)
	return nil
}

// Pop records an element end.
func (t *Tracker) Pop() {
	if len(t.stack) == 0 {
		return
	}
	t.stack = t.stack[:len(t.stack)-1]
}

// MakeAbsolute resolves ref against the current base.
func (t *Tracker) MakeAbsolute(ref string) (string, error) {
	return Resolve(t.Current(), ref)
}
