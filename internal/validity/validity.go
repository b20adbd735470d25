// Package validity collects the dependency tokens of one inclusion run.
// The set is append-only while the outermost document is produced and is
// frozen exactly once when that document ends.
package validity

import (
	"errors"
	"fmt"
)

// ErrClosed reports an Add after the set was closed.
var ErrClosed = errors.New("validity set is closed")

// Token identifies one resolved source and the state it was observed in.
// An empty Stamp means the state is unknown (for example the source could not be resolved).
type Token struct {
	Source string
	Stamp  string
}

// String returns the token in source@stamp form.
func (t Token) String() string {
	if t.Stamp == "" {
		return t.Source
	}
	return t.Source + "@" + t.Stamp
}

// Aggregator is the ordered token set of one inclusion run.
// It is not safe for concurrent use.
type Aggregator struct {
	tokens []Token
	closed bool
}

// New returns an open Aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Add appends tok. Duplicates are kept.
func (a *Aggregator) Add(tok Token) error {
	if a.closed {
		return fmt.Errorf("add %s: %w", tok.Source, ErrClosed)
	}
	a.tokens = append(a.tokens, tok)
	return nil
}

// Close freezes the set. Closing twice is a no-op.
func (a *Aggregator) Close() {
	a.closed = true
}

// Closed reports whether the set is frozen.
func (a *Aggregator) Closed() bool {
	return a.closed
}

// Len returns the number of recorded tokens.
func (a *Aggregator) Len() int {
	return len(a.tokens)
}

// Snapshot returns a copy of the tokens in insertion order.
func (a *Aggregator) Snapshot() []Token {
	return append([]Token(nil), a.tokens...)
}

// Sources returns the distinct token sources in first-seen order.
func Sources(tokens []Token) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := seen[tok.Source]; ok {
			continue
		}
		seen[tok.Source] = struct{}{}
		out = append(out, tok.Source)
	}
	return out
}
