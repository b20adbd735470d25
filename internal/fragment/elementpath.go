package fragment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jacoelho/xinclude/internal/xmlnames"
)

// ErrInvalidElementPath reports elementpath() data that is not a valid path.
var ErrInvalidElementPath = errors.New("invalid element path")

// pathStep selects the n-th child element, optionally restricted by name.
type pathStep struct {
	space string
	local string
	n     int
	named bool
}

// compileElementPath parses an absolute path such as /doc/section[2]/3.
// A numeric step selects the n-th child element; a named step selects the
// n-th child with that name, the first when no index is given.
func compileElementPath(data string, bindings map[string]string) ([]pathStep, error) {
	data = strings.TrimSpace(data)
	rest, ok := strings.CutPrefix(data, "/")
	if !ok {
		return nil, fmt.Errorf("%w: %q must start with '/'", ErrInvalidElementPath, data)
	}
	if rest == "" {
		return nil, fmt.Errorf("%w: %q selects no element", ErrInvalidElementPath, data)
	}
	parts := strings.Split(rest, "/")
	steps := make([]pathStep, 0, len(parts))
	for _, part := range parts {
		step, err := compileElementStep(part, bindings)
		if err != nil {
			return nil, fmt.Errorf("%w: step %q: %v", ErrInvalidElementPath, part, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func compileElementStep(part string, bindings map[string]string) (pathStep, error) {
	if part == "" {
		return pathStep{}, errors.New("empty step")
	}
	if n, err := strconv.Atoi(part); err == nil {
		if n < 1 {
			return pathStep{}, errors.New("index must be positive")
		}
		return pathStep{n: n}, nil
	}

	name := part
	step := pathStep{n: 1, named: true}
	if before, after, ok := strings.Cut(part, "["); ok {
		index, found := strings.CutSuffix(after, "]")
		if !found {
			return pathStep{}, errors.New("missing ']'")
		}
		n, err := strconv.Atoi(index)
		if err != nil || n < 1 {
			return pathStep{}, fmt.Errorf("index %q must be a positive integer", index)
		}
		name = before
		step.n = n
	}
	if !xmlnames.IsQName(name) {
		return pathStep{}, fmt.Errorf("invalid name %q", name)
	}
	prefix, local, hasPrefix := xmlnames.SplitQName(name)
	step.local = local
	if hasPrefix {
		space, err := xmlnames.ResolvePrefix(prefix, bindings)
		if err != nil {
			return pathStep{}, err
		}
		step.space = space
	}
	return step, nil
}

func (idx *index) selectElementPath(steps []pathStep) *node {
	current := idx.doc
	for _, step := range steps {
		seen := 0
		var next *node
		for _, child := range current.children {
			if step.named && (child.name.Space != step.space || child.name.Local != step.local) {
				continue
			}
			seen++
			if seen == step.n {
				next = child
				break
			}
		}
		if next == nil {
			return nil
		}
		current = next
	}
	return current
}
