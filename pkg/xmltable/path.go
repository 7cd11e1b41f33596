package xmltable

import (
	"encoding/xml"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrUnsupportedPath = errors.New("unsupported path expression")
	ErrUnknownPrefix   = errors.New("unknown namespace prefix")
)

type pathStep struct {
	descendant bool
	prefix     string
	space      string
	local      string
}

func (s pathStep) matches(name xml.Name) bool {
	if s.local != "*" && s.local != name.Local {
		return false
	}
	if s.prefix == "" {
		return true
	}

	return s.space == name.Space
}

// Path is the location-path subset used to pick record elements: child (/) and descendant (//)
// steps over element names, with optional prefix:name and * wildcards. An unprefixed name matches
// the local name in any namespace. Predicates and axes are not supported.
type Path struct {
	expr  string
	steps []pathStep
}

// ParsePath parses expr, resolving prefixes through namespaces. A leading "." is the document
// node, so ".//a" is "//a" and "a" is the root element a.
func ParsePath(expr string, namespaces map[string]string) (*Path, error) {
	rest := strings.TrimSpace(expr)
	rest = strings.TrimPrefix(rest, ".")
	if rest == "" {
		return nil, errors.Wrap(ErrUnsupportedPath, "empty path")
	}
	if strings.ContainsAny(rest, "[]()@=") {
		return nil, errors.Wrap(ErrUnsupportedPath, expr)
	}

	p := &Path{expr: expr}
	for rest != "" {
		step := pathStep{}
		switch {
		case strings.HasPrefix(rest, "//"):
			step.descendant = true
			rest = rest[2:]
		case strings.HasPrefix(rest, "/"):
			rest = rest[1:]
		case len(p.steps) > 0:
			return nil, errors.Wrap(ErrUnsupportedPath, expr)
		}

		name := rest
		if i := strings.Index(rest, "/"); i >= 0 {
			name, rest = rest[:i], rest[i:]
		} else {
			rest = ""
		}
		if name == "" {
			return nil, errors.Wrapf(ErrUnsupportedPath, "empty step in %s", expr)
		}

		if prefix, local, ok := strings.Cut(name, ":"); ok {
			space, known := namespaces[prefix]
			if !known {
				return nil, errors.Wrapf(ErrUnknownPrefix, "%s in %s", prefix, expr)
			}
			step.prefix, step.space, step.local = prefix, space, local
		} else {
			step.local = name
		}
		p.steps = append(p.steps, step)
	}

	return p, nil
}

// String returns the expression the path was parsed from.
func (p *Path) String() string {
	return p.expr
}

// Match reports whether the element at the top of stack is selected. stack[0] is the root element.
func (p *Path) Match(stack []xml.Name) bool {
	return p.match(0, 0, stack)
}

func (p *Path) match(si, depth int, stack []xml.Name) bool {
	if si == len(p.steps) {
		return depth == len(stack)
	}

	step := p.steps[si]
	if !step.descendant {
		return depth < len(stack) && step.matches(stack[depth]) && p.match(si+1, depth+1, stack)
	}

	for d := depth; d < len(stack); d++ {
		if step.matches(stack[d]) && p.match(si+1, d+1, stack) {
			return true
		}
	}

	return false
}
