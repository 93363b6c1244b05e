package router

import (
	"fmt"
	"strings"
)

type segmentKind uint8

const (
	segStatic segmentKind = iota
	segParam
)

type segment struct {
	kind  segmentKind
	value string // literal text or parameter name
}

// pattern is a parsed route pattern such as "/users/{id}/*".
type pattern struct {
	raw      string
	segments []segment
	catchAll bool
}

func parsePattern(raw string) (pattern, error) {
	if raw == "" || raw[0] != '/' {
		return pattern{}, fmt.Errorf("%w: '%s'", ErrInvalidPattern, raw)
	}

	p := pattern{raw: raw}
	parts := strings.Split(raw[1:], "/")
	seen := make(map[string]bool)

	for i, part := range parts {
		switch {
		case part == "*":
			if i != len(parts)-1 {
				return pattern{}, fmt.Errorf("%w: '%s'", ErrWildcardPosition, raw)
			}
			p.catchAll = true
		case strings.Contains(part, "*"):
			return pattern{}, fmt.Errorf("%w: '%s'", ErrWildcardPosition, raw)
		case strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}"):
			name := part[1 : len(part)-1]
			if name == "" {
				return pattern{}, fmt.Errorf("%w: empty parameter in '%s'", ErrInvalidPattern, raw)
			}
			if seen[name] {
				return pattern{}, fmt.Errorf("%w: '%s' in '%s'", ErrDuplicateParam, name, raw)
			}
			seen[name] = true
			p.segments = append(p.segments, segment{kind: segParam, value: name})
		default:
			p.segments = append(p.segments, segment{kind: segStatic, value: part})
		}
	}

	return p, nil
}

// match reports whether path matches the pattern and returns the captured
// parameters. The catch-all remainder is stored under "*".
func (p pattern) match(path string) (map[string]string, bool) {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")

	if p.catchAll {
		if len(parts) < len(p.segments) {
			return nil, false
		}
	} else if len(parts) != len(p.segments) {
		return nil, false
	}

	var params map[string]string
	for i, seg := range p.segments {
		switch seg.kind {
		case segStatic:
			if parts[i] != seg.value {
				return nil, false
			}
		case segParam:
			if parts[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[seg.value] = parts[i]
		}
	}

	if p.catchAll {
		if params == nil {
			params = make(map[string]string, 1)
		}
		params["*"] = strings.Join(parts[len(p.segments):], "/")
	}

	return params, true
}

// score ranks matching patterns: static segments beat parameters and any
// non-wildcard route beats a catch-all.
func (p pattern) score() int {
	s := 0
	for _, seg := range p.segments {
		if seg.kind == segStatic {
			s += 2
		} else {
			s++
		}
	}
	if !p.catchAll {
		s += 1 << 16
	}
	return s
}
