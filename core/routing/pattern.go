package routing

import (
	"fmt"
	"strings"
)

// segment is one compiled path element: either a literal or a named capture.
type segment struct {
	literal string
	param   string
}

// Pattern is a compiled route pattern. Literal segments match exactly,
// "{name}" segments capture a single path segment into the scope params.
type Pattern struct {
	raw      string
	segments []segment
}

// CompilePattern compiles a pattern such as "/ws/chat/{room}". It returns
// ErrInvalidPattern for empty parameter names, duplicate parameter names, or
// braces that do not span a whole segment.
func CompilePattern(raw string) (*Pattern, error) {
	if raw == "" || raw[0] != '/' {
		return nil, fmt.Errorf("%w: %q must begin with '/'", ErrInvalidPattern, raw)
	}

	parts := splitPath(raw)
	segments := make([]segment, 0, len(parts))
	seen := make(map[string]struct{})

	for _, part := range parts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			name := part[1 : len(part)-1]
			if name == "" {
				return nil, fmt.Errorf("%w: empty parameter in %q", ErrInvalidPattern, raw)
			}
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("%w: duplicate parameter %q in %q", ErrInvalidPattern, name, raw)
			}
			seen[name] = struct{}{}
			segments = append(segments, segment{param: name})
			continue
		}
		if strings.ContainsAny(part, "{}") {
			return nil, fmt.Errorf("%w: parameter must span a whole segment in %q", ErrInvalidPattern, raw)
		}
		segments = append(segments, segment{literal: part})
	}

	return &Pattern{raw: raw, segments: segments}, nil
}

// Match reports whether path matches the pattern and returns the captured
// parameters. A trailing slash on either side is ignored.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	parts := splitPath(path)
	if len(parts) != len(p.segments) {
		return nil, false
	}

	var params map[string]string
	for i, seg := range p.segments {
		if seg.param != "" {
			if params == nil {
				params = make(map[string]string)
			}
			params[seg.param] = parts[i]
			continue
		}
		if parts[i] != seg.literal {
			return nil, false
		}
	}
	return params, true
}

// String returns the pattern as registered.
func (p *Pattern) String() string { return p.raw }

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
