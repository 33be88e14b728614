package trasse

import (
	"strings"
)

// segmentKind defines the classification of segments in a compiled pattern
type segmentKind uint8

const (
	segLiteral  segmentKind = iota // Verbatim path segment
	segNamed                       // Parameter (:id)
	segWildcard                    // Trailing capture (:rest*)
)

// segment is a single compiled element of a path template
type segment struct {
	value string // Literal text or parameter name
	kind  segmentKind
}

// Pattern is the compiled, immutable form of a path template
// Templates are segment lists separated by '/': a segment beginning with ':'
// is a named parameter, and a named parameter ending in '*' is a wildcard
// that captures the remaining request segments. Wildcards may only appear
// as the final segment
type Pattern struct {
	segments []segment
	fixed    int // Segment count excluding the wildcard
	wildcard bool
}

// Compile parses a path template into a Pattern
// It returns a *PatternSyntaxError when a wildcard is not the final segment,
// a parameter name repeats, or a segment contains stray ':' or '*' characters
func Compile(template string) (*Pattern, error) {
	p := &Pattern{}
	var names map[string]bool

	rest := template
	for len(rest) > 0 {
		var raw string
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			raw, rest = rest[:i], rest[i+1:]
		} else {
			raw, rest = rest, ""
		}

		// Consecutive slashes compile to nothing
		if raw == "" {
			continue
		}

		if p.wildcard {
			return nil, syntaxError(template, "wildcard segment must be final")
		}

		seg, err := compileSegment(template, raw)
		if err != nil {
			return nil, err
		}

		if seg.kind != segLiteral {
			if names[seg.value] {
				return nil, syntaxError(template, "duplicate parameter name "+quoteSegment(seg.value))
			}
			if names == nil {
				names = make(map[string]bool, 4)
			}
			names[seg.value] = true
		}

		p.segments = append(p.segments, seg)
		if seg.kind == segWildcard {
			p.wildcard = true
		} else {
			p.fixed++
		}
	}

	return p, nil
}

// MustCompile is like Compile but panics on a syntax error
// Intended for static route tables wired at startup
func MustCompile(template string) *Pattern {
	p, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return p
}

func compileSegment(template, raw string) (segment, error) {
	if raw[0] == ':' {
		name := raw[1:]
		kind := segNamed
		if strings.HasSuffix(name, "*") {
			name = name[:len(name)-1]
			kind = segWildcard
		}
		if name == "" {
			return segment{}, syntaxError(template, "parameter segment without a name")
		}
		if strings.ContainsAny(name, ":*") {
			return segment{}, syntaxError(template, "malformed parameter segment "+quoteSegment(raw))
		}
		return segment{value: name, kind: kind}, nil
	}

	if strings.ContainsAny(raw, ":*") {
		return segment{}, syntaxError(template, "unsupported syntax in segment "+quoteSegment(raw))
	}
	return segment{value: raw, kind: segLiteral}, nil
}

// String reconstructs the template this pattern was compiled from
func (p *Pattern) String() string {
	if len(p.segments) == 0 {
		return "/"
	}

	var b strings.Builder
	for _, seg := range p.segments {
		b.WriteByte('/')
		switch seg.kind {
		case segNamed:
			b.WriteByte(':')
			b.WriteString(seg.value)
		case segWildcard:
			b.WriteByte(':')
			b.WriteString(seg.value)
			b.WriteByte('*')
		default:
			b.WriteString(seg.value)
		}
	}
	return b.String()
}

// Join concatenates p as a prefix in front of child, producing a new Pattern
// It re-validates the wildcard-last and unique-name invariants across the
// combined segment list
func (p *Pattern) Join(child *Pattern) (*Pattern, error) {
	if len(child.segments) == 0 {
		return p, nil
	}
	if len(p.segments) == 0 {
		return child, nil
	}
	if p.wildcard {
		return nil, syntaxError(p.String()+child.String(), "wildcard segment must be final")
	}

	names := make(map[string]bool, 4)
	joined := &Pattern{
		segments: make([]segment, 0, len(p.segments)+len(child.segments)),
		fixed:    p.fixed + child.fixed,
		wildcard: child.wildcard,
	}
	joined.segments = append(joined.segments, p.segments...)
	joined.segments = append(joined.segments, child.segments...)

	for _, seg := range joined.segments {
		if seg.kind == segLiteral {
			continue
		}
		if names[seg.value] {
			return nil, syntaxError(joined.String(), "duplicate parameter name "+quoteSegment(seg.value))
		}
		names[seg.value] = true
	}

	return joined, nil
}

// Match tests a request path against the pattern
// On success it returns the extracted parameters: named segments map to the
// matched segment value, and a wildcard maps to the ordered remainder of the
// path (possibly empty). Consecutive slashes in the request path are skipped
func (p *Pattern) Match(path string) (Params, bool) {
	// Cheap rejection on segment count before any allocation
	count := countSegments(path)
	if p.wildcard {
		if count < p.fixed {
			return Params{}, false
		}
	} else if count != p.fixed {
		return Params{}, false
	}

	var params Params
	si := 0
	pathStart := 0
	if len(path) > 0 && path[0] == '/' {
		pathStart = 1
	}

	for pathStart < len(path) {
		segmentDelimiter := strings.IndexByte(path[pathStart:], '/')
		var segmentEnd int
		if segmentDelimiter == -1 {
			segmentEnd = len(path)
		} else {
			segmentEnd = pathStart + segmentDelimiter
		}

		// Skip empty segments (consecutive slashes)
		if pathStart == segmentEnd {
			pathStart = segmentEnd + 1
			continue
		}

		pathSegment := path[pathStart:segmentEnd]

		if si >= len(p.segments) {
			return Params{}, false
		}

		switch seg := p.segments[si]; seg.kind {
		case segLiteral:
			if seg.value != pathSegment {
				return Params{}, false
			}
		case segNamed:
			if params.named == nil {
				params.named = make(map[string]string, p.fixed)
			}
			params.named[seg.value] = pathSegment
		case segWildcard:
			// Capture this and every remaining segment in order
			params.wildName = seg.value
			params.wild = append(params.wild, pathSegment)
			pathStart = segmentEnd + 1
			for pathStart < len(path) {
				segmentDelimiter = strings.IndexByte(path[pathStart:], '/')
				if segmentDelimiter == -1 {
					segmentEnd = len(path)
				} else {
					segmentEnd = pathStart + segmentDelimiter
				}
				if pathStart != segmentEnd {
					params.wild = append(params.wild, path[pathStart:segmentEnd])
				}
				pathStart = segmentEnd + 1
			}
			return params, true
		}

		si++
		pathStart = segmentEnd + 1
	}

	if si != p.fixed {
		return Params{}, false
	}
	if p.wildcard {
		// Zero segments left for the wildcard: empty capture
		params.wildName = p.segments[len(p.segments)-1].value
	}
	return params, true
}

// countSegments counts the non-empty segments of a request path
func countSegments(path string) int {
	count := 0
	start := 0
	for start < len(path) {
		if path[start] == '/' {
			start++
			continue
		}
		end := strings.IndexByte(path[start:], '/')
		if end == -1 {
			return count + 1
		}
		count++
		start += end + 1
	}
	return count
}

// Params holds the values extracted from a matched path
// Named segments are single strings; the wildcard, when present, is an
// ordered segment list. A Params value is request-scoped and read-only
type Params struct {
	named    map[string]string
	wild     []string
	wildName string
}

// Get returns the value bound to name, or an empty string
// For the wildcard parameter it returns the captured segments joined by '/'
func (p Params) Get(name string) string {
	if v, ok := p.named[name]; ok {
		return v
	}
	if name != "" && name == p.wildName {
		return strings.Join(p.wild, "/")
	}
	return ""
}

// Lookup is like Get but also reports whether the parameter was bound
func (p Params) Lookup(name string) (string, bool) {
	if v, ok := p.named[name]; ok {
		return v, true
	}
	if name != "" && name == p.wildName {
		return strings.Join(p.wild, "/"), true
	}
	return "", false
}

// Wildcard returns the ordered segments captured by the wildcard parameter
// name, which may be empty, or nil when name is not the wildcard
func (p Params) Wildcard(name string) []string {
	if name != "" && name == p.wildName {
		return p.wild
	}
	return nil
}

// Len returns the number of bound parameters
func (p Params) Len() int {
	n := len(p.named)
	if p.wildName != "" {
		n++
	}
	return n
}

// quoteSegment quotes a segment for error messages
func quoteSegment(s string) string {
	return "'" + s + "'"
}
