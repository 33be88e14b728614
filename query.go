package trasse

import (
	"net/url"
	"strings"
)

// queryKind defines the classification of values in a parsed query object
type queryKind uint8

const (
	queryAbsent queryKind = iota // Zero value, key not present
	queryString                  // Scalar value
	queryObject                  // Nested mapping from bracket notation
	queryList                    // Ordered values from empty-bracket keys
)

// QueryValue is a tagged union of the shapes a query parameter can take:
// a string, a nested QueryObject, or an ordered string list
// Values are untrusted and untyped; downstream validation converts them
type QueryValue struct {
	str  string
	obj  QueryObject
	list []string
	kind queryKind
}

// String returns the scalar form of the value, if it is one
// The zero QueryValue reports false, so lookups distinguish an absent key
// from an empty parameter
func (v QueryValue) String() (string, bool) {
	return v.str, v.kind == queryString
}

// Object returns the nested object form of the value, if it is one
func (v QueryValue) Object() (QueryObject, bool) {
	if v.kind != queryObject {
		return nil, false
	}
	return v.obj, true
}

// List returns the ordered list form of the value, if it is one
func (v QueryValue) List() ([]string, bool) {
	if v.kind != queryList {
		return nil, false
	}
	return v.list, true
}

func stringValue(s string) QueryValue {
	return QueryValue{str: s, kind: queryString}
}

func objectValue(o QueryObject) QueryValue {
	return QueryValue{obj: o, kind: queryObject}
}

func listValue(l []string) QueryValue {
	return QueryValue{list: l, kind: queryList}
}

// QueryObject is the parsed form of a raw query string: a nested, string-keyed
// mapping built fresh per request
type QueryObject map[string]QueryValue

// Get returns the scalar value bound to a top-level key, or an empty string
func (q QueryObject) Get(key string) string {
	s, _ := q[key].String()
	return s
}

// ParseQuery parses a raw query string into a QueryObject. It never fails:
// malformed fragments degrade into best-effort strings, and an empty input
// yields an empty object
//
// Pairs are '&'-separated and split on the first '='; a key without '=' maps
// to an empty string. Both halves are URL-decoded. Bracketed keys nest:
// 'a[b][c]=v' sets {a: {b: {c: "v"}}}. Digit-only bracket segments are
// ordinary keys, not array indices. An empty final bracket ('a[]=v') appends
// to an ordered list. Duplicate scalar keys keep the last occurrence
func ParseQuery(rawQuery string) QueryObject {
	out := make(QueryObject)
	if rawQuery == "" {
		return out
	}

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}

		key, value := pair, ""
		if i := strings.IndexByte(pair, '='); i >= 0 {
			key, value = pair[:i], pair[i+1:]
		}

		key = decodeComponent(key)
		if key == "" {
			continue
		}
		value = decodeComponent(value)

		path, appendToList := splitQueryKey(key)
		out.set(path, value, appendToList)
	}

	return out
}

// decodeComponent URL-decodes s, keeping the raw text when decoding fails
func decodeComponent(s string) string {
	// '+' means space in query strings; QueryUnescape handles both
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// splitQueryKey breaks a decoded key into its nesting path
// 'a[b][c]' yields [a b c]; a trailing empty bracket pair marks list append.
// Keys whose brackets do not parse cleanly are kept whole, best effort
func splitQueryKey(key string) (path []string, appendToList bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return []string{key}, false
	}

	path = append(path, key[:open])
	rest := key[open:]
	for len(rest) > 0 {
		if rest[0] != '[' {
			// Stray text between brackets: treat the whole key as flat
			return []string{key}, false
		}
		closing := strings.IndexByte(rest, ']')
		if closing == -1 {
			return []string{key}, false
		}
		path = append(path, rest[1:closing])
		rest = rest[closing+1:]
	}

	if last := path[len(path)-1]; last == "" {
		return path[:len(path)-1], true
	}
	return path, false
}

// set walks the object, creating intermediate nested objects as needed,
// and writes the leaf value. Scalar collisions on intermediate keys are
// overwritten by nested objects; scalar leaves use last-write-wins
func (q QueryObject) set(path []string, value string, appendToList bool) {
	cur := q
	for _, seg := range path[:len(path)-1] {
		next, ok := cur[seg].Object()
		if !ok {
			next = make(QueryObject)
			cur[seg] = objectValue(next)
		}
		cur = next
	}

	leaf := path[len(path)-1]
	if appendToList {
		existing, _ := cur[leaf].List()
		cur[leaf] = listValue(append(existing, value))
		return
	}
	cur[leaf] = stringValue(value)
}
