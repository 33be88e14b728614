package trasse

import (
	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// defaultCacheSize is the maximum number of entries in the match cache
	defaultCacheSize = 10000
)

// Table is the immutable routing table: the ordered result of flattening
// every mounted route and group. It is built once at startup and read
// concurrently by any number of dispatch operations; no interface mutates
// it after BuildTable returns
type Table struct {
	routes []*Route
	cache  *lru.Cache[string, *cachedMatch]
}

// cachedMatch holds a resolved route and its extracted parameters
// Cached Params are shared across requests and must stay read-only
type cachedMatch struct {
	route  *Route
	params Params
}

// tableConfig holds the tunables applied by TableOption values
type tableConfig struct {
	cacheSize    int
	disableCache bool
}

// TableOption configures table construction
type TableOption func(*tableConfig)

// WithCacheSize bounds the match cache to n entries
func WithCacheSize(n int) TableOption {
	return func(c *tableConfig) {
		c.cacheSize = n
	}
}

// WithoutCache disables the match cache entirely
func WithoutCache() TableOption {
	return func(c *tableConfig) {
		c.disableCache = true
	}
}

// BuildTable flattens roots, in order, into one immutable routing table
// Any pattern error anywhere in the tree aborts the build: construction
// problems are resolved before traffic, never deferred to request time.
// Duplicate method+path registrations are kept as declared; the earlier
// route shadows later ones because matching is first-match-wins
func BuildTable(roots []Mountable, opts ...TableOption) (*Table, error) {
	cfg := tableConfig{cacheSize: defaultCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	var routes []*Route
	for _, root := range roots {
		if err := root.mount(nil, nil, &routes); err != nil {
			return nil, err
		}
	}

	t := &Table{routes: routes}
	if !cfg.disableCache {
		if cfg.cacheSize <= 0 {
			cfg.cacheSize = defaultCacheSize
		}
		cache, err := lru.New[string, *cachedMatch](cfg.cacheSize)
		if err != nil {
			log.Error(ErrCacheCreationFailed, "error", err, "requestedSize", cfg.cacheSize)
		} else {
			t.cache = cache
		}
	}

	return t, nil
}

// Routes returns the flattened routes in match order
// The returned slice must not be modified
func (t *Table) Routes() []*Route {
	return t.routes
}

// Len returns the number of routes in the table
func (t *Table) Len() int {
	return len(t.routes)
}

// Match resolves a method and path against the table
// Routes are scanned in flattened declaration order; a route matches when its
// method equals the request method (or is MethodAny) and its pattern matches
// the path. The first match wins. Match is read-only and safe for
// concurrent use
func (t *Table) Match(method, path string) (*Route, Params, bool) {
	cacheable := t.cache != nil && (method == MethodGet || method == MethodHead)

	var cacheKey string
	if cacheable {
		cacheKey = method + ":" + path
		if hit, ok := t.cache.Get(cacheKey); ok {
			return hit.route, hit.params, true
		}
	}

	for _, route := range t.routes {
		if route.method != MethodAny && route.method != method {
			continue
		}
		params, ok := route.pattern.Match(path)
		if !ok {
			continue
		}

		if cacheable {
			t.cache.Add(cacheKey, &cachedMatch{route: route, params: params})
		}
		return route, params, true
	}

	return nil, Params{}, false
}

// allowedMethods returns a comma-separated list of methods, other than
// skip, whose routes match path. Used for Allow headers on 405 responses
func (t *Table) allowedMethods(path, skip string) string {
	var allow string
	seen := make(map[string]bool, len(allMethods))

	for _, route := range t.routes {
		if _, ok := route.pattern.Match(path); !ok {
			continue
		}

		methods := []string{route.method}
		if route.method == MethodAny {
			methods = allMethods
		}
		for _, method := range methods {
			if method == skip || seen[method] {
				continue
			}
			seen[method] = true
			if allow != "" {
				allow += ", " + method
			} else {
				allow = method
			}
		}
	}

	if allow != "" && !seen[MethodOptions] && skip != MethodOptions {
		allow += ", " + MethodOptions
	}
	return allow
}
