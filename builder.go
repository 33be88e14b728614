package trasse

import "fmt"

// Middleware is a composable pre-processing step attached to a route or a
// group, executed in declaration order before the route's effect
// A middleware must call c.Next() for the chain to continue
type Middleware func(c *Context)

// Effect is the terminal handler attached to exactly one route
// The engine only stores and invokes it, never inspects it
type Effect func(c *Context)

// buildPhase tracks how far a RouteBuilder has progressed
type buildPhase uint8

const (
	phaseEmpty  buildPhase = iota // Nothing set
	phasePath                     // Path compiled
	phaseMethod                   // Path and method set
	phaseDone                     // Finalized into a Route
)

// RouteBuilder accumulates one route definition in stages: Path, then Method,
// then Handle. Use may be called at any point before finalization. The phase
// is checked at every transition so a Route can only come into existence with
// its pattern, method, and effect all present; violations surface from Handle
// as composition-time errors, never at request time
type RouteBuilder struct {
	pattern     *Pattern
	method      string
	middlewares []Middleware
	phase       buildPhase
	err         error
}

// NewRoute returns an empty RouteBuilder
func NewRoute() *RouteBuilder {
	return &RouteBuilder{}
}

// Path compiles template and records it as the route's pattern
// It must be the first staging call on the builder
func (b *RouteBuilder) Path(template string) *RouteBuilder {
	if b.err != nil {
		return b
	}
	if b.phase != phaseEmpty {
		b.err = fmt.Errorf("path %q staged out of order: %w", template, ErrIncompleteRoute)
		return b
	}

	pattern, err := Compile(template)
	if err != nil {
		b.err = err
		return b
	}

	b.pattern = pattern
	b.phase = phasePath
	return b
}

// Method records the route's HTTP method; it requires Path to have been set
// MethodAny makes the route match every method
func (b *RouteBuilder) Method(method string) *RouteBuilder {
	if b.err != nil {
		return b
	}
	if b.phase != phasePath {
		b.err = fmt.Errorf("method %q staged before path: %w", method, ErrIncompleteRoute)
		return b
	}
	if !validMethod(method) {
		b.err = fmt.Errorf("unknown HTTP method %q: %w", method, ErrIncompleteRoute)
		return b
	}

	b.method = method
	b.phase = phaseMethod
	return b
}

// Use appends middlewares to the route's chain, preserving call order
// It is permitted at any stage before finalization
func (b *RouteBuilder) Use(middlewares ...Middleware) *RouteBuilder {
	if b.err != nil {
		return b
	}
	if b.phase == phaseDone {
		b.err = fmt.Errorf("middleware attached to a finalized route: %w", ErrIncompleteRoute)
		return b
	}

	b.middlewares = append(b.middlewares, middlewares...)
	return b
}

// Handle attaches the effect and finalizes the builder into a Route
// It returns the first error recorded during staging, or ErrIncompleteRoute
// when the path, method, or effect is missing
func (b *RouteBuilder) Handle(effect Effect) (*Route, error) {
	if b.err != nil {
		return nil, b.err
	}

	switch {
	case b.phase == phaseDone:
		return nil, fmt.Errorf("route finalized twice: %w", ErrIncompleteRoute)
	case b.phase == phaseEmpty:
		return nil, fmt.Errorf("missing path: %w", ErrIncompleteRoute)
	case b.phase == phasePath:
		return nil, fmt.Errorf("missing method for %s: %w", b.pattern, ErrIncompleteRoute)
	case effect == nil:
		return nil, fmt.Errorf("missing effect for %s %s: %w", b.method, b.pattern, ErrIncompleteRoute)
	}

	// Freeze the chain; the builder keeps no live reference
	chain := make([]Middleware, len(b.middlewares))
	copy(chain, b.middlewares)

	b.phase = phaseDone
	return &Route{
		pattern:     b.pattern,
		method:      b.method,
		middlewares: chain,
		effect:      effect,
	}, nil
}

// MustHandle is like Handle but panics on error
// Intended for static route tables wired at startup
func (b *RouteBuilder) MustHandle(effect Effect) *Route {
	route, err := b.Handle(effect)
	if err != nil {
		panic(err)
	}
	return route
}

// Route is an immutable, fully-specified route: a compiled pattern, a method,
// a frozen middleware chain, and an effect. Routes are constructible only
// through RouteBuilder, so every Route is total
type Route struct {
	pattern     *Pattern
	method      string
	middlewares []Middleware
	effect      Effect
}

// Method returns the route's HTTP method
func (r *Route) Method() string {
	return r.method
}

// Path returns the route's path template, prefix included once mounted
func (r *Route) Path() string {
	return r.pattern.String()
}

// Pattern returns the route's compiled pattern
func (r *Route) Pattern() *Pattern {
	return r.pattern
}

// Middlewares returns the route's frozen middleware chain
// The returned slice must not be modified
func (r *Route) Middlewares() []Middleware {
	return r.middlewares
}

// Effect returns the route's terminal handler
func (r *Route) Effect() Effect {
	return r.effect
}

// mount qualifies the route under a prefix and an inherited middleware chain
// and appends the result to the table under construction
func (r *Route) mount(prefix *Pattern, chain []Middleware, out *[]*Route) error {
	pattern := r.pattern
	if prefix != nil {
		joined, err := prefix.Join(r.pattern)
		if err != nil {
			return err
		}
		pattern = joined
	}

	middlewares := make([]Middleware, 0, len(chain)+len(r.middlewares))
	middlewares = append(middlewares, chain...)
	middlewares = append(middlewares, r.middlewares...)

	*out = append(*out, &Route{
		pattern:     pattern,
		method:      r.method,
		middlewares: middlewares,
		effect:      r.effect,
	})
	return nil
}
