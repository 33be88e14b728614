package trasse

// Mountable is implemented by *Route and *Group: anything that can be
// flattened into a routing table under a prefix and an inherited
// middleware chain
type Mountable interface {
	mount(prefix *Pattern, chain []Middleware, out *[]*Route) error
}

// Group scopes an ordered list of routes and nested groups under a shared
// path prefix and middleware chain. Groups flatten depth-first at table
// build time: prefixes concatenate and group middlewares run before child
// middlewares at every nesting level, outermost first
type Group struct {
	prefix      string
	middlewares []Middleware
	children    []Mountable
}

// GroupOption configures a Group at creation
type GroupOption func(*Group)

// WithMiddleware attaches shared middlewares to the group, run before every
// child's own chain
func WithMiddleware(middlewares ...Middleware) GroupOption {
	return func(g *Group) {
		g.middlewares = append(g.middlewares, middlewares...)
	}
}

// Combine groups children under a path prefix
// The prefix may contain parameter segments; they simply become part of each
// child's fully-qualified pattern. Prefix compilation errors surface when the
// table is built, before any traffic is served
func Combine(prefix string, children []Mountable, opts ...GroupOption) *Group {
	g := &Group{
		prefix:   prefix,
		children: children,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Add appends children to the group, preserving declaration order
func (g *Group) Add(children ...Mountable) *Group {
	g.children = append(g.children, children...)
	return g
}

// Use appends shared middlewares to the group's chain
func (g *Group) Use(middlewares ...Middleware) *Group {
	g.middlewares = append(g.middlewares, middlewares...)
	return g
}

// BasePath returns the group's own prefix, parent prefixes excluded
func (g *Group) BasePath() string {
	return g.prefix
}

// mount flattens the group: it qualifies its own prefix under the inherited
// one, prepends the inherited chain to its own, and walks the children in
// declaration order
func (g *Group) mount(prefix *Pattern, chain []Middleware, out *[]*Route) error {
	own, err := Compile(g.prefix)
	if err != nil {
		return err
	}

	full := own
	if prefix != nil {
		full, err = prefix.Join(own)
		if err != nil {
			return err
		}
	}

	middlewares := make([]Middleware, 0, len(chain)+len(g.middlewares))
	middlewares = append(middlewares, chain...)
	middlewares = append(middlewares, g.middlewares...)

	for _, child := range g.children {
		if err := child.mount(full, middlewares, out); err != nil {
			return err
		}
	}
	return nil
}
