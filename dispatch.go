package trasse

// Dispatch is the resolved outcome of a successful table lookup: the matched
// route, the parameters extracted from the path, and the parsed query object.
// All three are request-scoped; the engine's obligation ends here and the
// caller runs the route's chain
type Dispatch struct {
	Route  *Route
	Params Params
	Query  QueryObject
}

// Dispatch resolves an incoming request's method, path, and raw query string
// against the table. A no-match is an ordinary value, never an error or a
// panic, so the caller cannot forget the 404 case. Dispatch performs no
// blocking work and may be called concurrently
func (t *Table) Dispatch(method, path, rawQuery string) (Dispatch, bool) {
	route, params, ok := t.Match(method, path)
	if !ok {
		return Dispatch{}, false
	}

	return Dispatch{
		Route:  route,
		Params: params,
		Query:  ParseQuery(rawQuery),
	}, true
}
