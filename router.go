package trasse

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/valyala/fasthttp"
)

// router drives the per-request pipeline: it resolves each incoming request
// against the immutable table built at startup and runs the matched chain
// The table is read-only, so Handler needs no coordination between requests
type router struct {
	table    *Table
	notFound Effect
	app      *App
	pool     sync.Pool // Reused context objects
}

// acquireCtx retrieves a context instance from the pool and initializes it
func (r *router) acquireCtx(fctx *fasthttp.RequestCtx) *Context {
	ctx := r.pool.Get().(*Context)
	ctx.reset(fctx)
	return ctx
}

// releaseCtx returns a context to the pool after clearing request references
func (r *router) releaseCtx(ctx *Context) {
	ctx.requestCtx = nil
	ctx.params = Params{}
	ctx.query = nil
	ctx.body = nil
	r.pool.Put(ctx)
}

// Handler processes all incoming HTTP requests
// It manages the request lifecycle: dispatch against the routing table,
// chain execution, not-found fallbacks, and transaction logging
func (r *router) Handler(fctx *fasthttp.RequestCtx) {
	var startTime time.Time
	if r.app.enableLogging {
		startTime = time.Now()
	}

	ctx := r.acquireCtx(fctx)
	defer r.releaseCtx(ctx)

	if r.app.AutoRecover {
		defer r.recoverFromPanic(fctx)
	}

	path := getString(fctx.URI().PathOriginal())
	if len(path) > r.app.MaxRequestURLLength {
		fctx.Error("Request URL too long", StatusRequestURITooLong)
		return
	}

	method := getString(fctx.Method())
	rawQuery := getString(fctx.URI().QueryString())

	if r.handleDispatch(ctx, method, path, rawQuery) ||
		(r.app.HandleMethodNotAllowed && r.handleMethodNotAllowed(fctx, method, path)) ||
		r.handleNotFound(ctx) {
		// Request handled
	} else {
		fctx.Error(fasthttp.StatusMessage(StatusNotFound), StatusNotFound)
	}

	if r.app.enableLogging {
		logHTTPTransaction(fctx, time.Since(startTime))
	}
}

// recoverFromPanic catches panics raised during handler execution
// It logs the error and responds with 500 without stopping the service
func (r *router) recoverFromPanic(fctx *fasthttp.RequestCtx) {
	if rcv := recover(); rcv != nil {
		log.Error(ErrRecoveredFromError, "error", rcv)
		fctx.Error(fasthttp.StatusMessage(StatusInternalServerError), StatusInternalServerError)
	}
}

// handleDispatch resolves the request against the table and, on a match,
// runs the route's middleware chain followed by its effect
// Returns true if a route matched, false otherwise
func (r *router) handleDispatch(ctx *Context, method, path, rawQuery string) bool {
	d, ok := r.table.Dispatch(method, path, rawQuery)
	if !ok {
		return false
	}

	ctx.params = d.Params
	ctx.query = d.Query
	ctx.fullPath = d.Route.Path()

	for _, mw := range d.Route.Middlewares() {
		ctx.handlers = append(ctx.handlers, mw)
	}
	ctx.handlers = append(ctx.handlers, d.Route.Effect())

	ctx.Next()
	return true
}

// handleMethodNotAllowed generates a 405 Method Not Allowed response when
// another method would have matched the path
// Returns true if the request was handled, false otherwise
func (r *router) handleMethodNotAllowed(fctx *fasthttp.RequestCtx, method, path string) bool {
	allow := r.table.allowedMethods(path, method)
	if allow == "" {
		return false
	}

	fctx.Response.Header.Set("Allow", allow)
	fctx.SetStatusCode(StatusMethodNotAllowed)
	fctx.SetContentTypeBytes([]byte(MIMETextPlainCharsetUTF8))
	fctx.SetBodyString(fasthttp.StatusMessage(StatusMethodNotAllowed))
	return true
}

// handleNotFound executes the custom not-found effect if one is configured
// Returns true if it ran, false otherwise
func (r *router) handleNotFound(ctx *Context) bool {
	if r.notFound == nil {
		return false
	}

	ctx.handlers = append(ctx.handlers, r.notFound)
	ctx.Next()
	return true
}
