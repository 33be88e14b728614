package trasse

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"github.com/valyala/fasthttp"
	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"
)

// handlersChain is the flattened execution order of a matched route:
// its middlewares followed by its effect
type handlersChain []func(c *Context)

// Context carries one request through a matched route's chain
// It exposes the three untrusted bags produced at dispatch time — path
// parameters, the parsed query object, and the request body — plus chain
// control and response helpers. A Context is pooled: it is only valid
// until the request completes
type Context struct {
	requestCtx *fasthttp.RequestCtx
	params     Params
	query      QueryObject
	body       any
	bodySet    bool
	handlers   handlersChain
	index      int
	fullPath   string
}

// Context returns the underlying fasthttp RequestCtx object
func (c *Context) Context() *fasthttp.RequestCtx {
	return c.requestCtx
}

// FullPath returns the matched route's full template
// For not-found requests it returns an empty string
func (c *Context) FullPath() string {
	return c.fullPath
}

// Next calls the next handler in the chain
// Use this in middleware to continue processing
func (c *Context) Next() {
	c.index++
	if c.index < len(c.handlers) {
		c.handlers[c.index](c)
	}
}

// IsAborted returns true if the current context was aborted
func (c *Context) IsAborted() bool {
	return c.index >= len(c.handlers)
}

// Abort prevents pending handlers from being called
// Note that this will not stop the current handler
func (c *Context) Abort() {
	c.index = len(c.handlers)
}

// AbortWithStatus calls Abort() and writes the specified status code
func (c *Context) AbortWithStatus(code int) {
	c.Abort()
	c.requestCtx.Response.SetStatusCode(code)
}

// AbortWithStatusJSON calls Abort() and then JSON internally
func (c *Context) AbortWithStatusJSON(status int, jsonObj any) error {
	c.Abort()
	return c.JSON(status, jsonObj)
}

// AbortWithError calls AbortWithStatus() and logs the given error
func (c *Context) AbortWithError(code int, err error) error {
	c.AbortWithStatus(code)
	log.Error("Request aborted with error", "error", err, "code", code)
	return err
}

// Set stores a key/value pair exclusively for this context
func (c *Context) Set(key string, value any) {
	if key == "" {
		return
	}
	c.requestCtx.SetUserValue(key, value)
}

// Get returns the value stored for key, and whether it exists
func (c *Context) Get(key string) (any, bool) {
	value := c.requestCtx.UserValue(key)
	return value, value != nil
}

// Params returns every parameter extracted from the matched path
func (c *Context) Params() Params {
	return c.params
}

// Param returns the value of the named path parameter
// For the wildcard parameter it returns the captured segments joined by '/'
func (c *Context) Param(name string) string {
	return c.params.Get(name)
}

// ParamSlice returns the ordered segments captured by the wildcard parameter
func (c *Context) ParamSlice(name string) []string {
	return c.params.Wildcard(name)
}

// Query returns the parsed query object for this request
func (c *Context) Query() QueryObject {
	return c.query
}

// QueryValue retrieves a scalar query parameter, or an empty string
func (c *Context) QueryValue(key string) string {
	return c.query.Get(key)
}

// DefaultQuery retrieves a scalar query parameter, falling back to
// defaultValue when it is absent or empty
func (c *Context) DefaultQuery(key, defaultValue string) string {
	if v, ok := c.query[key].String(); ok && v != "" {
		return v
	}
	return defaultValue
}

// GetQuery is like QueryValue but also reports whether the key was present
// as a scalar
//
//	GET /?firstname=John&lastname=
//	("John", true) == c.GetQuery("firstname")
//	("", false) == c.GetQuery("id")
//	("", true) == c.GetQuery("lastname")
func (c *Context) GetQuery(key string) (string, bool) {
	return c.query[key].String()
}

// Body returns the raw request body
func (c *Context) Body() []byte {
	return c.requestCtx.Request.Body()
}

// SetBody stores the parsed request body
// The body bag is owned by an external body-parsing middleware; the engine
// never populates or inspects it
func (c *Context) SetBody(body any) {
	c.body = body
	c.bodySet = true
}

// ParsedBody returns the value stored by a body-parsing middleware and
// whether one was set. The value is untrusted; downstream validation
// converts it into a typed result
func (c *Context) ParsedBody() (any, bool) {
	return c.body, c.bodySet
}

// ContentType returns the Content-Type header of the request
func (c *Context) ContentType() string {
	return getString(c.requestCtx.Request.Header.ContentType())
}

// Status sets the HTTP response code
func (c *Context) Status(code int) *Context {
	c.requestCtx.Response.SetStatusCode(code)
	return c
}

// Header sets a response header
func (c *Context) Header(key, value string) *Context {
	c.requestCtx.Response.Header.Set(key, value)
	return c
}

// GetHeader returns the named request header, or an empty string
func (c *Context) GetHeader(key string) string {
	return getString(c.requestCtx.Request.Header.Peek(key))
}

// JSON serializes obj as JSON into the response body and sets the status code
func (c *Context) JSON(code int, obj any) error {
	c.requestCtx.Response.SetStatusCode(code)
	c.requestCtx.Response.Header.SetContentType(MIMEApplicationJSON)

	raw, err := sonic.ConfigFastest.Marshal(obj)
	if err != nil {
		log.Error("JSON marshaling failed", "error", err)
		return fmt.Errorf("%v: %w", ErrJSONMarshal, err)
	}

	c.requestCtx.Response.SetBodyRaw(raw)
	return nil
}

// YAML serializes obj as YAML into the response body and sets the status code
func (c *Context) YAML(code int, obj any) error {
	c.requestCtx.Response.SetStatusCode(code)
	c.requestCtx.Response.Header.SetContentType(MIMEApplicationYAML)

	raw, err := yaml.Marshal(obj)
	if err != nil {
		log.Error("YAML marshaling failed", "error", err)
		return fmt.Errorf("%v: %w", ErrYAMLMarshal, err)
	}

	c.requestCtx.Response.SetBodyRaw(raw)
	return nil
}

// TOML serializes obj as TOML into the response body and sets the status code
func (c *Context) TOML(code int, obj any) error {
	c.requestCtx.Response.SetStatusCode(code)
	c.requestCtx.Response.Header.SetContentType(MIMEApplicationTOML)

	raw, err := toml.Marshal(obj)
	if err != nil {
		log.Error("TOML marshaling failed", "error", err)
		return fmt.Errorf("%v: %w", ErrTOMLMarshal, err)
	}

	c.requestCtx.Response.SetBodyRaw(raw)
	return nil
}

// ProtoBuf serializes obj as a protocol buffer into the response body
// obj must implement proto.Message
func (c *Context) ProtoBuf(code int, obj any) error {
	c.requestCtx.Response.SetStatusCode(code)
	c.requestCtx.Response.Header.SetContentType(MIMEApplicationProtoBuf)

	msg, ok := obj.(proto.Message)
	if !ok {
		log.Error("ProtoBuf marshaling failed", "error", ErrProtoMessageInterface)
		return fmt.Errorf("%v: %w", ErrProtoBufMarshal, ErrProtoMessageInterface)
	}

	raw, err := proto.Marshal(msg)
	if err != nil {
		log.Error("ProtoBuf marshaling failed", "error", err)
		return fmt.Errorf("%v: %w", ErrProtoBufMarshal, err)
	}

	c.requestCtx.Response.SetBodyRaw(raw)
	return nil
}

// String writes a formatted string into the response body
func (c *Context) String(code int, format string, values ...any) *Context {
	c.requestCtx.Response.SetStatusCode(code)
	c.requestCtx.Response.Header.SetContentType(MIMETextPlainCharsetUTF8)
	formatted := fmt.Sprintf(format, values...)
	c.requestCtx.Response.SetBodyRaw(getBytes(formatted))
	return c
}

// Data writes raw bytes into the response body with the given content type
func (c *Context) Data(code int, contentType string, data []byte) *Context {
	c.requestCtx.Response.SetStatusCode(code)
	c.requestCtx.Response.Header.SetContentType(contentType)
	c.requestCtx.Response.SetBodyRaw(data)
	return c
}

// reset prepares a pooled context for a new request
func (c *Context) reset(fctx *fasthttp.RequestCtx) {
	c.requestCtx = fctx
	c.params = Params{}
	c.query = nil
	c.body = nil
	c.bodySet = false
	c.handlers = c.handlers[:0]
	c.index = -1
	c.fullPath = ""
}
