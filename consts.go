package trasse

import "github.com/valyala/fasthttp"

// HTTP methods accepted by RouteBuilder.Method
const (
	MethodGet     = fasthttp.MethodGet
	MethodHead    = fasthttp.MethodHead
	MethodPost    = fasthttp.MethodPost
	MethodPut     = fasthttp.MethodPut
	MethodPatch   = fasthttp.MethodPatch
	MethodDelete  = fasthttp.MethodDelete
	MethodOptions = fasthttp.MethodOptions

	// MethodAny matches every HTTP method
	MethodAny = "*"
)

// HTTP status codes used by the serving layer
const (
	StatusOK                  = fasthttp.StatusOK
	StatusNoContent           = fasthttp.StatusNoContent
	StatusBadRequest          = fasthttp.StatusBadRequest
	StatusUnauthorized        = fasthttp.StatusUnauthorized
	StatusForbidden           = fasthttp.StatusForbidden
	StatusNotFound            = fasthttp.StatusNotFound
	StatusMethodNotAllowed    = fasthttp.StatusMethodNotAllowed
	StatusRequestURITooLong   = fasthttp.StatusRequestURITooLong
	StatusInternalServerError = fasthttp.StatusInternalServerError
)

// Content-Type values set by the response helpers
const (
	MIMEApplicationJSON      = "application/json"
	MIMEApplicationYAML      = "application/yaml"
	MIMEApplicationTOML      = "application/toml"
	MIMEApplicationProtoBuf  = "application/x-protobuf"
	MIMETextPlainCharsetUTF8 = "text/plain; charset=utf-8"
)

// allMethods lists every concrete method MethodAny expands to when
// computing Allow headers
var allMethods = []string{
	MethodGet,
	MethodHead,
	MethodPost,
	MethodPut,
	MethodPatch,
	MethodDelete,
	MethodOptions,
}

// validMethod reports whether m belongs to the fixed verb set
func validMethod(m string) bool {
	if m == MethodAny {
		return true
	}
	for _, known := range allMethods {
		if m == known {
			return true
		}
	}
	return false
}
