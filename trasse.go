package trasse

import (
	"net"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/prefork"
)

const (
	// defaultConcurrency is the maximum number of concurrent connections
	defaultConcurrency = 512 * 1024

	// defaultMaxRequestBodySize is the maximum request body size
	defaultMaxRequestBodySize = 4 * 1024 * 1024

	// defaultMaxRequestURLLength is the maximum request URL length
	defaultMaxRequestURLLength = 2048

	// defaultReadBufferSize is the default size of the read buffer
	defaultReadBufferSize = 8192 * 2
)

// Options holds all configuration options
type Options struct {
	// ServerName to send in response headers
	ServerName string

	// HandleMethodNotAllowed enables HTTP 405 Method Not Allowed responses
	// when a route exists for the path but not for the requested method,
	// otherwise such requests fall through to not-found handling
	HandleMethodNotAllowed bool

	// AutoRecover enables automatic recovery from panics during handler
	// execution by responding with HTTP 500 and logging the error
	AutoRecover bool

	// CacheSize is the maximum size of the LRU cache used to optimize
	// route matching
	CacheSize int

	// DisableCaching disables the LRU match cache
	DisableCaching bool

	// MaxRequestBodySize is the maximum request body size
	MaxRequestBodySize int

	// MaxRequestURLLength is the maximum request URL length
	MaxRequestURLLength int

	// Concurrency is the maximum number of concurrent connections
	Concurrency int

	// ReadBufferSize is the per-connection buffer size for request reading
	// This also limits the maximum header size
	ReadBufferSize int

	// WriteBufferSize is the per-connection buffer size for response writing
	WriteBufferSize int

	// Prefork spawns multiple Go processes listening on the same port
	// when enabled
	Prefork bool

	// DisableKeepalive disables keep-alive connections, causing the server
	// to close connections after sending the first response to client
	DisableKeepalive bool

	// ReadTimeout is the maximum time allowed to read the full request
	// including body
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of
	// the response
	WriteTimeout time.Duration

	// IdleTimeout is the maximum time to wait for the next request when
	// keep-alive is enabled
	IdleTimeout time.Duration
}

// App owns the serving side of the engine: the route roots mounted before
// startup, the fasthttp server, and the immutable routing table built once
// when Run is called
type App struct {
	httpServer           *fasthttp.Server
	router               *router
	roots                []Mountable
	middlewares          []Middleware
	address              string
	enableStartupMessage bool
	enableLogging        bool
	Options
}

// tlsConfig holds TLS configuration for HTTPS servers
type tlsConfig struct {
	certFile string
	keyFile  string
}

// New returns a new blank App instance without any middleware attached
func New() *App {
	return createInstance(false)
}

// Default returns an App instance with logging and startup message enabled
func Default() *App {
	return createInstance(true)
}

func createInstance(debugMode bool) *App {
	a := &App{
		roots:                make([]Mountable, 0),
		middlewares:          make([]Middleware, 0),
		enableStartupMessage: debugMode,
		enableLogging:        debugMode,
		Options:              defaultOptions(),
	}

	setLoggerSettings()

	a.router = &router{
		app: a,
		pool: sync.Pool{
			New: func() any {
				return &Context{
					handlers: make(handlersChain, 0, 6),
					index:    -1,
				}
			},
		},
	}

	a.httpServer = a.newHTTPServer()
	return a
}

// defaultOptions returns the default values for options
func defaultOptions() Options {
	return Options{
		ServerName:          "Trasse",
		AutoRecover:         true,
		CacheSize:           defaultCacheSize,
		MaxRequestBodySize:  defaultMaxRequestBodySize,
		MaxRequestURLLength: defaultMaxRequestURLLength,
		Concurrency:         defaultConcurrency,
		ReadBufferSize:      defaultReadBufferSize,
		WriteBufferSize:     defaultReadBufferSize,
	}
}

// Mount registers routes and groups to be flattened into the routing table
// when the server starts. Declaration order is match order
func (a *App) Mount(roots ...Mountable) *App {
	a.roots = append(a.roots, roots...)
	return a
}

// Use registers global middleware functions to be executed for all routes
// Global middlewares run before group and route middlewares
func (a *App) Use(middlewares ...Middleware) *App {
	a.middlewares = append(a.middlewares, middlewares...)
	return a
}

// NotFound registers a custom effect for requests no route matches
func (a *App) NotFound(effect Effect) {
	a.router.notFound = effect
}

// Table returns the built routing table, or nil before Run
func (a *App) Table() *Table {
	return a.router.table
}

// Run builds the routing table and begins serving HTTP requests
// Any route construction error aborts startup before the listener opens
func (a *App) Run(addr ...string) error {
	var portStr string
	if len(addr) > 0 {
		portStr = addr[0]
	}

	address, networkProtocol, err := a.prepareServer(portStr)
	if err != nil {
		return err
	}

	if a.Prefork {
		return a.runWithPrefork(address, networkProtocol, nil)
	}
	return a.runServer(address, networkProtocol, nil)
}

// RunTLS builds the routing table and begins serving HTTPS (secure) requests
func (a *App) RunTLS(addr, certFile, keyFile string) error {
	tlsConf := &tlsConfig{
		certFile: certFile,
		keyFile:  keyFile,
	}

	address, networkProtocol, err := a.prepareServer(addr)
	if err != nil {
		return err
	}

	if a.Prefork {
		return a.runWithPrefork(address, networkProtocol, tlsConf)
	}
	return a.runServer(address, networkProtocol, tlsConf)
}

// prepareServer builds the routing table and recreates the HTTP server with
// current configuration values
func (a *App) prepareServer(addr string) (string, string, error) {
	if err := a.buildTable(); err != nil {
		log.Error(ErrTableBuildFailed, "error", err)
		return "", "", err
	}

	address := resolveAddress(addr)
	networkProtocol := detectNetworkProtocol(address)
	a.httpServer = a.newHTTPServer()
	return address, networkProtocol, nil
}

// buildTable flattens every mounted root into the immutable routing table
// Global middlewares become the outermost group chain
func (a *App) buildTable() error {
	root := Combine("", a.roots, WithMiddleware(a.middlewares...))

	opts := make([]TableOption, 0, 2)
	if a.DisableCaching {
		opts = append(opts, WithoutCache())
	} else if a.CacheSize > 0 {
		opts = append(opts, WithCacheSize(a.CacheSize))
	}

	table, err := BuildTable([]Mountable{root}, opts...)
	if err != nil {
		return err
	}

	a.router.table = table
	return nil
}

// runServer runs the server in standard mode
func (a *App) runServer(address, networkProtocol string, tlsConfig *tlsConfig) error {
	listener, err := net.Listen(networkProtocol, address)
	if err != nil {
		return err
	}
	a.address = address
	if a.enableStartupMessage {
		printStartupMessage(address)
	}

	if tlsConfig != nil {
		return a.httpServer.ServeTLS(listener, tlsConfig.certFile, tlsConfig.keyFile)
	}
	return a.httpServer.Serve(listener)
}

// runWithPrefork runs the server in prefork mode
func (a *App) runWithPrefork(address, networkProtocol string, tlsConfig *tlsConfig) error {
	if a.enableStartupMessage {
		printStartupMessage(address)
	}
	pf := prefork.New(a.httpServer)
	pf.Reuseport = true
	pf.Network = networkProtocol

	if tlsConfig != nil {
		return pf.ListenAndServeTLS(address, tlsConfig.certFile, tlsConfig.keyFile)
	}
	return pf.ListenAndServe(address)
}

// newHTTPServer creates and configures a new fasthttp server instance
func (a *App) newHTTPServer() *fasthttp.Server {
	return &fasthttp.Server{
		Name:               a.ServerName,
		Handler:            a.router.Handler,
		Concurrency:        a.Concurrency,
		DisableKeepalive:   a.DisableKeepalive,
		ReadBufferSize:     a.ReadBufferSize,
		WriteBufferSize:    a.WriteBufferSize,
		ReadTimeout:        a.ReadTimeout,
		WriteTimeout:       a.WriteTimeout,
		IdleTimeout:        a.IdleTimeout,
		MaxRequestBodySize: a.MaxRequestBodySize,
		NoDefaultDate:      true,
	}
}

// Shutdown gracefully shuts down the server
func (a *App) Shutdown() error {
	err := a.httpServer.Shutdown()
	if err == nil && a.address != "" {
		log.Infof("Trasse stopped listening on %s", a.address)
		return nil
	}
	return err
}

// printStartupMessage displays server startup information in the console
func printStartupMessage(addr string) {
	if prefork.IsChild() {
		log.Infof("Started child proc #%d", os.Getpid())
	} else {
		log.Infof("Trasse started on http://%s", addr)
	}
}
