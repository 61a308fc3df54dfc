// package server contains middleware & handlers for the jobtrail HTTP API
package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, CORS, recovery, etc.
type Middleware func(http.Handler) http.Handler

// Route is one method and path pattern served by a [Handler].
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
	Public  bool // served without the router guard
}

// Handler defines the interface for groups of HTTP endpoints in the API.
// Implementations list their routes and the router registers each of them.
type Handler interface {
	Routes() []Route // Routes returns the endpoints this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware around every request
	Guard(middleware ...Middleware)                   // Guard adds middleware around non-public routes
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers every route of a Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// NewHTTPServer creates an [http.Server] for addr with conservative timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// A sync run fetches up to fifty messages serially.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}
}

// NewHandler wires api behind CORS, request logging, recovery and session auth.
func NewHandler(api *API, auth *Authenticator, allowedOrigin string, logger *log.Logger) http.Handler {
	r := NewBasicRouter()
	r.Use(CORS(allowedOrigin), RequestLogger(logger), Recoverer(logger))
	r.Guard(auth.Middleware())
	r.Handler(api)
	return r
}
