package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ChiRouter implements [Router] over a chi mux.
type ChiRouter struct {
	mux chi.Router
}

// RouterOption configures [NewRouter].
type RouterOption func(*routerConfig)

type routerConfig struct {
	trustProxy bool
}

// TrustProxyHeaders takes the client address from X-Forwarded-For / X-Real-IP.
//
// Only enable it behind a reverse proxy that overwrites those headers: any client can set them.
func TrustProxyHeaders() RouterOption {
	return func(c *routerConfig) { c.trustProxy = true }
}

// NewRouter creates a [ChiRouter] with request ids, panic recovery and request logging.
// RemoteAddr is left as the connection's peer unless [TrustProxyHeaders] is given.
func NewRouter(logger *log.Logger, opts ...RouterOption) *ChiRouter {
	var cfg routerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	return &ChiRouter{mux: r}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
//
// chi requires middleware to be added before any route on the same router.
func (r *ChiRouter) Use(mw ...Middleware) {
	for _, m := range mw {
		r.mux.Use(m)
	}
}

// Handle registers handler for method and path. Paths use chi patterns, e.g. "/edit/{id}".
func (r *ChiRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Method(method, path, handler)
}

func (r *ChiRouter) HandleFunc(method, path string, handler http.HandlerFunc) {
	r.mux.MethodFunc(method, path, handler)
}

// Mount registers all routes of handler.
func (r *ChiRouter) Mount(handler Handler) {
	handler.Routes(r)
}

// Group returns a router whose routes additionally pass through mw.
func (r *ChiRouter) Group(mw ...Middleware) Router {
	g := &ChiRouter{mux: r.mux.With()}
	g.Use(mw...)
	return g
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *ChiRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// URLParam returns the named path parameter of req.
func URLParam(req *http.Request, name string) string {
	return chi.URLParam(req, name)
}

// RequestLogger logs one line per request with its status and duration.
func RequestLogger(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// Chain wraps handler with mw, the first middleware outermost.
func Chain(handler http.Handler, mw ...Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}
