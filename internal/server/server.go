// package server contains routing, middleware and the HTTP server lifecycle for the ECN dashboard
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, CSRF protection, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for a group of related dashboard endpoints.
// Implementations register their own routes on the [Router] they are mounted on.
type Handler interface {
	Routes(r Router) // Routes registers the handler's endpoints
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                             // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler)         // Handle registers a handler for the specified method and path
	HandleFunc(method, path string, handler http.HandlerFunc) // HandleFunc registers a handler function
	Mount(handler Handler)                                    // Mount registers every route of a [Handler]
	Group(middleware ...Middleware) Router                    // Group returns a sub-router sharing this router's paths
	ServeHTTP(w http.ResponseWriter, r *http.Request)         // ServeHTTP implements http.Handler for the entire router
}

// Server runs the dashboard until its context is cancelled.
type Server struct {
	addr    string
	handler http.Handler
	logger  *log.Logger

	ShutdownTimeout time.Duration
}

// New creates a [Server] listening on addr.
func New(addr string, handler http.Handler, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{addr: addr, handler: handler, logger: logger, ShutdownTimeout: 10 * time.Second}
}

func (s *Server) Addr() string { return s.addr }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
