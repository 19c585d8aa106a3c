// Package server serves knowledge lookups over HTTP.
//
// Routes:
//
//	GET  /healthz                 liveness
//	GET  /metrics                 Prometheus metrics, when a collector is set
//	GET  /knowledge/{entity}      one record (?source=, ?refresh=true)
//	POST /knowledge               {"entities": [...], "source": "..."} bulk load
//	GET  /sources                 stored knowledge sources, newest first
//	GET  /sources/{source}        every stored record of a source
//
// Entities that are IRIs must be percent-encoded in the path. Errors are
// returned as {"error": {"code": ..., "message": ...}} with the status of
// the error's code.
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/observability"
	"github.com/matzehuels/mapknowledge/pkg/pipeline"
)

const shutdownTimeout = 10 * time.Second

// Options configures a server.
type Options struct {
	Runner *pipeline.Runner

	// Metrics, when set, is served at /metrics and observes every request.
	Metrics *observability.Collector

	// AllowedOrigins enables CORS for browser clients.
	AllowedOrigins []string

	// Concurrency bounds the service requests of a bulk load.
	Concurrency int

	Logger *log.Logger
}

// Server answers knowledge requests.
type Server struct {
	runner      *pipeline.Runner
	metrics     *observability.Collector
	origins     []string
	concurrency int
	logger      *log.Logger
}

// New creates a server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Server{
		runner:      opts.Runner,
		metrics:     opts.Metrics,
		origins:     opts.AllowedOrigins,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
	}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.observe)
	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", OriginHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.healthz)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Route("/knowledge", func(r chi.Router) {
		r.Post("/", s.load)
		r.Get("/*", s.knowledge)
	})
	r.Route("/sources", func(r chi.Router) {
		r.Get("/", s.sources)
		r.Get("/{source}", s.sourceKnowledge)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no such route"))
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// observe logs each request and records it with the metrics collector
// under its route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if s.metrics != nil {
			s.metrics.ObserveRequest(r.Method, route, status, duration)
		}
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", duration,
			"request_id", chimiddleware.GetReqID(r.Context()))
	})
}
