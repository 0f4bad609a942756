package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/journal"
	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/routing"
	"mercator-hq/switchboard/pkg/telemetry/health"
	"mercator-hq/switchboard/pkg/telemetry/tracing"
)

// Router is the part of routing.Router the API serves.
type Router interface {
	Dispatch(ctx context.Context, task, prompt string, opts ...routing.DispatchOption) providers.Result
	Table() *routing.Table
	UpdateRoute(task, provider, model string) error
	AddProvider(cfg providers.ProviderConfig) error
	Adapters() []providers.Adapter
	Stats() routing.Stats
	Journal() journal.Journal
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler serves h at path.
func WithMetricsHandler(path string, h http.Handler) Option {
	return func(s *Server) { s.metricsPath, s.metrics = path, h }
}

// WithTracerProvider wraps every request in a server span.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) { s.tracerProvider = tp }
}

// WithChecker replaces the readiness checker.
func WithChecker(c *health.Checker) Option {
	return func(s *Server) { s.checker = c }
}

// WithVersion sets the version reported by /version.
func WithVersion(version, commit string) Option {
	return func(s *Server) { s.version, s.commit = version, commit }
}

// Server is the HTTP front end of a Router.
type Server struct {
	config         config.ServerConfig
	router         Router
	checker        *health.Checker
	metrics        http.Handler
	metricsPath    string
	tracerProvider trace.TracerProvider
	logger         *slog.Logger
	version        string
	commit         string
}

// New creates a server for router. Zero durations in cfg fall back to the
// package defaults.
func New(cfg config.ServerConfig, router Router, opts ...Option) *Server {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = config.DefaultListenAddress
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = config.Duration(config.DefaultReadTimeout)
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.Duration(config.DefaultWriteTimeout)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = config.Duration(config.DefaultShutdownTimeout)
	}

	s := &Server{
		config:  cfg,
		router:  router,
		logger:  slog.Default(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	if s.checker == nil {
		s.checker = health.New(0)
		s.checker.RegisterCheck("providers", s.checkProviders)
	}
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.tracerProvider != nil {
		r.Use(tracing.Middleware(s.tracerProvider))
	}

	r.Get("/healthz", s.checker.LivenessHandler())
	r.Get("/readyz", s.checker.ReadinessHandler())
	r.Get("/version", health.VersionHandler(s.version, s.commit))
	if s.metrics != nil && s.metricsPath != "" {
		r.Method(http.MethodGet, s.metricsPath, s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/dispatch", s.handleDispatch)
		r.Get("/routes", s.handleListRoutes)
		r.Get("/routes/{task}", s.handleResolveRoute)
		r.Put("/routes/{task}", s.handleUpdateRoute)
		r.Get("/providers", s.handleListProviders)
		r.Post("/providers", s.handleAddProvider)
		r.Get("/journal", s.handleJournal)
		r.Get("/stats", s.handleStats)
	})
	return r
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. In-flight requests get
// ShutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.config.ReadTimeout.Std(),
		ReadHeaderTimeout: s.config.ReadTimeout.Std(),
		WriteTimeout:      s.config.WriteTimeout.Std(),
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "address", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server", "timeout", s.config.ShutdownTimeout.Std().String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout.Std())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) checkProviders(context.Context) error {
	if len(s.router.Adapters()) == 0 {
		return errors.New("no providers registered")
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
