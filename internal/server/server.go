package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/teemow/availcheck/internal/instrumentation"
)

const (
	// DefaultAddr is the default address of the webhook server.
	DefaultAddr = ":8080"

	// DefaultReadHeaderTimeout bounds how long a client may take to send headers.
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultWriteTimeout covers a whole run: every free/busy query plus the
	// sheet update.
	DefaultWriteTimeout = 5 * time.Minute
)

// Config configures the webhook server.
type Config struct {
	Addr    string
	Handler SubmissionHandler
	Users   int
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Server accepts form submissions over HTTP and exposes health endpoints.
type Server struct {
	httpServer *http.Server
	health     *HealthChecker
	logger     *slog.Logger
}

// New creates a Server. Call ListenAndServe to start it.
func New(cfg Config) (*Server, error) {
	if cfg.Handler == nil {
		return nil, errors.New("submission handler is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	health := NewHealthChecker(cfg.Users)
	form := NewFormHandler(cfg.Handler, health, cfg.Logger)

	mux := http.NewServeMux()
	mux.Handle(FormSubmitPath, instrumentHandler(cfg.Metrics, FormSubmitPath, form))
	health.RegisterHealthEndpoints(mux)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			WriteTimeout:      DefaultWriteTimeout,
		},
		health: health,
		logger: cfg.Logger,
	}, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Health returns the server's health checker.
func (s *Server) Health() *HealthChecker {
	return s.health
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe blocks until the server stops. It returns nil after a
// graceful Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("starting webhook server",
		slog.String("addr", s.httpServer.Addr),
		slog.String("path", FormSubmitPath))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown fails readiness and waits for in-flight runs to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.MarkShuttingDown()
	s.logger.Info("shutting down webhook server")
	return s.httpServer.Shutdown(ctx)
}
