package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/availcheck/internal/config"
	"github.com/teemow/availcheck/internal/instrumentation"
	"github.com/teemow/availcheck/internal/logging"
	"github.com/teemow/availcheck/internal/server"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		httpAddr       string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the form submission webhook",
		Long: `Start an HTTP server that runs an availability check for every form
submission posted to /v1/form-submit.

The request body carries the namedValues of the form submit event:

  {"namedValues": {"Date": ["9/25/2025"], "Start Time": ["2:00:00 PM"], "End Time": ["3:00:00 PM"]}}

Health endpoints (/healthz, /readyz, /healthz/detailed) are served on the same
port. Prometheus metrics are served on a separate port (--metrics-addr).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = httpAddr
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Server.MetricsAddr = metricsAddr
			}

			return runServe(cmd.Context(), cfg, MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    cfg.Server.MetricsAddr,
			})
		},
	}

	cmd.Flags().StringVar(&httpAddr, "addr", server.DefaultAddr, "HTTP listen address for the webhook")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics", true, "Serve Prometheus metrics on --metrics-addr")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Listen address for the metrics server")

	return cmd
}

func runServe(parent context.Context, cfg config.Config, metricsConfig MetricsConfig) error {
	if parent == nil {
		parent = context.Background()
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(shutdownCtx, cfg, instrumentation.SourceHTTP, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close(context.Background())
	logger := a.logger

	webhook, err := server.New(server.Config{
		Addr:    cfg.Server.Addr,
		Handler: a.pipeline,
		Users:   len(cfg.Users),
		Metrics: a.provider.Metrics(),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create webhook server: %w", err)
	}

	var metricsServer *server.MetricsServer
	if metricsConfig.Enabled && a.provider.PrometheusEnabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			InstrumentationProvider: a.provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- webhook.ListenAndServe()
	}()
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server failed: %w", err)
			}
		}()
	}

	var serveErr error
	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error("server stopped", logging.Err(serveErr))
		}
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = server.DefaultShutdownTimeout
	}
	ctx, cancelShutdown := context.WithTimeout(context.Background(), timeout)
	defer cancelShutdown()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown failed", logging.Err(err))
		}
	}
	if err := webhook.Shutdown(ctx); err != nil {
		logger.Warn("webhook server shutdown failed", logging.Err(err))
	}

	logger.Info("server stopped", slog.Duration("shutdown_timeout", timeout), slog.Time("at", time.Now()))
	return serveErr
}
