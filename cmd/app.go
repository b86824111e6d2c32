package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"google.golang.org/api/option"

	"github.com/teemow/availcheck/internal/availability"
	"github.com/teemow/availcheck/internal/calendar"
	"github.com/teemow/availcheck/internal/config"
	"github.com/teemow/availcheck/internal/google"
	"github.com/teemow/availcheck/internal/instrumentation"
	"github.com/teemow/availcheck/internal/logging"
	"github.com/teemow/availcheck/internal/report"
	"github.com/teemow/availcheck/internal/sheets"
	"github.com/teemow/availcheck/internal/trigger"
)

const serviceName = "availcheck"

// app holds everything one command needs to run checks.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider
	labels   report.Labels
	pipeline *trigger.Pipeline

	// dryRunSink receives the report when cfg.DryRun is set.
	dryRunSink *report.MemorySink
}

// loadConfig reads the .env file, the config file and the environment, then
// applies the persistent flag overrides.
func loadConfig() (config.Config, error) {
	if err := loadDotEnv(envFile, rootCmd.PersistentFlags().Changed("env-file")); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return cfg, err
	}
	applyLogOverrides(&cfg, logLevel, logFormat)
	return cfg, nil
}

// loadDotEnv loads path into the environment. A missing file is only an error
// when the path was given explicitly.
func loadDotEnv(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if explicit {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("env file %s: %w", path, err)
		}
	}
	return config.LoadDotEnv(path)
}

func applyLogOverrides(cfg *config.Config, level, format string) {
	if level != "" {
		cfg.Log.Level = level
	}
	if format != "" {
		cfg.Log.Format = format
	}
}

// formLabels resolves the configured question titles against the locale defaults.
func formLabels(cfg config.Config) trigger.FormLabels {
	return trigger.FormLabels{
		Date:      cfg.FormLabels.Date,
		StartTime: cfg.FormLabels.StartTime,
		EndTime:   cfg.FormLabels.EndTime,
	}.Merge(trigger.DefaultFormLabels(cfg.Locale))
}

// newApp validates cfg and wires the Google clients, instrumentation and the
// pipeline. Logs go to logOut. Call close when done.
func newApp(ctx context.Context, cfg config.Config, source string, logOut io.Writer) (*app, error) {
	logger, err := logging.NewLogger(logOut, cfg.Log.Format, cfg.Log.Level, serviceName)
	if err != nil {
		return nil, fmt.Errorf("invalid log configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	labels, err := report.LabelsFor(cfg.Locale)
	if err != nil {
		return nil, err
	}

	instrConfig, err := instrumentation.ConfigFromEnv(os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("invalid instrumentation settings: %w", err)
	}
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig, instrumentation.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	metrics := provider.Metrics()

	httpClient, err := google.NewHTTPClient(ctx, google.Options{
		CredentialsFile: cfg.CredentialsFile,
		Account:         cfg.Account,
		Subject:         cfg.Impersonate,
	})
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, fmt.Errorf("failed to load Google credentials: %w", err)
	}

	calClient, err := calendar.NewClient(ctx, metrics, logger, option.WithHTTPClient(httpClient))
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		labels:   labels,
	}

	var sink report.Sink
	if cfg.DryRun {
		a.dryRunSink = report.NewMemorySink()
		sink = a.dryRunSink
	} else {
		sheetSink, err := sheets.NewSink(ctx, cfg.SpreadsheetID, metrics, logger, option.WithHTTPClient(httpClient))
		if err != nil {
			_ = provider.Shutdown(ctx)
			return nil, err
		}
		sink = sheetSink
	}

	checker := availability.NewChecker(calClient,
		availability.WithConcurrency(cfg.Concurrency),
		availability.WithQueryTimeout(cfg.QueryTimeout),
		availability.WithLogger(logger),
		availability.WithRecorder(metrics),
	)
	writer := report.NewWriter(sink, labels, logger, metrics)

	a.pipeline = trigger.NewPipeline(checker, writer, cfg.Users,
		trigger.WithLocation(loc),
		trigger.WithFormLabels(formLabels(cfg)),
		trigger.WithSource(source),
		trigger.WithMetrics(metrics),
		trigger.WithAuditLogger(provider.AuditLogger(logger)),
		trigger.WithLogger(logger),
	)

	logger.Debug("application configured",
		slog.Int("users", len(cfg.Users)),
		slog.String("locale", cfg.Locale),
		slog.String("time_zone", loc.String()),
		slog.Bool("dry_run", cfg.DryRun),
		logging.Account(cfg.Account),
		slog.Int("concurrency", cfg.Concurrency))

	return a, nil
}

// close flushes telemetry.
func (a *app) close(ctx context.Context) {
	if err := a.provider.Shutdown(ctx); err != nil {
		a.logger.Warn("instrumentation shutdown failed", logging.Err(err))
	}
}
