package instrumentation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// ServiceName is the name of the service (default: availcheck)
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// ServiceInstanceID is the unique instance identifier (default: hostname)
	ServiceInstanceID string

	// Enabled determines if instrumentation is active (default: true)
	// Set to false via INSTRUMENTATION_ENABLED=false to disable metrics and tracing
	Enabled bool

	// MetricsExporter specifies the metrics exporter type
	// Options: "prometheus", "otlp", "stdout" (default: "prometheus")
	MetricsExporter string

	// TracingExporter specifies the tracing exporter type
	// Options: "otlp", "stdout", "none" (default: "none")
	TracingExporter string

	// OTLPEndpoint is the OTLP collector endpoint
	// Example: "localhost:4318" (without protocol prefix)
	OTLPEndpoint string

	// OTLPInsecure controls whether to use insecure HTTP for OTLP export.
	// Set to true only for local development or testing with unencrypted endpoints.
	OTLPInsecure bool

	// TraceSamplingRate is the sampling rate for traces (0.0 to 1.0, default: 0.1)
	TraceSamplingRate float64

	// DetailedLabels controls whether the user's email domain is added to
	// per-user metrics. Keep disabled unless the user list is small.
	DetailedLabels bool

	// AuditLogging configures audit logging of pipeline runs.
	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	// Enabled determines if audit logging is active (default: true)
	Enabled bool

	// IncludePII controls whether full user emails appear in audit records.
	// When false (default), only anonymized identifiers are logged.
	IncludePII bool
}

// DefaultConfig returns the built-in defaults: Prometheus metrics, no
// tracing, audit logging without PII.
func DefaultConfig() Config {
	return Config{
		ServiceName:       "availcheck",
		ServiceVersion:    "unknown",
		Enabled:           true,
		MetricsExporter:   ExporterPrometheus,
		TracingExporter:   ExporterNone,
		TraceSamplingRate: 0.1,
		AuditLogging: AuditLoggingConfig{
			Enabled: true,
		},
	}
}

// ConfigFromEnv starts from DefaultConfig and applies the standard OTEL_*
// variables plus the instrumentation switches. Unparseable values are
// reported instead of falling back to the default, so a typo in
// INSTRUMENTATION_ENABLED does not silently keep telemetry on.
func ConfigFromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()
	env := envReader{lookup: lookup}

	env.str("OTEL_SERVICE_NAME", &cfg.ServiceName)
	env.str("OTEL_SERVICE_INSTANCE_ID", &cfg.ServiceInstanceID)
	env.str("METRICS_EXPORTER", &cfg.MetricsExporter)
	env.str("TRACING_EXPORTER", &cfg.TracingExporter)
	env.str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.OTLPEndpoint)
	env.boolean("INSTRUMENTATION_ENABLED", &cfg.Enabled)
	env.boolean("OTEL_EXPORTER_OTLP_INSECURE", &cfg.OTLPInsecure)
	env.boolean("METRICS_DETAILED_LABELS", &cfg.DetailedLabels)
	env.boolean("AUDIT_LOGGING_ENABLED", &cfg.AuditLogging.Enabled)
	env.boolean("AUDIT_LOGGING_INCLUDE_PII", &cfg.AuditLogging.IncludePII)
	env.float("OTEL_TRACES_SAMPLER_ARG", &cfg.TraceSamplingRate)

	return cfg, errors.Join(env.errs...)
}

// Validate checks exporter names, the sampling rate and the OTLP endpoint.
func (c *Config) Validate() error {
	var errs []error

	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		errs = append(errs, fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %g", c.TraceSamplingRate))
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		errs = append(errs, fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter))
	}

	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		errs = append(errs, fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter))
	}

	if c.OTLPEndpoint == "" && (c.TracingExporter == ExporterOTLP || c.MetricsExporter == ExporterOTLP) {
		errs = append(errs, errors.New("OTLP endpoint is required when an exporter is otlp; set OTEL_EXPORTER_OTLP_ENDPOINT"))
	}

	return errors.Join(errs...)
}

// envReader applies environment values and collects parse failures.
type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return
	}
	*dst = b
}

func (e *envReader) float(key string, dst *float64) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid number %q", key, v))
		return
	}
	*dst = f
}

// Constants for metric label values.
const (
	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Google service names
	ServiceCalendar = "calendar"
	ServiceSheets   = "sheets"

	// Invocation sources
	SourceHTTP = "http"
	SourceCLI  = "cli"
	SourceMCP  = "mcp"

	// Exporter types
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	// Metric recording intervals
	DefaultMetricInterval = 10 * time.Second
)
