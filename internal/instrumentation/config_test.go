package instrumentation

import (
	"strings"
	"testing"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ServiceName != "availcheck" {
		t.Errorf("ServiceName = %q, want availcheck", cfg.ServiceName)
	}
	if !cfg.Enabled {
		t.Error("instrumentation should be enabled by default")
	}
	if cfg.MetricsExporter != ExporterPrometheus || cfg.TracingExporter != ExporterNone {
		t.Errorf("exporters = %q/%q, want prometheus/none", cfg.MetricsExporter, cfg.TracingExporter)
	}
	if cfg.TraceSamplingRate != 0.1 {
		t.Errorf("TraceSamplingRate = %g, want 0.1", cfg.TraceSamplingRate)
	}
	if !cfg.AuditLogging.Enabled || cfg.AuditLogging.IncludePII {
		t.Errorf("audit logging = %+v, want enabled without PII", cfg.AuditLogging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, cfg Config)
	}{
		{
			name: "empty environment keeps defaults",
			env:  map[string]string{},
			check: func(t *testing.T, cfg Config) {
				if cfg != DefaultConfig() {
					t.Errorf("got %+v, want defaults", cfg)
				}
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"OTEL_SERVICE_NAME":           "availcheck-staging",
				"INSTRUMENTATION_ENABLED":     "false",
				"METRICS_EXPORTER":            "stdout",
				"TRACING_EXPORTER":            "otlp",
				"OTEL_EXPORTER_OTLP_ENDPOINT": "collector:4318",
				"OTEL_EXPORTER_OTLP_INSECURE": "1",
				"OTEL_TRACES_SAMPLER_ARG":     "0.5",
				"METRICS_DETAILED_LABELS":     "true",
				"AUDIT_LOGGING_INCLUDE_PII":   "TRUE",
			},
			check: func(t *testing.T, cfg Config) {
				if cfg.ServiceName != "availcheck-staging" {
					t.Errorf("ServiceName = %q", cfg.ServiceName)
				}
				if cfg.Enabled {
					t.Error("Enabled should be false")
				}
				if cfg.MetricsExporter != ExporterStdout || cfg.TracingExporter != ExporterOTLP {
					t.Errorf("exporters = %q/%q", cfg.MetricsExporter, cfg.TracingExporter)
				}
				if cfg.OTLPEndpoint != "collector:4318" || !cfg.OTLPInsecure {
					t.Errorf("otlp = %q insecure=%v", cfg.OTLPEndpoint, cfg.OTLPInsecure)
				}
				if cfg.TraceSamplingRate != 0.5 {
					t.Errorf("TraceSamplingRate = %g", cfg.TraceSamplingRate)
				}
				if !cfg.DetailedLabels || !cfg.AuditLogging.IncludePII {
					t.Errorf("DetailedLabels=%v IncludePII=%v", cfg.DetailedLabels, cfg.AuditLogging.IncludePII)
				}
			},
		},
		{
			name: "blank values are ignored",
			env:  map[string]string{"METRICS_EXPORTER": "  ", "INSTRUMENTATION_ENABLED": ""},
			check: func(t *testing.T, cfg Config) {
				if cfg.MetricsExporter != ExporterPrometheus || !cfg.Enabled {
					t.Errorf("blank values changed config: %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ConfigFromEnv(lookupFrom(tt.env))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestConfigFromEnv_InvalidValues(t *testing.T) {
	env := map[string]string{
		"INSTRUMENTATION_ENABLED": "yes please",
		"OTEL_TRACES_SAMPLER_ARG": "ten percent",
		"METRICS_EXPORTER":        "stdout",
	}

	cfg, err := ConfigFromEnv(lookupFrom(env))
	if err == nil {
		t.Fatal("expected error for unparseable values")
	}
	for _, want := range []string{"INSTRUMENTATION_ENABLED", "OTEL_TRACES_SAMPLER_ARG"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should name %s", err, want)
		}
	}
	// Parseable values are still applied.
	if cfg.MetricsExporter != ExporterStdout {
		t.Errorf("MetricsExporter = %q, want stdout", cfg.MetricsExporter)
	}
	if !cfg.Enabled || cfg.TraceSamplingRate != 0.1 {
		t.Errorf("invalid values should leave defaults, got Enabled=%v rate=%g", cfg.Enabled, cfg.TraceSamplingRate)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		errContains []string
	}{
		{
			name:   "prometheus metrics",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone},
		},
		{
			name:   "otlp tracing with endpoint",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318"},
		},
		{
			name:        "sampling rate below zero",
			config:      Config{TraceSamplingRate: -0.5},
			errContains: []string{"sampling rate"},
		},
		{
			name:        "sampling rate above one",
			config:      Config{TraceSamplingRate: 1.5},
			errContains: []string{"sampling rate"},
		},
		{
			name:        "unknown metrics exporter",
			config:      Config{MetricsExporter: "statsd"},
			errContains: []string{"invalid metrics exporter"},
		},
		{
			name:        "unknown tracing exporter",
			config:      Config{TracingExporter: "jaeger"},
			errContains: []string{"invalid tracing exporter"},
		},
		{
			name:        "otlp metrics without endpoint",
			config:      Config{MetricsExporter: ExporterOTLP},
			errContains: []string{"OTLP endpoint is required"},
		},
		{
			name:        "all problems reported together",
			config:      Config{TraceSamplingRate: 2, MetricsExporter: "statsd", TracingExporter: ExporterOTLP},
			errContains: []string{"sampling rate", "invalid metrics exporter", "OTLP endpoint is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if len(tt.errContains) == 0 {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			for _, want := range tt.errContains {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not contain %q", err, want)
				}
			}
		})
	}
}
