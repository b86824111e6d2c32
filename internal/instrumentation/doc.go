// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for availcheck.
//
// # Metrics
//
// Pipeline:
//   - form_submissions_total: runs by source (http, cli, mcp) and status
//   - pipeline_duration_seconds: end-to-end run duration
//   - availability_checks_total: per-user classifications by status (available, busy, error)
//   - freebusy_query_duration_seconds: per-user query duration
//   - report_writes_total / report_write_duration_seconds: sheet writes by status
//
// Google API:
//   - google_api_operations_total: calls by service, operation and status
//   - google_api_operation_duration_seconds: call latency
//
// HTTP:
//   - http_requests_total / http_request_duration_seconds: by method, path and status
//
// # Tracing
//
// Spans are created for each run (availcheck.run), each MCP tool call
// (tool.<name>) and each Google API call (google.<service>.<operation>).
//
// # Configuration
//
// ConfigFromEnv reads the environment variables below. Unparseable booleans
// and numbers are errors rather than silent defaults.
//   - INSTRUMENTATION_ENABLED: enable or disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces and metrics
//   - OTEL_TRACES_SAMPLER_ARG: sampling rate from 0.0 to 1.0 (default: 0.1)
//   - OTEL_SERVICE_NAME: service name (default: availcheck)
//   - AUDIT_LOGGING_ENABLED / AUDIT_LOGGING_INCLUDE_PII: run audit lines
//
// # Example Usage
//
//	cfg, err := instrumentation.ConfigFromEnv(os.LookupEnv)
//	if err != nil {
//		return err
//	}
//	provider, err := instrumentation.NewProvider(ctx, cfg, instrumentation.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar,
//		instrumentation.OperationFreeBusy, instrumentation.StatusSuccess, time.Since(start))
package instrumentation
