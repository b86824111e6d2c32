package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// RunRecord captures one pipeline run for audit logging.
//
// # Privacy Considerations
//
// Requester may contain an email address. Full values are only logged when
// the AuditLogger is configured with IncludePII; otherwise the domain is used.
type RunRecord struct {
	// RunID correlates log lines, metrics and the HTTP response.
	RunID string

	// Source is where the run was triggered from (http, cli, mcp).
	Source string

	// Requester is the submitter identity, when one is known.
	Requester string

	// Window bounds in RFC 3339.
	WindowStart string
	WindowEnd   string

	// Per-category counts of the availability result.
	Available int
	Busy      int
	Errors    int

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// NewRunRecord creates a RunRecord with timing started.
// Call Complete when the run finishes.
func NewRunRecord(runID, source string) *RunRecord {
	return &RunRecord{
		RunID:     runID,
		Source:    source,
		StartTime: time.Now(),
	}
}

// WithRequester sets the submitter identity.
func (r *RunRecord) WithRequester(requester string) *RunRecord {
	r.Requester = requester
	return r
}

// WithWindow sets the checked window.
func (r *RunRecord) WithWindow(start, end time.Time) *RunRecord {
	r.WindowStart = start.Format(time.RFC3339)
	r.WindowEnd = end.Format(time.RFC3339)
	return r
}

// WithCounts sets the availability counts.
func (r *RunRecord) WithCounts(available, busy, errs int) *RunRecord {
	r.Available = available
	r.Busy = busy
	r.Errors = errs
	return r
}

// WithSpanContext extracts trace context from the current span.
func (r *RunRecord) WithSpanContext(ctx context.Context) *RunRecord {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.TraceID = span.SpanContext().TraceID().String()
		r.SpanID = span.SpanContext().SpanID().String()
	}
	return r
}

// Complete marks the run as finished and calculates its duration.
func (r *RunRecord) Complete(err error) *RunRecord {
	r.Duration = time.Since(r.StartTime)
	r.Success = err == nil
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Status returns "success" or "error" based on the Success field.
func (r *RunRecord) Status() string {
	if r.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for the run. When includePII is false the
// requester is reduced to its domain.
func (r *RunRecord) LogAttrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("run_id", r.RunID),
		slog.String("source", r.Source),
		slog.Int("available", r.Available),
		slog.Int("busy", r.Busy),
		slog.Int("errors", r.Errors),
		slog.Duration("duration", r.Duration),
		slog.Bool("success", r.Success),
	}

	if r.WindowStart != "" {
		attrs = append(attrs,
			slog.String("window_start", r.WindowStart),
			slog.String("window_end", r.WindowEnd),
		)
	}
	if r.Requester != "" {
		if includePII {
			attrs = append(attrs, slog.String("requester", r.Requester))
		} else {
			attrs = append(attrs, slog.String("requester_domain", ExtractUserDomain(r.Requester)))
		}
	}
	if r.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", r.TraceID))
	}
	if r.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", r.SpanID))
	}
	if r.Error != "" {
		attrs = append(attrs, slog.String("error", r.Error))
	}

	return attrs
}

// AuditLogger provides structured audit logging for pipeline runs.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger that anonymizes requesters.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogRun writes one audit line for the run. A nil AuditLogger is a no-op.
func (al *AuditLogger) LogRun(ctx context.Context, r *RunRecord) {
	if al == nil || !al.enabled || r == nil {
		return
	}

	attrs := r.LogAttrs(al.includePII)
	if r.Success {
		al.logger.LogAttrs(ctx, slog.LevelInfo, "run_completed", attrs...)
	} else {
		al.logger.LogAttrs(ctx, slog.LevelWarn, "run_failed", attrs...)
	}
}
