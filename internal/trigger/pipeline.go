package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/availcheck/internal/availability"
	"github.com/teemow/availcheck/internal/instrumentation"
	"github.com/teemow/availcheck/internal/logging"
	"github.com/teemow/availcheck/internal/report"
	"github.com/teemow/availcheck/internal/timeparse"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLocation sets the zone form dates are interpreted in. Nil means the
// host zone.
func WithLocation(loc *time.Location) Option {
	return func(p *Pipeline) {
		p.loc = loc
	}
}

// WithFormLabels sets the question titles to read.
func WithFormLabels(labels FormLabels) Option {
	return func(p *Pipeline) {
		p.labels = labels
	}
}

// WithSource tags runs with where the submission came from
// (see instrumentation.SourceHTTP and friends).
func WithSource(source string) Option {
	return func(p *Pipeline) {
		p.source = source
	}
}

// WithMetrics records one form submission observation per run.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithAuditLogger writes one audit line per run.
func WithAuditLogger(a *instrumentation.AuditLogger) Option {
	return func(p *Pipeline) {
		p.audit = a
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Pipeline runs extract, parse, check and write for one submission.
type Pipeline struct {
	checker *availability.Checker
	writer  *report.Writer
	users   []string

	loc     *time.Location
	labels  FormLabels
	source  string
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
	logger  *slog.Logger
}

// NewPipeline creates a Pipeline checking users and writing with writer.
func NewPipeline(checker *availability.Checker, writer *report.Writer, users []string, opts ...Option) *Pipeline {
	p := &Pipeline{
		checker: checker,
		writer:  writer,
		users:   append([]string(nil), users...),
		labels:  DefaultFormLabels(""),
		source:  instrumentation.SourceCLI,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithWriter returns a copy of the pipeline that writes with w.
func (p *Pipeline) WithWriter(w *report.Writer) *Pipeline {
	cp := *p
	cp.writer = w
	return &cp
}

// FormLabels returns the question titles the pipeline reads.
func (p *Pipeline) FormLabels() FormLabels {
	return p.labels
}

// Submit builds a Submission from raw field values using the pipeline's
// question titles.
func (p *Pipeline) Submit(date, start, end string) Submission {
	return Submission{
		p.labels.Date:      {date},
		p.labels.StartTime: {start},
		p.labels.EndTime:   {end},
	}
}

// Handle processes one submission. Input and parse errors are returned
// before any calendar query or report write. Per-user lookup failures are
// part of the Outcome, not an error.
func (p *Pipeline) Handle(ctx context.Context, sub Submission) (out *Outcome, err error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := logging.WithRunID(p.logger, runID).With(slog.String("source", p.source))

	ctx, span := instrumentation.StartRunSpan(ctx, p.source,
		instrumentation.NewSpanAttributeBuilder().
			WithRunID(runID).
			WithUserCount(len(p.users)).
			Build()...)
	defer span.End()
	if traceID := instrumentation.GetTraceID(ctx); traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}

	record := instrumentation.NewRunRecord(runID, p.source).
		WithRequester(RequesterFromContext(ctx))

	defer func() {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		p.metrics.RecordFormSubmission(ctx, p.source, status, time.Since(start))
		p.audit.LogRun(ctx, record.WithSpanContext(ctx).Complete(err))
	}()

	date, startTime, endTime, err := p.extract(sub)
	if err != nil {
		logger.Warn("invalid form submission", logging.Err(err))
		return nil, err
	}
	logger.Debug("form submission received",
		slog.String("date", date),
		slog.String("start_time", startTime),
		slog.String("end_time", endTime))

	window, err := timeparse.ParseWindow(date, startTime, endTime, p.loc)
	if err != nil {
		logger.Warn("failed to parse form submission", logging.Err(err))
		return nil, fmt.Errorf("failed to parse submission: %w", err)
	}
	if !window.Valid() {
		logger.Warn("window end is not after start",
			slog.Time("start", window.Start),
			slog.Time("end", window.End))
	}
	record.WithWindow(window.Start, window.End)
	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().
		WithWindow(window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339)).
		Build()...)

	checkCtx, checkSpan := instrumentation.StartSpan(ctx, "availcheck.check",
		instrumentation.NewSpanAttributeBuilder().WithUserCount(len(p.users)).Build()...)
	result := p.checker.Check(checkCtx, p.users, window)
	checkSpan.End()
	record.WithCounts(len(result.Available), len(result.Busy), len(result.Errors))
	logger.Info("availability checked",
		slog.Int("available", len(result.Available)),
		slog.Int("busy", len(result.Busy)),
		slog.Int("errors", len(result.Errors)))

	if err := p.writer.Write(ctx, result, window); err != nil {
		return nil, err
	}
	instrumentation.AddSpanEvent(span, "report_written",
		instrumentation.NewSpanAttributeBuilder().WithSheet(p.writer.Labels().SheetName).Build()...)

	return &Outcome{RunID: runID, Window: window, Result: result}, nil
}

func (p *Pipeline) extract(sub Submission) (date, start, end string, err error) {
	fields := []struct {
		label string
		dst   *string
	}{
		{p.labels.Date, &date},
		{p.labels.StartTime, &start},
		{p.labels.EndTime, &end},
	}
	for _, f := range fields {
		v, ok := sub.First(f.label)
		if !ok {
			return "", "", "", &InputError{Field: f.label}
		}
		*f.dst = v
	}
	return date, start, end, nil
}
