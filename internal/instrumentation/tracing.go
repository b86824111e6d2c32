package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for the availcheck module.
const TracerName = "github.com/teemow/availcheck"

// Span attribute keys.
const (
	// SpanAttrRunID is the pipeline run identifier.
	SpanAttrRunID = "availcheck.run_id"

	// SpanAttrSource is where the run was triggered from (http, cli, mcp).
	SpanAttrSource = "availcheck.source"

	// SpanAttrUserCount is the number of users checked in a run.
	SpanAttrUserCount = "availcheck.user_count"

	// SpanAttrWindowStart and SpanAttrWindowEnd bound the checked window (RFC 3339).
	SpanAttrWindowStart = "availcheck.window.start"
	SpanAttrWindowEnd   = "availcheck.window.end"

	// SpanAttrService is the Google service name attribute.
	SpanAttrService = "google.service"

	// SpanAttrOperation is the operation type attribute.
	SpanAttrOperation = "google.operation"

	// SpanAttrUserHash is the anonymized user identifier.
	SpanAttrUserHash = "availcheck.user_hash"

	// SpanAttrSheet is the target report sheet title.
	SpanAttrSheet = "sheets.sheet"

	// SpanAttrTool is the MCP tool name attribute.
	SpanAttrTool = "mcp.tool"
)

// SpanAttributeBuilder helps construct OpenTelemetry span attributes
// with consistent naming.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewSpanAttributeBuilder creates a new SpanAttributeBuilder.
func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 8),
	}
}

// WithRunID adds the run identifier.
func (b *SpanAttributeBuilder) WithRunID(runID string) *SpanAttributeBuilder {
	if runID != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrRunID, runID))
	}
	return b
}

// WithSource adds the trigger source.
func (b *SpanAttributeBuilder) WithSource(source string) *SpanAttributeBuilder {
	if source != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrSource, source))
	}
	return b
}

// WithWindow adds the window bounds, already formatted by the caller.
func (b *SpanAttributeBuilder) WithWindow(start, end string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs,
		attribute.String(SpanAttrWindowStart, start),
		attribute.String(SpanAttrWindowEnd, end),
	)
	return b
}

// WithUserCount adds the number of users in the run.
func (b *SpanAttributeBuilder) WithUserCount(n int) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.Int(SpanAttrUserCount, n))
	return b
}

// WithUserHash adds an anonymized user identifier.
func (b *SpanAttributeBuilder) WithUserHash(hash string) *SpanAttributeBuilder {
	if hash != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrUserHash, hash))
	}
	return b
}

// WithSheet adds the report sheet title.
func (b *SpanAttributeBuilder) WithSheet(sheet string) *SpanAttributeBuilder {
	if sheet != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrSheet, sheet))
	}
	return b
}

// Build returns the constructed attributes.
func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// StartSpan starts a new span with the given name and attributes.
// The caller is responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartRunSpan starts the root span of a pipeline run.
func StartRunSpan(ctx context.Context, source string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrSource, source))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "availcheck.run",
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartToolSpan starts a span for an MCP tool invocation.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrTool, toolName))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartGoogleAPISpan starts a span for Google API operations.
// Includes service and operation attributes.
func StartGoogleAPISpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+2)
	allAttrs = append(allAttrs,
		attribute.String(SpanAttrService, service),
		attribute.String(SpanAttrOperation, operation),
	)
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "google."+service+"."+operation,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddSpanEvent adds an event to the span with optional attributes.
func AddSpanEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
