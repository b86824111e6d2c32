package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// withRecorder installs an in-memory span recorder as the global tracer
// provider for the duration of the test.
func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	prev := otel.GetTracerProvider()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]any {
	m := make(map[string]any, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value.AsInterface()
	}
	return m
}

func TestSpanAttributeBuilder(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithRunID("run-1").
		WithSource(SourceHTTP).
		WithWindow("2024-06-15T10:00:00Z", "2024-06-15T11:00:00Z").
		WithUserCount(3).
		WithUserHash("user:abc").
		WithSheet("Results").
		Build()

	m := attrMap(attrs)
	want := map[string]any{
		SpanAttrRunID:       "run-1",
		SpanAttrSource:      SourceHTTP,
		SpanAttrWindowStart: "2024-06-15T10:00:00Z",
		SpanAttrWindowEnd:   "2024-06-15T11:00:00Z",
		SpanAttrUserCount:   int64(3),
		SpanAttrUserHash:    "user:abc",
		SpanAttrSheet:       "Results",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("attribute %s = %v, want %v", k, m[k], v)
		}
	}
}

func TestSpanAttributeBuilder_EmptyValues(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithRunID("").
		WithSource("").
		WithUserHash("").
		WithSheet("").
		WithUserCount(0).
		Build()

	// Only the user count is unconditional
	if len(attrs) != 1 {
		t.Errorf("expected 1 attribute, got %d", len(attrs))
	}
}

func TestStartRunSpan(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartRunSpan(context.Background(), SourceCLI, attribute.String(SpanAttrRunID, "run-7"))
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "availcheck.run" {
		t.Errorf("span name = %q, want availcheck.run", spans[0].Name())
	}
	m := attrMap(spans[0].Attributes())
	if m[SpanAttrSource] != SourceCLI || m[SpanAttrRunID] != "run-7" {
		t.Errorf("unexpected attributes: %v", m)
	}
}

func TestStartToolSpan(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartToolSpan(context.Background(), "availability_check")
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "tool.availability_check" {
		t.Fatalf("unexpected spans: %v", spans)
	}
}

func TestStartGoogleAPISpan(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := StartGoogleAPISpan(context.Background(), ServiceCalendar, OperationFreeBusy)
	if GetTraceID(ctx) == "" {
		t.Error("expected a trace ID while the span is active")
	}
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "google.calendar.freebusy" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	m := attrMap(spans[0].Attributes())
	if m[SpanAttrService] != ServiceCalendar || m[SpanAttrOperation] != OperationFreeBusy {
		t.Errorf("unexpected attributes: %v", m)
	}
}

func TestSetSpanStatus(t *testing.T) {
	recorder := withRecorder(t)

	_, failed := StartSpan(context.Background(), "failed")
	SetSpanError(failed, errors.New("boom"))
	failed.End()

	_, ok := StartSpan(context.Background(), "ok")
	SetSpanSuccess(ok)
	AddSpanEvent(ok, "rows_written", attribute.Int("rows", 4))
	ok.End()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error || spans[0].Status().Description != "boom" {
		t.Errorf("failed span status = %+v", spans[0].Status())
	}
	if spans[1].Status().Code != codes.Ok {
		t.Errorf("ok span status = %+v", spans[1].Status())
	}
	if len(spans[1].Events()) != 1 || spans[1].Events()[0].Name != "rows_written" {
		t.Errorf("expected rows_written event, got %v", spans[1].Events())
	}
}

func TestSetSpanError_Nil(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartSpan(context.Background(), "noop")
	SetSpanError(span, nil)
	span.End()

	if got := recorder.Ended()[0].Status().Code; got != codes.Unset {
		t.Errorf("status = %v, want Unset", got)
	}
}

func TestGetTraceID_NoSpan(t *testing.T) {
	if id := GetTraceID(context.Background()); id != "" {
		t.Errorf("expected empty trace ID, got %q", id)
	}
}
