package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"
)

const (
	testRunID     = "6f1c2d3e-run"
	testRequester = "jane@example.com"
	testDomain    = "example.com"
)

func decodeAuditLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("failed to decode audit line %q: %v", buf.String(), err)
	}
	return line
}

func TestRunRecord_Complete(t *testing.T) {
	r := NewRunRecord(testRunID, SourceHTTP)
	if r.StartTime.IsZero() {
		t.Fatal("StartTime should be set")
	}

	r.Complete(nil)
	if !r.Success || r.Status() != StatusSuccess {
		t.Errorf("expected success, got %v / %s", r.Success, r.Status())
	}
	if r.Duration < 0 {
		t.Error("Duration should not be negative")
	}

	failed := NewRunRecord(testRunID, SourceCLI).Complete(errors.New("sheet unavailable"))
	if failed.Success || failed.Status() != StatusError {
		t.Errorf("expected error status, got %s", failed.Status())
	}
	if failed.Error != "sheet unavailable" {
		t.Errorf("Error = %q", failed.Error)
	}
}

func TestRunRecord_Builders(t *testing.T) {
	start := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	r := NewRunRecord(testRunID, SourceMCP).
		WithRequester(testRequester).
		WithWindow(start, start.Add(time.Hour)).
		WithCounts(2, 1, 1)

	if r.WindowStart != "2024-06-15T10:00:00Z" || r.WindowEnd != "2024-06-15T11:00:00Z" {
		t.Errorf("window = %s .. %s", r.WindowStart, r.WindowEnd)
	}
	if r.Available != 2 || r.Busy != 1 || r.Errors != 1 {
		t.Errorf("counts = %d/%d/%d", r.Available, r.Busy, r.Errors)
	}
}

func TestRunRecord_LogAttrs_PII(t *testing.T) {
	r := NewRunRecord(testRunID, SourceHTTP).WithRequester(testRequester).Complete(nil)

	find := func(attrs []slog.Attr, key string) (string, bool) {
		for _, a := range attrs {
			if a.Key == key {
				return a.Value.String(), true
			}
		}
		return "", false
	}

	anon := r.LogAttrs(false)
	if _, ok := find(anon, "requester"); ok {
		t.Error("anonymized attrs must not contain the requester email")
	}
	if v, _ := find(anon, "requester_domain"); v != testDomain {
		t.Errorf("requester_domain = %q, want %q", v, testDomain)
	}

	full := r.LogAttrs(true)
	if v, _ := find(full, "requester"); v != testRequester {
		t.Errorf("requester = %q, want %q", v, testRequester)
	}
}

func TestAuditLogger_LogRun(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	al := NewAuditLogger(logger)

	al.LogRun(context.Background(), NewRunRecord(testRunID, SourceHTTP).WithCounts(1, 1, 0).Complete(nil))

	line := decodeAuditLine(t, &buf)
	if line["msg"] != "run_completed" {
		t.Errorf("msg = %v, want run_completed", line["msg"])
	}
	if line["run_id"] != testRunID || line["source"] != SourceHTTP {
		t.Errorf("unexpected line: %v", line)
	}
	if line["available"] != float64(1) || line["busy"] != float64(1) {
		t.Errorf("unexpected counts: %v", line)
	}
}

func TestAuditLogger_LogRun_Failure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	al := NewAuditLogger(logger)

	al.LogRun(context.Background(), NewRunRecord(testRunID, SourceCLI).Complete(errors.New("write failed")))

	line := decodeAuditLine(t, &buf)
	if line["msg"] != "run_failed" || line["level"] != "WARN" {
		t.Errorf("unexpected line: %v", line)
	}
	if line["error"] != "write failed" {
		t.Errorf("error = %v", line["error"])
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLoggerWithConfig(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{Enabled: false})

	al.LogRun(context.Background(), NewRunRecord(testRunID, SourceHTTP).Complete(nil))
	if buf.Len() != 0 {
		t.Errorf("expected no output when disabled, got %s", buf.String())
	}

	var nilLogger *AuditLogger
	nilLogger.LogRun(context.Background(), NewRunRecord(testRunID, SourceHTTP))
}

func TestRunRecord_WithSpanContext(t *testing.T) {
	withRecorder(t)

	r := NewRunRecord(testRunID, SourceHTTP).WithSpanContext(context.Background())
	if r.TraceID != "" || r.SpanID != "" {
		t.Error("expected empty trace context without a span")
	}

	ctx, span := StartRunSpan(context.Background(), SourceHTTP)
	defer span.End()

	r = NewRunRecord(testRunID, SourceHTTP).WithSpanContext(ctx)
	if r.TraceID == "" || r.SpanID == "" {
		t.Error("expected trace context from active span")
	}
}
