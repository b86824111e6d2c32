package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/availcheck/internal/availability"
	"github.com/teemow/availcheck/internal/instrumentation"
	"github.com/teemow/availcheck/internal/report"
	"github.com/teemow/availcheck/internal/timeparse"
	"github.com/teemow/availcheck/internal/trigger"
)

type stubHandler struct {
	out       *trigger.Outcome
	err       error
	got       trigger.Submission
	requester string
}

func (s *stubHandler) Handle(ctx context.Context, sub trigger.Submission) (*trigger.Outcome, error) {
	s.got = sub
	s.requester = trigger.RequesterFromContext(ctx)
	return s.out, s.err
}

const exampleBody = `{"namedValues":{"Date":["9/25/2025"],"Start Time":["2:00:00 PM"],"End Time":["3:00:00 PM"]}}`

func newTestServer(t *testing.T, h SubmissionHandler, metrics *instrumentation.Metrics) *Server {
	t.Helper()
	srv, err := New(Config{Handler: h, Users: 2, Metrics: metrics})
	require.NoError(t, err)
	return srv
}

func post(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, FormSubmitPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNew_RequiresHandler(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestFormSubmit_Success(t *testing.T) {
	stub := &stubHandler{out: &trigger.Outcome{
		RunID: "run-1",
		Result: availability.Result{
			Available: []string{"a@x.com"},
			Busy:      []string{"b@x.com"},
		},
	}}
	srv := newTestServer(t, stub, nil)

	rec := post(t, srv, exampleBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp FormSubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, []string{"a@x.com"}, resp.Available)
	assert.Equal(t, []string{"b@x.com"}, resp.Busy)
	assert.NotNil(t, resp.Errors)
	assert.Empty(t, resp.Errors)

	assert.Equal(t, []string{"9/25/2025"}, stub.got["Date"])
	assert.Empty(t, stub.requester)
}

func TestFormSubmit_Respondent(t *testing.T) {
	stub := &stubHandler{out: &trigger.Outcome{RunID: "run-2"}}
	srv := newTestServer(t, stub, nil)

	rec := post(t, srv, `{"namedValues":{},"respondentEmail":"organizer@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "organizer@example.com", stub.requester)
	assert.JSONEq(t, `{"run_id":"run-2","available":[],"busy":[],"errors":[]}`, rec.Body.String())
}

func TestFormSubmit_Errors(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		body     string
		err      error
		wantCode int
	}{
		{
			name:     "wrong method",
			method:   http.MethodGet,
			wantCode: http.StatusMethodNotAllowed,
		},
		{
			name:     "invalid json",
			body:     `{"namedValues":`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing namedValues",
			body:     `{}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "input error",
			body:     exampleBody,
			err:      &trigger.InputError{Field: "Date"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "parse error",
			body:     exampleBody,
			err:      fmt.Errorf("failed to parse submission: %w", &timeparse.ParseError{Field: timeparse.FieldDate, Value: "x", Reason: "bad"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "write error",
			body:     exampleBody,
			err:      &report.WriteError{Op: "clear sheet", Sheet: "Results", Err: errors.New("denied")},
			wantCode: http.StatusBadGateway,
		},
		{
			name:     "canceled",
			body:     exampleBody,
			err:      context.Canceled,
			wantCode: http.StatusServiceUnavailable,
		},
		{
			name:     "unexpected",
			body:     exampleBody,
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &stubHandler{err: tt.err}, nil)

			method := tt.method
			if method == "" {
				method = http.MethodPost
			}
			req := httptest.NewRequest(method, FormSubmitPath, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestFormSubmit_EndToEnd(t *testing.T) {
	day := time.Date(2025, 9, 25, 0, 0, 0, 0, time.UTC)
	source := sourceFunc(func(_ context.Context, user string, _ availability.Window) (availability.UserFreeBusy, error) {
		if user == "b@x.com" {
			return availability.UserFreeBusy{Busy: []availability.Interval{{
				Start: day.Add(14*time.Hour + 30*time.Minute),
				End:   day.Add(14*time.Hour + 45*time.Minute),
			}}}, nil
		}
		return availability.UserFreeBusy{}, nil
	})

	labels, err := report.LabelsFor("en")
	require.NoError(t, err)
	sink := report.NewMemorySink()
	pipeline := trigger.NewPipeline(
		availability.NewChecker(source),
		report.NewWriter(sink, labels, nil, nil),
		[]string{"a@x.com", "b@x.com"},
		trigger.WithLocation(time.UTC),
		trigger.WithSource(instrumentation.SourceHTTP),
	)
	srv := newTestServer(t, pipeline, nil)

	rec := post(t, srv, exampleBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp FormSubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"a@x.com"}, resp.Available)
	assert.Equal(t, []string{"b@x.com"}, resp.Busy)

	rows := sink.Rows(labels.SheetName)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Checked: 2, Available: 1, Busy: 1, Errors: 0", rows[len(rows)-1].Cells[0])

	// Missing field is rejected before touching the sheet again
	rec = post(t, srv, `{"namedValues":{"Date":["9/25/2025"]}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, rows, sink.Rows(labels.SheetName))

	detailed := httptest.NewRecorder()
	srv.Handler().ServeHTTP(detailed, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))
	var health DetailedHealthResponse
	require.NoError(t, json.Unmarshal(detailed.Body.Bytes(), &health))
	require.NotNil(t, health.LastRun)
	assert.Equal(t, "error", health.LastRun.Status)
}

func TestFormSubmit_RecordsHTTPMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := instrumentation.NewMetrics(mp.Meter("test"), false)
	require.NoError(t, err)

	srv := newTestServer(t, &stubHandler{err: &trigger.InputError{Field: "Date"}}, metrics)
	post(t, srv, exampleBody)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var found bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http_requests_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			require.Len(t, sum.DataPoints, 1)
			dp := sum.DataPoints[0]
			status, _ := dp.Attributes.Value(attribute.Key("status"))
			path, _ := dp.Attributes.Value(attribute.Key("path"))
			assert.Equal(t, "400", status.AsString())
			assert.Equal(t, FormSubmitPath, path.AsString())
			found = true
		}
	}
	assert.True(t, found, "http_requests_total not recorded")
}

type sourceFunc func(ctx context.Context, user string, w availability.Window) (availability.UserFreeBusy, error)

func (f sourceFunc) QueryUser(ctx context.Context, user string, w availability.Window) (availability.UserFreeBusy, error) {
	return f(ctx, user, w)
}
