package trigger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/availcheck/internal/availability"
	"github.com/teemow/availcheck/internal/instrumentation"
	"github.com/teemow/availcheck/internal/report"
	"github.com/teemow/availcheck/internal/timeparse"
)

type fakeSource struct {
	busy    map[string][]availability.Interval
	queries atomic.Int32
}

func (f *fakeSource) QueryUser(_ context.Context, user string, _ availability.Window) (availability.UserFreeBusy, error) {
	f.queries.Add(1)
	return availability.UserFreeBusy{Busy: f.busy[user]}, nil
}

type failingSink struct {
	*report.MemorySink
}

func (failingSink) WriteRows(context.Context, report.SheetRef, []report.Row) error {
	return errors.New("quota exceeded")
}

func labelsFor(t *testing.T, locale string) report.Labels {
	t.Helper()
	labels, err := report.LabelsFor(locale)
	require.NoError(t, err)
	return labels
}

func newTestPipeline(t *testing.T, src *fakeSource, sink report.Sink, opts ...Option) *Pipeline {
	t.Helper()
	checker := availability.NewChecker(src)
	writer := report.NewWriter(sink, labelsFor(t, "en"), nil, nil)
	opts = append([]Option{WithLocation(time.UTC)}, opts...)
	return NewPipeline(checker, writer, []string{"a@x.com", "b@x.com"}, opts...)
}

func exampleSource() *fakeSource {
	day := time.Date(2025, 9, 25, 0, 0, 0, 0, time.UTC)
	return &fakeSource{busy: map[string][]availability.Interval{
		"b@x.com": {{Start: day.Add(14*time.Hour + 30*time.Minute), End: day.Add(14*time.Hour + 45*time.Minute)}},
	}}
}

func exampleSubmission() Submission {
	return Submission{
		"Date":       {"9/25/2025"},
		"Start Time": {"2:00:00 PM"},
		"End Time":   {"3:00:00 PM"},
	}
}

func TestHandle_EndToEnd(t *testing.T) {
	sink := report.NewMemorySink()
	p := newTestPipeline(t, exampleSource(), sink)

	out, err := p.Handle(context.Background(), exampleSubmission())
	require.NoError(t, err)

	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, []string{"a@x.com"}, out.Result.Available)
	assert.Equal(t, []string{"b@x.com"}, out.Result.Busy)
	assert.Empty(t, out.Result.Errors)
	assert.Equal(t, time.Date(2025, 9, 25, 14, 0, 0, 0, time.UTC), out.Window.Start)
	assert.Equal(t, time.Date(2025, 9, 25, 15, 0, 0, 0, time.UTC), out.Window.End)

	rows := sink.Rows("Results")
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"Checked: 2, Available: 1, Busy: 1, Errors: 0"}, rows[len(rows)-1].Cells)
}

func TestHandle_Idempotent(t *testing.T) {
	sink := report.NewMemorySink()
	p := newTestPipeline(t, exampleSource(), sink)

	first, err := p.Handle(context.Background(), exampleSubmission())
	require.NoError(t, err)
	firstRows := sink.Rows("Results")

	second, err := p.Handle(context.Background(), exampleSubmission())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, firstRows, sink.Rows("Results"))
	assert.Equal(t, 1, sink.SheetCount())
}

func TestHandle_InputErrors(t *testing.T) {
	tests := []struct {
		name      string
		sub       Submission
		wantField string
		wantParse string
	}{
		{
			name:      "missing date",
			sub:       Submission{"Start Time": {"2:00:00 PM"}, "End Time": {"3:00:00 PM"}},
			wantField: "Date",
		},
		{
			name:      "empty end time",
			sub:       Submission{"Date": {"9/25/2025"}, "Start Time": {"2:00:00 PM"}, "End Time": {"  "}},
			wantField: "End Time",
		},
		{
			name:      "no values",
			sub:       Submission{"Date": {}, "Start Time": {"2:00:00 PM"}, "End Time": {"3:00:00 PM"}},
			wantField: "Date",
		},
		{
			name:      "bad date",
			sub:       Submission{"Date": {"2025-09-25"}, "Start Time": {"2:00:00 PM"}, "End Time": {"3:00:00 PM"}},
			wantParse: timeparse.FieldDate,
		},
		{
			name:      "bad modifier",
			sub:       Submission{"Date": {"9/25/2025"}, "Start Time": {"2:00:00 XM"}, "End Time": {"3:00:00 PM"}},
			wantParse: timeparse.FieldStartTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := exampleSource()
			sink := report.NewMemorySink()
			p := newTestPipeline(t, src, sink)

			out, err := p.Handle(context.Background(), tt.sub)
			require.Error(t, err)
			assert.Nil(t, out)

			if tt.wantField != "" {
				var ie *InputError
				require.ErrorAs(t, err, &ie)
				assert.Equal(t, tt.wantField, ie.Field)
			}
			if tt.wantParse != "" {
				var pe *timeparse.ParseError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, tt.wantParse, pe.Field)
				assert.ErrorIs(t, err, timeparse.ErrInvalidInput)
			}

			assert.Zero(t, src.queries.Load(), "no calendar query on bad input")
			assert.Zero(t, sink.SheetCount(), "no report write on bad input")
		})
	}
}

func TestHandle_WriteError(t *testing.T) {
	p := newTestPipeline(t, exampleSource(), failingSink{report.NewMemorySink()})

	_, err := p.Handle(context.Background(), exampleSubmission())
	require.Error(t, err)

	var we *report.WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "write rows", we.Op)
}

func TestHandle_CustomLabelsAndZone(t *testing.T) {
	moscow, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	sink := report.NewMemorySink()
	p := newTestPipeline(t, &fakeSource{}, sink,
		WithLocation(moscow),
		WithFormLabels(DefaultFormLabels("ru")),
	)

	out, err := p.Handle(context.Background(), Submission{
		"Дата":            {"9/25/2025"},
		"Время начала":    {"9:00:00 AM"},
		"Время окончания": {"12:00:00 PM"},
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 9, 25, 6, 0, 0, 0, time.UTC), out.Window.Start.UTC())
	assert.Equal(t, time.Date(2025, 9, 25, 9, 0, 0, 0, time.UTC), out.Window.End.UTC())
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, out.Result.Available)
}

func TestHandle_AuditLog(t *testing.T) {
	var buf bytes.Buffer
	audit := instrumentation.NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	p := newTestPipeline(t, exampleSource(), report.NewMemorySink(),
		WithAuditLogger(audit),
		WithSource(instrumentation.SourceHTTP),
	)

	ctx := WithRequester(context.Background(), "organizer@example.com")
	out, err := p.Handle(ctx, exampleSubmission())
	require.NoError(t, err)

	line := buf.String()
	assert.Contains(t, line, `"msg":"run_completed"`)
	assert.Contains(t, line, out.RunID)
	assert.Contains(t, line, `"source":"http"`)
	assert.Contains(t, line, `"requester_domain":"example.com"`)
	assert.NotContains(t, line, "organizer@")
}

func TestSubmit_UsesConfiguredLabels(t *testing.T) {
	p := NewPipeline(nil, nil, nil, WithFormLabels(FormLabels{Date: "Day", StartTime: "From", EndTime: "To"}))

	sub := p.Submit("9/25/2025", "2:00:00 PM", "3:00:00 PM")
	assert.Equal(t, Submission{"Day": {"9/25/2025"}, "From": {"2:00:00 PM"}, "To": {"3:00:00 PM"}}, sub)
}

func TestFormLabels_Merge(t *testing.T) {
	got := FormLabels{Date: "Day"}.Merge(DefaultFormLabels("en"))
	assert.Equal(t, FormLabels{Date: "Day", StartTime: "Start Time", EndTime: "End Time"}, got)
}

func TestRequesterFromContext_Empty(t *testing.T) {
	assert.Empty(t, RequesterFromContext(context.Background()))
}
