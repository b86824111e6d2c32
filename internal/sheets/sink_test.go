package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/teemow/availcheck/internal/availability"
	"github.com/teemow/availcheck/internal/report"
)

const testSpreadsheetID = "sheet-123"

// fakeSpreadsheet is a minimal in-memory stand-in for the Sheets API.
type fakeSpreadsheet struct {
	mu       sync.Mutex
	tabs     []*sheets.SheetProperties
	gets     int
	requests []*sheets.Request
	batches  int
	failOn   string // "get" or "batch" makes that call return 403
}

func (f *fakeSpreadsheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	base := "/v4/spreadsheets/" + testSpreadsheetID
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == base:
		f.gets++
		if f.failOn == "get" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied"}}`))
			return
		}
		out := &sheets.Spreadsheet{SpreadsheetId: testSpreadsheetID}
		for _, p := range f.tabs {
			out.Sheets = append(out.Sheets, &sheets.Sheet{Properties: p})
		}
		_ = json.NewEncoder(w).Encode(out)

	case r.Method == http.MethodPost && r.URL.Path == base+":batchUpdate":
		f.batches++
		if f.failOn == "batch" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied"}}`))
			return
		}
		var req sheets.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := &sheets.BatchUpdateSpreadsheetResponse{SpreadsheetId: testSpreadsheetID}
		for _, rq := range req.Requests {
			f.requests = append(f.requests, rq)
			reply := &sheets.Response{}
			if rq.AddSheet != nil {
				props := &sheets.SheetProperties{
					SheetId: int64(1000 + len(f.tabs)),
					Title:   rq.AddSheet.Properties.Title,
				}
				f.tabs = append(f.tabs, props)
				reply.AddSheet = &sheets.AddSheetResponse{Properties: props}
			}
			resp.Replies = append(resp.Replies, reply)
		}
		_ = json.NewEncoder(w).Encode(resp)

	default:
		http.NotFound(w, r)
	}
}

func englishLabels(t *testing.T) report.Labels {
	t.Helper()
	labels, err := report.LabelsFor("en")
	require.NoError(t, err)
	return labels
}

func newTestSink(t *testing.T, fake *fakeSpreadsheet) *Sink {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	sink, err := NewSink(context.Background(), testSpreadsheetID, nil, nil,
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	return sink
}

func TestNewSink_RequiresSpreadsheetID(t *testing.T) {
	_, err := NewSink(context.Background(), "", nil, nil, option.WithHTTPClient(http.DefaultClient))
	assert.Error(t, err)
}

func TestEnsureSheet_Existing(t *testing.T) {
	fake := &fakeSpreadsheet{tabs: []*sheets.SheetProperties{
		{SheetId: 0, Title: "Sheet1"},
		{SheetId: 42, Title: "Results"},
	}}
	sink := newTestSink(t, fake)

	ref, err := sink.EnsureSheet(context.Background(), "Results")
	require.NoError(t, err)
	assert.Equal(t, report.SheetRef{ID: 42, Title: "Results"}, ref)
	assert.Empty(t, fake.requests, "existing sheet must not be re-added")
}

func TestEnsureSheet_Creates(t *testing.T) {
	fake := &fakeSpreadsheet{tabs: []*sheets.SheetProperties{{SheetId: 0, Title: "Sheet1"}}}
	sink := newTestSink(t, fake)

	ref, err := sink.EnsureSheet(context.Background(), "Результаты")
	require.NoError(t, err)
	assert.Equal(t, "Результаты", ref.Title)
	assert.Equal(t, int64(1001), ref.ID)

	require.Len(t, fake.requests, 1)
	require.NotNil(t, fake.requests[0].AddSheet)

	// Second call finds it
	again, err := sink.EnsureSheet(context.Background(), "Результаты")
	require.NoError(t, err)
	assert.Equal(t, ref, again)
	assert.Len(t, fake.requests, 1)
}

func TestEnsureSheet_GetFails(t *testing.T) {
	sink := newTestSink(t, &fakeSpreadsheet{failOn: "get"})

	_, err := sink.EnsureSheet(context.Background(), "Results")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get spreadsheet")
}

func TestWriter_WithSheetsSink(t *testing.T) {
	fake := &fakeSpreadsheet{tabs: []*sheets.SheetProperties{{SheetId: 0, Title: "Results"}}}
	sink := newTestSink(t, fake)

	start := time.Date(2025, 9, 25, 10, 0, 0, 0, time.UTC)
	window := availability.Window{Start: start, End: start.Add(time.Hour)}
	result := availability.Result{
		Available: []string{"alice@example.com"},
		Busy:      []string{"bob@example.com"},
		Errors:    []availability.UserError{},
	}

	w := report.NewWriter(sink, englishLabels(t), nil, nil)
	require.NoError(t, w.Write(context.Background(), result, window))

	require.Len(t, fake.requests, 3)
	assert.Equal(t, 1, fake.batches, "clear, write and resize must share one batchUpdate")

	clr := fake.requests[0].UpdateCells
	require.NotNil(t, clr)
	assert.Equal(t, "*", clr.Fields)
	require.NotNil(t, clr.Range)
	assert.Equal(t, int64(0), clr.Range.SheetId)

	write := fake.requests[1].UpdateCells
	require.NotNil(t, write)
	assert.Equal(t, rowFields, write.Fields)
	rep := report.Build(result, window, englishLabels(t))
	require.Len(t, write.Rows, len(rep.Rows))
	assert.Equal(t, "alice@example.com", *write.Rows[3].Values[1].UserEnteredValue.StringValue)

	resize := fake.requests[2].AutoResizeDimensions
	require.NotNil(t, resize)
	assert.Equal(t, "COLUMNS", resize.Dimensions.Dimension)
	assert.Equal(t, int64(report.Columns), resize.Dimensions.EndIndex)
}

func TestWriter_WithSheetsSink_BatchFails(t *testing.T) {
	fake := &fakeSpreadsheet{
		tabs:   []*sheets.SheetProperties{{SheetId: 7, Title: "Results"}},
		failOn: "batch",
	}
	sink := newTestSink(t, fake)

	w := report.NewWriter(sink, englishLabels(t), nil, nil)
	err := w.Write(context.Background(), availability.Result{}, availability.Window{})
	require.Error(t, err)

	var we *report.WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "replace sheet content", we.Op)
	assert.Equal(t, 1, fake.batches)
	assert.True(t, strings.Contains(err.Error(), "failed to update spreadsheet"))
}
