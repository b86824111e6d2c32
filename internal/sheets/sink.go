package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/teemow/availcheck/internal/instrumentation"
	"github.com/teemow/availcheck/internal/logging"
	"github.com/teemow/availcheck/internal/report"
)

// Sink writes reports into one Google spreadsheet.
type Sink struct {
	svc           *sheets.Service
	spreadsheetID string
	metrics       *instrumentation.Metrics
	logger        *slog.Logger
}

var _ report.AtomicSink = (*Sink)(nil)

// NewSink creates a Sink for the spreadsheet. Pass option.WithHTTPClient with
// an authenticated client from the google package.
func NewSink(ctx context.Context, spreadsheetID string, metrics *instrumentation.Metrics, logger *slog.Logger, opts ...option.ClientOption) (*Sink, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID cannot be empty")
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Sink{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		metrics:       metrics,
		logger:        logging.WithService(logger, instrumentation.ServiceSheets),
	}, nil
}

// EnsureSheet finds the sheet by title, adding it when absent.
func (s *Sink) EnsureSheet(ctx context.Context, title string) (report.SheetRef, error) {
	ref, found, err := s.findSheet(ctx, title)
	if err != nil {
		return report.SheetRef{}, err
	}
	if found {
		return ref, nil
	}

	resp, err := s.batchUpdate(ctx, title, addSheetRequest(title))
	if err != nil {
		return report.SheetRef{}, err
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return report.SheetRef{}, fmt.Errorf("add sheet %q returned no sheet properties", title)
	}

	props := resp.Replies[0].AddSheet.Properties
	s.logger.Info("created sheet", slog.String("sheet", props.Title), slog.Int64("sheet_id", props.SheetId))
	return report.SheetRef{ID: props.SheetId, Title: props.Title}, nil
}

// Clear removes all values and formatting.
func (s *Sink) Clear(ctx context.Context, ref report.SheetRef) error {
	_, err := s.batchUpdate(ctx, ref.Title, clearRequest(ref))
	return err
}

// WriteRows writes all rows, with their formatting, in one request.
func (s *Sink) WriteRows(ctx context.Context, ref report.SheetRef, rows []report.Row) error {
	req, err := writeRowsRequest(ref, rows)
	if err != nil {
		return err
	}
	_, err = s.batchUpdate(ctx, ref.Title, req)
	return err
}

// AutoResizeColumns fits the first n columns to their content.
func (s *Sink) AutoResizeColumns(ctx context.Context, ref report.SheetRef, n int) error {
	_, err := s.batchUpdate(ctx, ref.Title, autoResizeRequest(ref, n))
	return err
}

// ReplaceRows clears the sheet, writes rows and fits the first n columns in
// one batchUpdate, which Sheets applies atomically.
func (s *Sink) ReplaceRows(ctx context.Context, ref report.SheetRef, rows []report.Row, n int) error {
	write, err := writeRowsRequest(ref, rows)
	if err != nil {
		return err
	}
	_, err = s.batchUpdate(ctx, ref.Title, clearRequest(ref), write, autoResizeRequest(ref, n))
	return err
}

func (s *Sink) findSheet(ctx context.Context, title string) (report.SheetRef, bool, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceSheets, instrumentation.OperationGet,
		instrumentation.NewSpanAttributeBuilder().WithSheet(title).Build()...)
	defer span.End()

	start := time.Now()
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	s.record(ctx, instrumentation.OperationGet, err, time.Since(start))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return report.SheetRef{}, false, fmt.Errorf("failed to get spreadsheet: %w", err)
	}
	instrumentation.SetSpanSuccess(span)

	for _, sh := range ss.Sheets {
		if sh == nil || sh.Properties == nil {
			continue
		}
		if sh.Properties.Title == title {
			return report.SheetRef{ID: sh.Properties.SheetId, Title: title}, true, nil
		}
	}
	return report.SheetRef{}, false, nil
}

func (s *Sink) batchUpdate(ctx context.Context, sheet string, reqs ...*sheets.Request) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceSheets, instrumentation.OperationBatchUpdate,
		instrumentation.NewSpanAttributeBuilder().WithSheet(sheet).Build()...)
	defer span.End()

	start := time.Now()
	resp, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: reqs,
	}).Context(ctx).Do()
	s.record(ctx, instrumentation.OperationBatchUpdate, err, time.Since(start))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to update spreadsheet: %w", err)
	}

	instrumentation.SetSpanSuccess(span)
	return resp, nil
}

func (s *Sink) record(ctx context.Context, operation string, err error, d time.Duration) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	s.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceSheets, operation, status, d)
}
