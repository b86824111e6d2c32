package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/availcheck/internal/availability"
	"github.com/teemow/availcheck/internal/logging"
)

// SheetRef identifies a sheet inside the report target.
type SheetRef struct {
	ID    int64
	Title string
}

// Sink is the tabular target a report is written to.
type Sink interface {
	// EnsureSheet looks the sheet up by title and creates it if absent.
	EnsureSheet(ctx context.Context, title string) (SheetRef, error)
	// Clear removes all values and formatting from the sheet.
	Clear(ctx context.Context, ref SheetRef) error
	// WriteRows writes rows starting at the first row of the sheet.
	WriteRows(ctx context.Context, ref SheetRef, rows []Row) error
	// AutoResizeColumns fits the width of the first n columns to their content.
	AutoResizeColumns(ctx context.Context, ref SheetRef, n int) error
}

// AtomicSink is a Sink that can replace the content of a sheet in a single
// step. If the step fails the previous content is left in place.
type AtomicSink interface {
	Sink
	// ReplaceRows clears the sheet, writes rows and fits the first n columns
	// as one unit.
	ReplaceRows(ctx context.Context, ref SheetRef, rows []Row, n int) error
}

// Recorder receives one observation per report write.
type Recorder interface {
	RecordReportWrite(ctx context.Context, status string, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordReportWrite(context.Context, string, time.Duration) {}

// WriteError is returned when the sink could not be reached or mutated.
type WriteError struct {
	Op    string
	Sheet string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to %s on sheet %q: %v", e.Op, e.Sheet, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Writer renders results and replaces the content of the results sheet.
type Writer struct {
	sink     Sink
	labels   Labels
	logger   *slog.Logger
	recorder Recorder

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewWriter creates a Writer. A nil logger or recorder falls back to a default.
func NewWriter(sink Sink, labels Labels, logger *slog.Logger, recorder Recorder) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Writer{
		sink:     sink,
		labels:   labels,
		logger:   logger,
		recorder: recorder,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Labels returns the label set the writer renders with.
func (w *Writer) Labels() Labels {
	return w.labels
}

// Write clears the results sheet and writes a fresh report. Writes to the
// same sheet are serialized for the whole clear-write-resize sequence. An
// AtomicSink gets the sequence as one ReplaceRows call.
func (w *Writer) Write(ctx context.Context, result availability.Result, window availability.Window) (err error) {
	start := time.Now()
	rep := Build(result, window, w.labels)
	logger := logging.WithOperation(w.logger, "report.write").With(slog.String("sheet", rep.Sheet))

	defer func() {
		status := logging.StatusSuccess
		if err != nil {
			status = logging.StatusError
			logger.Error("report write failed", logging.Err(err))
		} else {
			logger.Info("report written",
				slog.Int("rows", len(rep.Rows)),
				slog.Duration(logging.KeyDuration, time.Since(start)))
		}
		w.recorder.RecordReportWrite(ctx, status, time.Since(start))
	}()

	ref, err := w.sink.EnsureSheet(ctx, rep.Sheet)
	if err != nil {
		return &WriteError{Op: "look up or create sheet", Sheet: rep.Sheet, Err: err}
	}

	lock := w.sheetLock(rep.Sheet)
	lock.Lock()
	defer lock.Unlock()

	if as, ok := w.sink.(AtomicSink); ok {
		if err := as.ReplaceRows(ctx, ref, rep.Rows, Columns); err != nil {
			return &WriteError{Op: "replace sheet content", Sheet: rep.Sheet, Err: err}
		}
		return nil
	}

	if err := w.sink.Clear(ctx, ref); err != nil {
		return &WriteError{Op: "clear sheet", Sheet: rep.Sheet, Err: err}
	}
	if err := w.sink.WriteRows(ctx, ref, rep.Rows); err != nil {
		return &WriteError{Op: "write rows", Sheet: rep.Sheet, Err: err}
	}
	if err := w.sink.AutoResizeColumns(ctx, ref, Columns); err != nil {
		return &WriteError{Op: "resize columns", Sheet: rep.Sheet, Err: err}
	}

	return nil
}

func (w *Writer) sheetLock(title string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	l, ok := w.locks[title]
	if !ok {
		l = &sync.Mutex{}
		w.locks[title] = l
	}
	return l
}
