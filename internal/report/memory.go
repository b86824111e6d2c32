package report

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type memorySheet struct {
	ref        SheetRef
	rows       []Row
	resizedTo  int
	clearCount int
}

// MemorySink keeps sheets in process. It backs dry runs and tests.
type MemorySink struct {
	mu     sync.Mutex
	sheets map[string]*memorySheet
	nextID int64
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{sheets: make(map[string]*memorySheet)}
}

// EnsureSheet implements Sink.
func (m *MemorySink) EnsureSheet(_ context.Context, title string) (SheetRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sheets[title]; ok {
		return s.ref, nil
	}
	m.nextID++
	s := &memorySheet{ref: SheetRef{ID: m.nextID, Title: title}}
	m.sheets[title] = s
	return s.ref, nil
}

// Clear implements Sink.
func (m *MemorySink) Clear(_ context.Context, ref SheetRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(ref)
	if err != nil {
		return err
	}
	s.rows = nil
	s.resizedTo = 0
	s.clearCount++
	return nil
}

// WriteRows implements Sink. Rows are written from the top of the sheet,
// overwriting whatever is already there.
func (m *MemorySink) WriteRows(_ context.Context, ref SheetRef, rows []Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(ref)
	if err != nil {
		return err
	}
	for i, r := range rows {
		r.Cells = append([]string(nil), r.Cells...)
		if i < len(s.rows) {
			s.rows[i] = r
		} else {
			s.rows = append(s.rows, r)
		}
	}
	return nil
}

// AutoResizeColumns implements Sink.
func (m *MemorySink) AutoResizeColumns(_ context.Context, ref SheetRef, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(ref)
	if err != nil {
		return err
	}
	s.resizedTo = n
	return nil
}

// Rows returns a copy of the rows currently in the sheet.
func (m *MemorySink) Rows(title string) []Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sheets[title]
	if !ok {
		return nil
	}
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// SheetCount returns the number of sheets created so far.
func (m *MemorySink) SheetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sheets)
}

// Render returns the sheet as tab-separated text, one line per row.
// Bold rows are prefixed with "*".
func (m *MemorySink) Render(title string) string {
	var b strings.Builder
	for _, r := range m.Rows(title) {
		if r.Bold {
			b.WriteString("*")
		}
		b.WriteString(strings.Join(r.Cells, "\t"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *MemorySink) lookup(ref SheetRef) (*memorySheet, error) {
	s, ok := m.sheets[ref.Title]
	if !ok || s.ref.ID != ref.ID {
		return nil, fmt.Errorf("sheet %q (id %d) not found", ref.Title, ref.ID)
	}
	return s, nil
}
