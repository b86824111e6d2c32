package report

import (
	"fmt"

	"github.com/teemow/availcheck/internal/availability"
)

// Columns is the number of columns in every report row.
const Columns = 3

// Report colors.
const (
	ColorHeader    = "#e8f0fe"
	ColorAvailable = "#e8f5e8"
	ColorBusy      = "#fce8e6"
	ColorError     = "#fff2cc"
)

// TitleFontSize is the font size of the title row.
const TitleFontSize = 12

// Row is one report line. Cells has at most Columns entries.
type Row struct {
	Cells      []string
	Bold       bool
	FontSize   int    // 0 keeps the sheet default
	Background string // "#rrggbb", empty for none
}

// Report is the fully rendered content of the results sheet.
type Report struct {
	Sheet string
	Rows  []Row
}

// Build renders a classification result into report rows. It performs no I/O.
//
// Layout: title, blank, header, one row per available, busy and errored user
// (in that order), blank, totals label, totals line.
func Build(result availability.Result, w availability.Window, labels Labels) Report {
	rows := make([]Row, 0, result.Total()+6)

	rows = append(rows,
		Row{
			Cells:    []string{TitleLine(w, labels)},
			Bold:     true,
			FontSize: TitleFontSize,
		},
		Row{},
		Row{
			Cells:      labels.Header[:],
			Bold:       true,
			Background: ColorHeader,
		},
	)

	for _, user := range result.Available {
		rows = append(rows, Row{
			Cells:      []string{labels.StatusAvailable, user, ""},
			Background: ColorAvailable,
		})
	}
	for _, user := range result.Busy {
		rows = append(rows, Row{
			Cells:      []string{labels.StatusBusy, user, ""},
			Background: ColorBusy,
		})
	}
	for _, e := range result.Errors {
		rows = append(rows, Row{
			Cells:      []string{labels.StatusError, e.User, e.Reason},
			Background: ColorError,
		})
	}

	rows = append(rows,
		Row{},
		Row{Cells: []string{labels.Totals}, Bold: true},
		Row{Cells: []string{TotalsLine(result, labels)}},
	)

	return Report{Sheet: labels.SheetName, Rows: rows}
}

// TitleLine renders the title summarizing the window.
func TitleLine(w availability.Window, labels Labels) string {
	return fmt.Sprintf("%s: %s – %s",
		labels.TitlePrefix,
		w.Start.Format(labels.TimeLayout),
		w.End.Format(labels.TimeLayout))
}

// TotalsLine renders the counts, e.g. "Checked: 2, Available: 1, Busy: 1, Errors: 0".
func TotalsLine(result availability.Result, labels Labels) string {
	return fmt.Sprintf("%s: %d, %s: %d, %s: %d, %s: %d",
		labels.Checked, result.Total(),
		labels.Available, len(result.Available),
		labels.Busy, len(result.Busy),
		labels.Errors, len(result.Errors))
}
