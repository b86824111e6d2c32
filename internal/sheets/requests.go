package sheets

import (
	"fmt"
	"strconv"
	"strings"

	sheets "google.golang.org/api/sheets/v4"

	"github.com/teemow/availcheck/internal/report"
)

// rowFields is the field mask for a row write: values plus the formatting
// the report uses.
const rowFields = "userEnteredValue," +
	"userEnteredFormat.textFormat.bold," +
	"userEnteredFormat.textFormat.fontSize," +
	"userEnteredFormat.backgroundColor"

// parseHexColor converts "#rrggbb" into a Sheets color.
func parseHexColor(hex string) (*sheets.Color, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return nil, fmt.Errorf("invalid color %q: want #rrggbb", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return &sheets.Color{
		Red:   float64((v>>16)&0xff) / 255,
		Green: float64((v>>8)&0xff) / 255,
		Blue:  float64(v&0xff) / 255,
	}, nil
}

func addSheetRequest(title string) *sheets.Request {
	return &sheets.Request{
		AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{Title: title},
		},
	}
}

// clearRequest wipes values and formatting of the whole sheet. SheetId 0 is
// the default first sheet, so it is always sent explicitly.
func clearRequest(ref report.SheetRef) *sheets.Request {
	return &sheets.Request{
		UpdateCells: &sheets.UpdateCellsRequest{
			Range: &sheets.GridRange{
				SheetId:         ref.ID,
				ForceSendFields: []string{"SheetId"},
			},
			Fields: "*",
		},
	}
}

func writeRowsRequest(ref report.SheetRef, rows []report.Row) (*sheets.Request, error) {
	data := make([]*sheets.RowData, len(rows))
	for i, row := range rows {
		rd, err := toRowData(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		data[i] = rd
	}

	return &sheets.Request{
		UpdateCells: &sheets.UpdateCellsRequest{
			Start: &sheets.GridCoordinate{
				SheetId:         ref.ID,
				RowIndex:        0,
				ColumnIndex:     0,
				ForceSendFields: []string{"SheetId", "RowIndex", "ColumnIndex"},
			},
			Rows:   data,
			Fields: rowFields,
		},
	}, nil
}

func toRowData(row report.Row) (*sheets.RowData, error) {
	format := &sheets.CellFormat{
		TextFormat: &sheets.TextFormat{
			Bold:            row.Bold,
			ForceSendFields: []string{"Bold"},
		},
	}
	if row.FontSize > 0 {
		format.TextFormat.FontSize = int64(row.FontSize)
	}
	if row.Background != "" {
		color, err := parseHexColor(row.Background)
		if err != nil {
			return nil, err
		}
		format.BackgroundColor = color
	}

	rd := &sheets.RowData{Values: make([]*sheets.CellData, len(row.Cells))}
	for i, cell := range row.Cells {
		value := cell
		rd.Values[i] = &sheets.CellData{
			UserEnteredValue:  &sheets.ExtendedValue{StringValue: &value},
			UserEnteredFormat: format,
		}
	}
	return rd, nil
}

func autoResizeRequest(ref report.SheetRef, n int) *sheets.Request {
	return &sheets.Request{
		AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
			Dimensions: &sheets.DimensionRange{
				SheetId:         ref.ID,
				Dimension:       "COLUMNS",
				StartIndex:      0,
				EndIndex:        int64(n),
				ForceSendFields: []string{"SheetId", "StartIndex"},
			},
		},
	}
}
