// Package sheets implements report.Sink on top of the Google Sheets API.
//
// Every mutation is a single batchUpdate request, so a report write costs one
// spreadsheet lookup (plus an addSheet on first use) and three updates: clear,
// write rows, resize columns.
package sheets
