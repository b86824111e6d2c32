package google

import (
	calendar "google.golang.org/api/calendar/v3"
	sheets "google.golang.org/api/sheets/v4"
)

// Scopes are the OAuth scopes availcheck requests: read-only free/busy
// access to the checked calendars and write access to the report spreadsheet.
var Scopes = []string{
	calendar.CalendarReadonlyScope,
	sheets.SpreadsheetsScope,
}
