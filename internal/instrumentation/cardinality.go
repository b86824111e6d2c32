package instrumentation

import "strings"

// ExtractUserDomain reduces a calendar ID to its lowercased domain so
// per-user labels stay bounded by organisations rather than people. Shared
// calendars keep their full host, e.g. "group.calendar.google.com".
// Anything that is not local@domain maps to "unknown".
func ExtractUserDomain(email string) string {
	_, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return "unknown"
	}
	return strings.ToLower(domain)
}

// Google API operation names used as metric labels and span names.
const (
	OperationFreeBusy    = "freebusy"
	OperationGet         = "get"
	OperationBatchUpdate = "batch_update"
)
