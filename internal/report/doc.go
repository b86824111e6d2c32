// Package report renders an availability result into a formatted table and
// writes it to a Sink, normally a Google Sheets tab.
//
// Every write clears the target sheet first, so repeated runs with the same
// input produce the same content. The layout is:
//
//	Availability check: 9/25/2025, 2:00:00 PM – 9/25/2025, 3:00:00 PM
//
//	STATUS        USER       NOTE
//	✅ Available  a@x.com
//	❌ Busy       b@x.com
//	⚠️ Error      c@x.com    notFound
//
//	TOTALS
//	Checked: 3, Available: 1, Busy: 1, Errors: 1
package report
