// Package timeparse converts the form's locale-formatted date (M/D/YYYY) and
// 12-hour clock strings (H:MM:SS AM|PM) into an availability window in an
// explicit time zone.
package timeparse
