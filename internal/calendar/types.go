package calendar

import (
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/availcheck/internal/availability"
)

// TimeRange is a busy period reported for a calendar.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// FreeBusyInfo is the free/busy answer for one calendar.
type FreeBusyInfo struct {
	Calendar string
	Busy     []TimeRange
	Errors   []string // Error reasons reported by the service, e.g. "notFound"
}

// toFreeBusyInfo converts an API calendar entry. Busy timestamps that do not
// parse as RFC 3339 are an error rather than a zero time.
func toFreeBusyInfo(id string, cal *calendar.FreeBusyCalendar) (FreeBusyInfo, error) {
	info := FreeBusyInfo{Calendar: id}
	if cal == nil {
		return info, nil
	}

	for i, busy := range cal.Busy {
		if busy == nil {
			continue
		}
		start, err := time.Parse(time.RFC3339, busy.Start)
		if err != nil {
			return info, fmt.Errorf("busy period %d of %s has invalid start %q: %w", i, id, busy.Start, err)
		}
		end, err := time.Parse(time.RFC3339, busy.End)
		if err != nil {
			return info, fmt.Errorf("busy period %d of %s has invalid end %q: %w", i, id, busy.End, err)
		}
		info.Busy = append(info.Busy, TimeRange{Start: start, End: end})
	}

	for _, e := range cal.Errors {
		if e == nil {
			continue
		}
		reason := e.Reason
		if reason == "" {
			reason = e.Domain
		}
		info.Errors = append(info.Errors, reason)
	}

	return info, nil
}

// toUserFreeBusy maps a calendar answer onto the checker's view of a user.
func toUserFreeBusy(info FreeBusyInfo) availability.UserFreeBusy {
	fb := availability.UserFreeBusy{Errors: info.Errors}
	for _, b := range info.Busy {
		fb.Busy = append(fb.Busy, availability.Interval{Start: b.Start, End: b.End})
	}
	return fb
}
