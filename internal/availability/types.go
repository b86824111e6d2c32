package availability

import (
	"context"
	"time"
)

// Window is the half-open time interval [Start, End) being checked.
type Window struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether Start is strictly before End.
// The checker does not require it; callers decide what to do with an empty window.
func (w Window) Valid() bool {
	return w.Start.Before(w.End)
}

// Interval is a busy period reported by the calendar service.
type Interval struct {
	Start time.Time
	End   time.Time
}

// UserFreeBusy is the free/busy answer for a single user.
type UserFreeBusy struct {
	Busy   []Interval
	Errors []string // Service-level error reasons, e.g. "notFound"
}

// FreeBusySource queries the external calendar service for one user.
type FreeBusySource interface {
	QueryUser(ctx context.Context, user string, w Window) (UserFreeBusy, error)
}

// UserError records why a user could not be classified.
type UserError struct {
	User   string `json:"user"`
	Reason string `json:"reason"`
}

// Result is the three-way classification of a batch of users.
// Every input user appears in exactly one slice, in input order.
type Result struct {
	Available []string    `json:"available"`
	Busy      []string    `json:"busy"`
	Errors    []UserError `json:"errors"`
}

// Total returns the number of classified users.
func (r Result) Total() int {
	return len(r.Available) + len(r.Busy) + len(r.Errors)
}

// Overlaps reports whether a busy interval intersects the window.
// Both are half-open, so intervals that only touch a boundary do not overlap.
func Overlaps(b Interval, w Window) bool {
	return b.Start.Before(w.End) && b.End.After(w.Start)
}
