package timeparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teemow/availcheck/internal/availability"
)

// Field names used in ParseError.
const (
	FieldDate      = "date"
	FieldStartTime = "start_time"
	FieldEndTime   = "end_time"
)

// ErrInvalidInput is matched by every ParseError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// ParseError reports a malformed date or time string.
type ParseError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidInput) true for any ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ParseDate parses a date in M/D/YYYY form.
func ParseDate(s string) (year int, month time.Month, day int, err error) {
	fail := func(reason string) (int, time.Month, int, error) {
		return 0, 0, 0, &ParseError{Field: FieldDate, Value: s, Reason: reason}
	}

	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return fail("expected M/D/YYYY")
	}

	nums, ok := atoiAll(parts)
	if !ok {
		return fail("non-numeric component")
	}
	m, d, y := nums[0], nums[1], nums[2]

	if m < 1 || m > 12 {
		return fail("month out of range")
	}
	if y < 1 || y > 9999 {
		return fail("year out of range")
	}
	// time.Date normalizes overflow, so a round trip rejects dates like 2/30.
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if d < 1 || t.Day() != d || t.Month() != time.Month(m) {
		return fail("day out of range")
	}

	return y, time.Month(m), d, nil
}

// ParseClock parses a 12-hour clock string in H:MM:SS AM|PM form and returns
// the 24-hour components. 12 AM is midnight and 12 PM is noon.
func ParseClock(s string) (hour, minute, second int, err error) {
	return parseClock(FieldStartTime, s)
}

func parseClock(field, s string) (int, int, int, error) {
	fail := func(reason string) (int, int, int, error) {
		return 0, 0, 0, &ParseError{Field: field, Value: s, Reason: reason}
	}

	tokens := strings.Fields(s)
	if len(tokens) != 2 {
		return fail("expected H:MM:SS AM|PM")
	}

	parts := strings.Split(tokens[0], ":")
	if len(parts) != 3 {
		return fail("expected H:MM:SS")
	}
	nums, ok := atoiAll(parts)
	if !ok {
		return fail("non-numeric component")
	}
	h, m, sec := nums[0], nums[1], nums[2]

	if h < 1 || h > 12 {
		return fail("hour out of range")
	}
	if m < 0 || m > 59 {
		return fail("minute out of range")
	}
	if sec < 0 || sec > 59 {
		return fail("second out of range")
	}

	switch strings.ToUpper(tokens[1]) {
	case "AM":
		if h == 12 {
			h = 0
		}
	case "PM":
		if h < 12 {
			h += 12
		}
	default:
		return fail("expected AM or PM")
	}

	return h, m, sec, nil
}

// ParseWindow combines a date and two clock strings into a window on that
// date in loc. A nil loc means time.Local.
func ParseWindow(date, start, end string, loc *time.Location) (availability.Window, error) {
	if loc == nil {
		loc = time.Local
	}

	y, mo, d, err := ParseDate(date)
	if err != nil {
		return availability.Window{}, err
	}
	h1, m1, s1, err := parseClock(FieldStartTime, start)
	if err != nil {
		return availability.Window{}, err
	}
	h2, m2, s2, err := parseClock(FieldEndTime, end)
	if err != nil {
		return availability.Window{}, err
	}

	return availability.Window{
		Start: time.Date(y, mo, d, h1, m1, s1, 0, loc),
		End:   time.Date(y, mo, d, h2, m2, s2, 0, loc),
	}, nil
}

func atoiAll(parts []string) ([]int, bool) {
	nums := make([]int, len(parts))
	for i, p := range parts {
		if !allDigits(p) {
			return nil, false
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		nums[i] = n
	}
	return nums, true
}

// allDigits reports whether s is non-empty and only ASCII digits. Signs are
// rejected even though strconv accepts them.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
