package trigger

import (
	"context"
	"fmt"
	"strings"

	"github.com/teemow/availcheck/internal/availability"
)

// Submission is a form response keyed by question title. Only the first
// value of each required question is read.
type Submission map[string][]string

// First returns the first non-blank value submitted for label.
func (s Submission) First(label string) (string, bool) {
	values, ok := s[label]
	if !ok || len(values) == 0 {
		return "", false
	}
	v := strings.TrimSpace(values[0])
	return v, v != ""
}

// FormLabels are the question titles the pipeline reads.
type FormLabels struct {
	Date      string
	StartTime string
	EndTime   string
}

// DefaultFormLabels returns the question titles for a locale. Unknown
// locales get the English titles.
func DefaultFormLabels(locale string) FormLabels {
	if strings.EqualFold(locale, "ru") {
		return FormLabels{
			Date:      "Дата",
			StartTime: "Время начала",
			EndTime:   "Время окончания",
		}
	}
	return FormLabels{
		Date:      "Date",
		StartTime: "Start Time",
		EndTime:   "End Time",
	}
}

// Merge fills blank titles from defaults.
func (l FormLabels) Merge(defaults FormLabels) FormLabels {
	if l.Date == "" {
		l.Date = defaults.Date
	}
	if l.StartTime == "" {
		l.StartTime = defaults.StartTime
	}
	if l.EndTime == "" {
		l.EndTime = defaults.EndTime
	}
	return l
}

// InputError reports a required form field that is missing or empty.
type InputError struct {
	Field string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("missing required form field %q", e.Field)
}

// Outcome is the result of one handled submission.
type Outcome struct {
	RunID  string              `json:"run_id"`
	Window availability.Window `json:"-"`
	Result availability.Result `json:"result"`
}

type requesterKey struct{}

// WithRequester attaches the submitter's identity to ctx for audit logging.
func WithRequester(ctx context.Context, requester string) context.Context {
	return context.WithValue(ctx, requesterKey{}, requester)
}

// RequesterFromContext returns the identity set by WithRequester.
func RequesterFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requesterKey{}).(string)
	return v
}
