// Package availability classifies users as available, busy or errored for a
// requested time window.
//
// The Checker asks a FreeBusySource about each user independently and folds
// the answers into a Result. A user whose query fails, times out or reports a
// service error ends up in Result.Errors; it never aborts the batch.
//
// Example usage:
//
//	checker := availability.NewChecker(calendarClient,
//	    availability.WithConcurrency(4),
//	    availability.WithQueryTimeout(10*time.Second))
//	result := checker.Check(ctx, []string{"a@example.com"}, window)
package availability
