// Package calendar queries Google Calendar free/busy information.
//
// Client implements availability.FreeBusySource, issuing one free/busy
// request per user so that a failure for one calendar never affects another.
//
//	client, err := calendar.NewClient(ctx, metrics, logger, option.WithHTTPClient(httpClient))
//	if err != nil {
//	    return err
//	}
//	checker := availability.NewChecker(client)
package calendar
