package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/availcheck/internal/availability"
	"github.com/teemow/availcheck/internal/instrumentation"
	"github.com/teemow/availcheck/internal/logging"
)

// Client wraps the Google Calendar free/busy service.
type Client struct {
	svc     *calendar.Service
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// NewClient creates a Calendar client. Pass option.WithHTTPClient with an
// authenticated client from the google package.
func NewClient(ctx context.Context, metrics *instrumentation.Metrics, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		svc:     svc,
		metrics: metrics,
		logger:  logging.WithService(logger, instrumentation.ServiceCalendar),
	}, nil
}

// QueryFreeBusy checks the given calendars over [timeMin, timeMax).
// Results follow the order of calendarIDs; calendars missing from the
// response are omitted.
func (c *Client) QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time, calendarIDs []string) ([]FreeBusyInfo, error) {
	items := make([]*calendar.FreeBusyRequestItem, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	query := &calendar.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
		Items:   items,
	}

	attrs := instrumentation.NewSpanAttributeBuilder()
	if len(calendarIDs) == 1 {
		attrs.WithUserHash(logging.AnonymizeEmail(calendarIDs[0]))
	}
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationFreeBusy, attrs.Build()...)
	defer span.End()

	start := time.Now()
	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	c.record(ctx, err, time.Since(start))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	infos := make([]FreeBusyInfo, 0, len(calendarIDs))
	for _, id := range calendarIDs {
		cal, ok := result.Calendars[id]
		if !ok {
			continue
		}
		info, err := toFreeBusyInfo(id, &cal)
		if err != nil {
			instrumentation.SetSpanError(span, err)
			return nil, err
		}
		infos = append(infos, info)
	}

	instrumentation.SetSpanSuccess(span)
	return infos, nil
}

// QueryUser implements availability.FreeBusySource with one request per user.
func (c *Client) QueryUser(ctx context.Context, user string, w availability.Window) (availability.UserFreeBusy, error) {
	infos, err := c.QueryFreeBusy(ctx, w.Start, w.End, []string{user})
	if err != nil {
		return availability.UserFreeBusy{}, err
	}
	if len(infos) == 0 {
		return availability.UserFreeBusy{}, fmt.Errorf("no free/busy data returned for requested calendar")
	}

	c.logger.Debug("free/busy answer",
		logging.UserHash(user),
		slog.Int("busy_periods", len(infos[0].Busy)),
		slog.Int("errors", len(infos[0].Errors)))

	return toUserFreeBusy(infos[0]), nil
}

func (c *Client) record(ctx context.Context, err error, d time.Duration) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, instrumentation.OperationFreeBusy, status, d)
}
