package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/availcheck/internal/logging"
)

const (
	// DefaultQueryTimeout bounds a single user's free/busy query.
	DefaultQueryTimeout = 30 * time.Second

	// DefaultConcurrency keeps queries sequential.
	DefaultConcurrency = 1
)

// Status is the classification outcome for a single user.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusError     Status = "error"
)

// Recorder receives one observation per classified user. Implementations
// must not record the raw user identifier.
type Recorder interface {
	RecordAvailabilityCheckWithUser(ctx context.Context, status, user string, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordAvailabilityCheckWithUser(context.Context, string, string, time.Duration) {}

// Option configures a Checker.
type Option func(*Checker)

// WithConcurrency sets how many user queries may be in flight at once.
// Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(c *Checker) {
		if n >= 1 {
			c.concurrency = n
		}
	}
}

// WithQueryTimeout sets the per-user query timeout. Values <= 0 are ignored.
func WithQueryTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.queryTimeout = d
		}
	}
}

// WithLogger sets the logger used for per-user debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Checker) {
		if r != nil {
			c.recorder = r
		}
	}
}

// Checker classifies users as available, busy or errored for a window.
type Checker struct {
	source       FreeBusySource
	concurrency  int
	queryTimeout time.Duration
	logger       *slog.Logger
	recorder     Recorder
}

// NewChecker creates a Checker backed by the given free/busy source.
func NewChecker(source FreeBusySource, opts ...Option) *Checker {
	c := &Checker{
		source:       source,
		concurrency:  DefaultConcurrency,
		queryTimeout: DefaultQueryTimeout,
		logger:       slog.Default(),
		recorder:     noopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type outcome struct {
	status Status
	reason string
}

// Check queries every user and folds the outcomes into a Result.
// A failure for one user never affects the others, and the order of each
// output slice follows the order of users.
func (c *Checker) Check(ctx context.Context, users []string, w Window) Result {
	outcomes := make([]outcome, len(users))

	g := new(errgroup.Group)
	g.SetLimit(c.concurrency)
	for i, user := range users {
		g.Go(func() error {
			outcomes[i] = c.checkUser(ctx, user, w)
			return nil
		})
	}
	_ = g.Wait()

	return fold(users, outcomes)
}

func (c *Checker) checkUser(ctx context.Context, user string, w Window) (out outcome) {
	start := time.Now()
	logger := c.logger.With(logging.UserHash(user))

	defer func() {
		if r := recover(); r != nil {
			out = outcome{status: StatusError, reason: fmt.Sprintf("panic during free/busy query: %v", r)}
		}
		logger.Debug("user classified",
			slog.String("status", string(out.status)),
			slog.Duration(logging.KeyDuration, time.Since(start)))
		c.recorder.RecordAvailabilityCheckWithUser(ctx, string(out.status), user, time.Since(start))
	}()

	if err := ctx.Err(); err != nil {
		return outcome{status: StatusError, reason: err.Error()}
	}

	queryCtx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	fb, err := c.source.QueryUser(queryCtx, user, w)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			reason = fmt.Sprintf("free/busy query timed out after %s", c.queryTimeout)
		}
		logger.Warn("free/busy query failed", logging.Err(err))
		return outcome{status: StatusError, reason: reason}
	}

	status, reason := Classify(fb, w)
	return outcome{status: status, reason: reason}
}

// Classify decides a single user's status from a free/busy answer.
// Service errors win over busy intervals; the first overlapping interval is enough.
func Classify(fb UserFreeBusy, w Window) (Status, string) {
	if len(fb.Errors) > 0 {
		return StatusError, fb.Errors[0]
	}
	for _, b := range fb.Busy {
		if Overlaps(b, w) {
			return StatusBusy, ""
		}
	}
	return StatusAvailable, ""
}

func fold(users []string, outcomes []outcome) Result {
	result := Result{
		Available: []string{},
		Busy:      []string{},
		Errors:    []UserError{},
	}
	for i, user := range users {
		switch outcomes[i].status {
		case StatusAvailable:
			result.Available = append(result.Available, user)
		case StatusBusy:
			result.Busy = append(result.Busy, user)
		default:
			result.Errors = append(result.Errors, UserError{User: user, Reason: outcomes[i].reason})
		}
	}
	return result
}
