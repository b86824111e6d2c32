package logging

import "log/slog"

// Attribute keys shared by every component so log queries stay stable.
const (
	KeyOperation = "operation"
	KeyService   = "service"
	KeyAccount   = "account"
	KeyUserHash  = "user_hash"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
	KeyRunID     = "run_id"
)

// Status values. instrumentation imports this package, so they are
// declared here rather than shared.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation scopes logger to one operation.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(KeyOperation, operation)
}

// WithService scopes logger to one Google service (calendar, sheets).
func WithService(logger *slog.Logger, service string) *slog.Logger {
	return logger.With(KeyService, service)
}

// WithRunID tags every line of one pipeline run.
func WithRunID(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With(KeyRunID, runID)
}

func Account(account string) slog.Attr { return slog.String(KeyAccount, account) }

func Tool(tool string) slog.Attr { return slog.String(KeyTool, tool) }

func Status(status string) slog.Attr { return slog.String(KeyStatus, status) }

// Err is safe to call with a nil error: handlers drop the zero Attr it
// returns.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
