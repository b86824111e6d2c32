// Package logging provides structured logging utilities for availcheck.
//
// It builds on the standard library's slog package and keeps attribute
// naming consistent across the calendar, sheets and trigger code paths.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "calendar.freebusy")
//	logger.Info("query finished",
//	    logging.Status(logging.StatusSuccess))
//
// Calendar user identifiers are email addresses, so never log them raw:
//
//	logger.Debug("user classified", logging.UserHash(email))
//
// # Security Considerations
//
//   - User emails are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
package logging
