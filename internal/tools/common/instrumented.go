package common

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/availcheck/internal/instrumentation"
	"github.com/teemow/availcheck/internal/logging"
)

// ToolHandler is the signature mcp-go expects for tool callbacks.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Instrumentation bundles what a tool needs to report on itself. Both
// fields may be nil.
type Instrumentation struct {
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// InstrumentedToolHandler wraps a tool handler with a span, metrics and a
// log line per invocation. A result with IsError set counts as an error.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", inst, handler))
func InstrumentedToolHandler(toolName string, inst Instrumentation, handler ToolHandler) ToolHandler {
	logger := inst.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(logging.Tool(toolName))

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
			logger.Error("tool invocation failed", logging.Err(err))
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			logger.Warn("tool returned an error result")
		default:
			instrumentation.SetSpanSuccess(span)
		}

		inst.Metrics.RecordToolInvocation(ctx, toolName, status, duration)
		logger.Debug("tool invoked",
			logging.Status(status),
			slog.Duration(logging.KeyDuration, duration))

		return result, err
	}
}

// StringArg returns the trimmed string argument name. Missing, blank or
// non-string values report false.
func StringArg(args map[string]any, name string) (string, bool) {
	v, ok := args[name].(string)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// BoolArg returns the boolean argument name, or def when it is absent or not
// a boolean.
func BoolArg(args map[string]any, name string, def bool) bool {
	if v, ok := args[name].(bool); ok {
		return v
	}
	return def
}
