package availability_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/availcheck/internal/availability"
	"github.com/teemow/availcheck/internal/report"
	"github.com/teemow/availcheck/internal/timeparse"
	"github.com/teemow/availcheck/internal/tools/common"
	"github.com/teemow/availcheck/internal/trigger"
)

// ToolName is the name the availability check is registered under.
const ToolName = "availability_check"

// Deps are the collaborators the availability tools run against.
type Deps struct {
	// Pipeline writes to the configured results sheet.
	Pipeline *trigger.Pipeline
	// Labels render dry-run reports. They should match the pipeline's writer.
	Labels report.Labels
	common.Instrumentation
}

// checkResponse is the JSON body of a successful tool call.
type checkResponse struct {
	RunID       string                   `json:"run_id"`
	WindowStart string                   `json:"window_start"`
	WindowEnd   string                   `json:"window_end"`
	Available   []string                 `json:"available"`
	Busy        []string                 `json:"busy"`
	Errors      []availability.UserError `json:"errors"`
	DryRun      bool                     `json:"dry_run"`
	Report      string                   `json:"report,omitempty"`
}

// RegisterAvailabilityTools registers the availability tools with the MCP server.
func RegisterAvailabilityTools(s *mcpserver.MCPServer, deps Deps) error {
	if deps.Pipeline == nil {
		return errors.New("availability tools require a pipeline")
	}

	checkTool := mcp.NewTool(ToolName,
		mcp.WithDescription("Check which configured users are free in a time window on one date and write the results sheet"),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Date in M/D/YYYY format, e.g. '9/25/2025'"),
		),
		mcp.WithString("start_time",
			mcp.Required(),
			mcp.Description("Window start in H:MM:SS AM|PM format, e.g. '2:00:00 PM'"),
		),
		mcp.WithString("end_time",
			mcp.Required(),
			mcp.Description("Window end in H:MM:SS AM|PM format, e.g. '3:00:00 PM'"),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Return the rendered report without writing the spreadsheet (default: false)"),
		),
	)

	s.AddTool(checkTool, common.InstrumentedToolHandler(ToolName, deps.Instrumentation,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAvailabilityCheck(ctx, request, deps)
		}))

	return nil
}

func handleAvailabilityCheck(ctx context.Context, request mcp.CallToolRequest, deps Deps) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	date, ok := common.StringArg(args, "date")
	if !ok {
		return mcp.NewToolResultError("date is required"), nil
	}
	start, ok := common.StringArg(args, "start_time")
	if !ok {
		return mcp.NewToolResultError("start_time is required"), nil
	}
	end, ok := common.StringArg(args, "end_time")
	if !ok {
		return mcp.NewToolResultError("end_time is required"), nil
	}
	dryRun := common.BoolArg(args, "dry_run", false)

	pipeline := deps.Pipeline
	var sink *report.MemorySink
	if dryRun {
		sink = report.NewMemorySink()
		pipeline = pipeline.WithWriter(report.NewWriter(sink, deps.Labels, deps.Logger, nil))
	}

	out, err := pipeline.Handle(ctx, pipeline.Submit(date, start, end))
	if err != nil {
		var inputErr *trigger.InputError
		if errors.As(err, &inputErr) || errors.Is(err, timeparse.ErrInvalidInput) {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid input: %v", err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Availability check failed: %v", err)), nil
	}

	resp := checkResponse{
		RunID:       out.RunID,
		WindowStart: out.Window.Start.Format(time.RFC3339),
		WindowEnd:   out.Window.End.Format(time.RFC3339),
		Available:   orEmpty(out.Result.Available),
		Busy:        orEmpty(out.Result.Busy),
		Errors:      out.Result.Errors,
		DryRun:      dryRun,
	}
	if resp.Errors == nil {
		resp.Errors = []availability.UserError{}
	}
	if sink != nil {
		resp.Report = strings.TrimRight(sink.Render(deps.Labels.SheetName), "\n")
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
