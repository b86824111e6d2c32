package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// SettingsURI is the URI of the run settings resource.
const SettingsURI = "availcheck://settings"

// Settings describes how availability checks are run. It is what an MCP
// client needs to know before calling the check tool.
type Settings struct {
	Users         []string   `json:"users"`
	TimeZone      string     `json:"time_zone"`
	Locale        string     `json:"locale"`
	SpreadsheetID string     `json:"spreadsheet_id,omitempty"`
	SheetName     string     `json:"sheet_name"`
	FormLabels    FormLabels `json:"form_labels"`
	Concurrency   int        `json:"concurrency"`
	DryRun        bool       `json:"dry_run"`
}

// FormLabels are the form question titles the webhook reads.
type FormLabels struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// RegisterSettingsResources registers the read-only settings resource.
func RegisterSettingsResources(s *mcpserver.MCPServer, settings Settings) error {
	if s == nil {
		return fmt.Errorf("mcp server is nil")
	}

	settingsResource := mcp.NewResource(
		SettingsURI,
		"Availability Check Settings",
		mcp.WithResourceDescription("Users, time zone, locale and target sheet used by availability checks"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(settingsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSettings(ctx, request, settings)
	})

	return nil
}

func handleSettings(_ context.Context, request mcp.ReadResourceRequest, settings Settings) ([]mcp.ResourceContents, error) {
	if settings.Users == nil {
		settings.Users = []string{}
	}

	jsonData, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
