package cmd

import (
	"context"
	"fmt"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/availcheck/internal/instrumentation"
	"github.com/teemow/availcheck/internal/resources"
	"github.com/teemow/availcheck/internal/tools/availability_tools"
	"github.com/teemow/availcheck/internal/tools/common"
)

func newMCPCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server on stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout.

The server exposes the availability_check tool and the availcheck://settings
resource. Logs are written to stderr so stdout stays reserved for the protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dryRun {
				cfg.DryRun = true
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, cfg, instrumentation.SourceMCP, os.Stderr)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			mcpSrv, err := newMCPServer(a)
			if err != nil {
				return err
			}
			return runStdioServer(mcpSrv)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Never write the spreadsheet; tool calls return the rendered report")

	return cmd
}

// newMCPServer builds the MCP server with all tools and resources registered.
func newMCPServer(a *app) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer(serviceName, version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)

	if err := availability_tools.RegisterAvailabilityTools(mcpSrv, availability_tools.Deps{
		Pipeline: a.pipeline,
		Labels:   a.labels,
		Instrumentation: common.Instrumentation{
			Metrics: a.provider.Metrics(),
			Logger:  a.logger,
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to register availability tools: %w", err)
	}

	if err := resources.RegisterSettingsResources(mcpSrv, settingsFor(a)); err != nil {
		return nil, fmt.Errorf("failed to register resources: %w", err)
	}

	return mcpSrv, nil
}

func settingsFor(a *app) resources.Settings {
	labels := a.pipeline.FormLabels()
	return resources.Settings{
		Users:         a.cfg.Users,
		TimeZone:      a.cfg.TimeZone,
		Locale:        a.labels.Locale,
		SpreadsheetID: a.cfg.SpreadsheetID,
		SheetName:     a.labels.SheetName,
		FormLabels: resources.FormLabels{
			Date:      labels.Date,
			StartTime: labels.StartTime,
			EndTime:   labels.EndTime,
		},
		Concurrency: a.cfg.Concurrency,
		DryRun:      a.cfg.DryRun,
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
