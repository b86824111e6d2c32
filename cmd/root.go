package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the availcheck application
var rootCmd = &cobra.Command{
	Use:   "availcheck",
	Short: "Checks calendar availability for a time window and reports it to a spreadsheet",
	Long: `availcheck checks the Google Calendar free/busy status of a configured list
of users for one time window and writes the result into the "Results" sheet
of a Google spreadsheet.

It can run as:
  - A one-shot CLI check (check)
  - A webhook receiving form submissions (serve)
  - An MCP (Model Context Protocol) server for AI assistants (mcp)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// Persistent flags shared by all subcommands.
var (
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "availcheck version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the YAML config file (default: ./availcheck.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides config)")

	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
