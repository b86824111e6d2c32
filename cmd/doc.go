// Package cmd implements the command-line interface for availcheck.
//
// This package provides the following commands:
//   - check: Run one availability check from flags
//   - serve: Start the form submission webhook with health and metrics endpoints
//   - mcp: Start an MCP server on stdio exposing the availability_check tool
//   - auth: Store an OAuth token for a Google account
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// Every command loads configuration from an optional .env file, an optional
// YAML config file and AVAILCHECK_* environment variables, in that order.
package cmd
