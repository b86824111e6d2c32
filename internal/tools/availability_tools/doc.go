// Package availability_tools provides MCP (Model Context Protocol) tools for
// running availability checks.
//
// The availability_check tool takes the same date, start time and end time
// answers as the form, runs the check against the configured users and
// writes the results sheet. With dry_run it returns the rendered report
// instead of writing it.
package availability_tools
