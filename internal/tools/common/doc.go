// Package common provides shared helpers for MCP tool implementations:
// the instrumentation wrapper every tool is registered through and typed
// accessors for tool arguments.
package common
