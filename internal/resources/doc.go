// Package resources provides MCP resources for availcheck.
//
// Resources are read-only data sources that MCP clients can fetch. The
// settings resource exposes the user list, time zone, locale, target sheet
// and form question titles so a client can phrase a check correctly.
package resources
