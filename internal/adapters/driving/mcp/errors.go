// Package mcp provides an MCP (Model Context Protocol) server adapter for didakt.
// It lets AI assistants validate templates and enrich their resources
// through the same services the CLI uses.
package mcp

import "errors"

// ErrMissingValidator is returned when the template validator is not provided.
var ErrMissingValidator = errors.New("mcp: template validator is required")
