// Package cmd implements the command-line interface for calbook.
//
// This package provides the following commands:
//   - serve: Start the MCP server (stdio or streamable-http with the HTTP API)
//   - availability: List free slots in a time window
//   - events: List events in a time window
//   - book: Create an event
//   - auth: Store a Google OAuth token for an account
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Every command resolves its settings from flags, CALBOOK_* environment
// variables, an optional calbook.yaml and built-in defaults, in that order.
package cmd
