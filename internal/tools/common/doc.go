// Package common provides shared helpers for the MCP tool packages: argument
// parsing and the instrumentation wrapper every tool handler runs under.
package common
