package server

import "context"

// ToolServer defines the interface for the MCP server that answers
// summarization and run-history tool calls from MCP clients.
type ToolServer interface {
	// Initialize registers the tools.
	Initialize() error

	// Start serves tool calls until the transport closes.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the MCP server.
	Stop() error
}
