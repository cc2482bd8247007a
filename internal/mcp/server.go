// ABOUTME: MCP server implementation for ics2disc
// ABOUTME: Provides calendar listing, topic preview, and sync tools for AI agents

package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/harper/ics2disc/internal/config"
)

// Server wraps the MCP server with ics2disc-specific context
type Server struct {
	mcpServer *server.MCPServer
	cfg       *config.Config
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, version string) *Server {
	s := &Server{cfg: cfg}

	s.mcpServer = server.NewMCPServer(
		"ics2disc",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
