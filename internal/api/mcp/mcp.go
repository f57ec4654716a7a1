// Package mcp exposes the legal service as MCP tools.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"legalrag/internal/domain"
)

// Version is reported in the MCP implementation info.
var Version = "dev"

const (
	searchToolName    = "search_articles"
	searchDescription = "Search the Bolivian Penal Code for the articles most relevant to a described situation. Returns article number, title and full text."
	askToolName       = "ask_legal_question"
	askDescription    = "Answer a criminal-law question grounded only in retrieved Penal Code articles. Returns the answer and the cited articles."
)

// Config wires the MCP server.
type Config struct {
	Service domain.LegalService
	Logger  *slog.Logger
}

// Server wraps the MCP server and its streamable HTTP handler.
type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates an MCP server with the search and ask tools.
func NewServer(c Config) (*Server, error) {
	if c.Service == nil {
		return nil, errors.New("legal service is required")
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{config: c}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "legalrag",
			Version: Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        searchToolName,
		Description: searchDescription,
	}, s.handleSearch)
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        askToolName,
		Description: askDescription,
	}, s.handleAsk)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)
	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// RunStdio serves MCP over stdin/stdout until ctx is done.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying server, for in-memory transports in tests.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}
