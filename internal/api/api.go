// Package api exposes the legal service over HTTP with fiber.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"legalrag/internal/domain"
)

// Config holds the API server settings.
type Config struct {
	ListenAddr string

	// MCPHandler, when set, is mounted at /mcp.
	MCPHandler http.Handler
}

// Server is the HTTP API server for search and question answering.
type Server struct {
	config  Config
	service domain.LegalService
	logger  *slog.Logger
	app     *fiber.App
}

// NewServer creates a new API server around service.
func NewServer(config Config, service domain.LegalService, logger *slog.Logger) (*Server, error) {
	if service == nil {
		return nil, errors.New("legal service is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		service: service,
		logger:  logger,
		app:     app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/search", s.handleSearch)
	app.Post("/v1/ask", s.handleAsk)
	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s, nil
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
