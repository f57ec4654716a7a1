package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"legalrag/internal/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string                 `json:"error"`
	Kind      string                 `json:"kind,omitempty"`
	Retryable bool                   `json:"retryable,omitempty"`
	Sources   []domain.ArticleRecord `json:"sources,omitempty"`
}

// SearchResponse is returned by GET /v1/search.
type SearchResponse struct {
	Query   string                 `json:"query"`
	Results domain.RetrievalResult `json:"results"`
	Count   int                    `json:"count"`
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Query  string            `json:"query"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleSearch handles GET /v1/search.
// Query parameters:
//   - query (required): the question text
//   - top_k (optional, default 3): number of articles to return
func (s *Server) handleSearch(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query parameter is required"})
	}

	topK := 0
	if topKStr := c.Query("top_k"); topKStr != "" {
		parsed, err := strconv.Atoi(topKStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "top_k must be a positive integer"})
		}
		topK = parsed
	}

	res, err := s.service.Search(c.UserContext(), query, topK)
	if err != nil {
		return s.fail(c, err, nil)
	}
	if res == nil {
		res = domain.RetrievalResult{}
	}
	return c.JSON(SearchResponse{Query: query, Results: res, Count: len(res)})
}

// handleAsk handles POST /v1/ask.
func (s *Server) handleAsk(c *fiber.Ctx) error {
	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query is required"})
	}

	ans, err := s.service.Ask(c.UserContext(), req.Query, req.Fields)
	if err != nil {
		return s.fail(c, err, ans.Sources)
	}
	if ans.Sources == nil {
		ans.Sources = []domain.ArticleRecord{}
	}
	return c.JSON(ans)
}

func (s *Server) fail(c *fiber.Ctx, err error, sources []domain.ArticleRecord) error {
	kind := domain.KindOf(err)
	status := fiber.StatusInternalServerError
	switch kind {
	case domain.KindInvalidInput:
		status = fiber.StatusBadRequest
	case domain.KindEmbeddingService, domain.KindCompletionService:
		status = fiber.StatusServiceUnavailable
	}
	s.logger.Error("request failed", "path", c.Path(), "kind", kind.String(), "error", err)
	return c.Status(status).JSON(ErrorResponse{
		Error:     err.Error(),
		Kind:      kind.String(),
		Retryable: domain.Retryable(err),
		Sources:   sources,
	})
}
