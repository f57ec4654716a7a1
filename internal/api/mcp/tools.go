package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"legalrag/internal/domain"
)

// SearchInput represents the input arguments for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"description of the situation or legal question"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of articles to return (default: 3)"`
}

// Article is one statute article in tool output.
type Article struct {
	Number string  `json:"number"`
	Title  string  `json:"title"`
	Body   string  `json:"body"`
	Source string  `json:"source,omitempty"`
	Score  float64 `json:"score,omitempty"`
}

// SearchOutput represents the output of the search tool.
type SearchOutput struct {
	Query    string    `json:"query"`
	Articles []Article `json:"articles"`
	Count    int       `json:"count"`
}

// AskInput represents the input arguments for the ask tool.
type AskInput struct {
	Query  string `json:"query" jsonschema:"the client's question"`
	Area   string `json:"area,omitempty" jsonschema:"optional topic hint, not used for retrieval"`
	Region string `json:"region,omitempty" jsonschema:"optional region hint, not used for retrieval"`
}

// AskOutput represents the output of the ask tool.
type AskOutput struct {
	Answer          string    `json:"answer"`
	NoApplicableLaw bool      `json:"no_applicable_law"`
	Sources         []Article `json:"sources"`
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	logger := s.config.Logger
	logger.Debug("MCP search request", "query", input.Query, "top_k", input.TopK)

	res, err := s.config.Service.Search(ctx, input.Query, input.TopK)
	if err != nil {
		logger.Error("MCP search failed", "error", err)
		return toolError("Search failed", err), SearchOutput{}, nil
	}
	out := SearchOutput{Query: input.Query, Articles: make([]Article, 0, len(res)), Count: len(res)}
	for _, r := range res {
		a := toArticle(r.Record)
		a.Score = r.Score
		out.Articles = append(out.Articles, a)
	}
	return nil, out, nil
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	logger := s.config.Logger
	fields := map[string]string{}
	if input.Area != "" {
		fields["area"] = input.Area
	}
	if input.Region != "" {
		fields["region"] = input.Region
	}

	ans, err := s.config.Service.Ask(ctx, input.Query, fields)
	out := AskOutput{Answer: ans.Text, NoApplicableLaw: ans.NoApplicableLaw, Sources: make([]Article, 0, len(ans.Sources))}
	for _, r := range ans.Sources {
		out.Sources = append(out.Sources, toArticle(r))
	}
	if err != nil {
		logger.Error("MCP ask failed", "error", err, "sources", len(out.Sources))
		res := toolError("Answer failed", err)
		if len(out.Sources) > 0 {
			res.Content = append(res.Content, &mcp.TextContent{Text: "Retrieved articles:\n" + renderArticles(out.Sources)})
		}
		return res, out, nil
	}
	return nil, out, nil
}

func toArticle(r domain.ArticleRecord) Article {
	return Article{Number: r.Number, Title: r.Title, Body: r.Body, Source: r.SourceLabel}
}

func renderArticles(as []Article) string {
	parts := make([]string, 0, len(as))
	for _, a := range as {
		parts = append(parts, fmt.Sprintf("- Art. %s (%s): %s", a.Number, a.Title, a.Body))
	}
	return strings.Join(parts, "\n\n")
}

func toolError(prefix string, err error) *mcp.CallToolResult {
	msg := fmt.Sprintf("%s: %v", prefix, err)
	if domain.Retryable(err) {
		msg += " (retryable)"
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
