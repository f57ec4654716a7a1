// Package openai provides a completion client for OpenAI-compatible chat APIs.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"legalrag/internal/domain"
)

// Ensure Completer implements the interface.
var _ domain.Completer = (*Completer)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o-mini"
	DefaultAPIKeyEnv = "OPENAI_API_KEY"
	DefaultTimeout   = 120 * time.Second
)

// Config holds configuration for the OpenAI completer.
type Config struct {
	// BaseURL can point at Azure OpenAI or any compatible API.
	BaseURL string

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string

	Model   string
	Timeout time.Duration
}

// Completer answers prompts with /chat/completions.
type Completer struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	Temperature float64             `json:"temperature"`
}

type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewCompleter creates a completer; the API key must be present in the environment.
func NewCompleter(cfg Config) (*Completer, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = DefaultAPIKeyEnv
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Completer{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  key,
		model:   cfg.Model,
	}, nil
}

// Name identifies provider and model.
func (c *Completer) Name() string { return "openai:" + c.model }

// Complete sends prompt as a single user message.
func (c *Completer) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	text, err := c.complete(ctx, prompt, temperature)
	if err != nil {
		return "", domain.E(domain.KindCompletionService, "openai complete", "", err)
	}
	return text, nil
}

func (c *Completer) complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       c.model,
		Messages:    []chatCompletionMsg{{Role: "user", Content: prompt}},
		Temperature: temperature,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var out chatCompletionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("openai error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("openai error (status %d): %s", resp.StatusCode, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai error (status %d)", resp.StatusCode)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return out.Choices[0].Message.Content, nil
}
