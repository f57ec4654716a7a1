// Package embedding selects the configured text embedder.
package embedding

import (
	"fmt"

	"legalrag/internal/config"
	"legalrag/internal/domain"
	"legalrag/internal/embedding/hashing"
	"legalrag/internal/embedding/ollama"
	"legalrag/internal/embedding/openai"
)

// New builds the embedder named by cfg.Type.
func New(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "hashing", "":
		dim := 0
		if cfg.Hashing != nil {
			dim = cfg.Hashing.Dimension
		}
		return hashing.NewEmbedder(dim), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Timeout:   cfg.OpenAI.Timeout(),
			BatchSize: cfg.OpenAI.BatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	case "ollama":
		if cfg.Ollama == nil {
			return nil, fmt.Errorf("ollama embedder config missing")
		}
		return ollama.NewEmbedder(ollama.Config{
			BaseURL: cfg.Ollama.BaseURL,
			Model:   cfg.Ollama.Model,
			Timeout: cfg.Ollama.Timeout(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}
