// Package llm selects the configured completion service.
package llm

import (
	"fmt"

	"legalrag/internal/config"
	"legalrag/internal/domain"
	"legalrag/internal/llm/ollama"
	"legalrag/internal/llm/openai"
)

// New builds the completer named by cfg.Type.
func New(cfg config.CompleterConfig) (domain.Completer, error) {
	switch cfg.Type {
	case "ollama", "":
		oc := cfg.Ollama
		if oc == nil {
			oc = &config.OllamaConfig{}
		}
		return ollama.NewCompleter(ollama.Config{BaseURL: oc.BaseURL, Model: oc.Model, Timeout: oc.Timeout()}), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai completer config missing")
		}
		c, err := openai.NewCompleter(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Timeout:   cfg.OpenAI.Timeout(),
		})
		if err != nil {
			return nil, fmt.Errorf("openai completer init failed: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown completer: %s", cfg.Type)
	}
}
