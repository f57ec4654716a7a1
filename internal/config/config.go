package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// OpenAIConfig holds configuration for OpenAI-compatible endpoints.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size,omitempty"`
}

// Timeout converts TimeoutSecs to a duration.
func (c *OpenAIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// OllamaConfig holds configuration for a local Ollama server.
type OllamaConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Timeout converts TimeoutSecs to a duration.
func (c *OllamaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// HashingConfig configures the offline hashing embedder.
type HashingConfig struct {
	Dimension int `yaml:"dimension"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type    string         `yaml:"type"`
	OpenAI  *OpenAIConfig  `yaml:"openai,omitempty"`
	Ollama  *OllamaConfig  `yaml:"ollama,omitempty"`
	Hashing *HashingConfig `yaml:"hashing,omitempty"`
}

// CompleterConfig selects and configures the language model used for answers.
type CompleterConfig struct {
	Type        string        `yaml:"type"`
	Temperature *float64      `yaml:"temperature,omitempty"`
	OpenAI      *OpenAIConfig `yaml:"openai,omitempty"`
	Ollama      *OllamaConfig `yaml:"ollama,omitempty"`
}

// CorpusConfig points at the statute text file.
type CorpusConfig struct {
	Path        string `yaml:"path"`
	SourceLabel string `yaml:"source_label"`
}

// IndexConfig controls where the index lives and how it is built and queried.
type IndexConfig struct {
	Dir               string  `yaml:"dir"`
	TopK              int     `yaml:"top_k"`
	Concurrency       int     `yaml:"concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BatchSize         int     `yaml:"batch_size"`
}

// EnricherConfig holds the embedding text template.
type EnricherConfig struct {
	Template string `yaml:"template"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Debug  bool `yaml:"debug"`
	JSON   bool `yaml:"json"`
	Pretty bool `yaml:"pretty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Index     IndexConfig     `yaml:"index"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Completer CompleterConfig `yaml:"completer"`
	Enricher  EnricherConfig  `yaml:"enricher"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// LoadEnv loads variables from .env files if present. Existing variables win.
func LoadEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, cfg.Validate()
}

// LoadDefault tries ./config.yaml first, then ~/.config/legalrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/legalrag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects provider names the binary does not know.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "hashing", "openai", "ollama":
	default:
		return fmt.Errorf("unknown embedder: %s", c.Embedder.Type)
	}
	switch c.Completer.Type {
	case "openai", "ollama":
	default:
		return fmt.Errorf("unknown completer: %s", c.Completer.Type)
	}
	if t := c.Completer.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("completer temperature out of range: %v", *t)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "legalrag", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig { return defaultConfig() }

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Corpus:    CorpusConfig{Path: "codigo_penal.txt"},
		Index:     IndexConfig{Dir: "index_penal"},
		Embedder:  EmbedderConfig{Type: "hashing"},
		Completer: CompleterConfig{Type: "ollama"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Corpus.Path == "" {
		cfg.Corpus.Path = "codigo_penal.txt"
	}
	if cfg.Index.Dir == "" {
		cfg.Index.Dir = "index_penal"
	}
	if cfg.Index.TopK == 0 {
		cfg.Index.TopK = 3
	}
	if cfg.Index.Concurrency == 0 {
		cfg.Index.Concurrency = 4
	}
	if cfg.Index.BatchSize == 0 {
		cfg.Index.BatchSize = 32
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hashing"
	}
	if cfg.Completer.Type == "" {
		cfg.Completer.Type = "ollama"
	}
	// only an absent key gets the default; temperature: 0 is kept
	if cfg.Completer.Temperature == nil {
		t := 0.1
		cfg.Completer.Temperature = &t
	}

	switch cfg.Embedder.Type {
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIConfig{}
		}
		openAIDefaults(cfg.Embedder.OpenAI, "text-embedding-3-small")
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 32
		}
	case "ollama":
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaConfig{}
		}
		ollamaDefaults(cfg.Embedder.Ollama, "nomic-embed-text")
	case "hashing":
		if cfg.Embedder.Hashing == nil {
			cfg.Embedder.Hashing = &HashingConfig{}
		}
		if cfg.Embedder.Hashing.Dimension == 0 {
			cfg.Embedder.Hashing.Dimension = 512
		}
	}

	switch cfg.Completer.Type {
	case "openai":
		if cfg.Completer.OpenAI == nil {
			cfg.Completer.OpenAI = &OpenAIConfig{}
		}
		openAIDefaults(cfg.Completer.OpenAI, "gpt-4o-mini")
	case "ollama":
		if cfg.Completer.Ollama == nil {
			cfg.Completer.Ollama = &OllamaConfig{}
		}
		ollamaDefaults(cfg.Completer.Ollama, "llama3.2")
	}
}

func openAIDefaults(c *OpenAIConfig, model string) {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = 30
	}
}

func ollamaDefaults(c *OllamaConfig, model string) {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = 120
	}
}
