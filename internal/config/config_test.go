package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "codigo_penal.txt", cfg.Corpus.Path)
	assert.Equal(t, "index_penal", cfg.Index.Dir)
	assert.Equal(t, 3, cfg.Index.TopK)
	assert.Equal(t, "hashing", cfg.Embedder.Type)
	assert.Equal(t, 512, cfg.Embedder.Hashing.Dimension)
	assert.Equal(t, "ollama", cfg.Completer.Type)
	require.NotNil(t, cfg.Completer.Temperature)
	assert.InDelta(t, 0.1, *cfg.Completer.Temperature, 1e-9)
}

func TestLoad_AppliesProviderDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
corpus:
  path: /data/cp.txt
  source_label: Código Penal
embedder:
  type: openai
completer:
  type: openai
  openai:
    model: gpt-4o
index:
  top_k: 5
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/cp.txt", cfg.Corpus.Path)
	assert.Equal(t, "Código Penal", cfg.Corpus.SourceLabel)
	assert.Equal(t, 5, cfg.Index.TopK)
	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, 32, cfg.Embedder.OpenAI.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.Embedder.OpenAI.Timeout())
	assert.Equal(t, "gpt-4o", cfg.Completer.OpenAI.Model)
}

func TestLoad_UnknownEmbedder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedder:\n  type: faiss\n"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown embedder")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("corpus: [::"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Index.Dir = "/var/lib/legalrag"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoad_ZeroTemperatureIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("completer:\n  type: ollama\n  temperature: 0\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Completer.Temperature)
	assert.Zero(t, *cfg.Completer.Temperature)
}

func TestLoad_TemperatureOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("completer:\n  temperature: 3\n"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "temperature out of range")
}
