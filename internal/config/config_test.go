package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GOOGLE_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY", "DATABASE_URL", "DATABASE_PASSWORD"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_API_KEY", "test-key")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, "test-key", cfg.LLM.Key)
	assert.Equal(t, "test-key", cfg.EmbedLLM.Key)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, "memory", cfg.VectorStore.Type)
	assert.Equal(t, 4, cfg.RAG.TopK)
	assert.Equal(t, 10, cfg.RAG.MaxClauses)
	assert.Equal(t, 1, cfg.RAG.Concurrency)
	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
	assert.Equal(t, 200, cfg.RAG.ChunkOverlap)
}

func TestLoadConfigMissingCredentials(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY")
}

func TestLoadConfigFromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
log_level: debug
llm:
  provider: ollama
  model: llama3.2
  base_url: http://localhost:11434
embed_llm:
  provider: hash
rag:
  chunk_size: 500
  top_k: 6
  concurrency: 3
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3.2", cfg.LLM.Model)
	assert.Equal(t, "hash", cfg.EmbedLLM.Provider)
	assert.Equal(t, 512, cfg.EmbedLLM.Dimension)
	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	assert.Equal(t, 200, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 6, cfg.RAG.TopK)
	assert.Equal(t, 3, cfg.RAG.Concurrency)
	assert.Equal(t, 60, cfg.LLM.TimeoutSecs)
}

func TestLoadConfigEnvOverridesKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "router-key")
	path := writeConfig(t, `
llm:
  provider: openai
  model: openai/gpt-4o-mini
  key: file-key
embed_llm:
  provider: hash
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "router-key", cfg.LLM.Key)

	t.Setenv("OPENAI_API_KEY", "openai-key")
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "openai-key", cfg.LLM.Key)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "llm: [provider")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.LLM.Key = "k"
		cfg.EmbedLLM.Key = "k"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults with keys", mutate: func(*Config) {}},
		{
			name:    "unknown llm provider",
			mutate:  func(c *Config) { c.LLM.Provider = "bard" },
			wantErr: `llm: unsupported provider "bard"`,
		},
		{
			name:    "hash is embedding only",
			mutate:  func(c *Config) { c.LLM.Provider = "hash" },
			wantErr: "llm: unsupported provider",
		},
		{
			name:    "ollama needs a model",
			mutate:  func(c *Config) { c.LLM.Provider = "ollama"; c.LLM.Model = "" },
			wantErr: "model is required",
		},
		{
			name:    "pgvector needs a url",
			mutate:  func(c *Config) { c.VectorStore.Type = "pgvector" },
			wantErr: "database.url is required",
		},
		{
			name: "pgvector with unknown driver",
			mutate: func(c *Config) {
				c.VectorStore.Type = "pgvector"
				c.Database.URL = "postgres://localhost/db"
				c.Database.Driver = "mysql"
			},
			wantErr: "unsupported database driver",
		},
		{
			name: "pgvector with pq",
			mutate: func(c *Config) {
				c.VectorStore.Type = "pgvector"
				c.Database.URL = "postgres://localhost/db"
				c.Database.Driver = "pq"
			},
		},
		{
			name:    "unknown vector store",
			mutate:  func(c *Config) { c.VectorStore.Type = "faiss" },
			wantErr: "unsupported vector store",
		},
		{
			name:    "too many clauses",
			mutate:  func(c *Config) { c.RAG.MaxClauses = 11 },
			wantErr: "max_clauses",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyDefaultsOverlap(t *testing.T) {
	cfg := &Config{RAG: RAGConfig{ChunkSize: 100, ChunkOverlap: 150}}
	ApplyDefaults(cfg)
	assert.Equal(t, 50, cfg.RAG.ChunkOverlap)
}

func TestLoadConfigKeepsExplicitZeros(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
llm:
  provider: ollama
  model: llama3.2
  temperature: 0
embed_llm:
  provider: hash
rag:
  chunk_overlap: 0
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.LLM.Temperature)
	assert.Zero(t, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
}

func TestApplyDefaultsZeroConfig(t *testing.T) {
	cfg := &Config{RAG: RAGConfig{ChunkOverlap: -5}, LLM: LLMConfig{Temperature: -1}}
	ApplyDefaults(cfg)

	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
	assert.Equal(t, 200, cfg.RAG.ChunkOverlap)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 4, cfg.RAG.TopK)
}
