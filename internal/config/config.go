package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultChunkSize    = 1000 // bytes
	defaultChunkOverlap = 200  // bytes
	defaultTopK         = 4
	defaultMaxClauses   = 10
	defaultTimeoutSecs  = 60
	defaultTemperature  = 0.7
)

// LLMConfig configures a text-generation or embedding backend.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Key         string  `yaml:"key"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	Dimension   int     `yaml:"dimension"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Driver   string `yaml:"driver"`
	Debug    bool   `yaml:"debug"`
}

type VectorStoreConfig struct {
	Type string `yaml:"type"`
}

type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
	MaxClauses   int `yaml:"max_clauses"`
	Concurrency  int `yaml:"concurrency"`
}

type Config struct {
	LogLevel    string            `yaml:"log_level"`
	LLM         LLMConfig         `yaml:"llm"`
	EmbedLLM    LLMConfig         `yaml:"embed_llm"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Database    DatabaseConfig    `yaml:"database"`
	RAG         RAGConfig         `yaml:"rag"`
}

// LoadConfig reads the YAML file at path, applies .env and environment
// credential overrides, fills defaults and validates the result.
// A missing file is not an error; defaults are used instead.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	applyEnv(cfg)
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config that runs against Gemini with the in-memory index.
func Default() *Config {
	cfg := &Config{
		LogLevel: "info",
		LLM: LLMConfig{
			Provider:    "gemini",
			Model:       "gemini-2.0-flash",
			Temperature: defaultTemperature,
		},
		EmbedLLM: LLMConfig{
			Provider: "gemini",
			Model:    "text-embedding-004",
		},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Database:    DatabaseConfig{Driver: "pgdriver"},
		RAG:         RAGConfig{ChunkOverlap: defaultChunkOverlap},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset sizes and limits and repairs out-of-range ones.
// A zero temperature or chunk overlap is a valid setting and is kept;
// LoadConfig starts from Default so absent keys still get their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RAG.ChunkSize <= 0 {
		cfg.RAG.ChunkSize = defaultChunkSize
	}
	if cfg.RAG.ChunkOverlap < 0 || cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		cfg.RAG.ChunkOverlap = min(defaultChunkOverlap, cfg.RAG.ChunkSize/2)
	}
	if cfg.RAG.TopK <= 0 {
		cfg.RAG.TopK = defaultTopK
	}
	if cfg.RAG.MaxClauses <= 0 {
		cfg.RAG.MaxClauses = defaultMaxClauses
	}
	if cfg.RAG.Concurrency <= 0 {
		cfg.RAG.Concurrency = 1
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "pgdriver"
	}
	for _, llm := range []*LLMConfig{&cfg.LLM, &cfg.EmbedLLM} {
		if llm.TimeoutSecs <= 0 {
			llm.TimeoutSecs = defaultTimeoutSecs
		}
	}
	if cfg.LLM.Temperature < 0 {
		cfg.LLM.Temperature = defaultTemperature
	}
	if cfg.EmbedLLM.Provider == "hash" && cfg.EmbedLLM.Dimension <= 0 {
		cfg.EmbedLLM.Dimension = 512
	}
}

// applyEnv lets process environment supply credentials, overriding the file.
func applyEnv(cfg *Config) {
	for _, llm := range []*LLMConfig{&cfg.LLM, &cfg.EmbedLLM} {
		if key := envKey(llm.Provider); key != "" {
			llm.Key = key
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
}

func envKey(provider string) string {
	switch provider {
	case "gemini":
		return os.Getenv("GOOGLE_API_KEY")
	case "openai":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			return v
		}
		return os.Getenv("OPENROUTER_API_KEY")
	}
	return ""
}

// Validate reports configuration that would only fail later at request time.
func (c *Config) Validate() error {
	if err := c.LLM.validate("llm", "gemini", "openai", "ollama"); err != nil {
		return err
	}
	if err := c.EmbedLLM.validate("embed_llm", "gemini", "openai", "ollama", "hash"); err != nil {
		return err
	}

	switch c.VectorStore.Type {
	case "memory":
	case "pgvector":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the pgvector vector store")
		}
		if c.Database.Driver != "pgdriver" && c.Database.Driver != "pq" {
			return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported vector store: %s", c.VectorStore.Type)
	}

	if c.RAG.MaxClauses > defaultMaxClauses {
		return fmt.Errorf("rag.max_clauses must be between 1 and %d", defaultMaxClauses)
	}
	return nil
}

func (l *LLMConfig) validate(section string, providers ...string) error {
	known := false
	for _, p := range providers {
		if l.Provider == p {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%s: unsupported provider %q", section, l.Provider)
	}

	switch l.Provider {
	case "gemini":
		if l.Key == "" {
			return fmt.Errorf("%s: GOOGLE_API_KEY is not set", section)
		}
	case "openai":
		if l.Key == "" {
			return fmt.Errorf("%s: OPENAI_API_KEY is not set", section)
		}
		if l.Model == "" {
			return fmt.Errorf("%s: model is required", section)
		}
	case "ollama":
		if l.Model == "" {
			return fmt.Errorf("%s: model is required", section)
		}
	case "hash":
		if l.Dimension <= 0 {
			return fmt.Errorf("%s: dimension must be positive", section)
		}
	}
	return nil
}
