package llmservice

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"clause-summarizer/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator turns a prompt into a completion.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewGenerator returns the text-generation backend named by cfg.Provider,
// with every call bounded by cfg.TimeoutSecs.
func NewGenerator(ctx context.Context, cfg *config.LLMConfig) (Generator, error) {
	log.Debug().Interface("config", map[string]string{
		"provider": cfg.Provider,
		"base_url": cfg.BaseURL,
		"model":    cfg.Model,
	}).Msg("Creating generator")

	var (
		gen Generator
		err error
	)
	switch cfg.Provider {
	case "openai":
		gen, err = newOpenAI(cfg)
	case "ollama":
		gen, err = newOllama(cfg)
	case "gemini":
		gen, err = NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithTimeout(gen, time.Duration(cfg.TimeoutSecs)*time.Second), nil
}

// LangChain adapts a langchaingo model.
type LangChain struct {
	llm         llms.Model
	temperature float64
}

func NewLangChain(llm llms.Model, temperature float64) *LangChain {
	return &LangChain{llm: llm, temperature: temperature}
}

func (l *LangChain) Generate(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, l.llm, prompt, llms.WithTemperature(l.temperature))
}

// call llm
func newOpenAI(cfg *config.LLMConfig) (*LangChain, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return NewLangChain(llm, cfg.Temperature), nil
}

func newOllama(cfg *config.LLMConfig) (*LangChain, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return NewLangChain(llm, cfg.Temperature), nil
}

type timeoutGenerator struct {
	next    Generator
	timeout time.Duration
}

// WithTimeout bounds each Generate call. A non-positive timeout returns gen unchanged.
func WithTimeout(gen Generator, timeout time.Duration) Generator {
	if timeout <= 0 {
		return gen
	}
	return &timeoutGenerator{next: gen, timeout: timeout}
}

func (t *timeoutGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Generate(ctx, prompt)
}

// Close closes the wrapped generator when it holds a client.
func (t *timeoutGenerator) Close() error {
	if c, ok := t.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
