package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"clause-summarizer/internal/config"
)

const defaultGeminiModel = "gemini-2.0-flash"

// Gemini generates text with the Gemini API.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGemini(ctx context.Context, cfg *config.LLMConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Key))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	name := cfg.Model
	if name == "" {
		name = defaultGeminiModel
	}
	model := client.GenerativeModel(name)
	model.SetTemperature(float32(cfg.Temperature))

	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	var parts []string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				parts = append(parts, string(text))
			}
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}
	return strings.Join(parts, "\n"), nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}
