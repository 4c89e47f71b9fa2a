package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/tmc/langchaingo/embeddings"
	"google.golang.org/api/option"

	"clause-summarizer/internal/config"
)

const (
	defaultGeminiEmbeddingModel = "text-embedding-004"
	// Gemini rejects batches larger than this
	geminiBatchSize = 100
)

var _ embeddings.Embedder = (*GeminiEmbedder)(nil)

// GeminiEmbedder embeds text with the Gemini embedding API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func NewGeminiEmbedder(ctx context.Context, cfg *config.LLMConfig) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Key))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiEmbeddingModel
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

// EmbedDocuments embeds texts as retrieval documents, in batches.
func (e *GeminiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	em := e.client.EmbeddingModel(e.model)
	em.TaskType = genai.TaskTypeRetrievalDocument

	vectors := make([][]float32, 0, len(texts))
	for _, batch := range embeddings.BatchTexts(texts, geminiBatchSize) {
		b := em.NewBatch()
		for _, text := range batch {
			b.AddContent(genai.Text(text))
		}
		resp, err := em.BatchEmbedContents(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("failed to embed documents: %w", err)
		}
		if len(resp.Embeddings) != len(batch) {
			return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(resp.Embeddings), len(batch))
		}
		for _, emb := range resp.Embeddings {
			vectors = append(vectors, emb.Values)
		}
	}
	return vectors, nil
}

// EmbedQuery embeds a search query.
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	em := e.client.EmbeddingModel(e.model)
	em.TaskType = genai.TaskTypeRetrievalQuery

	resp, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("gemini returned an empty embedding")
	}
	return resp.Embedding.Values, nil
}

func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}
