package index

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"clause-summarizer/internal/chromemdb"
	"clause-summarizer/internal/config"
	"clause-summarizer/internal/db"
	"clause-summarizer/internal/helper"
)

// New creates an empty index on the vector store named in cfg.
func New(ctx context.Context, cfg *config.Config, embedder embeddings.Embedder) (*VectorIndex, error) {
	backend, err := NewBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.EmbedLLM.TimeoutSecs) * time.Second
	return NewVectorIndex(embedder, backend, timeout), nil
}

func NewBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	log.Debug().Str("type", cfg.VectorStore.Type).Msg("Creating vector store")

	switch cfg.VectorStore.Type {
	case "memory", "":
		id, err := helper.GenerateUUID()
		if err != nil {
			return nil, err
		}
		return chromemdb.NewVectorDBManager("clauses-" + id), nil
	case "pgvector":
		store, err := db.Open(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported vector store: %s", cfg.VectorStore.Type)
	}
}
