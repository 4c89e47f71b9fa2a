package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"clause-summarizer/internal/config"
	"clause-summarizer/internal/models"
	"clause-summarizer/internal/parser"
	"clause-summarizer/internal/summarize"
)

// Index is the part of the vector index the pipeline uses.
type Index interface {
	Add(ctx context.Context, groups []models.TaggedGroup) error
	Search(ctx context.Context, query string, k int) ([]models.Chunk, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, chunks []models.Chunk, clause string) (string, error)
}

type RAG struct {
	index  Index
	engine Summarizer
	cfg    *config.Config
}

func NewRAG(index Index, engine Summarizer, cfg *config.Config) *RAG {
	return &RAG{index: index, engine: engine, cfg: cfg}
}

// Process extracts and tags the document at filePath, then runs clauses against it.
func (r *RAG) Process(ctx context.Context, filePath string, clauses []string) (*models.SummaryResult, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("%w: no document provided", models.ErrValidation)
	}
	if _, err := r.validate(clauses); err != nil {
		return nil, err
	}

	pages, err := parser.Extract(filePath)
	if err != nil {
		return nil, err
	}
	groups := parser.Tag(pages, r.cfg)
	log.Info().Str("file", filePath).Int("pages", len(pages)).Int("groups", len(groups)).Msg("Tagged document")

	return r.Run(ctx, groups, clauses)
}

// Run indexes groups once, then retrieves and summarizes each clause.
//
// Invalid clauses reject the whole batch before any backend call. After
// that, a failing clause only affects its own entry: it holds the error
// text as its summary and the error in Err.
func (r *RAG) Run(ctx context.Context, groups []models.TaggedGroup, clauses []string) (*models.SummaryResult, error) {
	queries, err := r.validate(clauses)
	if err != nil {
		return nil, err
	}

	if err := r.index.Add(ctx, groups); err != nil {
		return nil, fmt.Errorf("failed to index document: %w", err)
	}

	start := time.Now()
	results := make([]models.ClauseResult, len(queries))

	g := new(errgroup.Group)
	g.SetLimit(max(r.cfg.RAG.Concurrency, 1))
	for i, clause := range queries {
		g.Go(func() error {
			results[i] = r.summarizeClause(ctx, clause)
			return nil
		})
	}
	_ = g.Wait()

	out := models.NewSummaryResult()
	for _, res := range results {
		out.Set(res)
	}
	log.Info().Int("clauses", out.Len()).Int("failed", len(out.Failed())).Dur("elapsed", time.Since(start)).Msg("Summarized clauses")
	return out, nil
}

func (r *RAG) summarizeClause(ctx context.Context, clause string) models.ClauseResult {
	chunks, err := r.index.Search(ctx, clause, r.cfg.RAG.TopK)
	if err != nil {
		log.Error().Err(err).Str("clause", clause).Msg("Error retrieving chunks")
		return models.ClauseResult{
			Clause:  clause,
			Summary: summarize.ErrorSummary(err),
			Err:     err,
		}
	}
	log.Debug().Str("clause", clause).Int("chunks", len(chunks)).Msg("Retrieved chunks")

	summary, err := r.engine.Summarize(ctx, chunks, clause)
	return models.ClauseResult{Clause: clause, Summary: summary, Err: err}
}

// validate normalizes clauses, dropping repeats, and checks the batch size.
func (r *RAG) validate(clauses []string) ([]string, error) {
	if len(clauses) == 0 {
		return nil, fmt.Errorf("%w: at least one clause is required", models.ErrValidation)
	}
	limit := r.cfg.RAG.MaxClauses
	if len(clauses) > limit {
		return nil, fmt.Errorf("%w: at most %d clauses can be submitted, got %d", models.ErrValidation, limit, len(clauses))
	}

	seen := make(map[string]bool, len(clauses))
	queries := make([]string, 0, len(clauses))
	for i, c := range clauses {
		c = models.NormalizeClause(c)
		if c == "" {
			return nil, fmt.Errorf("%w: clause %d is empty", models.ErrValidation, i+1)
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		queries = append(queries, c)
	}
	return queries, nil
}
