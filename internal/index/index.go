package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"clause-summarizer/internal/models"
)

// Backend stores embedded chunks and answers nearest-neighbour queries.
type Backend interface {
	// Init creates the searchable structure from the chunks seen so far.
	Init(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error
	// Insert appends chunks to an initialized structure.
	Insert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error
	// Query returns at most k chunks, most similar first.
	Query(ctx context.Context, vector []float32, k int) ([]models.Chunk, error)
	Close() error
}

// VectorIndex is the session's chunk index. Every chunk passed to Add is
// kept, so nothing is lost when embedding fails; the backend is created
// from all kept chunks on the first successful Add and appended to after.
//
// One writer at a time; Search may run concurrently once Add has returned.
type VectorIndex struct {
	mu          sync.RWMutex
	embedder    embeddings.Embedder
	backend     Backend
	timeout     time.Duration
	documents   []models.Chunk
	indexed     int
	initialized bool
}

func NewVectorIndex(embedder embeddings.Embedder, backend Backend, timeout time.Duration) *VectorIndex {
	return &VectorIndex{embedder: embedder, backend: backend, timeout: timeout}
}

// Add flattens groups and indexes their chunks.
func (v *VectorIndex) Add(ctx context.Context, groups []models.TaggedGroup) error {
	chunks := models.Flatten(groups)
	if len(chunks) == 0 {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.documents = append(v.documents, chunks...)

	// chunks from an earlier failed Add are indexed now as well
	pending := v.documents[v.indexed:]
	vectors, err := v.embedDocuments(ctx, pending)
	if err != nil {
		return err
	}

	bctx, cancel := v.withTimeout(ctx)
	defer cancel()
	if !v.initialized {
		err = v.backend.Init(bctx, pending, vectors)
	} else {
		err = v.backend.Insert(bctx, pending, vectors)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to index chunks: %v", models.ErrBackendUnavailable, err)
	}

	v.initialized = true
	v.indexed = len(v.documents)
	log.Info().Int("added", len(pending)).Int("total", v.indexed).Msg("Indexed chunks")
	return nil
}

// Search returns up to k chunks nearest to query, most similar first.
// An index nothing has been added to returns no chunks and no error.
func (v *VectorIndex) Search(ctx context.Context, query string, k int) ([]models.Chunk, error) {
	if k <= 0 {
		k = models.DefaultTopK
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if !v.initialized || v.indexed == 0 {
		return nil, nil
	}

	// one budget covers embedding the query and the lookup
	qctx, cancel := v.withTimeout(ctx)
	defer cancel()
	vector, err := v.embedder.EmbedQuery(qctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to embed query: %v", models.ErrBackendUnavailable, err)
	}

	results, err := v.backend.Query(qctx, vector, min(k, v.indexed))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query index: %v", models.ErrBackendUnavailable, err)
	}
	return results, nil
}

// Len returns the number of chunks kept, indexed or not.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.documents)
}

// Documents returns a copy of every chunk added so far.
func (v *VectorIndex) Documents() []models.Chunk {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Chunk, len(v.documents))
	copy(out, v.documents)
	return out
}

func (v *VectorIndex) Close() error {
	return v.backend.Close()
}

func (v *VectorIndex) embedDocuments(ctx context.Context, chunks []models.Chunk) ([][]float32, error) {
	ctx, cancel := v.withTimeout(ctx)
	defer cancel()

	vectors, err := v.embedder.EmbedDocuments(ctx, models.Contents(chunks))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to embed chunks: %v", models.ErrBackendUnavailable, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d chunks", models.ErrBackendUnavailable, len(vectors), len(chunks))
	}
	return vectors, nil
}

func (v *VectorIndex) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if v.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, v.timeout)
}
