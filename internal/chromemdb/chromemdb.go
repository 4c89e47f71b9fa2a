package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"clause-summarizer/internal/models"
)

// metadata keys stored with each chunk
const (
	metaHeading = "heading"
	metaPage    = "page"
	metaChunkID = "chunk_id"
)

// VectorDBManager keeps the session's chunks in an in-memory chromem collection.
type VectorDBManager struct {
	db             *chromem.DB
	collection     *chromem.Collection
	collectionName string
	next           int
}

// NewVectorDBManager initializes an in-memory vector database
func NewVectorDBManager(collectionName string) *VectorDBManager {
	return &VectorDBManager{
		db:             chromem.NewDB(),
		collectionName: collectionName,
	}
}

// Init creates the collection and adds the first chunks.
func (m *VectorDBManager) Init(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if m.collection != nil {
		if err := m.DeleteCollection(); err != nil {
			return err
		}
		m.next = 0
	}
	if _, err := m.GetOrCreateCollection(); err != nil {
		return err
	}
	return m.Insert(ctx, chunks, vectors)
}

// GetOrCreateCollection creates or reads the session collection.
func (m *VectorDBManager) GetOrCreateCollection() (*chromem.Collection, error) {
	// embeddings are always supplied, the embedding func is never called
	c, err := m.db.GetOrCreateCollection(m.collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	m.collection = c
	return c, nil
}

// Insert adds chunks with precomputed embeddings.
func (m *VectorDBManager) Insert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if m.collection == nil {
		return fmt.Errorf("collection is not initialized")
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:        fmt.Sprintf("chunk-%d", m.next+i),
			Content:   c.Content,
			Metadata:  chunkMetadata(c),
			Embedding: vectors[i],
		}
	}

	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	m.next += len(docs)
	log.Debug().Int("count", m.collection.Count()).Str("collection", m.collectionName).Msg("Added documents")
	return nil
}

// Query performs a similarity search, returning at most k chunks.
func (m *VectorDBManager) Query(ctx context.Context, vector []float32, k int) ([]models.Chunk, error) {
	if m.collection == nil || m.collection.Count() == 0 {
		return nil, nil
	}
	// chromem rejects nResults larger than the collection
	k = min(k, m.collection.Count())
	if k <= 0 {
		return nil, nil
	}

	results, err := m.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	chunks := make([]models.Chunk, len(results))
	for i, r := range results {
		chunks[i] = resultChunk(r)
	}
	return chunks, nil
}

// DeleteCollection drops the session collection.
func (m *VectorDBManager) DeleteCollection() error {
	if m.collection == nil {
		return nil
	}
	if err := m.db.DeleteCollection(m.collection.Name); err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	m.collection = nil
	return nil
}

func (m *VectorDBManager) Close() error {
	return m.DeleteCollection()
}

func chunkMetadata(c models.Chunk) map[string]string {
	meta := map[string]string{
		metaChunkID: strconv.Itoa(c.ChunkID),
	}
	if c.Heading != "" {
		meta[metaHeading] = c.Heading
	}
	if c.PageNumber > 0 {
		meta[metaPage] = strconv.Itoa(c.PageNumber)
	}
	return meta
}

func resultChunk(r chromem.Result) models.Chunk {
	c := models.Chunk{
		Content: r.Content,
		Heading: r.Metadata[metaHeading],
	}
	c.PageNumber, _ = strconv.Atoi(r.Metadata[metaPage])
	c.ChunkID, _ = strconv.Atoi(r.Metadata[metaChunkID])
	return c
}
