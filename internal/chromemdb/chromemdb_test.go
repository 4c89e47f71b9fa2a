package chromemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clause-summarizer/internal/models"
)

func unit(dim, i int) []float32 {
	v := make([]float32, dim)
	v[i] = 1
	return v
}

func TestVectorDBManager(t *testing.T) {
	ctx := context.Background()
	m := NewVectorDBManager("lease")

	results, err := m.Query(ctx, unit(4, 0), 4)
	require.NoError(t, err)
	assert.Empty(t, results)

	chunks := []models.Chunk{
		{Content: "Either party may terminate.", Heading: "Termination", PageNumber: 3, ChunkID: 1},
		{Content: "Rent is due monthly.", Heading: "Rent", ChunkID: 1},
	}
	require.NoError(t, m.Init(ctx, chunks, [][]float32{unit(4, 0), unit(4, 1)}))
	require.NoError(t, m.Insert(ctx, []models.Chunk{{Content: "Unlabelled."}}, [][]float32{unit(4, 2)}))
	assert.Equal(t, 3, m.collection.Count())

	results, err = m.Query(ctx, unit(4, 0), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, chunks[0], results[0])

	results, err = m.Query(ctx, []float32{0.1, 0.9, 0.3, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, chunks[1], results[0])
	assert.Equal(t, "Unlabelled.", results[1].Content)
	assert.Empty(t, results[1].Heading)
	assert.Zero(t, results[1].PageNumber)

	require.NoError(t, m.Close())
	results, err = m.Query(ctx, unit(4, 0), 1)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestInsertBeforeInit(t *testing.T) {
	m := NewVectorDBManager("lease")
	err := m.Insert(context.Background(), []models.Chunk{{Content: "x"}}, [][]float32{unit(2, 0)})
	assert.ErrorContains(t, err, "not initialized")
}

func TestInitResetsCollection(t *testing.T) {
	ctx := context.Background()
	m := NewVectorDBManager("lease")

	require.NoError(t, m.Init(ctx, []models.Chunk{{Content: "old"}}, [][]float32{unit(2, 0)}))
	require.NoError(t, m.Init(ctx, []models.Chunk{{Content: "new"}}, [][]float32{unit(2, 1)}))

	results, err := m.Query(ctx, unit(2, 0), 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Content)
}
