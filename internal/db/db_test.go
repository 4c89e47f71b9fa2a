package db

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

func TestVectorValue(t *testing.T) {
	v, err := Vector{1, -0.5, 0.25}.Value()
	require.NoError(t, err)
	assert.Equal(t, "[1,-0.5,0.25]", v)

	v, err = Vector(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = Vector{}.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestVectorScan(t *testing.T) {
	tests := []struct {
		name    string
		src     any
		want    Vector
		wantErr bool
	}{
		{name: "string", src: "[1,-0.5,0.25]", want: Vector{1, -0.5, 0.25}},
		{name: "bytes with spaces", src: []byte("[ 0.5, 2 ]"), want: Vector{0.5, 2}},
		{name: "empty", src: "[]", want: Vector{}},
		{name: "null", src: nil, want: nil},
		{name: "not a vector", src: "{1,2}", wantErr: true},
		{name: "bad element", src: "[1,x]", wantErr: true},
		{name: "wrong type", src: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Vector
			err := v.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestVectorRoundTrip(t *testing.T) {
	in := Vector{0.123456, -7, 3.5e-3}
	raw, err := in.Value()
	require.NoError(t, err)

	var out Vector
	require.NoError(t, out.Scan(raw))
	assert.Equal(t, in, out)
}

func TestWithSSLMode(t *testing.T) {
	assert.Equal(t, "postgres://u@host/db?sslmode=disable", withSSLMode("postgres://u@host/db"))
	assert.Equal(t, "postgres://u@host/db?x=1&sslmode=disable", withSSLMode("postgres://u@host/db?x=1"))
	assert.Equal(t, "postgres://u@host/db?sslmode=require", withSSLMode("postgres://u@host/db?sslmode=require"))
}

func TestNewStoreNamesSessionTable(t *testing.T) {
	a, err := NewStore(nil)
	require.NoError(t, err)
	b, err := NewStore(nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a.Table(), "clause_"))
	assert.Len(t, a.Table(), len("clause_")+32)
	assert.NotContains(t, a.Table(), "-")
	assert.NotEqual(t, a.Table(), b.Table())
}

// offlineDB builds queries without ever opening a connection.
func offlineDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN("postgres://clause@localhost:5432/clauses?sslmode=disable")))
	db := NewDB(sqldb, false)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCreateTableQuery(t *testing.T) {
	query := createTableQuery(offlineDB(t), "clause_x", 3).String()

	assert.Contains(t, query, `CREATE TABLE IF NOT EXISTS "clause_x" (`)
	assert.Contains(t, query, "embedding vector(3) NOT NULL")
}

func TestInsertDocumentsQuery(t *testing.T) {
	docs := []Document{{Content: "Rent is due monthly.", Heading: "Rent", PageNumber: 2, ChunkID: 1, Embedding: Vector{0.5, 1}}}
	query := insertDocumentsQuery(offlineDB(t), "clause_x", &docs).String()

	assert.True(t, strings.HasPrefix(query, `INSERT INTO "clause_x" (`), query)
	assert.Contains(t, query, "'Rent is due monthly.'")
	assert.Contains(t, query, "'[0.5,1]'")
	assert.NotContains(t, query, "documents")
}

func TestSearchDocumentsQuery(t *testing.T) {
	var docs []Document
	query := searchDocumentsQuery(offlineDB(t), "clause_x", &docs, []float32{0.5, 1}, 4).String()

	assert.Contains(t, query, `FROM "clause_x" AS d`)
	assert.True(t, strings.HasSuffix(query, "ORDER BY embedding <=> '[0.5,1]' LIMIT 4"), query)
	assert.NotContains(t, query, "documents")
}

func TestDropTableQuery(t *testing.T) {
	assert.Equal(t, `DROP TABLE IF EXISTS "clause_x"`, dropTableQuery(offlineDB(t), "clause_x").String())
}
