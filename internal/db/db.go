package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"clause-summarizer/internal/config"
	"clause-summarizer/internal/helper"
	"clause-summarizer/internal/models"
)

// Document is one stored chunk. The table name is per session and set with ModelTableExpr.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Content       string `bun:"content,notnull"`
	Heading       string `bun:"heading"`
	PageNumber    int    `bun:"page_number"`
	ChunkID       int    `bun:"chunk_id"`
	Embedding     Vector `bun:"embedding,notnull"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens a connection pool with the driver named in cfg.
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := withSSLMode(cfg.URL)
	switch cfg.Driver {
	case "pq":
		if cfg.Password != "" {
			u, err := url.Parse(dsn)
			if err != nil {
				return nil, fmt.Errorf("failed to parse database url: %v", err)
			}
			u.User = url.UserPassword(u.User.Username(), cfg.Password)
			dsn = u.String()
		}
		return sql.Open("postgres", dsn)
	case "pgdriver", "":
		opts := []pgdriver.Option{pgdriver.WithDSN(dsn)}
		if cfg.Password != "" {
			opts = append(opts, pgdriver.WithPassword(cfg.Password))
		}
		return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func withSSLMode(dsn string) string {
	if strings.Contains(dsn, "sslmode=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&sslmode=disable"
	}
	return dsn + "?sslmode=disable"
}

// Store keeps the session's chunks in a pgvector table that is dropped on Close.
type Store struct {
	db    *bun.DB
	table string
}

// NewStore names a fresh session table. Nothing is created until Init.
func NewStore(db *bun.DB) (*Store, error) {
	id, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	return &Store{db: db, table: "clause_" + strings.ReplaceAll(id, "-", "")}, nil
}

// Open connects with cfg and returns a Store owning the connection.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	sqldb, err := ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	db := NewDB(sqldb, cfg.Debug)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}
	return NewStore(db)
}

func (s *Store) Table() string { return s.table }

// Init creates the session table sized to the first vector and stores chunks.
func (s *Store) Init(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(vectors) == 0 {
		return fmt.Errorf("no vectors to size the table")
	}
	if err := InitDB(ctx, s.db, s.table, len(vectors[0])); err != nil {
		return fmt.Errorf("failed to initialize table %s: %v", s.table, err)
	}
	log.Debug().Str("table", s.table).Int("dimension", len(vectors[0])).Msg("Created vector table")
	return s.Insert(ctx, chunks, vectors)
}

func (s *Store) Insert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]Document, len(chunks))
	for i, c := range chunks {
		docs[i] = Document{
			Content:    c.Content,
			Heading:    c.Heading,
			PageNumber: c.PageNumber,
			ChunkID:    c.ChunkID,
			Embedding:  Vector(vectors[i]),
		}
	}
	if err := StoreDocuments(ctx, s.db, s.table, docs); err != nil {
		return fmt.Errorf("failed to store documents: %v", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]models.Chunk, error) {
	docs, err := SearchDocuments(ctx, s.db, s.table, vector, k)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %v", err)
	}
	chunks := make([]models.Chunk, len(docs))
	for i, d := range docs {
		chunks[i] = models.Chunk{
			Content:    d.Content,
			Heading:    d.Heading,
			PageNumber: d.PageNumber,
			ChunkID:    d.ChunkID,
		}
	}
	return chunks, nil
}

// Close drops the session table and closes the connection.
func (s *Store) Close() error {
	dropErr := DropDocuments(context.Background(), s.db, s.table)
	closeErr := s.db.Close()
	if dropErr != nil {
		return fmt.Errorf("failed to drop table %s: %v", s.table, dropErr)
	}
	return closeErr
}

func InitDB(ctx context.Context, db *bun.DB, table string, dimension int) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return err
	}
	_, err := createTableQuery(db, table, dimension).Exec(ctx)
	return err
}

func StoreDocuments(ctx context.Context, db *bun.DB, table string, docs []Document) error {
	_, err := insertDocumentsQuery(db, table, &docs).Exec(ctx)
	return err
}

// SearchDocuments orders by cosine distance, nearest first.
func SearchDocuments(ctx context.Context, db *bun.DB, table string, queryEmbedding []float32, limit int) ([]Document, error) {
	var docs []Document
	err := searchDocumentsQuery(db, table, &docs, queryEmbedding, limit).Scan(ctx)
	return docs, err
}

func DropDocuments(ctx context.Context, db *bun.DB, table string) error {
	_, err := dropTableQuery(db, table).Exec(ctx)
	return err
}

func createTableQuery(db *bun.DB, table string, dimension int) *bun.RawQuery {
	return db.NewRaw(`CREATE TABLE IF NOT EXISTS ? (
		id bigserial PRIMARY KEY,
		content text NOT NULL,
		heading text,
		page_number integer,
		chunk_id integer,
		embedding vector(?) NOT NULL
	)`, bun.Ident(table), dimension)
}

func insertDocumentsQuery(db *bun.DB, table string, docs *[]Document) *bun.InsertQuery {
	return db.NewInsert().
		Model(docs).
		ModelTableExpr("?", bun.Ident(table)).
		ExcludeColumn("id")
}

func searchDocumentsQuery(db *bun.DB, table string, dest *[]Document, queryEmbedding []float32, limit int) *bun.SelectQuery {
	return db.NewSelect().
		Model(dest).
		ModelTableExpr("? AS d", bun.Ident(table)).
		Column("id", "content", "heading", "page_number", "chunk_id").
		OrderExpr("embedding <=> ?", Vector(queryEmbedding)).
		Limit(limit)
}

func dropTableQuery(db *bun.DB, table string) *bun.DropTableQuery {
	return db.NewDropTable().TableExpr("?", bun.Ident(table)).IfExists()
}
