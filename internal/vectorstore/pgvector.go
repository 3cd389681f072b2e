package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgVectorStore keeps one embedding row per document in a pgvector
// table.
type PgVectorStore struct {
	db       *pgxpool.Pool
	embedder Embedder
	dims     int
}

func NewPgVectorStore(db *pgxpool.Pool, embedder Embedder, dims int) *PgVectorStore {
	if dims <= 0 {
		dims = 768
	}
	return &PgVectorStore{db: db, embedder: embedder, dims: dims}
}

func (s *PgVectorStore) Init(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	_, err := s.db.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS document_vectors (
			document_id UUID PRIMARY KEY,
			content     TEXT NOT NULL,
			metadata    JSONB NOT NULL DEFAULT '{}',
			embedding   vector(%d) NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.dims))
	if err != nil {
		return fmt.Errorf("create document_vectors table: %w", err)
	}
	return nil
}

// Close is a no-op; the pool is owned by the caller.
func (s *PgVectorStore) Close() error { return nil }

func (s *PgVectorStore) Add(ctx context.Context, documentID uuid.UUID, content string, metadata map[string]string, embedding []float32) error {
	if metadata == nil {
		metadata = map[string]string{}
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO document_vectors (document_id, content, metadata, embedding)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (document_id) DO UPDATE SET content = $2, metadata = $3, embedding = $4`,
		documentID, content, metadata, pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("upsert vector %s: %w", documentID, err)
	}
	return nil
}

func (s *PgVectorStore) SearchSimilar(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT document_id, content, metadata, 1 - (embedding <=> $1) AS score
		 FROM document_vectors
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(queryVec), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	results := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.DocumentID, &r.Content, &r.Metadata, &r.Score); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *PgVectorStore) Delete(ctx context.Context, documentID uuid.UUID) error {
	_, err := s.db.Exec(ctx, "DELETE FROM document_vectors WHERE document_id = $1", documentID)
	if err != nil {
		return fmt.Errorf("delete vector %s: %w", documentID, err)
	}
	return nil
}

func (s *PgVectorStore) Get(ctx context.Context, documentID uuid.UUID) (*StoredDocument, error) {
	var doc StoredDocument
	err := s.db.QueryRow(ctx,
		"SELECT document_id, content, metadata FROM document_vectors WHERE document_id = $1",
		documentID,
	).Scan(&doc.DocumentID, &doc.Content, &doc.Metadata)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vector %s: %w", documentID, err)
	}
	return &doc, nil
}

func (s *PgVectorStore) All(ctx context.Context) ([]StoredDocument, error) {
	rows, err := s.db.Query(ctx,
		"SELECT document_id, content, metadata FROM document_vectors ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("list vectors: %w", err)
	}
	defer rows.Close()

	docs := []StoredDocument{}
	for rows.Next() {
		var d StoredDocument
		if err := rows.Scan(&d.DocumentID, &d.Content, &d.Metadata); err != nil {
			return nil, fmt.Errorf("scan vector row: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
