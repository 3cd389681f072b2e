// Package vectorstore stores, queries, and deletes document embeddings
// in a similarity-search backend, keyed by document id.
package vectorstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get for an absent document id.
var ErrNotFound = errors.New("vector not found")

type StoredDocument struct {
	DocumentID uuid.UUID         `json:"document_id"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata"`
}

type SearchResult struct {
	DocumentID uuid.UUID         `json:"document_id"`
	Content    string            `json:"content"`
	Score      float64           `json:"score"`
	Metadata   map[string]string `json:"metadata"`
}

// Embedder turns query text into a vector. llm.Gateway satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore is the similarity-search backend. Add overwrites any prior
// vector for the same document id; Delete of an absent id is a no-op;
// SearchSimilar over an empty corpus returns an empty result set.
type VectorStore interface {
	// Init establishes the connection and creates-or-fetches the backing
	// collection. Must be called before first use.
	Init(ctx context.Context) error
	Close() error

	Add(ctx context.Context, documentID uuid.UUID, content string, metadata map[string]string, embedding []float32) error
	SearchSimilar(ctx context.Context, query string, limit int) ([]SearchResult, error)
	Delete(ctx context.Context, documentID uuid.UUID) error
	Get(ctx context.Context, documentID uuid.UUID) (*StoredDocument, error)

	// All returns the full stored corpus, used as training input.
	All(ctx context.Context) ([]StoredDocument, error)
}
