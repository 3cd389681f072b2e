package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a map-backed VectorStore with cosine similarity. It
// backs single-node deployments without Postgres and the test suites.
type MemoryStore struct {
	embedder Embedder

	mu      sync.RWMutex
	rows    map[uuid.UUID]memoryRow
	nextSeq int
}

type memoryRow struct {
	content   string
	metadata  map[string]string
	embedding []float32
	seq       int
}

func NewMemoryStore(embedder Embedder) *MemoryStore {
	return &MemoryStore{embedder: embedder}
}

func (s *MemoryStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows == nil {
		s.rows = make(map[uuid.UUID]memoryRow)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	return nil
}

func (s *MemoryStore) Add(ctx context.Context, documentID uuid.UUID, content string, metadata map[string]string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.nextSeq
	if prev, ok := s.rows[documentID]; ok {
		seq = prev.seq
	} else {
		s.nextSeq++
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	s.rows[documentID] = memoryRow{
		content:   content,
		metadata:  metadata,
		embedding: embedding,
		seq:       seq,
	}
	return nil
}

func (s *MemoryStore) SearchSimilar(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	s.mu.RLock()
	empty := len(s.rows) == 0
	s.mu.RUnlock()
	if empty {
		return []SearchResult{}, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	results := make([]SearchResult, 0, len(s.rows))
	for id, row := range s.rows {
		results = append(results, SearchResult{
			DocumentID: id,
			Content:    row.content,
			Metadata:   row.metadata,
			Score:      cosineSimilarity(queryVec, row.embedding),
		})
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *MemoryStore) Delete(ctx context.Context, documentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, documentID)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, documentID uuid.UUID) (*StoredDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	return &StoredDocument{
		DocumentID: documentID,
		Content:    row.content,
		Metadata:   row.metadata,
	}, nil
}

func (s *MemoryStore) All(ctx context.Context) ([]StoredDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		doc StoredDocument
		seq int
	}
	entries := make([]entry, 0, len(s.rows))
	for id, row := range s.rows {
		entries = append(entries, entry{
			doc: StoredDocument{DocumentID: id, Content: row.content, Metadata: row.metadata},
			seq: row.seq,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	docs := make([]StoredDocument, len(entries))
	for i, e := range entries {
		docs[i] = e.doc
	}
	return docs, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
