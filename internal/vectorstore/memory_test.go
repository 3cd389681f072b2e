package vectorstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder maps known strings to fixed vectors.
type stubEmbedder struct {
	vectors map[string][]float32
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore(&stubEmbedder{vectors: map[string][]float32{
		"cats": {1, 0, 0},
		"dogs": {0, 1, 0},
	}})
	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestMemoryStore_AddGetRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	id := uuid.New()

	meta := map[string]string{"name": "cats.txt", "type": "text/plain"}
	require.NoError(t, store.Add(ctx, id, "all about cats", meta, []float32{1, 0, 0}))

	doc, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "all about cats", doc.Content)
	assert.Equal(t, meta, doc.Metadata)
}

func TestMemoryStore_AddOverwritesSameID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	id := uuid.New()

	require.NoError(t, store.Add(ctx, id, "v1", nil, []float32{1, 0, 0}))
	require.NoError(t, store.Add(ctx, id, "v2", nil, []float32{0, 1, 0}))

	doc, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "v2", doc.Content)

	docs, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestMemoryStore_DeleteThenGetNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	id := uuid.New()

	require.NoError(t, store.Add(ctx, id, "content", nil, []float32{1, 0, 0}))
	require.NoError(t, store.Delete(ctx, id))

	_, err := store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent id is a no-op, not an error.
	assert.NoError(t, store.Delete(ctx, id))
}

func TestMemoryStore_SearchEmptyCorpus(t *testing.T) {
	store := newTestStore(t)

	results, err := store.SearchSimilar(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStore_SearchRespectsLimitAndOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	catID := uuid.New()
	require.NoError(t, store.Add(ctx, catID, "cat care", nil, []float32{1, 0, 0}))
	require.NoError(t, store.Add(ctx, uuid.New(), "dog care", nil, []float32{0, 1, 0}))
	require.NoError(t, store.Add(ctx, uuid.New(), "fish care", nil, []float32{0, 0, 1}))

	results, err := store.SearchSimilar(ctx, "cats", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, catID, results[0].DocumentID, "best match first")
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)

	results, err = store.SearchSimilar(ctx, "cats", 10)
	require.NoError(t, err)
	assert.Len(t, results, 3, "never more than the corpus size")
}

func TestMemoryStore_AllOrderSurvivesDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, store.Add(ctx, a, "first", nil, []float32{1, 0, 0}))
	require.NoError(t, store.Add(ctx, b, "second", nil, []float32{0, 1, 0}))
	require.NoError(t, store.Add(ctx, c, "third", nil, []float32{0, 0, 1}))

	require.NoError(t, store.Delete(ctx, b))
	require.NoError(t, store.Add(ctx, d, "fourth", nil, []float32{1, 1, 0}))

	docs, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []uuid.UUID{a, c, d},
		[]uuid.UUID{docs[0].DocumentID, docs[1].DocumentID, docs[2].DocumentID},
		"insertion order unambiguous after a delete")
}
