package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assistantkit/backend/internal/config"
	"github.com/assistantkit/backend/internal/database"
	"github.com/assistantkit/backend/internal/models"
)

// testPool connects to the database named by DATABASE_URL and applies
// the migrations, or skips the test when no database is configured.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping postgres integration test")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, config.DatabaseConfig{URL: url, MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.RunMigrations(ctx, pool, "../../migrations"))
	return pool
}

func TestFolders_DeleteCascadesChildrenOrphansDocuments(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	folders := NewFolders(pool)
	docs := NewDocuments(pool)

	now := time.Now().UTC()
	parent := &models.Folder{ID: uuid.New(), Name: "parent", CreatedAt: now}
	require.NoError(t, folders.Insert(ctx, parent))
	childA := &models.Folder{ID: uuid.New(), Name: "child-a", ParentID: &parent.ID, CreatedAt: now}
	childB := &models.Folder{ID: uuid.New(), Name: "child-b", ParentID: &parent.ID, CreatedAt: now}
	require.NoError(t, folders.Insert(ctx, childA))
	require.NoError(t, folders.Insert(ctx, childB))

	doc := &models.Document{
		ID:        uuid.New(),
		Name:      "kept.txt",
		MediaType: "text/plain",
		Status:    models.DocStatusProcessing,
		FolderID:  &parent.ID,
		CreatedAt: now,
	}
	require.NoError(t, docs.Insert(ctx, doc))
	t.Cleanup(func() { _ = docs.Delete(context.Background(), doc.ID) })

	require.NoError(t, folders.Delete(ctx, parent.ID))

	_, err := folders.Get(ctx, childA.ID)
	assert.ErrorIs(t, err, ErrNotFound, "child folders removed transitively")
	_, err = folders.Get(ctx, childB.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	kept, err := docs.Get(ctx, doc.ID)
	require.NoError(t, err, "document survives its folder")
	assert.Nil(t, kept.FolderID, "folder reference cleared, not dangling")
	assert.Equal(t, models.DocStatusProcessing, kept.Status)
}
