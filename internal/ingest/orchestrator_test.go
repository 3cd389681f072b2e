package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assistantkit/backend/internal/llm"
	"github.com/assistantkit/backend/internal/models"
	"github.com/assistantkit/backend/internal/retry"
	"github.com/assistantkit/backend/internal/store"
	"github.com/assistantkit/backend/internal/vectorstore"
)

type fakeDocStore struct {
	mu           sync.Mutex
	docs         map[uuid.UUID]*models.Document
	markReadyErr error
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: make(map[uuid.UUID]*models.Document)}
}

func (f *fakeDocStore) Insert(_ context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *doc
	f.docs[doc.ID] = &cp
	return nil
}

func (f *fakeDocStore) Get(_ context.Context, id uuid.UUID) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (f *fakeDocStore) List(_ context.Context, folderID *uuid.UUID, offset, limit int) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Document
	for _, d := range f.docs {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDocStore) MarkReady(_ context.Context, id uuid.UUID, res models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markReadyErr != nil {
		return f.markReadyErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return store.ErrNotFound
	}
	doc.Status = models.DocStatusReady
	doc.SizeBytes = res.SizeBytes
	doc.EmbeddingID = res.EmbeddingID
	doc.Content = res.Content
	doc.Summary = res.Summary
	doc.Tags = res.Tags
	doc.ProcessedAt = res.ProcessedAt
	doc.Error = ""
	return nil
}

func (f *fakeDocStore) MarkError(_ context.Context, id uuid.UUID, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return store.ErrNotFound
	}
	doc.Status = models.DocStatusError
	doc.Error = msg
	return nil
}

func (f *fakeDocStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

type fakeFolderStore struct {
	folders map[uuid.UUID]*models.Folder
}

func newFakeFolderStore() *fakeFolderStore {
	return &fakeFolderStore{folders: make(map[uuid.UUID]*models.Folder)}
}

func (f *fakeFolderStore) Insert(_ context.Context, folder *models.Folder) error {
	f.folders[folder.ID] = folder
	return nil
}

func (f *fakeFolderStore) Get(_ context.Context, id uuid.UUID) (*models.Folder, error) {
	folder, ok := f.folders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return folder, nil
}

func (f *fakeFolderStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.folders[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.folders, id)
	return nil
}

type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = raw
	return nil
}

func (f *fakeBlobStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, key)
	return nil
}

type fakeGateway struct {
	embedErr   error
	embedCalls int
}

func (g *fakeGateway) Generate(context.Context, llm.GenerateRequest) (string, error) {
	return "", errors.New("not used")
}

func (g *fakeGateway) Embed(_ context.Context, text string) ([]float32, error) {
	g.embedCalls++
	if g.embedErr != nil {
		return nil, g.embedErr
	}
	return []float32{1, 0, 0}, nil
}

func (g *fakeGateway) Train(context.Context, []llm.TrainingDocument, models.TrainingConfig, llm.ProgressFunc, llm.HaltFunc) error {
	return errors.New("not used")
}

type fakeEnqueuer struct {
	documents []uuid.UUID
	sessions  []uuid.UUID
	failNext  bool
}

func (f *fakeEnqueuer) EnqueueDocumentProcess(id uuid.UUID) error {
	if f.failNext {
		return errors.New("queue unavailable")
	}
	f.documents = append(f.documents, id)
	return nil
}

func (f *fakeEnqueuer) EnqueueTrainingRun(id uuid.UUID) error {
	f.sessions = append(f.sessions, id)
	return nil
}

type testHarness struct {
	orch    *Orchestrator
	docs    *fakeDocStore
	folders *fakeFolderStore
	blobs   *fakeBlobStore
	gateway *fakeGateway
	vectors *vectorstore.MemoryStore
	jobs    *fakeEnqueuer
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	h := &testHarness{
		docs:    newFakeDocStore(),
		folders: newFakeFolderStore(),
		blobs:   newFakeBlobStore(),
		gateway: &fakeGateway{},
		jobs:    &fakeEnqueuer{},
	}
	h.vectors = vectorstore.NewMemoryStore(h.gateway)
	require.NoError(t, h.vectors.Init(context.Background()))
	h.orch = NewOrchestrator(h.docs, h.folders, h.blobs, h.gateway, h.vectors, h.jobs,
		retry.Options{Attempts: 2, Delay: time.Millisecond, Backoff: 2.0})
	return h
}

func TestUpload_RegistersProcessingAndEnqueues(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	doc, err := h.orch.Upload(ctx, UploadRequest{
		Name:      "notes.txt",
		MediaType: "text/plain",
		Data:      bytes.NewReader([]byte("some notes about cats")),
	})
	require.NoError(t, err)

	assert.Equal(t, models.DocStatusProcessing, doc.Status)
	assert.Equal(t, []uuid.UUID{doc.ID}, h.jobs.documents)

	stored, err := h.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusProcessing, stored.Status)
}

func TestUpload_RejectsUnsupportedMediaType(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.Upload(context.Background(), UploadRequest{
		Name:      "cat.png",
		MediaType: "image/png",
		Data:      bytes.NewReader([]byte{0x89}),
	})
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
	assert.Empty(t, h.jobs.documents, "nothing enqueued for rejected upload")
}

func TestUpload_UnknownFolderRejected(t *testing.T) {
	h := newHarness(t)
	missing := uuid.New()

	_, err := h.orch.Upload(context.Background(), UploadRequest{
		Name:      "notes.txt",
		MediaType: "text/plain",
		Data:      bytes.NewReader([]byte("x")),
		FolderID:  &missing,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProcess_HappyPath(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	content := []byte("cats cats cats enjoy long afternoon naps beside sunny windows")
	doc, err := h.orch.Upload(ctx, UploadRequest{
		Name:      "cats.txt",
		MediaType: "text/plain",
		Data:      bytes.NewReader(content),
	})
	require.NoError(t, err)

	require.NoError(t, h.orch.Process(ctx, doc.ID))

	stored, err := h.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusReady, stored.Status)
	assert.Equal(t, int64(len(content)), stored.SizeBytes)
	assert.Equal(t, doc.ID.String(), stored.EmbeddingID)
	require.NotNil(t, stored.ProcessedAt)
	assert.NotEmpty(t, stored.Summary)
	assert.Contains(t, stored.Tags, "cats")
	assert.Empty(t, stored.Error)

	vec, err := h.vectors.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, string(content), vec.Content)
	assert.Equal(t, "cats.txt", vec.Metadata["name"])
}

func TestProcess_ExtractionFailureMarksError(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	doc, err := h.orch.Upload(ctx, UploadRequest{
		Name:      "broken.pdf",
		MediaType: "application/pdf",
		Data:      bytes.NewReader([]byte("definitely not a pdf")),
	})
	require.NoError(t, err)

	err = h.orch.Process(ctx, doc.ID)
	require.Error(t, err, "failure must re-raise to the execution layer")

	stored, getErr := h.docs.Get(ctx, doc.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.DocStatusError, stored.Status)
	assert.NotEmpty(t, stored.Error)
	assert.Empty(t, stored.EmbeddingID, "no vector reference in error state")
	assert.Nil(t, stored.ProcessedAt)

	_, vecErr := h.vectors.Get(ctx, doc.ID)
	assert.ErrorIs(t, vecErr, vectorstore.ErrNotFound)
}

func TestProcess_EmbeddingFailureRetriedThenMarksError(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.gateway.embedErr = errors.New("upstream timeout")

	doc, err := h.orch.Upload(ctx, UploadRequest{
		Name:      "notes.txt",
		MediaType: "text/plain",
		Data:      bytes.NewReader([]byte("text body")),
	})
	require.NoError(t, err)

	err = h.orch.Process(ctx, doc.ID)
	require.Error(t, err)
	assert.Equal(t, 2, h.gateway.embedCalls, "transient failure retried to the attempt bound")

	stored, getErr := h.docs.Get(ctx, doc.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.DocStatusError, stored.Status)
	assert.Contains(t, stored.Error, "upstream timeout")
}

func TestProcess_FinalizeFailureMarksError(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.docs.markReadyErr = errors.New("connection reset")

	doc, err := h.orch.Upload(ctx, UploadRequest{
		Name:      "notes.txt",
		MediaType: "text/plain",
		Data:      bytes.NewReader([]byte("text body")),
	})
	require.NoError(t, err)

	err = h.orch.Process(ctx, doc.ID)
	require.Error(t, err)

	stored, getErr := h.docs.Get(ctx, doc.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.DocStatusError, stored.Status,
		"failed terminal write must not strand the row in processing")
	assert.Contains(t, stored.Error, "connection reset")
}

func TestDelete_RemovesVectorAndRow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	doc, err := h.orch.Upload(ctx, UploadRequest{
		Name:      "notes.txt",
		MediaType: "text/plain",
		Data:      bytes.NewReader([]byte("to be removed")),
	})
	require.NoError(t, err)
	require.NoError(t, h.orch.Process(ctx, doc.ID))

	require.NoError(t, h.orch.Delete(ctx, doc.ID))

	_, err = h.docs.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = h.vectors.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, vectorstore.ErrNotFound)
}

func TestCreateFolder_ValidatesParent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	parent, err := h.orch.CreateFolder(ctx, "research", nil)
	require.NoError(t, err)

	child, err := h.orch.CreateFolder(ctx, "papers", &parent.ID)
	require.NoError(t, err)
	assert.Equal(t, parent.ID, *child.ParentID)

	missing := uuid.New()
	_, err = h.orch.CreateFolder(ctx, "orphan", &missing)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
