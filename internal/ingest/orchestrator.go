// Package ingest owns the per-document lifecycle from upload to a
// terminal ready or error state.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/assistantkit/backend/internal/llm"
	"github.com/assistantkit/backend/internal/models"
	"github.com/assistantkit/backend/internal/queue"
	"github.com/assistantkit/backend/internal/retry"
	"github.com/assistantkit/backend/internal/storage"
	"github.com/assistantkit/backend/internal/store"
	"github.com/assistantkit/backend/internal/vectorstore"
	"github.com/assistantkit/backend/pkg/textextract"
)

// ErrUnsupportedMediaType rejects uploads the extractor cannot handle.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

type DocumentStore interface {
	Insert(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, id uuid.UUID) (*models.Document, error)
	List(ctx context.Context, folderID *uuid.UUID, offset, limit int) ([]models.Document, error)
	MarkReady(ctx context.Context, id uuid.UUID, res models.Document) error
	MarkError(ctx context.Context, id uuid.UUID, msg string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type FolderStore interface {
	Insert(ctx context.Context, folder *models.Folder) error
	Get(ctx context.Context, id uuid.UUID) (*models.Folder, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Orchestrator drives the document state machine. One in-flight
// processing task per document id; different ids may process
// concurrently.
type Orchestrator struct {
	docs    DocumentStore
	folders FolderStore
	blobs   storage.Storage
	gateway llm.Gateway
	vectors vectorstore.VectorStore
	jobs    queue.Enqueuer
	retry   retry.Options
}

func NewOrchestrator(docs DocumentStore, folders FolderStore, blobs storage.Storage, gw llm.Gateway, vectors vectorstore.VectorStore, jobs queue.Enqueuer, retryOpts retry.Options) *Orchestrator {
	return &Orchestrator{
		docs:    docs,
		folders: folders,
		blobs:   blobs,
		gateway: gw,
		vectors: vectors,
		jobs:    jobs,
		retry:   retryOpts,
	}
}

type UploadRequest struct {
	Name      string
	MediaType string
	Data      io.Reader
	FolderID  *uuid.UUID
}

// Upload registers the document with status processing, stores the raw
// bytes, and hands processing to the background-execution layer.
func (o *Orchestrator) Upload(ctx context.Context, req UploadRequest) (*models.Document, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("document name is required")
	}
	if !textextract.Supported(req.MediaType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, req.MediaType)
	}
	if req.FolderID != nil {
		if _, err := o.folders.Get(ctx, *req.FolderID); err != nil {
			return nil, fmt.Errorf("folder %s: %w", req.FolderID, err)
		}
	}

	doc := &models.Document{
		ID:        uuid.New(),
		Name:      req.Name,
		MediaType: req.MediaType,
		Status:    models.DocStatusProcessing,
		FolderID:  req.FolderID,
		CreatedAt: time.Now().UTC(),
	}

	if err := o.blobs.Put(ctx, doc.ID.String(), req.Data); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	if err := o.docs.Insert(ctx, doc); err != nil {
		return nil, err
	}
	if err := o.jobs.EnqueueDocumentProcess(doc.ID); err != nil {
		// The row exists but nothing will process it; surface as error
		// state rather than leaving it stuck in processing.
		o.failDocument(ctx, doc.ID, err)
		return nil, fmt.Errorf("enqueue processing: %w", err)
	}

	slog.Info("document upload registered", "document_id", doc.ID, "name", doc.Name)
	return doc, nil
}

// Process runs the ingestion state machine to its terminal state.
// Every failure after the row exists is recorded on the document before
// being re-raised to the background-execution layer.
func (o *Orchestrator) Process(ctx context.Context, documentID uuid.UUID) error {
	doc, err := o.docs.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("load document %s: %w", documentID, err)
	}

	result, err := o.process(ctx, doc)
	if err != nil {
		o.failDocument(ctx, documentID, err)
		return fmt.Errorf("process document %s: %w", documentID, err)
	}

	if err := o.docs.MarkReady(ctx, documentID, *result); err != nil {
		// The job will not be redelivered, so a failed terminal write
		// must still move the row out of processing.
		o.failDocument(ctx, documentID, err)
		return fmt.Errorf("finalize document %s: %w", documentID, err)
	}

	slog.Info("document ready", "document_id", documentID, "size_bytes", result.SizeBytes)
	return nil
}

func (o *Orchestrator) process(ctx context.Context, doc *models.Document) (*models.Document, error) {
	rc, err := o.blobs.Get(ctx, doc.ID.String())
	if err != nil {
		return nil, fmt.Errorf("fetch upload: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	text, err := textextract.Extract(data, doc.MediaType)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	var embedding []float32
	err = retry.Do(ctx, func(ctx context.Context) error {
		var embedErr error
		embedding, embedErr = o.gateway.Embed(ctx, text)
		return embedErr
	}, o.retry)
	if err != nil {
		return nil, fmt.Errorf("embed document: %w", err)
	}

	metadata := map[string]string{
		"name": doc.Name,
		"type": doc.MediaType,
	}
	if err := o.vectors.Add(ctx, doc.ID, text, metadata, embedding); err != nil {
		return nil, fmt.Errorf("store vector: %w", err)
	}

	now := time.Now().UTC()
	return &models.Document{
		SizeBytes:   int64(len(data)),
		EmbeddingID: doc.ID.String(),
		Content:     text,
		Summary:     Summarize(text),
		Tags:        DeriveTags(text),
		ProcessedAt: &now,
	}, nil
}

func (o *Orchestrator) failDocument(ctx context.Context, id uuid.UUID, cause error) {
	if err := o.docs.MarkError(ctx, id, cause.Error()); err != nil {
		slog.Error("failed to record document error state",
			"document_id", id, "cause", cause, "error", err)
	}
}

func (o *Orchestrator) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	return o.docs.Get(ctx, id)
}

func (o *Orchestrator) List(ctx context.Context, folderID *uuid.UUID, offset, limit int) ([]models.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	return o.docs.List(ctx, folderID, offset, limit)
}

// Delete removes the document row along with its vector and stored
// upload. Vector and blob deletes are no-ops when absent, so a partial
// earlier failure does not block deletion.
func (o *Orchestrator) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := o.docs.Get(ctx, id); err != nil {
		return err
	}
	if err := o.vectors.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete vector: %w", err)
	}
	if err := o.blobs.Delete(ctx, id.String()); err != nil {
		slog.Warn("failed to delete stored upload", "document_id", id, "error", err)
	}
	return o.docs.Delete(ctx, id)
}

func (o *Orchestrator) CreateFolder(ctx context.Context, name string, parentID *uuid.UUID) (*models.Folder, error) {
	if name == "" {
		return nil, fmt.Errorf("folder name is required")
	}
	if parentID != nil {
		if _, err := o.folders.Get(ctx, *parentID); err != nil {
			return nil, fmt.Errorf("parent folder %s: %w", parentID, err)
		}
	}

	folder := &models.Folder{
		ID:        uuid.New(),
		Name:      name,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.folders.Insert(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// DeleteFolder cascades to descendant folders; documents survive with
// their folder reference cleared.
func (o *Orchestrator) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	return o.folders.Delete(ctx, id)
}

var _ DocumentStore = (*store.Documents)(nil)
var _ FolderStore = (*store.Folders)(nil)
