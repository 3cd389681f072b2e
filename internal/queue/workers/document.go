// Package workers binds queued jobs to the services that execute
// them. Each handler unmarshals its payload, resolves ids, and
// delegates; the owning service records the entity's terminal state,
// so handler errors are for logging and queue accounting only.
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/assistantkit/backend/internal/ingest"
	"github.com/assistantkit/backend/internal/queue"
)

type DocumentWorker struct {
	orchestrator *ingest.Orchestrator
}

func NewDocumentWorker(o *ingest.Orchestrator) *DocumentWorker {
	return &DocumentWorker{orchestrator: o}
}

func (w *DocumentWorker) Register(registry *queue.HandlersRegistry) {
	registry.Register(queue.TypeDocumentProcess, asynq.HandlerFunc(w.HandleProcess))
}

func (w *DocumentWorker) HandleProcess(ctx context.Context, task *asynq.Task) error {
	var payload queue.DocumentProcessPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", queue.TypeDocumentProcess, err)
	}
	documentID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		return fmt.Errorf("parse document id %q: %w", payload.DocumentID, err)
	}

	slog.Info("processing document", "document_id", documentID)
	if err := w.orchestrator.Process(ctx, documentID); err != nil {
		slog.Error("document processing failed", "document_id", documentID, "error", err)
		return err
	}
	slog.Info("document processed", "document_id", documentID)
	return nil
}
