package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/assistantkit/backend/internal/queue"
	"github.com/assistantkit/backend/internal/training"
)

type TrainingWorker struct {
	manager *training.Manager
}

func NewTrainingWorker(m *training.Manager) *TrainingWorker {
	return &TrainingWorker{manager: m}
}

func (w *TrainingWorker) Register(registry *queue.HandlersRegistry) {
	registry.Register(queue.TypeTrainingRun, asynq.HandlerFunc(w.HandleRun))
}

func (w *TrainingWorker) HandleRun(ctx context.Context, task *asynq.Task) error {
	var payload queue.TrainingRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", queue.TypeTrainingRun, err)
	}
	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		return fmt.Errorf("parse session id %q: %w", payload.SessionID, err)
	}

	slog.Info("running training session", "session_id", sessionID)
	if err := w.manager.Run(ctx, sessionID); err != nil {
		slog.Error("training run failed", "session_id", sessionID, "error", err)
		return err
	}
	return nil
}
