// Package training owns the lifecycle of model training jobs: session
// rows move created → training → completed/failed/stopped, with the
// worker-side Run call as the only writer of terminal states.
package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/assistantkit/backend/internal/llm"
	"github.com/assistantkit/backend/internal/models"
	"github.com/assistantkit/backend/internal/queue"
	"github.com/assistantkit/backend/internal/store"
	"github.com/assistantkit/backend/internal/vectorstore"
)

// ErrNotRunning reports a stop request against a session that is not
// currently training. Distinct from not-found so callers can map it to
// a conflict rather than an absence.
var ErrNotRunning = errors.New("training session is not running")

// TrainingStore is the persistence surface the manager needs.
type TrainingStore interface {
	Insert(ctx context.Context, session *models.TrainingSession) error
	Get(ctx context.Context, id uuid.UUID) (*models.TrainingSession, error)
	List(ctx context.Context, offset, limit int) ([]models.TrainingSession, error)
	MarkTraining(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	UpdateProgress(ctx context.Context, id uuid.UUID, progress float64) error
	Finish(ctx context.Context, id uuid.UUID, status string, progress float64, errMsg string, completedAt time.Time) error
}

type Corpus interface {
	All(ctx context.Context) ([]vectorstore.StoredDocument, error)
}

type Manager struct {
	sessions TrainingStore
	vectors  Corpus
	gateway  llm.Gateway
	stop     StopFlag
	jobs     queue.Enqueuer
}

func NewManager(sessions TrainingStore, vectors Corpus, gw llm.Gateway, stop StopFlag, jobs queue.Enqueuer) *Manager {
	return &Manager{
		sessions: sessions,
		vectors:  vectors,
		gateway:  gw,
		stop:     stop,
		jobs:     jobs,
	}
}

// Create registers a new session and hands the run to the
// background-execution layer.
func (m *Manager) Create(ctx context.Context, cfg models.TrainingConfig) (*models.TrainingSession, error) {
	if cfg.Epochs <= 0 {
		return nil, fmt.Errorf("epochs must be positive")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("model name is required")
	}

	session := &models.TrainingSession{
		ID:        uuid.New(),
		Status:    models.TrainingStatusCreated,
		Progress:  0,
		Config:    cfg,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.sessions.Insert(ctx, session); err != nil {
		return nil, fmt.Errorf("create training session: %w", err)
	}

	if err := m.jobs.EnqueueTrainingRun(session.ID); err != nil {
		m.finish(ctx, session.ID, models.TrainingStatusFailed, 0, err.Error())
		return nil, fmt.Errorf("enqueue training run: %w", err)
	}

	slog.Info("training session created", "session_id", session.ID, "model", cfg.ModelName)
	return session, nil
}

// Run executes the session to a terminal state. It is the single
// writer of terminal statuses: Stop only raises the flag, Run records
// the `stopped` outcome once the gateway acknowledges the halt.
func (m *Manager) Run(ctx context.Context, sessionID uuid.UUID) error {
	session, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load training session %s: %w", sessionID, err)
	}
	if session.Terminal() {
		slog.Warn("skipping run of finished training session",
			"session_id", sessionID, "status", session.Status)
		return nil
	}

	startedAt := time.Now().UTC()
	if err := m.sessions.MarkTraining(ctx, sessionID, startedAt); err != nil {
		return fmt.Errorf("mark session %s training: %w", sessionID, err)
	}

	corpus, err := m.buildCorpus(ctx)
	if err != nil {
		m.finish(ctx, sessionID, models.TrainingStatusFailed, 0, err.Error())
		return fmt.Errorf("training session %s: %w", sessionID, err)
	}

	reporter := newProgressReporter(ctx, m.sessions, sessionID)
	halted := func() bool {
		return m.stop.IsSet(ctx, sessionID)
	}

	trainErr := m.gateway.Train(ctx, corpus, session.Config, reporter.report, halted)

	switch {
	case trainErr == nil:
		m.finish(ctx, sessionID, models.TrainingStatusCompleted, 1.0, "")
		slog.Info("training session completed", "session_id", sessionID)
	case errors.Is(trainErr, llm.ErrTrainingStopped):
		m.finish(ctx, sessionID, models.TrainingStatusStopped, reporter.last(), "")
		slog.Info("training session stopped", "session_id", sessionID, "progress", reporter.last())
	default:
		m.finish(ctx, sessionID, models.TrainingStatusFailed, reporter.last(), trainErr.Error())
		return fmt.Errorf("training session %s: %w", sessionID, trainErr)
	}

	if err := m.stop.Clear(ctx, sessionID); err != nil {
		slog.Warn("failed to clear stop flag", "session_id", sessionID, "error", err)
	}
	return nil
}

// Stop requests a halt of a running session. The run itself records
// the terminal state when it acknowledges the flag.
func (m *Manager) Stop(ctx context.Context, sessionID uuid.UUID) error {
	session, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status != models.TrainingStatusTraining {
		return fmt.Errorf("session %s has status %s: %w", sessionID, session.Status, ErrNotRunning)
	}
	if err := m.stop.Set(ctx, sessionID); err != nil {
		return fmt.Errorf("request stop for session %s: %w", sessionID, err)
	}
	slog.Info("training stop requested", "session_id", sessionID)
	return nil
}

func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*models.TrainingSession, error) {
	return m.sessions.Get(ctx, id)
}

func (m *Manager) List(ctx context.Context, offset, limit int) ([]models.TrainingSession, error) {
	if limit <= 0 {
		limit = 50
	}
	return m.sessions.List(ctx, offset, limit)
}

func (m *Manager) buildCorpus(ctx context.Context) ([]llm.TrainingDocument, error) {
	stored, err := m.vectors.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load training corpus: %w", err)
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("no ready documents to train on")
	}
	corpus := make([]llm.TrainingDocument, 0, len(stored))
	for _, doc := range stored {
		corpus = append(corpus, llm.TrainingDocument{
			DocumentID: doc.DocumentID.String(),
			Content:    doc.Content,
		})
	}
	return corpus, nil
}

func (m *Manager) finish(ctx context.Context, id uuid.UUID, status string, progress float64, errMsg string) {
	if err := m.sessions.Finish(ctx, id, status, progress, errMsg, time.Now().UTC()); err != nil {
		slog.Error("failed to record training session outcome",
			"session_id", id, "status", status, "error", err)
	}
}

// progressReporter persists progress updates and clamps regressions: a
// callback reporting less than what is already stored keeps the stored
// value and logs the anomaly.
type progressReporter struct {
	ctx       context.Context
	sessions  TrainingStore
	sessionID uuid.UUID

	mu   sync.Mutex
	high float64
}

func newProgressReporter(ctx context.Context, sessions TrainingStore, sessionID uuid.UUID) *progressReporter {
	return &progressReporter{ctx: ctx, sessions: sessions, sessionID: sessionID}
}

func (r *progressReporter) report(progress float64) {
	r.mu.Lock()
	if progress < r.high {
		slog.Warn("non-monotonic training progress clamped",
			"session_id", r.sessionID, "reported", progress, "kept", r.high)
		progress = r.high
	}
	if progress > 1.0 {
		progress = 1.0
	}
	r.high = progress
	r.mu.Unlock()

	if err := r.sessions.UpdateProgress(r.ctx, r.sessionID, progress); err != nil {
		slog.Warn("failed to persist training progress",
			"session_id", r.sessionID, "progress", progress, "error", err)
	}
}

func (r *progressReporter) last() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.high
}

var _ TrainingStore = (*store.TrainingSessions)(nil)
