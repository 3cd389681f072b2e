package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assistantkit/backend/internal/models"
)

type TrainingSessions struct {
	db *pgxpool.Pool
}

func NewTrainingSessions(db *pgxpool.Pool) *TrainingSessions {
	return &TrainingSessions{db: db}
}

func (s *TrainingSessions) Insert(ctx context.Context, session *models.TrainingSession) error {
	cfg, err := json.Marshal(session.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO training_sessions (id, status, progress, config, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.Status, session.Progress, cfg, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert training session: %w", err)
	}
	return nil
}

func (s *TrainingSessions) Get(ctx context.Context, id uuid.UUID) (*models.TrainingSession, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, status, progress, config, error, created_at, started_at, completed_at
		 FROM training_sessions WHERE id = $1`, id)
	session, err := scanTrainingSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get training session: %w", err)
	}
	return session, nil
}

func (s *TrainingSessions) List(ctx context.Context, offset, limit int) ([]models.TrainingSession, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, status, progress, config, error, created_at, started_at, completed_at
		 FROM training_sessions ORDER BY created_at DESC OFFSET $1 LIMIT $2`,
		offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list training sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.TrainingSession
	for rows.Next() {
		session, err := scanTrainingSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan training session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// MarkTraining records the one-time transition into the training state.
func (s *TrainingSessions) MarkTraining(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE training_sessions SET status = $2, started_at = $3
		 WHERE id = $1 AND status = $4`,
		id, models.TrainingStatusTraining, startedAt, models.TrainingStatusCreated,
	)
	if err != nil {
		return fmt.Errorf("mark training: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *TrainingSessions) UpdateProgress(ctx context.Context, id uuid.UUID, progress float64) error {
	_, err := s.db.Exec(ctx,
		"UPDATE training_sessions SET progress = $2 WHERE id = $1", id, progress)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// Finish records a terminal status with its completion timestamp.
func (s *TrainingSessions) Finish(ctx context.Context, id uuid.UUID, status string, progress float64, errMsg string, completedAt time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE training_sessions
		 SET status = $2, progress = $3, error = $4, completed_at = $5
		 WHERE id = $1 AND completed_at IS NULL`,
		id, status, progress, errMsg, completedAt,
	)
	if err != nil {
		return fmt.Errorf("finish training session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTrainingSession(row pgx.Row) (*models.TrainingSession, error) {
	var (
		t   models.TrainingSession
		cfg []byte
	)
	err := row.Scan(&t.ID, &t.Status, &t.Progress, &cfg, &t.Error,
		&t.CreatedAt, &t.StartedAt, &t.CompletedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cfg, &t.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &t, nil
}
