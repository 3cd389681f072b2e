package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type TrainingConfig struct {
	Epochs       int             `json:"epochs"`
	BatchSize    int             `json:"batch_size"`
	LearningRate float64         `json:"learning_rate"`
	ModelName    string          `json:"model_name"`
	Parameters   json.RawMessage `json:"parameters,omitempty"`
}

type TrainingSession struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	Status      string         `json:"status" db:"status"`
	Progress    float64        `json:"progress" db:"progress"`
	Config      TrainingConfig `json:"config" db:"config"`
	Error       string         `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
}

const (
	TrainingStatusCreated   = "created"
	TrainingStatusTraining  = "training"
	TrainingStatusCompleted = "completed"
	TrainingStatusFailed    = "failed"
	TrainingStatusStopped   = "stopped"
)

// Terminal reports whether no further automatic transition occurs from status.
func (s *TrainingSession) Terminal() bool {
	switch s.Status {
	case TrainingStatusCompleted, TrainingStatusFailed, TrainingStatusStopped:
		return true
	}
	return false
}
