package models

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	MediaType   string     `json:"media_type" db:"media_type"`
	SizeBytes   int64      `json:"size_bytes" db:"size_bytes"`
	Status      string     `json:"status" db:"status"`
	FolderID    *uuid.UUID `json:"folder_id,omitempty" db:"folder_id"`
	EmbeddingID string     `json:"embedding_id,omitempty" db:"embedding_id"`
	Content     string     `json:"-" db:"content"`
	Summary     string     `json:"summary,omitempty" db:"summary"`
	Tags        []string   `json:"tags,omitempty" db:"tags"`
	Error       string     `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" db:"processed_at"`
}

type Folder struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

const (
	DocStatusProcessing = "processing"
	DocStatusReady      = "ready"
	DocStatusError      = "error"
)
