package models

import (
	"time"

	"github.com/google/uuid"
)

type ChatContext struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title,omitempty" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ChatMessage is immutable once written.
type ChatMessage struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Content   string     `json:"content" db:"content"`
	Role      string     `json:"role" db:"role"`
	ContextID *uuid.UUID `json:"context_id,omitempty" db:"context_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
