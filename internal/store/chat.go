package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assistantkit/backend/internal/models"
)

type Chat struct {
	db *pgxpool.Pool
}

func NewChat(db *pgxpool.Pool) *Chat {
	return &Chat{db: db}
}

func (s *Chat) InsertContext(ctx context.Context, c *models.ChatContext) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO chat_contexts (id, title, created_at) VALUES ($1, $2, $3)",
		c.ID, c.Title, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert context: %w", err)
	}
	return nil
}

func (s *Chat) GetContext(ctx context.Context, id uuid.UUID) (*models.ChatContext, error) {
	var c models.ChatContext
	err := s.db.QueryRow(ctx,
		"SELECT id, title, created_at FROM chat_contexts WHERE id = $1", id,
	).Scan(&c.ID, &c.Title, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get context: %w", err)
	}
	return &c, nil
}

func (s *Chat) ListContexts(ctx context.Context, offset, limit int) ([]models.ChatContext, error) {
	rows, err := s.db.Query(ctx,
		"SELECT id, title, created_at FROM chat_contexts ORDER BY created_at OFFSET $1 LIMIT $2",
		offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list contexts: %w", err)
	}
	defer rows.Close()

	var contexts []models.ChatContext
	for rows.Next() {
		var c models.ChatContext
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan context: %w", err)
		}
		contexts = append(contexts, c)
	}
	return contexts, rows.Err()
}

func (s *Chat) InsertMessage(ctx context.Context, m *models.ChatMessage) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO chat_messages (id, content, role, context_id, created_at) VALUES ($1, $2, $3, $4, $5)",
		m.ID, m.Content, m.Role, m.ContextID, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *Chat) ListMessages(ctx context.Context, contextID uuid.UUID) ([]models.ChatMessage, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, content, role, context_id, created_at
		 FROM chat_messages WHERE context_id = $1 ORDER BY created_at`,
		contextID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.Content, &m.Role, &m.ContextID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
