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

const documentColumns = `id, name, media_type, size_bytes, status, folder_id,
	embedding_id, content, summary, tags, error, created_at, processed_at`

type Documents struct {
	db *pgxpool.Pool
}

func NewDocuments(db *pgxpool.Pool) *Documents {
	return &Documents{db: db}
}

func (s *Documents) Insert(ctx context.Context, doc *models.Document) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO documents (id, name, media_type, size_bytes, status, folder_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		doc.ID, doc.Name, doc.MediaType, doc.SizeBytes, doc.Status, doc.FolderID, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *Documents) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = $1", id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (s *Documents) List(ctx context.Context, folderID *uuid.UUID, offset, limit int) ([]models.Document, error) {
	query := "SELECT " + documentColumns + " FROM documents"
	args := []any{}
	if folderID != nil {
		query += " WHERE folder_id = $1"
		args = append(args, *folderID)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC OFFSET $%d LIMIT $%d", len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// MarkReady commits every derived field in one terminal write.
func (s *Documents) MarkReady(ctx context.Context, id uuid.UUID, res models.Document) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE documents
		 SET status = $2, size_bytes = $3, embedding_id = $4, content = $5,
		     summary = $6, tags = $7, processed_at = $8, error = ''
		 WHERE id = $1`,
		id, models.DocStatusReady, res.SizeBytes, res.EmbeddingID, res.Content,
		res.Summary, res.Tags, res.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("mark document ready: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Documents) MarkError(ctx context.Context, id uuid.UUID, msg string) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE documents SET status = $2, error = $3 WHERE id = $1",
		id, models.DocStatusError, msg,
	)
	if err != nil {
		return fmt.Errorf("mark document error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Documents) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.Name, &d.MediaType, &d.SizeBytes, &d.Status,
		&d.FolderID, &d.EmbeddingID, &d.Content, &d.Summary, &d.Tags,
		&d.Error, &d.CreatedAt, &d.ProcessedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

type Folders struct {
	db *pgxpool.Pool
}

func NewFolders(db *pgxpool.Pool) *Folders {
	return &Folders{db: db}
}

func (s *Folders) Insert(ctx context.Context, folder *models.Folder) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO folders (id, name, parent_id, created_at) VALUES ($1, $2, $3, $4)",
		folder.ID, folder.Name, folder.ParentID, folder.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert folder: %w", err)
	}
	return nil
}

func (s *Folders) Get(ctx context.Context, id uuid.UUID) (*models.Folder, error) {
	var f models.Folder
	err := s.db.QueryRow(ctx,
		"SELECT id, name, parent_id, created_at FROM folders WHERE id = $1", id,
	).Scan(&f.ID, &f.Name, &f.ParentID, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return &f, nil
}

// Delete removes the folder. Descendant folders go with it via the
// self-referential cascade; documents keep their rows with folder_id
// cleared (soft reference).
func (s *Folders) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM folders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
