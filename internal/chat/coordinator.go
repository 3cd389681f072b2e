// Package chat coordinates retrieval-augmented conversations: each
// user turn is persisted, grounded against the vector store when the
// conversation belongs to a context, and answered through the model
// gateway.
package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/assistantkit/backend/internal/llm"
	"github.com/assistantkit/backend/internal/models"
	"github.com/assistantkit/backend/internal/retry"
	"github.com/assistantkit/backend/internal/store"
	"github.com/assistantkit/backend/internal/vectorstore"
)

// groundingLimit caps how many similar documents are folded into a
// single generation request.
const groundingLimit = 5

// ChatStore is the persistence surface the coordinator needs.
type ChatStore interface {
	InsertContext(ctx context.Context, cc *models.ChatContext) error
	GetContext(ctx context.Context, id uuid.UUID) (*models.ChatContext, error)
	ListContexts(ctx context.Context, offset, limit int) ([]models.ChatContext, error)
	InsertMessage(ctx context.Context, msg *models.ChatMessage) error
	ListMessages(ctx context.Context, contextID uuid.UUID) ([]models.ChatMessage, error)
}

type Searcher interface {
	SearchSimilar(ctx context.Context, query string, limit int) ([]vectorstore.SearchResult, error)
}

type Coordinator struct {
	store   ChatStore
	vectors Searcher
	gateway llm.Gateway
	retry   retry.Options
}

func NewCoordinator(cs ChatStore, vectors Searcher, gw llm.Gateway, retryOpts retry.Options) *Coordinator {
	return &Coordinator{
		store:   cs,
		vectors: vectors,
		gateway: gw,
		retry:   retryOpts,
	}
}

type SendRequest struct {
	ContextID *uuid.UUID
	Content   string
	Model     string
}

// Reply is the assistant turn plus the documents it was grounded on.
type Reply struct {
	Message              *models.ChatMessage
	GroundingDocumentIDs []uuid.UUID
}

// SendMessage persists the user turn, retrieves grounding passages when
// the message belongs to a context, and generates the assistant turn.
// The user message is durable before generation starts: a generation
// failure leaves the user turn in history with no assistant reply.
func (c *Coordinator) SendMessage(ctx context.Context, req SendRequest) (*Reply, error) {
	if req.Content == "" {
		return nil, fmt.Errorf("message content is required")
	}
	if req.ContextID != nil {
		if _, err := c.store.GetContext(ctx, *req.ContextID); err != nil {
			return nil, fmt.Errorf("chat context %s: %w", req.ContextID, err)
		}
	}

	userMsg := &models.ChatMessage{
		ID:        uuid.New(),
		ContextID: req.ContextID,
		Role:      models.RoleUser,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.store.InsertMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	var (
		passages []string
		grounded []uuid.UUID
	)
	if req.ContextID != nil {
		results, err := c.searchSimilar(ctx, req.Content)
		if err != nil {
			return nil, fmt.Errorf("retrieve grounding documents: %w", err)
		}
		for _, r := range results {
			passages = append(passages, r.Content)
			grounded = append(grounded, r.DocumentID)
		}
	}

	var answer string
	err := retry.Do(ctx, func(ctx context.Context) error {
		var genErr error
		answer, genErr = c.gateway.Generate(ctx, llm.GenerateRequest{
			Prompt:  req.Content,
			Context: passages,
			Model:   req.Model,
		})
		return genErr
	}, c.retry)
	if err != nil {
		return nil, fmt.Errorf("generate reply: %w", err)
	}

	assistantMsg := &models.ChatMessage{
		ID:        uuid.New(),
		ContextID: req.ContextID,
		Role:      models.RoleAssistant,
		Content:   answer,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.store.InsertMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	return &Reply{Message: assistantMsg, GroundingDocumentIDs: grounded}, nil
}

func (c *Coordinator) searchSimilar(ctx context.Context, query string) ([]vectorstore.SearchResult, error) {
	var results []vectorstore.SearchResult
	err := retry.Do(ctx, func(ctx context.Context) error {
		var searchErr error
		results, searchErr = c.vectors.SearchSimilar(ctx, query, groundingLimit)
		return searchErr
	}, c.retry)
	return results, err
}

// CreateContext starts a new conversation. The title is optional.
func (c *Coordinator) CreateContext(ctx context.Context, title string) (*models.ChatContext, error) {
	cc := &models.ChatContext{
		ID:        uuid.New(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.store.InsertContext(ctx, cc); err != nil {
		return nil, fmt.Errorf("create chat context: %w", err)
	}
	return cc, nil
}

func (c *Coordinator) GetContext(ctx context.Context, id uuid.UUID) (*models.ChatContext, error) {
	return c.store.GetContext(ctx, id)
}

func (c *Coordinator) ListContexts(ctx context.Context, offset, limit int) ([]models.ChatContext, error) {
	if limit <= 0 {
		limit = 50
	}
	return c.store.ListContexts(ctx, offset, limit)
}

// ListMessages returns a context's history in chronological order.
func (c *Coordinator) ListMessages(ctx context.Context, contextID uuid.UUID) ([]models.ChatMessage, error) {
	if _, err := c.store.GetContext(ctx, contextID); err != nil {
		return nil, fmt.Errorf("chat context %s: %w", contextID, err)
	}
	return c.store.ListMessages(ctx, contextID)
}

var _ ChatStore = (*store.Chat)(nil)
