package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assistantkit/backend/internal/llm"
	"github.com/assistantkit/backend/internal/models"
	"github.com/assistantkit/backend/internal/retry"
	"github.com/assistantkit/backend/internal/store"
	"github.com/assistantkit/backend/internal/vectorstore"
)

type fakeChatStore struct {
	contexts map[uuid.UUID]*models.ChatContext
	messages []models.ChatMessage
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{contexts: make(map[uuid.UUID]*models.ChatContext)}
}

func (f *fakeChatStore) InsertContext(_ context.Context, c *models.ChatContext) error {
	f.contexts[c.ID] = c
	return nil
}

func (f *fakeChatStore) GetContext(_ context.Context, id uuid.UUID) (*models.ChatContext, error) {
	c, ok := f.contexts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeChatStore) ListContexts(_ context.Context, offset, limit int) ([]models.ChatContext, error) {
	var out []models.ChatContext
	for _, c := range f.contexts {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeChatStore) InsertMessage(_ context.Context, m *models.ChatMessage) error {
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeChatStore) ListMessages(_ context.Context, contextID uuid.UUID) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	for _, m := range f.messages {
		if m.ContextID != nil && *m.ContextID == contextID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeSearcher struct {
	results []vectorstore.SearchResult
	err     error
	calls   int
	queries []string
}

func (f *fakeSearcher) SearchSimilar(_ context.Context, query string, limit int) ([]vectorstore.SearchResult, error) {
	f.calls++
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > limit {
		return f.results[:limit], nil
	}
	return f.results, nil
}

type fakeGenerator struct {
	reply    string
	err      error
	requests []llm.GenerateRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req llm.GenerateRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGenerator) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("not used")
}

func (f *fakeGenerator) Train(context.Context, []llm.TrainingDocument, models.TrainingConfig, llm.ProgressFunc, llm.HaltFunc) error {
	return errors.New("not used")
}

func testRetry() retry.Options {
	return retry.Options{Attempts: 2, Delay: time.Millisecond, Backoff: 2.0}
}

func TestSendMessage_WithoutContextSkipsRetrieval(t *testing.T) {
	cs := newFakeChatStore()
	search := &fakeSearcher{}
	gen := &fakeGenerator{reply: "hi there"}
	c := NewCoordinator(cs, search, gen, testRetry())

	reply, err := c.SendMessage(context.Background(), SendRequest{Content: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "hi there", reply.Message.Content)
	assert.Equal(t, models.RoleAssistant, reply.Message.Role)
	assert.Empty(t, reply.GroundingDocumentIDs)
	assert.Zero(t, search.calls, "no retrieval without a context")

	require.Len(t, cs.messages, 2)
	assert.Equal(t, models.RoleUser, cs.messages[0].Role)
	assert.Equal(t, "hello", cs.messages[0].Content)
	assert.Equal(t, models.RoleAssistant, cs.messages[1].Role)
}

func TestSendMessage_GroundsAgainstContext(t *testing.T) {
	cs := newFakeChatStore()
	cc := &models.ChatContext{ID: uuid.New(), Title: "research"}
	cs.contexts[cc.ID] = cc

	docA, docB := uuid.New(), uuid.New()
	search := &fakeSearcher{results: []vectorstore.SearchResult{
		{DocumentID: docA, Content: "passage a", Score: 0.9},
		{DocumentID: docB, Content: "passage b", Score: 0.7},
	}}
	gen := &fakeGenerator{reply: "grounded answer"}
	c := NewCoordinator(cs, search, gen, testRetry())

	reply, err := c.SendMessage(context.Background(), SendRequest{
		ContextID: &cc.ID,
		Content:   "what do the notes say?",
	})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{docA, docB}, reply.GroundingDocumentIDs)
	assert.Equal(t, []string{"what do the notes say?"}, search.queries)

	require.Len(t, gen.requests, 1)
	assert.Equal(t, []string{"passage a", "passage b"}, gen.requests[0].Context)
}

func TestSendMessage_UnknownContextRejected(t *testing.T) {
	cs := newFakeChatStore()
	c := NewCoordinator(cs, &fakeSearcher{}, &fakeGenerator{}, testRetry())

	missing := uuid.New()
	_, err := c.SendMessage(context.Background(), SendRequest{ContextID: &missing, Content: "hi"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, cs.messages, "validation failures persist nothing")
}

func TestSendMessage_GenerationFailureLeavesUserMessage(t *testing.T) {
	cs := newFakeChatStore()
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	c := NewCoordinator(cs, &fakeSearcher{}, gen, testRetry())

	_, err := c.SendMessage(context.Background(), SendRequest{Content: "hello"})
	require.Error(t, err)

	assert.Len(t, gen.requests, 2, "generation retried before giving up")
	require.Len(t, cs.messages, 1, "user turn survives, no assistant turn")
	assert.Equal(t, models.RoleUser, cs.messages[0].Role)
}

func TestSendMessage_RetrievalFailureFailsTurn(t *testing.T) {
	cs := newFakeChatStore()
	cc := &models.ChatContext{ID: uuid.New()}
	cs.contexts[cc.ID] = cc

	search := &fakeSearcher{err: errors.New("vector store down")}
	gen := &fakeGenerator{reply: "unused"}
	c := NewCoordinator(cs, search, gen, testRetry())

	_, err := c.SendMessage(context.Background(), SendRequest{ContextID: &cc.ID, Content: "hi"})
	require.Error(t, err)

	assert.Equal(t, 2, search.calls, "retrieval retried to the attempt bound")
	assert.Empty(t, gen.requests, "no generation after retrieval exhaustion")
	require.Len(t, cs.messages, 1, "user turn persisted before retrieval began")
}

func TestCreateAndListContexts(t *testing.T) {
	cs := newFakeChatStore()
	c := NewCoordinator(cs, &fakeSearcher{}, &fakeGenerator{}, testRetry())

	cc, err := c.CreateContext(context.Background(), "project notes")
	require.NoError(t, err)
	assert.Equal(t, "project notes", cc.Title)
	assert.NotEqual(t, uuid.Nil, cc.ID)

	untitled, err := c.CreateContext(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, untitled.Title)

	all, err := c.ListContexts(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListMessages_UnknownContext(t *testing.T) {
	c := NewCoordinator(newFakeChatStore(), &fakeSearcher{}, &fakeGenerator{}, testRetry())

	_, err := c.ListMessages(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
