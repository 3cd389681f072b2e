package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/assistantkit/backend/internal/chat"
)

type ChatHandler struct {
	coordinator *chat.Coordinator
}

func NewChatHandler(c *chat.Coordinator) *ChatHandler {
	return &ChatHandler{coordinator: c}
}

type sendMessageRequest struct {
	Content   string     `json:"content"`
	ContextID *uuid.UUID `json:"context_id,omitempty"`
	Model     string     `json:"model,omitempty"`
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content required")
		return
	}

	reply, err := h.coordinator.SendMessage(r.Context(), chat.SendRequest{
		ContextID: req.ContextID,
		Content:   req.Content,
		Model:     req.Model,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":                reply.Message,
		"grounding_document_ids": reply.GroundingDocumentIDs,
	})
}

type createContextRequest struct {
	Title string `json:"title,omitempty"`
}

func (h *ChatHandler) CreateContext(w http.ResponseWriter, r *http.Request) {
	var req createContextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cc, err := h.coordinator.CreateContext(r.Context(), req.Title)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cc)
}

func (h *ChatHandler) ListContexts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	contexts, err := h.coordinator.ListContexts(r.Context(), offset, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"contexts": contexts, "count": len(contexts)})
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid context ID")
		return
	}

	messages, err := h.coordinator.ListMessages(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages, "count": len(messages)})
}
