// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/storedesk/helpdesk/internal/assistant"
	"github.com/storedesk/helpdesk/internal/middleware"
	"github.com/storedesk/helpdesk/internal/model"
	"github.com/storedesk/helpdesk/internal/service"
	"github.com/storedesk/helpdesk/pkg/logger"
)

// ChatHandler handles the customer chat and conversation endpoints.
type ChatHandler struct {
	conversations *service.ConversationService
	stores        *service.StoreService
	logger        *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(conversations *service.ConversationService, stores *service.StoreService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		conversations: conversations,
		stores:        stores,
		logger:        log,
	}
}

// SendMessage handles POST /api/v1/chat/messages. Any authenticated caller
// may post on behalf of a customer.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req model.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := middleware.ValidateSendMessage(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.conversations.SubmitMessage(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// List handles GET /api/v1/chat/conversations
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	storeID := q.Get("storeId")
	if err := middleware.ValidateID("store ID", storeID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.stores.Authorize(ctx, storeID, middleware.GetUserID(ctx)); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	filter := model.ConversationFilter{
		StoreID: storeID,
		Status:  model.ConversationStatus(strings.ToUpper(q.Get("status"))),
		Channel: model.Channel(strings.ToUpper(q.Get("channel"))),
	}

	resp, err := h.conversations.List(ctx, filter, queryInt(r, "page", 1), queryInt(r, "limit", 20))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/chat/conversations/{id}
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.ownedConversation(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// Close handles POST /api/v1/chat/conversations/{id}/close
func (h *ChatHandler) Close(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.ownedConversation(w, r)
	if !ok {
		return
	}

	closed, err := h.conversations.Close(r.Context(), conv.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, closed)
}

// Assign handles POST /api/v1/chat/conversations/{id}/assign
func (h *ChatHandler) Assign(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.ownedConversation(w, r)
	if !ok {
		return
	}

	var req model.AssignConversationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	assigned, err := h.conversations.Assign(r.Context(), conv.ID, strings.TrimSpace(req.UserID))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, assigned)
}

// Template handles GET /api/v1/chat/templates/{kind}
func (h *ChatHandler) Template(w http.ResponseWriter, r *http.Request) {
	kind := assistant.TemplateKind(strings.ToLower(chi.URLParam(r, "kind")))
	text, ok := assistant.Template(kind)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown template")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"kind":     string(kind),
		"template": text,
	})
}

// ownedConversation loads the {id} conversation and checks that the caller
// owns its store. It writes the error response itself.
func (h *ChatHandler) ownedConversation(w http.ResponseWriter, r *http.Request) (*model.Conversation, bool) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateID("conversation ID", id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	conv, err := h.loadOwned(ctx, id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return nil, false
	}
	return conv, true
}

func (h *ChatHandler) loadOwned(ctx context.Context, id string) (*model.Conversation, error) {
	conv, err := h.conversations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := h.stores.Authorize(ctx, conv.StoreID, middleware.GetUserID(ctx)); err != nil {
		return nil, err
	}
	return conv, nil
}
