package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storedesk/helpdesk/internal/middleware"
	"github.com/storedesk/helpdesk/internal/model"
	"github.com/storedesk/helpdesk/internal/service"
	"github.com/storedesk/helpdesk/pkg/logger"
)

// KnowledgeHandler handles knowledge base endpoints.
type KnowledgeHandler struct {
	knowledge *service.KnowledgeService
	stores    *service.StoreService
	logger    *logger.Logger
}

// NewKnowledgeHandler creates a new knowledge base handler.
func NewKnowledgeHandler(knowledge *service.KnowledgeService, stores *service.StoreService, log *logger.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{
		knowledge: knowledge,
		stores:    stores,
		logger:    log,
	}
}

// List handles GET /api/v1/knowledge-base?storeId=
func (h *KnowledgeHandler) List(w http.ResponseWriter, r *http.Request) {
	storeID := r.URL.Query().Get("storeId")
	if err := middleware.ValidateID("store ID", storeID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.authorize(r.Context(), storeID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	out, err := h.knowledge.List(r.Context(), storeID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Create handles POST /api/v1/knowledge-base
func (h *KnowledgeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateKnowledgeEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateID("store ID", req.StoreID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.authorize(r.Context(), req.StoreID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	entry, err := h.knowledge.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Get handles GET /api/v1/knowledge-base/{id}
func (h *KnowledgeHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.ownedEntry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Update handles PUT /api/v1/knowledge-base/{id}
func (h *KnowledgeHandler) Update(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.ownedEntry(w, r)
	if !ok {
		return
	}
	var req model.UpdateKnowledgeEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.knowledge.Update(r.Context(), entry.ID, &req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/v1/knowledge-base/{id}
func (h *KnowledgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.ownedEntry(w, r)
	if !ok {
		return
	}
	if err := h.knowledge.Delete(r.Context(), entry.ID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *KnowledgeHandler) ownedEntry(w http.ResponseWriter, r *http.Request) (*model.KnowledgeBaseEntry, bool) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID("entry ID", id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	entry, err := h.knowledge.Get(r.Context(), id)
	if err == nil {
		err = h.authorize(r.Context(), entry.StoreID)
	}
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return nil, false
	}
	return entry, true
}

func (h *KnowledgeHandler) authorize(ctx context.Context, storeID string) error {
	return h.stores.Authorize(ctx, storeID, middleware.GetUserID(ctx))
}
