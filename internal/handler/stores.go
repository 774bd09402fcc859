package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/storedesk/helpdesk/internal/middleware"
	"github.com/storedesk/helpdesk/internal/model"
	"github.com/storedesk/helpdesk/internal/service"
	"github.com/storedesk/helpdesk/pkg/logger"
)

// StoreHandler handles stores and the per-store subscription and
// integration endpoints.
type StoreHandler struct {
	stores        *service.StoreService
	subscriptions *service.SubscriptionService
	integrations  *service.IntegrationService
	logger        *logger.Logger
}

// NewStoreHandler creates a new store handler.
func NewStoreHandler(
	stores *service.StoreService,
	subscriptions *service.SubscriptionService,
	integrations *service.IntegrationService,
	log *logger.Logger,
) *StoreHandler {
	return &StoreHandler{
		stores:        stores,
		subscriptions: subscriptions,
		integrations:  integrations,
		logger:        log,
	}
}

// List handles GET /api/v1/stores
func (h *StoreHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.stores.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Create handles POST /api/v1/stores
func (h *StoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateStoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidatePlatform(req.Platform); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	store, err := h.stores.Create(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, store)
}

// Get handles GET /api/v1/stores/{id}
func (h *StoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := storeParam(w, r)
	if !ok {
		return
	}
	store, err := h.stores.Get(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, store)
}

// Update handles PUT /api/v1/stores/{id}
func (h *StoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := storeParam(w, r)
	if !ok {
		return
	}
	var req model.UpdateStoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	store, err := h.stores.Update(r.Context(), id, middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, store)
}

// Delete handles DELETE /api/v1/stores/{id}
func (h *StoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := storeParam(w, r)
	if !ok {
		return
	}
	if err := h.stores.Delete(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Subscription handles GET /api/v1/stores/{id}/subscription
func (h *StoreHandler) Subscription(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	sub, err := h.subscriptions.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// UpgradePlan handles POST /api/v1/stores/{id}/subscription/upgrade
func (h *StoreHandler) UpgradePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	var req model.UpgradePlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.subscriptions.UpgradePlan(r.Context(), id, model.Plan(strings.ToUpper(string(req.Plan))))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// CancelSubscription handles POST /api/v1/stores/{id}/subscription/cancel
func (h *StoreHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	sub, err := h.subscriptions.Cancel(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// Integrations handles GET /api/v1/stores/{id}/integrations
func (h *StoreHandler) Integrations(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	out, err := h.integrations.List(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ConnectIntegration handles POST /api/v1/stores/{id}/integrations/{kind}
func (h *StoreHandler) ConnectIntegration(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	var req model.ConnectIntegrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.StoreID = id

	kind := model.IntegrationType(strings.ToUpper(chi.URLParam(r, "kind")))
	integration, err := h.integrations.Connect(r.Context(), kind, &req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, integration)
}

// DeleteIntegration handles DELETE /api/v1/stores/{id}/integrations/{integrationID}
func (h *StoreHandler) DeleteIntegration(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	integrationID := chi.URLParam(r, "integrationID")
	if err := middleware.ValidateID("integration ID", integrationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.integrations.Delete(r.Context(), id, integrationID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedStore reads {id} and checks the caller owns that store.
func (h *StoreHandler) ownedStore(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := storeParam(w, r)
	if !ok {
		return "", false
	}
	if err := h.stores.Authorize(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		writeServiceError(w, r, h.logger, err)
		return "", false
	}
	return id, true
}

func storeParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID("store ID", id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}
