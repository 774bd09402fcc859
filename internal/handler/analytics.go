package handler

import (
	"net/http"
	"time"

	"github.com/storedesk/helpdesk/internal/middleware"
	"github.com/storedesk/helpdesk/internal/model"
	"github.com/storedesk/helpdesk/internal/service"
	"github.com/storedesk/helpdesk/pkg/logger"
)

// AnalyticsHandler serves the dashboard reports.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	stores    *service.StoreService
	logger    *logger.Logger
	now       func() time.Time
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService, stores *service.StoreService, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		stores:    stores,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Overview handles GET /api/v1/analytics/overview
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	storeID, rng, ok := h.reportScope(w, r)
	if !ok {
		return
	}
	out, err := h.analytics.Overview(r.Context(), storeID, rng)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CommonQuestions handles GET /api/v1/analytics/common-questions
func (h *AnalyticsHandler) CommonQuestions(w http.ResponseWriter, r *http.Request) {
	storeID, _, ok := h.reportScope(w, r)
	if !ok {
		return
	}
	out, err := h.analytics.CommonQuestions(r.Context(), storeID, queryInt(r, "limit", 10))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ResponseTimes handles GET /api/v1/analytics/response-times
func (h *AnalyticsHandler) ResponseTimes(w http.ResponseWriter, r *http.Request) {
	storeID, rng, ok := h.reportScope(w, r)
	if !ok {
		return
	}
	out, err := h.analytics.ResponseTimes(r.Context(), storeID, rng)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Satisfaction handles GET /api/v1/analytics/satisfaction
func (h *AnalyticsHandler) Satisfaction(w http.ResponseWriter, r *http.Request) {
	storeID, rng, ok := h.reportScope(w, r)
	if !ok {
		return
	}
	out, err := h.analytics.Satisfaction(r.Context(), storeID, rng)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// reportScope reads storeId, startDate and endDate and checks ownership.
func (h *AnalyticsHandler) reportScope(w http.ResponseWriter, r *http.Request) (string, model.DateRange, bool) {
	ctx := r.Context()

	storeID := r.URL.Query().Get("storeId")
	if err := middleware.ValidateID("store ID", storeID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", model.DateRange{}, false
	}

	start, err := queryTime(r, "startDate", false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", model.DateRange{}, false
	}
	end, err := queryTime(r, "endDate", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", model.DateRange{}, false
	}

	rng, err := service.ResolveRange(start, end, h.now())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return "", model.DateRange{}, false
	}

	if err := h.stores.Authorize(ctx, storeID, middleware.GetUserID(ctx)); err != nil {
		writeServiceError(w, r, h.logger, err)
		return "", model.DateRange{}, false
	}
	return storeID, rng, true
}
