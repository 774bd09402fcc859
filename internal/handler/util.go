package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/storedesk/helpdesk/internal/middleware"
	"github.com/storedesk/helpdesk/internal/service"
	"github.com/storedesk/helpdesk/pkg/logger"
)

// maxBodyBytes bounds decoded request bodies. It leaves room for a maximal
// message plus the surrounding JSON.
const maxBodyBytes = 2 * middleware.MaxMessageBytes

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeServiceError maps a service error onto a status code. Unclassified
// errors are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrUpstream):
		log.Warn("ai provider failed",
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, "ai provider unavailable")
	default:
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON decodes a bounded request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

const dateLayout = "2006-01-02"

// queryTime parses an RFC 3339 timestamp or a calendar date. A date given
// as an end bound covers the whole day.
func queryTime(r *http.Request, key string, endOfDay bool) (*time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: expected RFC 3339 or YYYY-MM-DD", key)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
