package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit creates per-user rate limiting middleware. Requests without an
// authenticated user are limited by client IP.
func RateLimit(requestLimit int, windowLength time.Duration) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(windowLength.Seconds()))

	return httprate.Limit(
		requestLimit,
		windowLength,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if userID := GetUserID(r.Context()); userID != "" {
				return "user:" + userID, nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", retryAfter)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}
