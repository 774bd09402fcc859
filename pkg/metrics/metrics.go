// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LLMCompletionDuration tracks AI reply latency.
	LLMCompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_completion_duration_seconds",
			Help:    "LLM completion duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// LiveSubscribers tracks clients attached to conversation streams.
	LiveSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_subscribers_active",
			Help: "Number of clients subscribed to conversation streams",
		},
	)

	// NotificationsDropped counts events not delivered to a slow subscriber.
	NotificationsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Notifications dropped because a subscriber buffer was full",
		},
	)

	// ConversationsTotal tracks conversations created.
	ConversationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
		[]string{"channel"},
	)

	// MessagesTotal tracks messages persisted.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages persisted",
		},
		[]string{"sender"},
	)

	// EscalationsTotal tracks conversations flagged for a human agent.
	EscalationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "escalations_total",
			Help: "Total escalations to a human agent",
		},
	)

	// BestEffortFailures counts side effects that failed without failing the caller.
	BestEffortFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "best_effort_failures_total",
			Help: "Failed best-effort operations",
		},
		[]string{"operation"},
	)

	// SubscriptionsSwept counts subscriptions canceled at period end.
	SubscriptionsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_swept_total",
			Help: "Subscriptions canceled at the end of their period",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordCompletion records metrics for an LLM completion.
func RecordCompletion(model, status string, duration float64, tokensIn, tokensOut int) {
	LLMCompletionDuration.WithLabelValues(model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordBestEffortFailure counts a swallowed failure of operation.
func RecordBestEffortFailure(operation string) {
	BestEffortFailures.WithLabelValues(operation).Inc()
}
