package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storedesk/helpdesk/internal/middleware"
	"github.com/storedesk/helpdesk/pkg/logger"
)

// RouterConfig carries the settings the router's middleware needs.
type RouterConfig struct {
	JWTSecret         string
	FrontendURL       string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Health    *HealthHandler
	Chat      *ChatHandler
	Stream    *StreamHandler
	Analytics *AnalyticsHandler
	Stores    *StoreHandler
	Knowledge *KnowledgeHandler
}

// NewRouter builds the API router.
func NewRouter(cfg RouterConfig, h Handlers, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.FrontendURL))

	// Health endpoints (no auth required)
	r.Get("/health", h.Health.Health)
	r.Get("/ready", h.Health.Ready)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/chat", func(r chi.Router) {
			r.Post("/messages", h.Chat.SendMessage)
			r.Get("/templates/{kind}", h.Chat.Template)

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", h.Chat.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Chat.Get)
					r.Post("/close", h.Chat.Close)
					r.Post("/assign", h.Chat.Assign)
					r.Get("/stream", h.Stream.Stream)
				})
			})
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/overview", h.Analytics.Overview)
			r.Get("/common-questions", h.Analytics.CommonQuestions)
			r.Get("/response-times", h.Analytics.ResponseTimes)
			r.Get("/satisfaction", h.Analytics.Satisfaction)
		})

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", h.Stores.List)
			r.Post("/", h.Stores.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Stores.Get)
				r.Put("/", h.Stores.Update)
				r.Delete("/", h.Stores.Delete)

				r.Get("/subscription", h.Stores.Subscription)
				r.Post("/subscription/upgrade", h.Stores.UpgradePlan)
				r.Post("/subscription/cancel", h.Stores.CancelSubscription)

				r.Get("/integrations", h.Stores.Integrations)
				r.Post("/integrations/{kind}", h.Stores.ConnectIntegration)
				r.Delete("/integrations/{integrationID}", h.Stores.DeleteIntegration)
			})
		})

		r.Route("/knowledge-base", func(r chi.Router) {
			r.Get("/", h.Knowledge.List)
			r.Post("/", h.Knowledge.Create)
			r.Get("/{id}", h.Knowledge.Get)
			r.Put("/{id}", h.Knowledge.Update)
			r.Delete("/{id}", h.Knowledge.Delete)
		})
	})

	return r
}
