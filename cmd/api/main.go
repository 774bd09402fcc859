// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/storedesk/helpdesk/internal/assistant"
	"github.com/storedesk/helpdesk/internal/config"
	"github.com/storedesk/helpdesk/internal/handler"
	"github.com/storedesk/helpdesk/internal/jobs"
	"github.com/storedesk/helpdesk/internal/llm"
	natsclient "github.com/storedesk/helpdesk/internal/nats"
	"github.com/storedesk/helpdesk/internal/notify"
	"github.com/storedesk/helpdesk/internal/repository"
	"github.com/storedesk/helpdesk/internal/service"
	"github.com/storedesk/helpdesk/pkg/logger"
	"github.com/storedesk/helpdesk/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.NewForEnv(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	logger.SetGlobal(log)

	log.Info("starting API server", zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize tracing if enabled
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "helpdesk-api", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	// Database
	db, err := repository.Open(repository.Config{
		Driver:       repository.Driver(cfg.DatabaseDriver),
		DSN:          cfg.DatabaseURL,
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
		LogQueries:   cfg.DBLogQueries,
	})
	if err != nil {
		return err
	}
	if err := repository.Migrate(db); err != nil {
		return err
	}

	conversationRepo := repository.NewConversationRepo(db)
	messageRepo := repository.NewMessageRepo(db)
	storeRepo := repository.NewStoreRepo(db)
	knowledgeRepo := repository.NewKnowledgeRepo(db)

	// Notifications: the hub serves local subscribers, an optional bus
	// fans publishes out to every instance.
	hub := notify.NewHub(log)
	var publisher notify.Publisher = hub
	readiness := []handler.ReadinessCheck{{
		Name:  "database",
		Check: func(context.Context) error { return repository.Ping(db) },
	}}

	switch cfg.NotifyBus {
	case config.BusNATS:
		nc, err := natsclient.Connect(natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			return err
		}
		relay := notify.NewRelay(natsclient.NewBus(nc), hub, log)
		if err := relay.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = relay.Close() }()
		publisher = relay
		readiness = append(readiness, handler.ReadinessCheck{
			Name: "nats",
			Check: func(context.Context) error {
				if !nc.IsConnected() {
					return errors.New("not connected")
				}
				return nil
			},
		})

	case config.BusRedis:
		rb, err := notify.NewRedisBus(ctx, notify.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Channel:  cfg.RedisChannel,
		}, log)
		if err != nil {
			return err
		}
		relay := notify.NewRelay(rb, hub, log)
		if err := relay.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = relay.Close() }()
		publisher = relay
		readiness = append(readiness, handler.ReadinessCheck{Name: "redis", Check: rb.Ping})

	case config.BusNone, "":
	default:
		return fmt.Errorf("unknown notify bus %q", cfg.NotifyBus)
	}

	// AI
	llmClient, err := llm.NewClient(llm.Provider(cfg.AIProvider), cfg.APIKey())
	if err != nil {
		return err
	}
	generator := assistant.NewGenerator(llmClient, assistant.NewRetriever(knowledgeRepo), assistant.GeneratorConfig{
		Model:     cfg.AIModel,
		MaxTokens: cfg.AIMaxTokens,
	}, log)

	// Initialize services
	storeSvc := service.NewStoreService(storeRepo, knowledgeRepo, cfg.TrialPeriod, log)
	subscriptionSvc := service.NewSubscriptionService(repository.NewSubscriptionRepo(db), log)
	conversationSvc := service.NewConversationService(
		conversationRepo,
		messageRepo,
		storeRepo,
		generator,
		publisher,
		service.NewEventTracker(repository.NewEventRepo(db), log),
		log,
	)

	// Periodic jobs
	scheduler := jobs.NewScheduler(log)
	if err := scheduler.Add(jobs.SubscriptionSweepJob, cfg.SubscriptionSweepSchedule, jobs.SubscriptionSweep(subscriptionSvc)); err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		scheduler.Stop(stopCtx)
	}()

	// Initialize handlers
	chatHandler := handler.NewChatHandler(conversationSvc, storeSvc, log)
	router := handler.NewRouter(handler.RouterConfig{
		JWTSecret:         cfg.JWTSecret,
		FrontendURL:       cfg.FrontendURL,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	}, handler.Handlers{
		Health:    handler.NewHealthHandler(readiness...),
		Chat:      chatHandler,
		Stream:    handler.NewStreamHandler(chatHandler, hub),
		Analytics: handler.NewAnalyticsHandler(service.NewAnalyticsService(repository.NewAnalyticsRepo(db)), storeSvc, log),
		Stores: handler.NewStoreHandler(
			storeSvc,
			subscriptionSvc,
			service.NewIntegrationService(repository.NewIntegrationRepo(db), log),
			log,
		),
		Knowledge: handler.NewKnowledgeHandler(service.NewKnowledgeService(knowledgeRepo), storeSvc, log),
	}, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("server stopped")
	return nil
}
