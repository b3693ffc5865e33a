// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spillmate/support-platform/internal/config"
	"github.com/spillmate/support-platform/internal/events"
	"github.com/spillmate/support-platform/internal/handler"
	"github.com/spillmate/support-platform/internal/llm"
	"github.com/spillmate/support-platform/internal/middleware"
	"github.com/spillmate/support-platform/internal/service"
	"github.com/spillmate/support-platform/internal/store"
	"github.com/spillmate/support-platform/pkg/logger"
	"github.com/spillmate/support-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "support-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the database
	st, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open store", zap.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	// Connect the audit feed when configured, otherwise drop events
	var publisher events.Publisher = events.NewNoop()
	var natsPublisher *events.NATSPublisher
	if cfg.NATSURL != "" {
		natsPublisher, err = events.Connect(ctx, events.Config{
			URL:   cfg.NATSURL,
			Token: cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		publisher = natsPublisher
	}
	defer publisher.Close()

	// Initialize the LLM client
	apiKey := cfg.GeminiAPIKey
	switch llm.Provider(cfg.Provider) {
	case llm.ProviderOpenAI:
		apiKey = cfg.OpenAIAPIKey
	case llm.ProviderAnthropic:
		apiKey = cfg.AnthropicAPIKey
	}
	llmClient, err := llm.NewClient(ctx, llm.Provider(cfg.Provider), apiKey)
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}
	log.Info("LLM client ready", zap.String("provider", llmClient.Name()))

	// Initialize services
	profileSvc := service.NewProfileService(st, log)
	chatSvc := service.NewChatService(st, llmClient, publisher, log, cfg.ProviderTimeout)
	moodSvc := service.NewMoodService(st, publisher, log)
	adminSvc := service.NewAdminService(st, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsPublisher)
	profileHandler := handler.NewProfileHandler(profileSvc, log)
	conversationHandler := handler.NewConversationHandler(chatSvc, log)
	chatHandler := handler.NewChatHandler(chatSvc, log)
	moodHandler := handler.NewMoodHandler(moodSvc, log)
	adminHandler := handler.NewAdminHandler(adminSvc, profileSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/profile", profileHandler.Get)
		r.Post("/profile", profileHandler.Create)

		r.Get("/conversations", conversationHandler.List)
		r.Post("/conversations", conversationHandler.Create)

		r.Post("/chat", chatHandler.Send)

		r.Get("/mood", moodHandler.History)
		r.Post("/mood", moodHandler.Log)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get("/stats", adminHandler.Stats)
			r.Get("/users", adminHandler.Users)
			r.Get("/flagged-content", adminHandler.FlaggedContent)
			r.Put("/users/role", adminHandler.UpdateRole)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
