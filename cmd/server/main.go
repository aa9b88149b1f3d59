// PimpMyPrompt - prompt refinement server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/pkowalski/pimpmyprompt/internal/api"
	"github.com/pkowalski/pimpmyprompt/internal/config"
	"github.com/pkowalski/pimpmyprompt/internal/identity"
	"github.com/pkowalski/pimpmyprompt/internal/middleware"
	"github.com/pkowalski/pimpmyprompt/internal/provider"
	"github.com/pkowalski/pimpmyprompt/internal/refine"
	"github.com/pkowalski/pimpmyprompt/internal/store"
	"github.com/pkowalski/pimpmyprompt/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	registry, err := provider.LoadRegistry()
	if err != nil {
		slog.Error("Failed to load provider catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("Provider catalog loaded",
		"response_providers", len(registry.ListResponseProviders()),
		"question_providers", len(registry.ListQuestionProviders()))

	// Build gateway adapters for the vendors with configured keys.
	gateways := provider.Set{}
	if cfg.AnthropicAPIKey != "" {
		gateways["anthropic"] = provider.NewAnthropicGateway(cfg.AnthropicAPIKey)
	}
	if cfg.OpenAIAPIKey != "" {
		gateways["openai"] = provider.NewOpenAIGateway(cfg.OpenAIAPIKey, cfg.ProviderTimeout)
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := provider.NewGeminiGateway(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			slog.Error("Failed to initialize Gemini gateway", "error", err)
			os.Exit(1)
		}
		gateways["gemini"] = gemini
	}
	if len(gateways) == 0 {
		slog.Error("No provider API keys configured, set at least one of ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY")
		os.Exit(1)
	}
	slog.Info("Provider gateways initialized", "count", len(gateways))

	// Initialize services and handlers.
	refiner := refine.NewService(registry, gateways, repo)
	handler := api.NewHandler(repo, registry, gateways, refiner, cfg.DailyRequestLimit)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(identity.Middleware(repo))

	// Identity issuance (the login-required gate's stand-in).
	r.Post("/auth/anonymous", identity.IssueHandler(repo, cfg.IsDevelopment()))

	// API routes.
	handler.RegisterRoutes(r)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.ProviderTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
