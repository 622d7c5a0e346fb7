// Prepsych Copilot - Therapy Session Analysis Server
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
	"github.com/prepsych/copilot/internal/advisory"
	"github.com/prepsych/copilot/internal/api"
	"github.com/prepsych/copilot/internal/config"
	"github.com/prepsych/copilot/internal/media"
	"github.com/prepsych/copilot/internal/middleware"
	"github.com/prepsych/copilot/internal/session"
	"github.com/prepsych/copilot/internal/store"
	"github.com/prepsych/copilot/internal/transcribe"
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
	var repo store.Repository
	if cfg.DBPath != "" {
		sqlite, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		repo = sqlite
		slog.Info("Database connected", "path", cfg.DBPath)
	} else {
		repo = store.NewMemory()
		slog.Info("Using in-memory store")
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	library, err := media.NewLibrary(cfg.UploadDir, cfg.PresetVideoDir)
	if err != nil {
		slog.Error("Failed to initialize media library", "error", err)
		os.Exit(1)
	}

	transcriber := transcribe.NewHTTPClient(cfg.TranscriberURL, cfg.TranscriberTimeout)

	var chatter advisory.Chatter
	switch cfg.Advisory.Provider {
	case config.ProviderOpenAI:
		chatter = advisory.NewOpenAIClient(cfg.Advisory.OpenAIBaseURL, cfg.Advisory.OpenAIAPIKey, cfg.Advisory.OpenAIModel, cfg.Advisory.Timeout)
		slog.Info("Advisory provider initialized", "provider", "openai", "model", cfg.Advisory.OpenAIModel)
	default:
		chatter = advisory.NewOllamaClient(cfg.Advisory.OllamaBaseURL, cfg.Advisory.OllamaModel, cfg.Advisory.Timeout)
		slog.Info("Advisory provider initialized", "provider", "ollama", "model", cfg.Advisory.OllamaModel)
	}

	pipeline := session.New(session.Deps{
		Media:             library,
		Transcriber:       transcriber,
		Generator:         advisory.NewGenerator(chatter),
		Repo:              repo,
		Logger:            logger,
		WindowCount:       cfg.WindowCount,
		MockVitalsSeconds: cfg.MockVitalsSeconds,
	})

	handler := api.NewHandler(repo, pipeline, library)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// Uploads and analysis runs can hold the response open for minutes.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start idle-session sweeper.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.StartSweeper(ctx, repo, cfg.SessionTTL, cfg.SessionSweepPeriod)

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
