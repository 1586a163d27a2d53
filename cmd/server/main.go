package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quizentia/quizentia-web/internal/config"
	"github.com/quizentia/quizentia-web/internal/database"
	"github.com/quizentia/quizentia-web/internal/handler"
	"github.com/quizentia/quizentia-web/internal/logger"
	"github.com/quizentia/quizentia-web/internal/middleware"
	"github.com/quizentia/quizentia-web/internal/quizapi"
	"github.com/quizentia/quizentia-web/internal/router"
	"github.com/quizentia/quizentia-web/internal/service"
	"github.com/quizentia/quizentia-web/internal/validator"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("storage", cfg.StorageDriver).
		Str("quiz_api", cfg.QuizAPIURL).
		Msg("Starting Quizentia Web")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Client Storage ───────────────────────────────────────────
	store, closeStore, err := database.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("Failed to open client storage")
	}
	defer closeStore()

	// ─── Quiz Backend Client ───────────────────────────────────────────
	backend := quizapi.NewClient(cfg.QuizAPIURL, cfg.QuizAPITimeout, log)

	// ─── Initialize Services ──────────────────────────────────────────
	registry := service.NewSessionRegistry(cfg.SessionIdleTTL)
	sessionService := service.NewSessionService(backend, registry, cfg.QuizCacheTTL, log)
	catalogService := service.NewCatalogService(backend, cfg, log)
	adminService := service.NewAdminService(backend, cfg.WeeklyMaxWeeks, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Setting: handler.NewSettingHandler(cfg),
		Catalog: handler.NewCatalogHandler(catalogService, sessionService, log),
		Quiz:    handler.NewQuizHandler(sessionService, log),
		Admin:   handler.NewAdminHandler(adminService, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	// 10 login attempts per client per minute.
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	go registry.Run(workerCtx, time.Minute)
	go loginLimiter.Run(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, router.Deps{
		Store:        store,
		AdminService: adminService,
		LoginLimiter: loginLimiter,
		Log:          log,
	}, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the session sweeper and the limiter cleanup.
	workerCancel()

	log.Info().Int("live_sessions", registry.Len()).Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
