package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paperdrill/paperdrill-backend/internal/cache"
	"github.com/paperdrill/paperdrill-backend/internal/config"
	"github.com/paperdrill/paperdrill-backend/internal/database"
	"github.com/paperdrill/paperdrill-backend/internal/handler"
	"github.com/paperdrill/paperdrill-backend/internal/logger"
	"github.com/paperdrill/paperdrill-backend/internal/persist"
	"github.com/paperdrill/paperdrill-backend/internal/repository"
	"github.com/paperdrill/paperdrill-backend/internal/router"
	"github.com/paperdrill/paperdrill-backend/internal/service"
	"github.com/paperdrill/paperdrill-backend/internal/session"
	"github.com/paperdrill/paperdrill-backend/internal/validator"
	"github.com/paperdrill/paperdrill-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting PaperDrill Backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	paperRepo := repository.NewPaperRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	drillRepo := repository.NewDrillRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	// Session state plumbing: Redis snapshot cache for restart survival,
	// debounced persister feeding the Redis queue, drill queue for flagged
	// answers.
	snapshotCache := cache.NewSnapshotCache(rdb, cfg.SnapshotTTL)
	persister := persist.NewPersister(persist.NewSessionQueue(rdb), cfg.PersistDebounce, log)
	drillQueue := persist.NewDrillQueue(rdb)
	store := session.NewStore(questionRepo, snapshotCache, persister, drillQueue, log)

	// Services
	authService := service.NewAuthService(cfg, rdb)
	drillService := service.NewDrillService(drillRepo)
	statsService := service.NewStatsService(statsRepo)

	// Handlers
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService, userRepo),
		Paper:   handler.NewPaperHandler(paperRepo, questionRepo),
		Session: handler.NewSessionHandler(store, paperRepo, sessionRepo, snapshotCache, log),
		Drill:   handler.NewDrillHandler(drillService),
		Stats:   handler.NewStatsHandler(statsService),
		WS:      handler.NewWSHandler(store, log, cfg.AllowedOrigins),
	}

	// Background workers
	workerCtx, workerCancel := context.WithCancel(context.Background())

	sessionWorker := worker.NewSessionWorker(sessionRepo, rdb, log)
	drillWorker := worker.NewDrillWorker(drillRepo, rdb, log)

	go sessionWorker.Start(workerCtx)
	go drillWorker.Start(workerCtx)

	r := router.SetupRouter(authService, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

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

	// 2. Flush pending debounced persists into the queue.
	persister.Stop()

	// 3. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
