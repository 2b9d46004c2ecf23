package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/config"
	"github.com/stemsi/exstem-practice/internal/database"
	"github.com/stemsi/exstem-practice/internal/handler"
	"github.com/stemsi/exstem-practice/internal/logger"
	"github.com/stemsi/exstem-practice/internal/middleware"
	"github.com/stemsi/exstem-practice/internal/repository"
	"github.com/stemsi/exstem-practice/internal/router"
	"github.com/stemsi/exstem-practice/internal/service"
	"github.com/stemsi/exstem-practice/internal/validator"
	"github.com/stemsi/exstem-practice/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store_driver", cfg.StoreDriver).
		Msg("Starting ExStem Practice")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect PostgreSQL, Redis and the slot store ──────────────────
	conns, err := database.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect")
	}
	defer conns.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	questionRepo := repository.NewQuestionRepository(conns.Pool)
	resultRepo := repository.NewPracticeResultRepository(conns.Pool)
	monitorRepo := repository.NewMonitorRepository(conns.Pool)

	// ─── Initialize Services ──────────────────────────────────────────
	// Results go through the Redis queue when Redis is up, straight to
	// PostgreSQL otherwise.
	var publisher service.ResultPublisher = service.NewDirectResultPublisher(resultRepo)
	if conns.Redis != nil {
		publisher = service.NewQueueResultPublisher(conns.Redis)
	}

	authService := service.NewAuthService(cfg.JWTSecret)
	practiceService := service.NewPracticeService(
		questionRepo,
		resultRepo,
		conns.Slots,
		publisher,
		service.PracticeOptions{
			MaxQuestions: cfg.PracticeMaxQuestions,
			SaveDelay:    cfg.PracticeSaveDelay,
			TickInterval: cfg.PracticeTickInterval,
			IdleTimeout:  cfg.PracticeIdleTimeout,
		},
		log,
	)
	monitorService := service.NewMonitorService(practiceService, monitorRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Practice: handler.NewPracticeHandler(practiceService, log),
		WS:       handler.NewWSHandler(practiceService, log, cfg.AllowedOrigins),
		Monitor:  handler.NewMonitorHandler(monitorService, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	workers.Go(func() { limiter.Run(workerCtx) })
	workers.Go(func() { practiceService.RunReaper(workerCtx) })
	if conns.Redis != nil {
		resultWorker := worker.NewResultWorker(resultRepo, conns.Redis, log)
		workers.Go(func() { resultWorker.Start(workerCtx) })
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, limiter, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	// 2. Flush pending auto-saves, then let the result worker drain its batch.
	practiceService.Shutdown()
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
