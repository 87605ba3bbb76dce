package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/internal/app"
	"github.com/johnquangdev/focus-group-bot/internal/usecase/bot"
	"github.com/johnquangdev/focus-group-bot/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.Redis.Enabled {
		log.Fatalf("The standalone worker needs REDIS_ENABLED=true; use BOT_IN_PROCESS with the API otherwise")
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	injector := app.NewInjector(cfg, logger)
	defer injector.Shutdown()

	pool, err := do.Invoke[*bot.WorkerPool](injector)
	if err != nil {
		logger.Fatal("Failed to build worker pool", zap.Error(err))
	}
	reconciler, err := do.Invoke[*bot.Reconciler](injector)
	if err != nil {
		logger.Fatal("Failed to build reconciler", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Sessions orphaned by a previous crash are failed before new work starts
	if n, err := reconciler.Reconcile(ctx); err != nil {
		logger.Warn("Startup reconcile failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("Failed stale sessions at startup", zap.Int("count", n))
	}

	if err := pool.Start(ctx); err != nil {
		logger.Fatal("Failed to start worker pool", zap.Error(err))
	}
	if err := reconciler.Start(cfg.Bot.ReconcileSpec); err != nil {
		logger.Fatal("Failed to start reconciler", zap.Error(err))
	}
	logger.Info("Bot worker started",
		zap.Int("workers", cfg.Bot.Workers),
		zap.String("queue", cfg.Bot.QueueKey),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker; running sessions are finalized")
	reconciler.Stop()
	if err := pool.Stop(); err != nil {
		logger.Warn("Worker pool stop", zap.Error(err))
	}
	logger.Info("Worker stopped")
}
