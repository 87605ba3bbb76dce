package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do/v2"
	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/internal/adapter/handler"
	"github.com/johnquangdev/focus-group-bot/internal/app"
	"github.com/johnquangdev/focus-group-bot/internal/usecase/bot"
	"github.com/johnquangdev/focus-group-bot/pkg/config"
	pkgvalidator "github.com/johnquangdev/focus-group-bot/pkg/validator"
)

// @title           Focus Group Bot API
// @version         1.0
// @description     Schedules focus groups and runs the AI moderator bot in LiveKit rooms.

// @host      localhost:8080
// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	injector := app.NewInjector(cfg, logger)
	defer injector.Shutdown()

	router, err := do.Invoke[*handler.Router](injector)
	if err != nil {
		logger.Fatal("Failed to build HTTP router", zap.Error(err))
	}

	// Memory queues are only visible in this process, so the bot must run here
	inProcess := cfg.Bot.InProcess || !cfg.Redis.Enabled
	var (
		pool       *bot.WorkerPool
		reconciler *bot.Reconciler
	)
	if inProcess {
		if pool, err = do.Invoke[*bot.WorkerPool](injector); err != nil {
			logger.Fatal("Failed to build worker pool", zap.Error(err))
		}
		if reconciler, err = do.Invoke[*bot.Reconciler](injector); err != nil {
			logger.Fatal("Failed to build reconciler", zap.Error(err))
		}
	}

	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Cookie"},
		AllowCredentials: true,
	}))

	router.Setup(e)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if pool != nil {
		if err := pool.Start(ctx); err != nil {
			logger.Fatal("Failed to start worker pool", zap.Error(err))
		}
		if err := reconciler.Start(cfg.Bot.ReconcileSpec); err != nil {
			logger.Fatal("Failed to start reconciler", zap.Error(err))
		}
		logger.Info("Bot workers running in process", zap.Int("workers", cfg.Bot.Workers))
	}

	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("Starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
		)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if pool != nil {
		reconciler.Stop()
		if err := pool.Stop(); err != nil {
			logger.Warn("Worker pool stop", zap.Error(err))
		}
	}

	logger.Info("Server stopped gracefully")
}
