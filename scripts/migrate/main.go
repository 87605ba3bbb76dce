package main

import (
	"flag"
	"log"

	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/internal/infrastructure/database"
	"github.com/johnquangdev/focus-group-bot/pkg/config"
)

func main() {
	down := flag.Bool("down", false, "roll back every applied migration instead of applying pending ones")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	direction := migrate.Up
	if *down {
		direction = migrate.Down
	}

	n, err := database.Migrate(db, direction)
	if err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}
	logger.Info("Migrations applied", zap.Int("count", n), zap.Bool("down", *down))
}
