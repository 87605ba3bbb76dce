package main

import (
	"flag"
	"log"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/focus-group-bot/internal/adapter/repository"
	"github.com/johnquangdev/focus-group-bot/internal/infrastructure/database"
	"github.com/johnquangdev/focus-group-bot/pkg/config"
	pkgjwt "github.com/johnquangdev/focus-group-bot/pkg/jwt"
)

// Loads questionnaire fixtures into Postgres and prints a development access
// token for every questionnaire owner.
func main() {
	fixtures := flag.String("fixtures", "", "questionnaire YAML (defaults to DB_FIXTURES_FILE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatalf("Refusing to seed a production database")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	path := *fixtures
	if path == "" {
		path = cfg.Database.FixturesFile
	}
	if path == "" {
		logger.Fatal("No fixtures file given")
	}

	questionnaires, err := repository.LoadQuestionnaireFixtures(path)
	if err != nil {
		logger.Fatal("Failed to load fixtures", zap.Error(err))
	}

	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	owners := map[uuid.UUID]bool{}
	for _, q := range questionnaires {
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(q).Error; err != nil {
			logger.Fatal("Failed to upsert questionnaire", zap.String("id", q.ID.String()), zap.Error(err))
		}
		owners[q.OwnerID] = true
		logger.Info("Seeded questionnaire",
			zap.String("id", q.ID.String()),
			zap.String("title", q.Title),
			zap.Int("questions", len(q.Questions)),
		)
	}

	tokens := pkgjwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry, cfg.JWT.Issuer)
	for owner := range owners {
		token, err := tokens.GenerateAccessToken(owner, owner.String()+"@test.local", "admin")
		if err != nil {
			logger.Fatal("Failed to sign token", zap.Error(err))
		}
		logger.Info("Development token",
			zap.String("owner_id", owner.String()),
			zap.Duration("expires_in", tokens.GetAccessExpiry()),
			zap.String("token", token),
		)
	}
}
