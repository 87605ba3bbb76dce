// Package app builds the dependency graph shared by the API and worker
// binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/johnquangdev/focus-group-bot/internal/adapter/handler"
	"github.com/johnquangdev/focus-group-bot/internal/adapter/repository"
	"github.com/johnquangdev/focus-group-bot/internal/domain/meeting"
	"github.com/johnquangdev/focus-group-bot/internal/domain/repositories"
	"github.com/johnquangdev/focus-group-bot/internal/infrastructure/cache"
	"github.com/johnquangdev/focus-group-bot/internal/infrastructure/database"
	"github.com/johnquangdev/focus-group-bot/internal/infrastructure/external/calendar"
	"github.com/johnquangdev/focus-group-bot/internal/infrastructure/external/livekit"
	httpmw "github.com/johnquangdev/focus-group-bot/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/focus-group-bot/internal/infrastructure/queue"
	"github.com/johnquangdev/focus-group-bot/internal/infrastructure/storage"
	"github.com/johnquangdev/focus-group-bot/internal/usecase/bot"
	"github.com/johnquangdev/focus-group-bot/internal/usecase/focusgroup"
	"github.com/johnquangdev/focus-group-bot/internal/usecase/orchestrator"
	"github.com/johnquangdev/focus-group-bot/internal/usecase/speech"
	"github.com/johnquangdev/focus-group-bot/internal/usecase/transcription"
	"github.com/johnquangdev/focus-group-bot/pkg/ai"
	"github.com/johnquangdev/focus-group-bot/pkg/config"
	"github.com/johnquangdev/focus-group-bot/pkg/jwt"
)

const (
	initTimeout         = 15 * time.Second
	memoryQueueCapacity = 256
)

// StopSignal is the administrative stop channel shared by the API, which
// raises it, and the orchestrator, which polls it
type StopSignal interface {
	RequestStop(ctx context.Context, sessionID uuid.UUID) error
	IsStopRequested(ctx context.Context, sessionID uuid.UUID) (bool, error)
	Clear(ctx context.Context, sessionID uuid.UUID) error
}

// Stores groups the repositories so memory-backed ones share state
type Stores struct {
	FocusGroups    repositories.FocusGroupRepository
	Questionnaires repositories.QuestionnaireRepository
	Sessions       repositories.SessionRepository

	db *gorm.DB
}

// Shutdown closes the database pool
func (s *Stores) Shutdown() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewInjector registers every provider. Nothing is built until invoked.
func NewInjector(cfg *config.Config, logger *zap.Logger) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)

	registerStores(injector)
	registerBroker(injector)
	registerIntegrations(injector)
	registerUsecases(injector)
	registerHTTP(injector)

	return injector
}

func registerStores(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Stores, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if cfg.Database.Driver == "memory" {
			questionnaires := repository.NewMemoryQuestionnaireRepository()
			if cfg.Database.FixturesFile != "" {
				fixtures, err := repository.LoadQuestionnaireFixtures(cfg.Database.FixturesFile)
				if err != nil {
					return nil, err
				}
				for _, q := range fixtures {
					questionnaires.Put(q)
				}
				logger.Info("Loaded questionnaire fixtures", zap.Int("count", len(fixtures)))
			}
			logger.Warn("Using in-memory repositories; data is lost on restart")
			return &Stores{
				FocusGroups:    repository.NewMemoryFocusGroupRepository(questionnaires),
				Questionnaires: questionnaires,
				Sessions:       repository.NewMemorySessionRepository(),
			}, nil
		}

		db, err := database.NewPostgresDB(cfg, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if cfg.IsProduction() {
				return nil, fmt.Errorf("DB_AUTO_MIGRATE must be disabled in production")
			}
			n, err := database.Migrate(db, migrate.Up)
			if err != nil {
				return nil, err
			}
			logger.Info("Applied migrations", zap.Int("count", n))
		}
		return &Stores{
			FocusGroups:    repository.NewFocusGroupRepository(db),
			Questionnaires: repository.NewQuestionnaireRepository(db),
			Sessions:       repository.NewSessionRepository(db),
			db:             db,
		}, nil
	})
}

// registerBroker wires the task queue and stop signal, on Redis when
// enabled and in process otherwise
func registerBroker(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*brokers, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if !cfg.Redis.Enabled {
			logger.Warn("Redis disabled; bot tasks only reach workers of this process")
			stop := cache.NewMemoryStopSignal(cache.NewMemoryStore(time.Minute), cfg.Bot.StopSignalTTL)
			return &brokers{
				queue:  queue.NewMemoryQueue(memoryQueueCapacity),
				stop:   stop,
				closer: stop.Close,
			}, nil
		}

		client, err := cache.NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		return &brokers{
			queue:  queue.NewRedisQueue(client, cfg.Bot.QueueKey),
			stop:   cache.NewRedisStopSignal(client, cfg.Bot.StopSignalTTL),
			closer: client.Close,
		}, nil
	})
}

type brokers struct {
	queue  bot.Queue
	stop   StopSignal
	closer func() error
}

func (b *brokers) Shutdown() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

func registerIntegrations(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (livekit.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return livekit.NewClient(cfg.LiveKit.URL, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, cfg.LiveKit.UseMock), nil
	})

	do.Provide(injector, func(i do.Injector) (meeting.Driver, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*zap.Logger](i)
		if cfg.LiveKit.UseMock {
			logger.Warn("LiveKit running in mock mode; the bot joins no real room")
			return livekit.NewMockDriver(logger), nil
		}
		client := do.MustInvoke[livekit.Client](i)
		return livekit.NewDriver(client, livekit.DriverOptions{
			URL:       cfg.LiveKit.URL,
			Identity:  cfg.Bot.Identity,
			Name:      "Focus Group Moderator",
			TokenTTL:  cfg.Bot.MaxRunTime,
			Segmenter: livekit.DefaultSegmenterOptions(),
		}, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (*speech.Adapter, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*zap.Logger](i)
		return speech.NewAdapter(ai.NewSpeechClient(&cfg.Speech), speech.Options{}, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (*transcription.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*zap.Logger](i)
		return transcription.NewService(
			ai.NewAssemblyAIClient(&cfg.Assembly),
			ai.NewChatClient(&cfg.LLM),
			transcription.DefaultOptions(),
			logger,
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*storage.MinIOClient, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
		defer cancel()
		return storage.NewMinIOClient(ctx, &cfg.Storage)
	})

	do.Provide(injector, func(i do.Injector) (*calendar.GoogleCalendar, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*zap.Logger](i)
		ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
		defer cancel()
		return calendar.NewGoogleCalendar(ctx, &cfg.Calendar, logger)
	})
}

func registerUsecases(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*orchestrator.Orchestrator, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*zap.Logger](i)
		stores := do.MustInvoke[*Stores](i)
		broker := do.MustInvoke[*brokers](i)

		driver, err := do.Invoke[meeting.Driver](i)
		if err != nil {
			return nil, err
		}

		prompts := config.DefaultPrompts()
		if cfg.Bot.PromptsFile != "" {
			if prompts, err = config.LoadPrompts(cfg.Bot.PromptsFile); err != nil {
				return nil, err
			}
		}

		orch := orchestrator.New(
			driver,
			do.MustInvoke[*speech.Adapter](i),
			do.MustInvoke[*transcription.Service](i),
			stores.Sessions,
			stores.FocusGroups,
			prompts,
			orchestrator.Options{
				JoinAttempts:    uint64(cfg.Bot.JoinAttempts),
				PersistAttempts: uint64(cfg.Bot.PersistAttempts),
			},
			logger,
		).WithStopSignal(broker.stop)

		if cfg.Storage.Enabled {
			store, err := do.Invoke[*storage.MinIOClient](i)
			if err != nil {
				return nil, err
			}
			orch = orch.WithArtifacts(store)
		}
		return orch, nil
	})

	do.Provide(injector, func(i do.Injector) (*focusgroup.FocusGroupService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*zap.Logger](i)
		stores := do.MustInvoke[*Stores](i)

		var scheduler focusgroup.CalendarScheduler
		if cfg.CalendarEnabled() {
			cal, err := do.Invoke[*calendar.GoogleCalendar](i)
			if err != nil {
				return nil, err
			}
			scheduler = cal
		} else {
			logger.Info("Google Calendar not configured; invitations are disabled")
		}

		return focusgroup.NewFocusGroupService(
			stores.FocusGroups,
			stores.Questionnaires,
			do.MustInvoke[livekit.Client](i),
			scheduler,
			cfg.LiveKit.MeetingBaseURL,
			logger,
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*bot.BotService, error) {
		logger := do.MustInvoke[*zap.Logger](i)
		stores := do.MustInvoke[*Stores](i)
		broker := do.MustInvoke[*brokers](i)
		return bot.NewBotService(
			stores.FocusGroups,
			stores.Sessions,
			bot.NewQueueSupervisor(broker.queue, logger),
			broker.stop,
			logger,
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*bot.WorkerPool, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*zap.Logger](i)
		stores := do.MustInvoke[*Stores](i)
		broker := do.MustInvoke[*brokers](i)

		orch, err := do.Invoke[*orchestrator.Orchestrator](i)
		if err != nil {
			return nil, err
		}
		runner := bot.NewRunner(stores.FocusGroups, stores.Sessions, orch, logger)
		return bot.NewWorkerPool(broker.queue, runner, bot.PoolOptions{
			Workers:    cfg.Bot.Workers,
			MaxRunTime: cfg.Bot.MaxRunTime,
		}, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (*bot.Reconciler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*zap.Logger](i)
		stores := do.MustInvoke[*Stores](i)
		return bot.NewReconciler(stores.Sessions, cfg.Bot.StaleAfter, logger), nil
	})
}

func registerHTTP(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*jwt.Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry, cfg.JWT.Issuer), nil
	})

	do.Provide(injector, func(i do.Injector) (*handler.Router, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*zap.Logger](i)

		focusGroups, err := do.Invoke[*focusgroup.FocusGroupService](i)
		if err != nil {
			return nil, err
		}
		bots, err := do.Invoke[*bot.BotService](i)
		if err != nil {
			return nil, err
		}

		webhookSecret := cfg.LiveKit.WebhookSecret
		if webhookSecret == "" {
			webhookSecret = cfg.LiveKit.APISecret
		}

		return handler.NewRouter(
			cfg,
			httpmw.EchoAuth(do.MustInvoke[*jwt.Manager](i)),
			handler.NewFocusGroupHandler(focusGroups, logger),
			handler.NewSessionHandler(bots, logger),
			handler.NewWebhookHandler(focusGroups, cfg.LiveKit.APIKey, webhookSecret, cfg.Bot.Identity, logger),
			logger,
		), nil
	})
}
