package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Storage  StorageConfig
	LiveKit  LiveKitConfig
	Assembly AssemblyAIConfig
	LLM      LLMConfig
	Speech   SpeechConfig
	Calendar CalendarConfig
	Bot      BotConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver      string `envconfig:"DB_DRIVER" default:"postgres"` // "postgres" or "memory"
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"focus_groups"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
	// YAML questionnaires loaded into the memory driver, and by the seed script
	FixturesFile string `envconfig:"DB_FIXTURES_FILE"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"true"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// JWTConfig holds the secret of access tokens issued by the auth service
type JWTConfig struct {
	AccessSecret string        `envconfig:"JWT_ACCESS_SECRET"`
	AccessExpiry time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"15m"`
	Issuer       string        `envconfig:"JWT_ISSUER" default:"focus-group-bot"`
}

// StorageConfig holds object storage configuration for session artifacts
type StorageConfig struct {
	Enabled         bool   `envconfig:"STORAGE_ENABLED" default:"false"`
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"focus-groups"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
	PublicURL       string `envconfig:"STORAGE_PUBLIC_URL"`
}

// LiveKitConfig holds meeting platform configuration
type LiveKitConfig struct {
	URL            string `envconfig:"LIVEKIT_URL" default:"ws://localhost:7880"`
	APIKey         string `envconfig:"LIVEKIT_API_KEY"`
	APISecret      string `envconfig:"LIVEKIT_API_SECRET"`
	WebhookSecret  string `envconfig:"LIVEKIT_WEBHOOK_SECRET"`
	UseMock        bool   `envconfig:"LIVEKIT_USE_MOCK" default:"false"`
	MeetingBaseURL string `envconfig:"MEETING_BASE_URL" default:"http://localhost:3000/meet"`
}

// AssemblyAIConfig holds speech-to-text configuration
type AssemblyAIConfig struct {
	APIKey   string        `envconfig:"ASSEMBLYAI_API_KEY"`
	BaseURL  string        `envconfig:"ASSEMBLYAI_BASE_URL"`
	Language string        `envconfig:"ASSEMBLYAI_LANGUAGE" default:"en"`
	Timeout  time.Duration `envconfig:"ASSEMBLYAI_TIMEOUT" default:"60s"`
}

// LLMConfig holds the OpenAI-compatible chat endpoint used for cleanup and summaries
type LLMConfig struct {
	APIKey      string        `envconfig:"LLM_API_KEY"`
	BaseURL     string        `envconfig:"LLM_BASE_URL" default:"https://api.groq.com/openai/v1/"`
	Model       string        `envconfig:"LLM_MODEL" default:"llama-3.3-70b-versatile"`
	Temperature float64       `envconfig:"LLM_TEMPERATURE" default:"0.2"`
	Timeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`
	MaxRetries  int           `envconfig:"LLM_MAX_RETRIES" default:"3"`
}

// SpeechConfig holds text-to-speech configuration
type SpeechConfig struct {
	APIKey  string        `envconfig:"OPENAI_API_KEY"`
	BaseURL string        `envconfig:"OPENAI_BASE_URL"`
	Model   string        `envconfig:"TTS_MODEL" default:"gpt-4o-mini-tts"`
	Timeout time.Duration `envconfig:"TTS_TIMEOUT" default:"60s"`
}

// CalendarConfig holds Google Calendar configuration. Empty ClientID disables
// calendar invites.
type CalendarConfig struct {
	ClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	ClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	RefreshToken string `envconfig:"GOOGLE_REFRESH_TOKEN"`
	CalendarID   string `envconfig:"GOOGLE_CALENDAR_ID" default:"primary"`
	TimeZone     string `envconfig:"GOOGLE_CALENDAR_TIMEZONE" default:"UTC"`
	BotEmail     string `envconfig:"BOT_EMAIL" default:"moderator@focusgroup.local"`
}

// BotConfig holds orchestrator and worker settings
type BotConfig struct {
	Identity        string        `envconfig:"BOT_IDENTITY" default:"focus-group-moderator"`
	Workers         int           `envconfig:"BOT_WORKERS" default:"2"`
	InProcess       bool          `envconfig:"BOT_IN_PROCESS" default:"false"`
	JoinAttempts    int           `envconfig:"BOT_JOIN_ATTEMPTS" default:"3"`
	PersistAttempts int           `envconfig:"BOT_PERSIST_ATTEMPTS" default:"3"`
	StaleAfter      time.Duration `envconfig:"BOT_STALE_AFTER" default:"15m"`
	ReconcileSpec   string        `envconfig:"BOT_RECONCILE_SPEC" default:"@every 1m"`
	QueueKey        string        `envconfig:"BOT_QUEUE_KEY" default:"focus-group:bot-tasks"`
	StopSignalTTL   time.Duration `envconfig:"BOT_STOP_TTL" default:"6h"`
	MaxRunTime      time.Duration `envconfig:"BOT_MAX_RUN_TIME" default:"3h"`
	PromptsFile     string        `envconfig:"BOT_PROMPTS_FILE"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "memory" {
		return fmt.Errorf("DB_DRIVER must be postgres or memory, got %q", c.Database.Driver)
	}
	if !c.LiveKit.UseMock && (c.LiveKit.APIKey == "" || c.LiveKit.APISecret == "") {
		return fmt.Errorf("LIVEKIT_API_KEY and LIVEKIT_API_SECRET are required unless LIVEKIT_USE_MOCK is set")
	}
	if c.Bot.Workers < 1 {
		return fmt.Errorf("BOT_WORKERS must be at least 1")
	}
	if c.Bot.JoinAttempts < 1 || c.Bot.PersistAttempts < 1 {
		return fmt.Errorf("BOT_JOIN_ATTEMPTS and BOT_PERSIST_ATTEMPTS must be at least 1")
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// CalendarEnabled reports whether calendar invites can be sent
func (c *Config) CalendarEnabled() bool {
	return c.Calendar.ClientID != "" && c.Calendar.ClientSecret != "" && c.Calendar.RefreshToken != ""
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
