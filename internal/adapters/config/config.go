package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"wsbsentiment/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Reddit        RedditConfig
	Pipeline      PipelineConfig
	Ticker        TickerConfig
	Snapshot      SnapshotConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Telegram      TelegramConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"wsbsentiment"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type HTTPConfig struct {
	Port        int      `envconfig:"HTTP_PORT" default:"8000"`
	CORSOrigins []string `envconfig:"HTTP_CORS_ORIGINS" default:"*"`
}

// RedditConfig drives the fetch collaborator. Credentials are optional:
// without them only file input (cmd/analyze -input) works.
type RedditConfig struct {
	ClientID        string        `envconfig:"REDDIT_CLIENT_ID"`
	ClientSecret    string        `envconfig:"REDDIT_CLIENT_SECRET"`
	UserAgent       string        `envconfig:"REDDIT_USER_AGENT" default:"wsbsentiment/1.0"`
	Subreddit       string        `envconfig:"REDDIT_SUBREDDIT" default:"wallstreetbets"`
	Listing         string        `envconfig:"REDDIT_LISTING" default:"new"` // new | hot | top
	Limit           int           `envconfig:"REDDIT_LIMIT" default:"50"`
	OnlyDD          bool          `envconfig:"REDDIT_ONLY_DD" default:"false"`
	CommentsPerPost int           `envconfig:"REDDIT_COMMENTS_PER_POST" default:"0"`
	RequestInterval time.Duration `envconfig:"REDDIT_REQUEST_INTERVAL" default:"1500ms"`
	HTTPTimeout     time.Duration `envconfig:"REDDIT_HTTP_TIMEOUT" default:"30s"`
}

// Enabled reports whether API credentials were supplied
func (c RedditConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type PipelineConfig struct {
	Workers         int           `envconfig:"PIPELINE_WORKERS" default:"1"`
	RunTimeout      time.Duration `envconfig:"PIPELINE_RUN_TIMEOUT" default:"5m"`
	AutoRunInterval time.Duration `envconfig:"PIPELINE_AUTO_RUN_INTERVAL" default:"0"`
}

// TickerConfig extends the built-in allow/deny lists
type TickerConfig struct {
	ExtraAllow []string `envconfig:"TICKER_EXTRA_ALLOW"`
	ExtraDeny  []string `envconfig:"TICKER_EXTRA_DENY"`
	URLWindow  int      `envconfig:"TICKER_URL_WINDOW" default:"20"`
	ListsFile  string   `envconfig:"TICKER_LISTS_FILE"` // optional YAML with allow/deny
}

type SnapshotConfig struct {
	Backend string `envconfig:"SNAPSHOT_BACKEND" default:"file"` // file | redis
	Dir     string `envconfig:"SNAPSHOT_DIR" default:"."`
	Archive bool   `envconfig:"SNAPSHOT_ARCHIVE" default:"true"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"5"`
}

func (c PostgresConfig) Enabled() bool {
	return c.Host != ""
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"sentiment"`
}

func (c ClickHouseConfig) Enabled() bool {
	return c.Host != ""
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type TelegramConfig struct {
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != 0
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects values the service cannot start with
func (c *Config) Validate() error {
	switch c.Reddit.Listing {
	case "new", "hot", "top":
	default:
		return errors.NewValidationError("REDDIT_LISTING", "must be one of new, hot, top", c.Reddit.Listing)
	}

	switch c.Snapshot.Backend {
	case "file":
	case "redis":
		if !c.Redis.Enabled() {
			return errors.NewValidationError("SNAPSHOT_BACKEND", "redis backend requires REDIS_HOST", c.Snapshot.Backend)
		}
	default:
		return errors.NewValidationError("SNAPSHOT_BACKEND", "must be file or redis", c.Snapshot.Backend)
	}

	if c.Pipeline.Workers < 1 {
		return errors.NewValidationError("PIPELINE_WORKERS", "must be at least 1", c.Pipeline.Workers)
	}
	if c.Reddit.Limit < 1 {
		return errors.NewValidationError("REDDIT_LIMIT", "must be at least 1", c.Reddit.Limit)
	}
	if c.Ticker.URLWindow < 0 {
		return errors.NewValidationError("TICKER_URL_WINDOW", "must not be negative", c.Ticker.URLWindow)
	}

	return nil
}
