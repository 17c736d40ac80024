package bootstrap

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	chclient "wsbsentiment/internal/adapters/clickhouse"
	"wsbsentiment/internal/adapters/config"
	errnoop "wsbsentiment/internal/adapters/errors/noop"
	"wsbsentiment/internal/adapters/errors/sentry"
	"wsbsentiment/internal/adapters/kafka"
	"wsbsentiment/internal/adapters/nlp"
	pgclient "wsbsentiment/internal/adapters/postgres"
	"wsbsentiment/internal/adapters/reddit"
	redisclient "wsbsentiment/internal/adapters/redis"
	"wsbsentiment/internal/adapters/telegram"
	"wsbsentiment/internal/api"
	"wsbsentiment/internal/api/health"
	"wsbsentiment/internal/domain/post"
	"wsbsentiment/internal/domain/run"
	"wsbsentiment/internal/events"
	"wsbsentiment/internal/metrics"
	"wsbsentiment/internal/pipeline"
	chrepo "wsbsentiment/internal/repository/clickhouse"
	pgrepo "wsbsentiment/internal/repository/postgres"
	redisrepo "wsbsentiment/internal/repository/redis"
	"wsbsentiment/internal/repository/snapshot"
	"wsbsentiment/internal/sentiment"
	"wsbsentiment/internal/services/analysis"
	"wsbsentiment/internal/ticker"
	"wsbsentiment/pkg/errors"
	"wsbsentiment/pkg/logger"
)

const (
	connectTimeout  = 10 * time.Second
	digestTopTicker = 5
)

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s %s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)

	metrics.Init()
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects the data stores that are configured.
// A configured store that cannot be reached is fatal.
func (c *Container) MustInitInfrastructure() {
	var err error

	if c.Config.Postgres.Enabled() {
		c.Log.Info("Connecting to PostgreSQL...")
		ctx, cancel := context.WithTimeout(c.Context, connectTimeout)
		c.PG, err = pgclient.NewClient(ctx, c.Config.Postgres)
		cancel()
		if err != nil {
			c.Log.Fatalf("failed to connect postgres: %v", err)
		}
		c.Log.Info("✓ PostgreSQL connected")
	}

	if c.Config.ClickHouse.Enabled() {
		c.Log.Info("Connecting to ClickHouse...")
		ctx, cancel := context.WithTimeout(c.Context, connectTimeout)
		c.CH, err = chclient.NewClient(ctx, c.Config.ClickHouse)
		cancel()
		if err != nil {
			c.Log.Fatalf("failed to connect clickhouse: %v", err)
		}
		c.Log.Info("✓ ClickHouse connected")
	}

	if c.Config.Redis.Enabled() {
		c.Log.Info("Connecting to Redis...")
		ctx, cancel := context.WithTimeout(c.Context, connectTimeout)
		c.Redis, err = redisclient.NewClient(ctx, c.Config.Redis)
		cancel()
		if err != nil {
			c.Log.Fatalf("failed to connect redis: %v", err)
		}
		c.Log.Info("✓ Redis connected")
	}
}

// ========================================
// Phase 3: Repositories
// ========================================

// MustInitRepositories initializes snapshot storage, run history and sinks
func (c *Container) MustInitRepositories() {
	snapshots, err := provideSnapshotRepository(c.Config.Snapshot, c.Redis)
	if err != nil {
		c.Log.Fatalf("failed to init snapshot storage: %v", err)
	}
	c.Repos.Snapshots = snapshots
	c.Log.Infow("✓ Snapshot storage ready", "backend", c.Config.Snapshot.Backend)

	ctx, cancel := context.WithTimeout(c.Context, connectTimeout)
	defer cancel()

	if c.PG != nil {
		c.Repos.Runs = pgrepo.NewRunRepository(c.PG.DB())
		if err := c.Repos.Runs.EnsureSchema(ctx); err != nil {
			c.Log.Fatalf("failed to prepare run history table: %v", err)
		}
	}

	if c.CH != nil {
		c.Repos.PostSentiment = chrepo.NewPostSentimentSink(c.CH)
		if err := c.Repos.PostSentiment.EnsureSchema(ctx); err != nil {
			c.Log.Fatalf("failed to prepare clickhouse table: %v", err)
		}
	}

	if c.Redis != nil {
		c.Repos.RunLock = redisrepo.NewRunLock(c.Redis, "")
	}
}

// ========================================
// Phase 4: External Adapters
// ========================================

// MustInitAdapters initializes the post source and messaging adapters
func (c *Container) MustInitAdapters() {
	if c.Adapters.Source == nil {
		c.Adapters.Source = reddit.NewClient(c.Config.Reddit)
		if !c.Config.Reddit.Enabled() {
			c.Log.Warn("Reddit credentials not configured, runs will fail until REDDIT_CLIENT_ID/SECRET are set")
		}
	}

	if c.Config.Kafka.Enabled() {
		c.Adapters.KafkaProducer = kafka.NewProducer(kafka.ProducerConfig{Brokers: c.Config.Kafka.Brokers})
		c.Log.Infow("✓ Kafka producer initialized", "brokers", c.Config.Kafka.Brokers)
	}

	if c.Config.Telegram.Enabled() {
		bot, err := telegram.NewBot(telegram.Config{Token: c.Config.Telegram.BotToken}, c.Log)
		if err != nil {
			// The digest is optional, a bad token must not stop the service
			c.Log.Errorw("Telegram bot unavailable, digest disabled", "error", err)
		} else {
			c.Adapters.TelegramBot = bot
		}
	}
}

// UseSource replaces the configured source (cmd/analyze -input). Must be
// called before MustInitAdapters.
func (c *Container) UseSource(source post.Source) {
	c.Adapters.Source = source
}

// ========================================
// Phase 5: Analysis core and orchestrator
// ========================================

// MustInitServices loads the NLP collaborators and builds the pipeline
func (c *Container) MustInitServices() {
	extractor, err := provideTickerExtractor(c.Config.Ticker)
	if err != nil {
		c.Log.Fatalf("failed to load ticker lists: %v", err)
	}

	scorer, err := provideScorer()
	if err != nil {
		c.Log.Fatalf("failed to init sentiment scorer: %v", err)
	}
	c.Log.Info("✓ NLP collaborators loaded")

	c.Services.Pipeline, err = pipeline.New(extractor, scorer, c.Config.Pipeline.Workers)
	if err != nil {
		c.Log.Fatalf("failed to build pipeline: %v", err)
	}

	clock := clockwork.NewRealClock()
	c.Services.RunTracker = run.NewTracker(clock)

	deps := analysis.Deps{
		Source:       c.Adapters.Source,
		Pipeline:     c.Services.Pipeline,
		Snapshots:    c.Repos.Snapshots,
		Sinks:        provideSinks(c),
		Tracker:      c.Services.RunTracker,
		ErrorTracker: c.ErrorTracker,
		Clock:        clock,
	}
	if c.Repos.Runs != nil {
		deps.History = c.Repos.Runs
	}
	if c.Repos.RunLock != nil {
		deps.Lock = c.Repos.RunLock
	}

	c.Services.Analysis, err = analysis.NewService(analysis.Config{
		RunTimeout: c.Config.Pipeline.RunTimeout,
	}, deps, c.Log)
	if err != nil {
		c.Log.Fatalf("failed to build analysis service: %v", err)
	}

	var history metrics.LabelHistory
	if c.Repos.PostSentiment != nil {
		history = c.Repos.PostSentiment
	}
	prometheus.MustRegister(metrics.NewStatusCollector(c.Log, c.Services.RunTracker, history))

	c.Log.Infow("✓ Analysis service ready",
		"workers", c.Config.Pipeline.Workers,
		"sinks", len(deps.Sinks),
		"history", deps.History != nil,
		"distributed_lock", deps.Lock != nil,
	)
}

// ========================================
// Phase 6: Application Layer
// ========================================

// MustInitApplication initializes the HTTP API
func (c *Container) MustInitApplication() {
	checkers := map[string]health.Checker{}
	if c.PG != nil {
		checkers["postgres"] = c.PG
	}
	if c.CH != nil {
		checkers["clickhouse"] = c.CH
	}
	if c.Redis != nil {
		checkers["redis"] = c.Redis
	}

	c.Application.HealthHandler = health.New(c.Log, checkers, c.Config.App.Name, c.Config.App.Version)
	c.Application.HTTPServer = api.NewServer(
		api.ServerConfig{
			Port:        c.Config.HTTP.Port,
			ServiceName: c.Config.App.Name,
			Version:     c.Config.App.Version,
			CORSOrigins: c.Config.HTTP.CORSOrigins,
		},
		api.NewHandlers(c.Services.Analysis, c.Log),
		c.Application.HealthHandler,
		c.Log,
	)
}

// ========================================
// Helper Provider Functions
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

func provideSnapshotRepository(cfg config.SnapshotConfig, redis *redisclient.Client) (post.SnapshotRepository, error) {
	switch cfg.Backend {
	case "redis":
		if redis == nil {
			return nil, errors.Wrap(errors.ErrInvalidInput, "redis snapshot backend without a redis connection")
		}
		return redisrepo.NewSnapshotRepository(redis, ""), nil
	default:
		return snapshot.NewFileStore(cfg.Dir, cfg.Archive, clockwork.NewRealClock())
	}
}

func provideTickerExtractor(cfg config.TickerConfig) (*ticker.Extractor, error) {
	tc := ticker.DefaultConfig().Extend(cfg.ExtraAllow, cfg.ExtraDeny)
	tc.URLWindow = cfg.URLWindow

	if cfg.ListsFile != "" {
		lists, err := ticker.LoadListsFile(cfg.ListsFile)
		if err != nil {
			return nil, err
		}
		tc = tc.Extend(lists.Allow, lists.Deny)
	}

	return ticker.NewExtractor(tc), nil
}

func provideScorer() (*sentiment.Scorer, error) {
	lemmatizer, err := nlp.NewLemmatizer()
	if err != nil {
		return nil, err
	}
	return sentiment.NewScorer(nlp.NewVader(), lemmatizer, nlp.NewEmoji())
}

func provideSinks(c *Container) []post.Sink {
	var sinks []post.Sink

	if c.Repos.PostSentiment != nil {
		sinks = append(sinks, c.Repos.PostSentiment)
	}
	if c.Adapters.KafkaProducer != nil {
		sinks = append(sinks, events.NewSentimentSink(c.Adapters.KafkaProducer, c.Config.App.Name))
	}
	if c.Adapters.TelegramBot != nil {
		sinks = append(sinks, telegram.NewDigestSink(c.Adapters.TelegramBot, c.Config.Telegram.ChatID, digestTopTicker))
	}

	return sinks
}
