package bootstrap

import (
	"context"
	"sync"

	chclient "wsbsentiment/internal/adapters/clickhouse"
	"wsbsentiment/internal/adapters/config"
	"wsbsentiment/internal/adapters/kafka"
	pgclient "wsbsentiment/internal/adapters/postgres"
	redisclient "wsbsentiment/internal/adapters/redis"
	"wsbsentiment/internal/adapters/telegram"
	"wsbsentiment/internal/api"
	"wsbsentiment/internal/api/health"
	"wsbsentiment/internal/domain/post"
	"wsbsentiment/internal/domain/run"
	"wsbsentiment/internal/pipeline"
	chrepo "wsbsentiment/internal/repository/clickhouse"
	pgrepo "wsbsentiment/internal/repository/postgres"
	redisrepo "wsbsentiment/internal/repository/redis"
	"wsbsentiment/internal/services/analysis"
	"wsbsentiment/internal/workers"
	"wsbsentiment/pkg/errors"
	"wsbsentiment/pkg/logger"
)

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer (optional data stores, nil when not configured)
	PG    *pgclient.Client
	CH    *chclient.Client
	Redis *redisclient.Client

	Repos       *Repositories
	Adapters    *Adapters
	Services    *Services
	Application *Application
	Background  *Background

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Repositories groups persistence
type Repositories struct {
	Snapshots     post.SnapshotRepository
	Runs          *pgrepo.RunRepository      // nil without Postgres
	RunLock       *redisrepo.RunLock         // nil without Redis
	PostSentiment *chrepo.PostSentimentSink // nil without ClickHouse
}

// Adapters groups external adapters
type Adapters struct {
	Source        post.Source
	KafkaProducer *kafka.Producer // nil without brokers
	TelegramBot   *telegram.Bot   // nil without token
}

// Services groups the analysis core and its orchestrator
type Services struct {
	RunTracker *run.Tracker
	Pipeline   *pipeline.Pipeline
	Analysis   *analysis.Service
}

// Application groups application layer components
type Application struct {
	HTTPServer    *api.Server
	HealthHandler *health.Handler
}

// Background groups all background processing components
type Background struct {
	WorkerScheduler *workers.Scheduler
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Repos:       &Repositories{},
		Adapters:    &Adapters{},
		Services:    &Services{},
		Application: &Application{},
		Background:  &Background{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes all components in the correct order
// Panics on any initialization error (fail-fast at startup)
func (c *Container) MustInit() {
	c.MustInitCore()
	c.MustInitApplication()
	c.MustInitBackground()
}

// MustInitCore initializes everything a single analysis run needs. The
// one-shot CLI stops here.
func (c *Container) MustInitCore() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitServices()
}

// Start starts the HTTP server and background workers
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	// Start HTTP server
	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	if err := c.Background.WorkerScheduler.Start(c.Context); err != nil {
		return errors.Wrap(err, "failed to start workers")
	}

	c.Log.Info("✓ All systems operational")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	// Cancel application context to signal all components to stop
	c.Cancel()

	c.Lifecycle.Shutdown(
		c.WG,
		c.Application.HTTPServer,
		c.Background.WorkerScheduler,
		c.Services.Analysis,
		c.Adapters.KafkaProducer,
		c.PG,
		c.CH,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}
