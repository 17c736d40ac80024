package bootstrap

import (
	"context"
	"sync"
	"time"

	chclient "wsbsentiment/internal/adapters/clickhouse"
	"wsbsentiment/internal/adapters/kafka"
	pgclient "wsbsentiment/internal/adapters/postgres"
	redisclient "wsbsentiment/internal/adapters/redis"
	"wsbsentiment/internal/api"
	"wsbsentiment/internal/services/analysis"
	"wsbsentiment/internal/workers"
	"wsbsentiment/pkg/errors"
	"wsbsentiment/pkg/logger"
)

// Lifecycle manages graceful startup and shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
	runDrainTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		shutdownTimeout: 150 * time.Second,
		runDrainTimeout: 60 * time.Second,
	}
}

// Shutdown performs coordinated cleanup. Order matters:
// 1. No new requests accepted
// 2. Scheduled and triggered runs finish
// 3. Producer closes after the last sink publish
// 4. Logs and errors flushed
// 5. Database connections last
// Every component is optional; nil ones are skipped.
func (l *Lifecycle) Shutdown(
	wg *sync.WaitGroup,
	httpServer *api.Server,
	workerScheduler *workers.Scheduler,
	analysisService *analysis.Service,
	kafkaProducer *kafka.Producer,
	pgClient *pgclient.Client,
	chClient *chclient.Client,
	redisClient *redisclient.Client,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer shutdownCancel()

	log.Info("[1/7] Stopping HTTP server...")
	if httpServer != nil {
		httpCtx, httpCancel := context.WithTimeout(shutdownCtx, 5*time.Second)
		if err := httpServer.Shutdown(httpCtx); err != nil {
			log.Errorw("HTTP server shutdown failed", "error", err)
		}
		httpCancel()
	}

	log.Info("[2/7] Stopping background workers...")
	if workerScheduler != nil && workerScheduler.IsRunning() {
		if err := workerScheduler.Stop(); err != nil {
			log.Errorw("Workers shutdown failed", "error", err)
		} else {
			log.Info("✓ Workers stopped")
		}
	}

	log.Info("[3/7] Waiting for triggered analysis runs...")
	if analysisService != nil {
		l.waitFor(analysisService.Wait, l.runDrainTimeout, "analysis runs", log)
	}
	l.waitFor(wg.Wait, 5*time.Second, "goroutines", log)

	log.Info("[4/7] Closing Kafka producer...")
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Errorw("Kafka producer close failed", "error", err)
		} else {
			log.Info("✓ Kafka producer closed")
		}
	}

	log.Info("[5/7] Flushing error tracker...")
	l.flushErrorTracker(shutdownCtx, errorTracker, log)

	log.Info("[6/7] Syncing logs...")
	_ = logger.Sync()

	log.Info("[7/7] Closing database connections...")
	l.closeDatabases(pgClient, chClient, redisClient, log)

	log.Info("✅ Graceful shutdown complete")
}

// waitFor runs wait with a timeout
func (l *Lifecycle) waitFor(wait func(), timeout time.Duration, what string, log *logger.Logger) {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()

	select {
	case <-done:
		log.Infow("✓ Finished", "what", what)
	case <-time.After(timeout):
		log.Warnw("⚠ Did not finish within timeout", "what", what, "timeout", timeout)
	}
}

// flushErrorTracker flushes the error tracker (Sentry, etc.)
func (l *Lifecycle) flushErrorTracker(ctx context.Context, tracker errors.Tracker, log *logger.Logger) {
	if tracker == nil {
		return
	}

	flushCtx, flushCancel := context.WithTimeout(ctx, 3*time.Second)
	defer flushCancel()

	if err := tracker.Flush(flushCtx); err != nil {
		log.Errorw("Error tracker flush failed", "error", err)
	} else {
		log.Info("✓ Error tracker flushed")
	}
}

// closeDatabases closes all database connections
func (l *Lifecycle) closeDatabases(
	pgClient *pgclient.Client,
	chClient *chclient.Client,
	redisClient *redisclient.Client,
	log *logger.Logger,
) {
	dbErrors := &errors.MultiError{}

	if pgClient != nil {
		if err := pgClient.Close(); err != nil {
			dbErrors.Add(errors.Wrap(err, "postgres"))
		}
	}

	if chClient != nil {
		if err := chClient.Close(); err != nil {
			dbErrors.Add(errors.Wrap(err, "clickhouse"))
		}
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			dbErrors.Add(errors.Wrap(err, "redis"))
		}
	}

	if err := dbErrors.ToError(); err != nil {
		log.Errorw("Database close errors", "error", err)
	} else {
		log.Info("✓ Database connections closed")
	}
}
