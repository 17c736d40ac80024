package bootstrap

import (
	"time"

	"wsbsentiment/internal/workers"
	analysisworker "wsbsentiment/internal/workers/analysis"
)

// ========================================
// Phase 7: Background Processing
// ========================================

// MustInitBackground registers background workers. The auto-run worker is
// disabled unless PIPELINE_AUTO_RUN_INTERVAL is positive.
func (c *Container) MustInitBackground() {
	scheduler := workers.NewScheduler()
	// A running analysis gets its full timeout to finish on shutdown
	scheduler.SetShutdownTimeout(c.Config.Pipeline.RunTimeout + 10*time.Second)

	scheduler.RegisterWorker(analysisworker.NewWorker(c.Services.Analysis, c.Config.Pipeline.AutoRunInterval))

	c.Background.WorkerScheduler = scheduler
	c.Log.Info("✓ Background processing initialized")
}
