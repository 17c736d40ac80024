package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"wsbsentiment/internal/domain/post"
	"wsbsentiment/internal/domain/run"
	"wsbsentiment/pkg/logger"
)

// StatusSource exposes the current run status
type StatusSource interface {
	Status() run.Status
}

// LabelHistory reports label counts of persisted posts (ClickHouse)
type LabelHistory interface {
	LabelCountsSince(ctx context.Context, since time.Time) (map[post.Label]uint64, error)
}

// StatusCollector exports orchestrator state on every scrape
type StatusCollector struct {
	log     *logger.Logger
	status  StatusSource
	history LabelHistory // optional

	running       *prometheus.Desc
	lastSuccess   *prometheus.Desc
	lastPosts     *prometheus.Desc
	lastFailed    *prometheus.Desc
	labelsLastDay *prometheus.Desc
}

// NewStatusCollector creates a collector. history may be nil.
func NewStatusCollector(log *logger.Logger, status StatusSource, history LabelHistory) *StatusCollector {
	return &StatusCollector{
		log:     log,
		status:  status,
		history: history,

		running: prometheus.NewDesc(
			"wsb_analysis_running",
			"Whether an analysis run is active (0=idle, 1=running)",
			nil, nil,
		),
		lastSuccess: prometheus.NewDesc(
			"wsb_analysis_last_success_timestamp",
			"Unix timestamp of the last successful run",
			nil, nil,
		),
		lastPosts: prometheus.NewDesc(
			"wsb_analysis_last_posts_count",
			"Number of posts in the last successful run",
			nil, nil,
		),
		lastFailed: prometheus.NewDesc(
			"wsb_analysis_last_run_failed",
			"Whether the most recent run failed (0=no, 1=yes)",
			nil, nil,
		),
		labelsLastDay: prometheus.NewDesc(
			"wsb_posts_by_label_24h",
			"Analysed posts persisted in the last 24h by label",
			[]string{"label"}, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *StatusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.running
	ch <- c.lastSuccess
	ch <- c.lastPosts
	ch <- c.lastFailed
	ch <- c.labelsLastDay
}

// Collect implements prometheus.Collector
func (c *StatusCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.status.Status()

	ch <- prometheus.MustNewConstMetric(c.running, prometheus.GaugeValue, boolValue(st.IsRunning))
	ch <- prometheus.MustNewConstMetric(c.lastPosts, prometheus.GaugeValue, float64(st.PostsCount))
	ch <- prometheus.MustNewConstMetric(c.lastFailed, prometheus.GaugeValue, boolValue(st.Error != nil))
	if st.LastRun != nil {
		ch <- prometheus.MustNewConstMetric(c.lastSuccess, prometheus.GaugeValue, float64(st.LastRun.Unix()))
	}

	if c.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.history.LabelCountsSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		c.log.Warnw("Failed to collect label history", "error", err)
		return
	}
	for label, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.labelsLastDay, prometheus.GaugeValue, float64(n), string(label))
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
