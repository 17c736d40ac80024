package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wsb_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wsb_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wsb_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Analysis run metrics
	AnalysisRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wsb_analysis_runs_total",
			Help: "Total number of analysis runs",
		},
		[]string{"status"}, // status: success|error|rejected
	)

	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wsb_analysis_duration_seconds",
			Help:    "Analysis run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	PostsAnalyzed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wsb_posts_analyzed_total",
			Help: "Total number of analysed posts by sentiment label",
		},
		[]string{"label"},
	)

	TickersExtracted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wsb_tickers_extracted_total",
			Help: "Total number of ticker mentions extracted",
		},
	)

	// Sink metrics
	SinkPublishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wsb_sink_publishes_total",
			Help: "Total number of snapshot publishes per sink",
		},
		[]string{"sink", "status"}, // status: success|error
	)

	// Source metrics
	SourceFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wsb_source_fetch_duration_seconds",
			Help:    "Duration of fetching posts from the source",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			WorkerExecutions,
			WorkerDuration,
			WorkerLastRun,
			AnalysisRuns,
			AnalysisDuration,
			PostsAnalyzed,
			TickersExtracted,
			SinkPublishes,
			SourceFetchDuration,
		)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	WorkerExecutions.WithLabelValues(worker, status(err)).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordAnalysisRun records a finished analysis run
func RecordAnalysisRun(duration time.Duration, err error) {
	AnalysisRuns.WithLabelValues(status(err)).Inc()
	AnalysisDuration.Observe(duration.Seconds())
}

// RecordRunRejected counts a trigger refused because a run was active
func RecordRunRejected() {
	AnalysisRuns.WithLabelValues("rejected").Inc()
}

// RecordSnapshot counts the posts and ticker mentions of a successful run
func RecordSnapshot(labelCounts map[string]int, tickerMentions int) {
	for label, n := range labelCounts {
		PostsAnalyzed.WithLabelValues(label).Add(float64(n))
	}
	TickersExtracted.Add(float64(tickerMentions))
}

// RecordSinkPublish records one sink fan-out attempt
func RecordSinkPublish(sink string, err error) {
	SinkPublishes.WithLabelValues(sink, status(err)).Inc()
}

// RecordFetch records a source fetch
func RecordFetch(duration time.Duration, err error) {
	SourceFetchDuration.WithLabelValues(status(err)).Observe(duration.Seconds())
}
