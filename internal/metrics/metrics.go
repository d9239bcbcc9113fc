package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photofind_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photofind_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photofind_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Derivative pipeline metrics
var (
	DerivativeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photofind_derivative_requests_total",
			Help: "Derivative requests by tier and outcome",
		},
		[]string{"tier", "status"}, // status: hit, generated, missing, error
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photofind_derivative_generation_duration_seconds",
			Help:    "Decode and scale duration for cache misses",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"tier"},
	)

	CacheWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photofind_cache_writes_total",
			Help: "Successful derivative cache writes",
		},
	)

	CacheWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photofind_cache_write_errors_total",
			Help: "Failed derivative cache writes",
		},
	)

	EmbeddedCandidatesFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photofind_embedded_candidates_found_total",
			Help: "Embedded JPEG candidates located in RAW containers",
		},
		[]string{"format"},
	)
)

// Background scheduler metrics
var (
	SchedulerPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photofind_scheduler_passes_total",
			Help: "Completed background cache passes by stage",
		},
		[]string{"stage"},
	)

	SchedulerGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photofind_scheduler_generations_total",
			Help: "Background derivative generations by stage and status",
		},
		[]string{"stage", "status"},
	)

	SchedulerStageExhausted = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photofind_scheduler_stage_exhausted",
			Help: "Whether a stage's cache is fully populated (1 = exhausted)",
		},
		[]string{"stage"},
	)
)

// Sidecar importer metrics
var (
	ImporterFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photofind_importer_files_processed_total",
			Help: "Sidecar files parsed and written to the registry",
		},
	)

	ImporterFilesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photofind_importer_files_skipped_total",
			Help: "Sidecar files skipped because their hash was unchanged",
		},
	)

	ImporterErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photofind_importer_errors_total",
			Help: "Sidecar files that failed to import",
		},
	)

	ImporterLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photofind_importer_last_run_timestamp",
			Help: "Unix timestamp of the last completed import run",
		},
	)

	ImporterRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photofind_importer_last_run_duration_seconds",
			Help: "Duration of the last import run in seconds",
		},
	)
)

// Registry metrics
var (
	RegistryQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photofind_registry_queries_total",
			Help: "Registry queries by operation and status",
		},
		[]string{"operation", "status"},
	)
)

// Filesystem metrics
var (
	FilesystemStaleRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photofind_filesystem_stale_retries_total",
			Help: "NFS stale file handle errors retried, by operation",
		},
		[]string{"operation"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photofind_app_info",
			Help: "Application information",
		},
		[]string{"version", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}
