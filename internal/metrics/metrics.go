package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shotforge_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shotforge_http_response_size_bytes",
			Help:    "HTTP response body size in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shotforge_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shotforge_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shotforge_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Watcher metrics
var (
	WatcherRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shotforge_watcher_running",
			Help: "Whether the directory watcher loop is running (1 = running, 0 = stopped)",
		},
	)

	WatcherScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_watcher_scans_total",
			Help: "Total number of directory scans by trigger",
		},
		[]string{"trigger"}, // "backlog", "poll", "event", "manual"
	)

	WatcherScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shotforge_watcher_scan_duration_seconds",
			Help:    "Duration of a directory scan including the pipeline runs it started",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 5, 15, 30, 60, 120, 300},
		},
	)

	WatcherLastScanTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shotforge_watcher_last_scan_timestamp",
			Help: "Unix timestamp of the last completed directory scan",
		},
	)

	WatcherFilesDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shotforge_watcher_files_discovered_total",
			Help: "Total number of unprocessed images found by scans",
		},
	)

	WatcherNotReadyTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shotforge_watcher_not_ready_total",
			Help: "Total number of times an image was deferred because it was still being written",
		},
	)

	WatcherProcessedSetSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shotforge_watcher_processed_set_size",
			Help: "Number of paths submitted to the pipeline during this run",
		},
	)

	WatcherLeftovers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shotforge_watcher_leftovers",
			Help: "Processed screenshots still present in the watched directory",
		},
	)

	WatcherForcedDeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_watcher_forced_deletes_total",
			Help: "Forced delete attempts on leftover screenshots",
		},
		[]string{"result"}, // "removed", "failed"
	)

	WatcherNotifierEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_watcher_notifier_events_total",
			Help: "Filesystem notifications received by operation",
		},
		[]string{"op"},
	)

	WatcherNotifierErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shotforge_watcher_notifier_errors_total",
			Help: "Errors reported by the filesystem notifier",
		},
	)

	WatcherPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shotforge_watcher_panics_total",
			Help: "Pipeline runs that panicked and were recovered",
		},
	)
)

// Pipeline metrics
var (
	PipelineOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_pipeline_outcomes_total",
			Help: "Pipeline runs by final stage and result",
		},
		[]string{"stage", "result"}, // result: "done", "failed", "deferred"
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shotforge_pipeline_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shotforge_pipeline_duration_seconds",
			Help:    "End-to-end duration of a pipeline run",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	PipelineInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shotforge_pipeline_in_flight",
			Help: "Number of pipeline runs currently executing",
		},
	)

	PipelineFallbackPromptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shotforge_pipeline_fallback_prompts_total",
			Help: "Pipeline runs that used the fallback prompt because vision analysis returned nothing",
		},
	)

	PipelineRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_pipeline_retries_total",
			Help: "Retried generation and download attempts",
		},
		[]string{"stage"},
	)
)

// Remote API metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_api_requests_total",
			Help: "Requests to remote services by client and status",
		},
		[]string{"client", "status"}, // client: "vision", "generation", "download"
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shotforge_api_request_duration_seconds",
			Help:    "Duration of requests to remote services",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"client"},
	)

	APITokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_api_tokens_total",
			Help: "Tokens reported by the vision service",
		},
		[]string{"kind"}, // "prompt", "completion"
	)

	DownloadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shotforge_download_bytes_total",
			Help: "Bytes of generated images downloaded",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shotforge_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_filesystem_operation_errors_total",
			Help: "Failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_filesystem_retry_attempts_total",
			Help: "Retries of filesystem operations after stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_filesystem_retry_failures_total",
			Help: "Filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_filesystem_stale_errors_total",
			Help: "Stale file handle errors seen",
		},
		[]string{"operation", "volume"},
	)

	FilesystemForceRemoveTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_filesystem_force_remove_total",
			Help: "Forced delete attempts by result",
		},
		[]string{"volume", "result"},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_thumbnail_generations_total",
			Help: "Thumbnail generations by result",
		},
		[]string{"result"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shotforge_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shotforge_thumbnail_cache_hits_total",
			Help: "Thumbnail requests served from cache",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shotforge_thumbnail_cache_misses_total",
			Help: "Thumbnail requests that required generation",
		},
	)
)

// Library and dashboard metrics
var (
	OutputImagesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shotforge_output_images",
			Help: "Images in the output directory",
		},
	)

	OutputBytesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shotforge_output_bytes",
			Help: "Total size of the output directory images in bytes",
		},
	)

	PendingScreenshots = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shotforge_pending_screenshots",
			Help: "Images currently in the watched directory",
		},
	)

	GenerationsRecorded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shotforge_generations_recorded",
			Help: "Generation history rows by kind (done, failed, manual, fallback, leftover)",
		},
		[]string{"kind"},
	)

	LastGenerationTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shotforge_last_generation_timestamp_seconds",
			Help: "Unix time the most recent recorded generation finished",
		},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_uploads_total",
			Help: "Dashboard uploads by result",
		},
		[]string{"result"},
	)

	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shotforge_auth_attempts_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)

	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shotforge_app_info",
			Help: "Build information; the value is always 1",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shotforge_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the Go memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shotforge_memory_paused",
			Help: "1 while watcher scans are held back by memory pressure",
		},
	)

	MemoryGoLimitBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shotforge_memory_go_limit_bytes",
			Help: "Configured Go soft memory limit in bytes (0 when unlimited)",
		},
	)

	WatcherScansSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shotforge_watcher_scans_skipped_total",
			Help: "Scans skipped while memory usage was critical",
		},
	)
)
