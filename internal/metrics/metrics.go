package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_librarian_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_librarian_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_librarian_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Scanner metrics
var (
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_librarian_scans_total",
			Help: "Total number of library scans by outcome (applied, canceled)",
		},
		[]string{"outcome"},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_librarian_scan_duration_seconds",
			Help:    "Full library scan duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ScanFilesIndexed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_librarian_scan_files_indexed",
			Help: "Number of media files in the most recent snapshot",
		},
	)

	ScanDirectoriesIndexed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_librarian_scan_directories_indexed",
			Help: "Number of directories in the most recent snapshot",
		},
	)

	ScanEntriesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_librarian_scan_entries_skipped_total",
			Help: "Total number of filesystem entries skipped due to per-entry errors",
		},
	)
)

// File operation metrics
var (
	FileOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_librarian_file_operations_total",
			Help: "Total number of file operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	FileOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_librarian_file_operation_duration_seconds",
			Help:    "File operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)
)

// Store metrics
var (
	StoreSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_librarian_store_saves_total",
			Help: "Total number of store writes to disk by store and status",
		},
		[]string{"store", "status"},
	)

	StoreSavesDebounced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_librarian_store_saves_debounced_total",
			Help: "Total number of store writes superseded before reaching disk",
		},
		[]string{"store"},
	)
)

// Online ingestion metrics
var (
	OnlinePagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_librarian_online_pages_fetched_total",
			Help: "Total number of listing pages fetched by service and status",
		},
		[]string{"service", "status"},
	)

	OnlinePostsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_librarian_online_posts_fetched_total",
			Help: "Total number of posts extracted from remote listings",
		},
		[]string{"service"},
	)

	OnlineDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_librarian_online_downloads_total",
			Help: "Total number of media downloads by status (written, skipped, failed)",
		},
		[]string{"status"},
	)

	OnlineDownloadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_librarian_online_download_bytes_total",
			Help: "Total bytes written by the importer",
		},
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_librarian_watcher_events_total",
			Help: "Total number of filesystem watcher events by type",
		},
		[]string{"type"},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_librarian_watcher_errors_total",
			Help: "Total number of filesystem watcher errors",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_librarian_thumbnails_generated_total",
			Help: "Total number of thumbnails generated by status",
		},
		[]string{"status"},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_librarian_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)
)
