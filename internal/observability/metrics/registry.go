package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)
)

// Newsroom metrics.
var (
	ImageUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_uploads_total",
			Help: "Images stored, by api category and result",
		},
		[]string{"category", "result"},
	)

	ImageUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_upload_bytes",
			Help:    "Size of uploaded originals after reduction",
			Buckets: prometheus.ExponentialBuckets(32*1024, 2, 10),
		},
	)

	AutocropTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_autocrop_total",
			Help: "Autocrop runs by resulting cropping method",
		},
		[]string{"method"},
	)

	AutocropDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_autocrop_duration_seconds",
			Help:    "Time spent detecting features for one image",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	ThumbnailDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_thumbnail_duration_seconds",
			Help:    "Time spent rendering all thumbnails of one image",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	DuplicateCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_duplicate_candidates",
			Help:    "Number of duplicates kept after filtering trigram candidates",
			Buckets: []float64{0, 1, 2, 3},
		},
	)

	StoryVisitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_visits_total",
			Help: "Story page visits by outcome (counted, repeat, bot, unpublished)",
		},
		[]string{"outcome"},
	)

	StoriesDevaluedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "story_hotness_devalued_total",
			Help: "Story rows touched by the hotness decay job",
		},
	)

	StagingImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staging_imports_total",
			Help: "Files handled by the staging import, by action (created, updated, skipped, failed)",
		},
		[]string{"action"},
	)
)

// Database metrics.
var (
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}
