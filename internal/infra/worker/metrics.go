package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"universitas/internal/pkg/config"
)

// WorkerMetrics provides Prometheus metrics for the worker component.
// It embeds the standard ConfigMetrics for configuration monitoring and adds
// metrics for the maintenance jobs and photo tasks.
//
// Embedded metrics (from ConfigMetrics):
//   - worker_config_load_timestamp: Unix timestamp of last configuration load
//   - worker_config_validation_errors_total: Total validation errors by field
//   - worker_config_fallbacks_total: Total fallback operations by field
//   - worker_config_fallback_active: 1 if any fallback active, 0 otherwise
//
// Worker-specific metrics (all labelled by job name):
//   - worker_cron_job_runs_total: Job runs by job and status (started/success/failure)
//   - worker_cron_job_duration_seconds: Duration histogram of job execution
//   - worker_cron_job_items_processed_total: Items (images, files, rows) handled
//   - worker_cron_job_last_success_timestamp: Unix timestamp of last successful run
//
// Example usage:
//
//	metrics := NewWorkerMetrics()
//	metrics.MustRegister()
//
//	start := time.Now()
//	n, err := stagingSvc.Import(ctx, cfg.StagingMaxAge)
//	metrics.RecordJobDuration("staging_import", time.Since(start).Seconds())
//	if err == nil {
//	    metrics.RecordJobRun("staging_import", "success")
//	    metrics.RecordItemsProcessed("staging_import", len(n))
//	    metrics.RecordLastSuccess("staging_import")
//	}
type WorkerMetrics struct {
	// Embedded configuration metrics
	*config.ConfigMetrics

	// CronJobRunsTotal counts job runs.
	// Type: Counter
	// Labels: job, status (started, success, failure)
	CronJobRunsTotal *prometheus.CounterVec

	// CronJobDurationSeconds measures job execution time.
	// Type: Histogram
	// Labels: job
	// Buckets: 0.1s to 30m; most runs are short, cleanup after an outage is not
	CronJobDurationSeconds *prometheus.HistogramVec

	// CronJobItemsProcessedTotal counts the work items handled by jobs.
	// Type: Counter
	// Labels: job
	CronJobItemsProcessedTotal *prometheus.CounterVec

	// CronJobLastSuccessTimestamp records when each job last succeeded.
	// Type: Gauge
	// Labels: job
	CronJobLastSuccessTimestamp *prometheus.GaugeVec
}

// NewWorkerMetrics creates WorkerMetrics registered with the default
// Prometheus registry. It must be called once per process.
func NewWorkerMetrics() *WorkerMetrics {
	return NewWorkerMetricsWith(prometheus.DefaultRegisterer)
}

// NewWorkerMetricsWith creates WorkerMetrics registered with reg.
// Tests pass prometheus.NewRegistry() to get isolated metrics.
func NewWorkerMetricsWith(reg prometheus.Registerer) *WorkerMetrics {
	f := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetricsWith(reg, "worker"),

		CronJobRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of cron job runs by job and status",
		}, []string{"job", "status"}),

		CronJobDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of cron job execution in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 30, 60, 300, 900, 1800},
		}, []string{"job"}),

		CronJobItemsProcessedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_items_processed_total",
			Help: "Total number of items processed by cron jobs",
		}, []string{"job"}),

		CronJobLastSuccessTimestamp: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful cron job run",
		}, []string{"job"}),
	}
}

// MustRegister is a no-op kept for the initialization pattern:
//
//	metrics := NewWorkerMetrics()
//	metrics.MustRegister()
//
// Metrics are registered when they are created.
func (m *WorkerMetrics) MustRegister() {}

// RecordJobRun increments the run counter for job with the given status
// ("started", "success" or "failure").
func (m *WorkerMetrics) RecordJobRun(job, status string) {
	m.CronJobRunsTotal.WithLabelValues(job, status).Inc()
}

// RecordJobDuration observes the duration of a job run in seconds.
func (m *WorkerMetrics) RecordJobDuration(job string, seconds float64) {
	m.CronJobDurationSeconds.WithLabelValues(job).Observe(seconds)
}

// RecordItemsProcessed adds count to the processed items of job.
// Zero and negative counts are ignored.
func (m *WorkerMetrics) RecordItemsProcessed(job string, count int) {
	if count <= 0 {
		return
	}
	m.CronJobItemsProcessedTotal.WithLabelValues(job).Add(float64(count))
}

// RecordLastSuccess records the current time as the last successful run.
func (m *WorkerMetrics) RecordLastSuccess(job string) {
	m.CronJobLastSuccessTimestamp.WithLabelValues(job).SetToCurrentTime()
}
