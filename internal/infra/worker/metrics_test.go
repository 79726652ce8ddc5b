package worker

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestMetrics(t *testing.T) *WorkerMetrics {
	t.Helper()
	return NewWorkerMetricsWith(prometheus.NewRegistry())
}

func TestNewWorkerMetrics(t *testing.T) {
	metrics := newTestMetrics(t)

	if metrics.ConfigMetrics == nil {
		t.Error("ConfigMetrics is nil")
	}
	if metrics.CronJobRunsTotal == nil {
		t.Error("CronJobRunsTotal is nil")
	}
	if metrics.CronJobDurationSeconds == nil {
		t.Error("CronJobDurationSeconds is nil")
	}
	if metrics.CronJobItemsProcessedTotal == nil {
		t.Error("CronJobItemsProcessedTotal is nil")
	}
	if metrics.CronJobLastSuccessTimestamp == nil {
		t.Error("CronJobLastSuccessTimestamp is nil")
	}

	// Should not panic
	metrics.MustRegister()
}

func TestWorkerMetrics_RecordJobRun(t *testing.T) {
	metrics := newTestMetrics(t)

	metrics.RecordJobRun("hotness", "success")
	metrics.RecordJobRun("hotness", "success")
	metrics.RecordJobRun("hotness", "failure")
	metrics.RecordJobRun("staging_import", "success")

	if got := testutil.ToFloat64(metrics.CronJobRunsTotal.WithLabelValues("hotness", "success")); got != 2 {
		t.Errorf("Expected hotness success count 2, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.CronJobRunsTotal.WithLabelValues("hotness", "failure")); got != 1 {
		t.Errorf("Expected hotness failure count 1, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.CronJobRunsTotal.WithLabelValues("staging_import", "success")); got != 1 {
		t.Errorf("Expected staging_import success count 1, got %f", got)
	}
}

func TestWorkerMetrics_RecordJobDuration(t *testing.T) {
	metrics := newTestMetrics(t)

	metrics.RecordJobDuration("autocrop_cleanup", 0.3)
	metrics.RecordJobDuration("autocrop_cleanup", 12)

	if n := testutil.CollectAndCount(metrics.CronJobDurationSeconds); n != 1 {
		t.Errorf("Expected 1 histogram series, got %d", n)
	}
}

func TestWorkerMetrics_RecordItemsProcessed(t *testing.T) {
	metrics := newTestMetrics(t)

	metrics.RecordItemsProcessed("staging_import", 3)
	metrics.RecordItemsProcessed("staging_import", 0)
	metrics.RecordItemsProcessed("staging_import", -1)
	metrics.RecordItemsProcessed("staging_import", 2)

	if got := testutil.ToFloat64(metrics.CronJobItemsProcessedTotal.WithLabelValues("staging_import")); got != 5 {
		t.Errorf("Expected 5 items, got %f", got)
	}
}

func TestWorkerMetrics_RecordLastSuccess(t *testing.T) {
	metrics := newTestMetrics(t)

	before := float64(time.Now().Unix())
	metrics.RecordLastSuccess("search_vectors")
	after := float64(time.Now().Add(time.Second).Unix())

	got := testutil.ToFloat64(metrics.CronJobLastSuccessTimestamp.WithLabelValues("search_vectors"))
	if got < before || got > after {
		t.Errorf("Expected timestamp between %f and %f, got %f", before, after, got)
	}
}

func TestWorkerMetrics_ConcurrentAccess(t *testing.T) {
	metrics := newTestMetrics(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metrics.RecordJobRun("hotness", "success")
			metrics.RecordJobDuration("hotness", 0.01)
			metrics.RecordItemsProcessed("hotness", 1)
			metrics.RecordLastSuccess("hotness")
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(metrics.CronJobRunsTotal.WithLabelValues("hotness", "success")); got != 50 {
		t.Errorf("Expected 50 runs, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.CronJobItemsProcessedTotal.WithLabelValues("hotness")); got != 50 {
		t.Errorf("Expected 50 items, got %f", got)
	}
}
