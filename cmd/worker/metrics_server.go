package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"universitas/internal/handler/http/respond"
	"universitas/internal/pkg/config"
)

// JobStatus is the outcome of the latest run of one cron job.
type JobStatus struct {
	Name     string    `json:"name"`
	LastRun  time.Time `json:"last_run"`
	Items    int       `json:"items"`
	Healthy  bool      `json:"healthy"`
	LastErr  string    `json:"last_error,omitempty"`
	Failures int       `json:"consecutive_failures"`
}

// JobsResponse is the body of GET /health/jobs.
type JobsResponse struct {
	Healthy bool        `json:"healthy"`
	Jobs    []JobStatus `json:"jobs"`
}

// jobTracker remembers the latest result of every job.
type jobTracker struct {
	mu   sync.Mutex
	jobs map[string]*JobStatus
}

func newJobTracker() *jobTracker {
	return &jobTracker{jobs: map[string]*JobStatus{}}
}

func (t *jobTracker) record(name string, started time.Time, items int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.jobs[name]
	if !ok {
		st = &JobStatus{Name: name}
		t.jobs[name] = st
	}
	st.LastRun = started
	st.Items = items
	st.Healthy = err == nil
	if err != nil {
		st.LastErr = respond.SanitizeError(err)
		st.Failures++
		return
	}
	st.LastErr = ""
	st.Failures = 0
}

// snapshot returns the statuses sorted by name. A job is unhealthy after
// three failed runs in a row.
func (t *jobTracker) snapshot() JobsResponse {
	t.mu.Lock()
	defer t.mu.Unlock()
	resp := JobsResponse{Healthy: true, Jobs: make([]JobStatus, 0, len(t.jobs))}
	for _, st := range t.jobs {
		resp.Jobs = append(resp.Jobs, *st)
		if st.Failures >= 3 {
			resp.Healthy = false
		}
	}
	sort.Slice(resp.Jobs, func(i, j int) bool { return resp.Jobs[i].Name < resp.Jobs[j].Name })
	return resp
}

// startMetricsServer starts the Prometheus metrics HTTP server.
//
// The server exposes:
//   - GET /metrics - Prometheus metrics endpoint
//   - GET /health/jobs - latest result of every cron job
//
// Environment variables:
//   - METRICS_PORT: Port to listen on (default: 9090)
//
// When ctx is cancelled the server shuts down within 5 seconds.
func startMetricsServer(ctx context.Context, logger *slog.Logger, jobs *jobTracker) *http.Server {
	port := getMetricsPort()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      metricsMux(jobs),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		} else {
			logger.Info("metrics server stopped")
		}
	}()

	return server
}

func metricsMux(jobs *jobTracker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health/jobs", jobsHealthHandler(jobs))
	return mux
}

func getMetricsPort() int {
	return config.LoadEnvInt("METRICS_PORT", 9090, func(v int) error {
		return config.ValidateIntRange(v, 1, 65535)
	}).Value
}

// jobsHealthHandler returns 503 when any job keeps failing.
func jobsHealthHandler(jobs *jobTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := jobs.snapshot()
		code := http.StatusOK
		if !resp.Healthy {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
