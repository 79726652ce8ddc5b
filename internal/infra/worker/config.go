package worker

import (
	"fmt"
	"log/slog"
	"time"

	"universitas/internal/pkg/config"
)

// WorkerConfig holds the configuration for the worker component.
// It controls the cron schedules of the maintenance jobs, the timezone they
// run in, and the operational limits of the photo task server.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// All fields have defaults and validation rules so that the worker keeps
// running with known settings even when the environment is wrong.
//
// Example usage:
//
//	metrics := NewWorkerMetrics()
//	cfg, _ := LoadConfigFromEnv(logger, metrics)
//	c := cron.New(cron.WithLocation(loc))
//	c.AddFunc(cfg.HotnessSchedule, devalueHotness)
type WorkerConfig struct {
	// HotnessSchedule is the cron expression for devaluing story hotness.
	// Format: "minute hour day month weekday"
	// Default: "0 * * * *" (every hour)
	HotnessSchedule string

	// AutocropCleanupSchedule is the cron expression for processing images
	// still waiting for autocrop (for instance when the queue was down).
	// Default: "*/15 * * * *"
	AutocropCleanupSchedule string

	// StagingSchedule is the cron expression for importing files from the
	// staging directory.
	// Default: "* * * * *" (every minute)
	StagingSchedule string

	// SearchVectorSchedule is the cron expression for rebuilding stale
	// story search vectors.
	// Default: "*/30 * * * *"
	SearchVectorSchedule string

	// Timezone is the IANA timezone name for cron scheduling.
	// Example: "Europe/Oslo", "UTC"
	// Default: "Europe/Oslo"
	Timezone string

	// JobTimeout bounds a single cron job run. The job context is cancelled
	// after this duration.
	// Range: 1m-4h
	// Default: 10 minutes
	JobTimeout time.Duration

	// HotnessFactor multiplies (hot_count - 1) on each hotness run.
	// Range: 0.5-1.0
	// Default: 0.99
	HotnessFactor float64

	// AutocropCleanupLimit is the maximum number of pending images handled
	// per cleanup run.
	// Range: 1-5000
	// Default: 300
	AutocropCleanupLimit int

	// StagingDir is the directory scanned by the staging import. An empty
	// value disables the job.
	// Default: "" (disabled)
	StagingDir string

	// StagingMaxAge limits the import to files modified within this window.
	// Range: 1m-24h
	// Default: 10 minutes
	StagingMaxAge time.Duration

	// HealthPort is the port number for the health check HTTP server.
	// Range: 1024-65535 (avoid privileged ports)
	// Default: 9091
	HealthPort int

	// TaskConcurrency is the number of photo tasks processed in parallel by
	// the asynq server.
	// Range: 1-64
	// Default: 4
	TaskConcurrency int
}

// DefaultConfig returns a WorkerConfig with production default values.
//
// Example:
//
//	cfg := DefaultConfig()
//	cfg.StagingDir = "/srv/staging"
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		HotnessSchedule:         "0 * * * *",
		AutocropCleanupSchedule: "*/15 * * * *",
		StagingSchedule:         "* * * * *",
		SearchVectorSchedule:    "*/30 * * * *",
		Timezone:                "Europe/Oslo",
		JobTimeout:              10 * time.Minute,
		HotnessFactor:           0.99,
		AutocropCleanupLimit:    300,
		StagingDir:              "",
		StagingMaxAge:           10 * time.Minute,
		HealthPort:              9091,
		TaskConcurrency:         4,
	}
}

// Validate checks if the configuration values are valid.
// All invalid fields are collected and returned together.
//
// Validation rules:
//   - Schedules: valid 5-field cron expressions (robfig/cron parser)
//   - Timezone: valid IANA timezone name
//   - JobTimeout: 1m-4h
//   - HotnessFactor: 0.5-1.0
//   - AutocropCleanupLimit: 1-5000
//   - StagingMaxAge: 1m-24h
//   - HealthPort: 1024-65535
//   - TaskConcurrency: 1-64
//
// Returns:
//   - error: nil if configuration is valid, aggregated error otherwise
func (c *WorkerConfig) Validate() error {
	var errs []error

	schedules := []struct {
		name string
		expr string
	}{
		{"hotness schedule", c.HotnessSchedule},
		{"autocrop cleanup schedule", c.AutocropCleanupSchedule},
		{"staging schedule", c.StagingSchedule},
		{"search vector schedule", c.SearchVectorSchedule},
	}
	for _, s := range schedules {
		if err := config.ValidateCronSchedule(s.expr); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}

	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.JobTimeout, time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("job timeout: %w", err))
	}
	if err := config.ValidateFloatRange(c.HotnessFactor, 0.5, 1.0); err != nil {
		errs = append(errs, fmt.Errorf("hotness factor: %w", err))
	}
	if err := config.ValidateIntRange(c.AutocropCleanupLimit, 1, 5000); err != nil {
		errs = append(errs, fmt.Errorf("autocrop cleanup limit: %w", err))
	}
	if err := config.ValidateDuration(c.StagingMaxAge, time.Minute, 24*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("staging max age: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.TaskConcurrency, 1, 64); err != nil {
		errs = append(errs, fmt.Errorf("task concurrency: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables
// with validation and automatic fallback to default values on failure.
//
// This function implements the fail-open strategy:
//  1. Start with DefaultConfig() as base
//  2. Load each field from environment variables
//  3. Validate each loaded value
//  4. If validation fails: use default value, log warning, increment metrics
//  5. Never return error - always return a valid configuration
//
// Environment variables:
//   - HOTNESS_SCHEDULE: Cron expression (default: "0 * * * *")
//   - AUTOCROP_CLEANUP_SCHEDULE: Cron expression (default: "*/15 * * * *")
//   - STAGING_SCHEDULE: Cron expression (default: "* * * * *")
//   - SEARCH_VECTOR_SCHEDULE: Cron expression (default: "*/30 * * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default: "Europe/Oslo")
//   - JOB_TIMEOUT: Duration string (default: "10m")
//   - HOTNESS_FACTOR: Float 0.5-1.0 (default: 0.99)
//   - AUTOCROP_CLEANUP_LIMIT: Integer 1-5000 (default: 300)
//   - STAGING_DIR: Directory path (default: disabled)
//   - STAGING_MAX_AGE: Duration string (default: "10m")
//   - WORKER_HEALTH_PORT: Integer 1024-65535 (default: 9091)
//   - TASK_CONCURRENCY: Integer 1-64 (default: 4)
//
// Metrics updated:
//   - ValidationErrorsTotal and FallbacksTotal for each rejected field
//   - FallbackActive: 1 if any fallback is active, 0 otherwise
//   - LoadTimestamp: current time
//
// Returns:
//   - *WorkerConfig: Valid configuration (never nil)
//   - error: Always nil (fail-open strategy)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}
	warn := func(field string, warnings []string, applied bool) {
		if !applied {
			return
		}
		fallbackApplied = true
		for _, w := range warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", w))
		}
	}

	loadSchedule := func(field, key string, dst *string) {
		r := config.Track(cm, field, config.LoadEnvWithFallback(key, *dst, config.ValidateCronSchedule))
		*dst = r.Value
		warn(field, r.Warnings, r.FallbackApplied)
	}
	loadSchedule("hotness_schedule", "HOTNESS_SCHEDULE", &cfg.HotnessSchedule)
	loadSchedule("autocrop_cleanup_schedule", "AUTOCROP_CLEANUP_SCHEDULE", &cfg.AutocropCleanupSchedule)
	loadSchedule("staging_schedule", "STAGING_SCHEDULE", &cfg.StagingSchedule)
	loadSchedule("search_vector_schedule", "SEARCH_VECTOR_SCHEDULE", &cfg.SearchVectorSchedule)

	tz := config.Track(cm, "timezone", config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone))
	cfg.Timezone = tz.Value
	warn("timezone", tz.Warnings, tz.FallbackApplied)

	jt := config.Track(cm, "job_timeout", config.LoadEnvDuration("JOB_TIMEOUT", cfg.JobTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Minute, 4*time.Hour)
	}))
	cfg.JobTimeout = jt.Value
	warn("job_timeout", jt.Warnings, jt.FallbackApplied)

	hf := config.Track(cm, "hotness_factor", config.LoadEnvFloat("HOTNESS_FACTOR", cfg.HotnessFactor, func(v float64) error {
		return config.ValidateFloatRange(v, 0.5, 1.0)
	}))
	cfg.HotnessFactor = hf.Value
	warn("hotness_factor", hf.Warnings, hf.FallbackApplied)

	cl := config.Track(cm, "autocrop_cleanup_limit", config.LoadEnvInt("AUTOCROP_CLEANUP_LIMIT", cfg.AutocropCleanupLimit, func(v int) error {
		return config.ValidateIntRange(v, 1, 5000)
	}))
	cfg.AutocropCleanupLimit = cl.Value
	warn("autocrop_cleanup_limit", cl.Warnings, cl.FallbackApplied)

	cfg.StagingDir = config.LoadEnvString("STAGING_DIR", cfg.StagingDir)

	sa := config.Track(cm, "staging_max_age", config.LoadEnvDuration("STAGING_MAX_AGE", cfg.StagingMaxAge, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Minute, 24*time.Hour)
	}))
	cfg.StagingMaxAge = sa.Value
	warn("staging_max_age", sa.Warnings, sa.FallbackApplied)

	hp := config.Track(cm, "health_port", config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	}))
	cfg.HealthPort = hp.Value
	warn("health_port", hp.Warnings, hp.FallbackApplied)

	tc := config.Track(cm, "task_concurrency", config.LoadEnvInt("TASK_CONCURRENCY", cfg.TaskConcurrency, func(v int) error {
		return config.ValidateIntRange(v, 1, 64)
	}))
	cfg.TaskConcurrency = tc.Value
	warn("task_concurrency", tc.Warnings, tc.FallbackApplied)

	if cm != nil {
		if fallbackApplied {
			cm.FallbackActive.Set(1)
		} else {
			cm.FallbackActive.Set(0)
		}
		cm.RecordLoadTimestamp()
	}

	return &cfg, nil
}
