package worker

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

var workerEnvKeys = []string{
	"HOTNESS_SCHEDULE",
	"AUTOCROP_CLEANUP_SCHEDULE",
	"STAGING_SCHEDULE",
	"SEARCH_VECTOR_SCHEDULE",
	"WORKER_TIMEZONE",
	"JOB_TIMEOUT",
	"HOTNESS_FACTOR",
	"AUTOCROP_CLEANUP_LIMIT",
	"STAGING_DIR",
	"STAGING_MAX_AGE",
	"WORKER_HEALTH_PORT",
	"TASK_CONCURRENCY",
}

// clearEnv blanks every worker variable for the duration of the test.
// An empty value is treated as unset by the loaders.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range workerEnvKeys {
		t.Setenv(k, "")
	}
}

/* ───────────────────────────── defaults ───────────────────────────── */

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.HotnessSchedule != "0 * * * *" {
		t.Errorf("Expected HotnessSchedule '0 * * * *', got '%s'", config.HotnessSchedule)
	}
	if config.AutocropCleanupSchedule != "*/15 * * * *" {
		t.Errorf("Expected AutocropCleanupSchedule '*/15 * * * *', got '%s'", config.AutocropCleanupSchedule)
	}
	if config.StagingSchedule != "* * * * *" {
		t.Errorf("Expected StagingSchedule '* * * * *', got '%s'", config.StagingSchedule)
	}
	if config.SearchVectorSchedule != "*/30 * * * *" {
		t.Errorf("Expected SearchVectorSchedule '*/30 * * * *', got '%s'", config.SearchVectorSchedule)
	}
	if config.HotnessFactor != 0.99 {
		t.Errorf("Expected HotnessFactor 0.99, got %v", config.HotnessFactor)
	}
	if config.AutocropCleanupLimit != 300 {
		t.Errorf("Expected AutocropCleanupLimit 300, got %d", config.AutocropCleanupLimit)
	}
	if config.StagingMaxAge != 10*time.Minute {
		t.Errorf("Expected StagingMaxAge 10m, got %v", config.StagingMaxAge)
	}
	if config.HealthPort != 9091 {
		t.Errorf("Expected HealthPort 9091, got %d", config.HealthPort)
	}
	if config.StagingDir != "" {
		t.Errorf("Expected staging disabled by default, got '%s'", config.StagingDir)
	}
}

func TestDefaultConfig_Immutability(t *testing.T) {
	config1 := DefaultConfig()
	config2 := DefaultConfig()

	config1.HotnessSchedule = "0 6 * * *"
	config1.AutocropCleanupLimit = 20

	if config2.HotnessSchedule != "0 * * * *" || config2.AutocropCleanupLimit != 300 {
		t.Error("DefaultConfig returned a shared instance instead of a new one")
	}
}

/* ───────────────────────────── Validate ───────────────────────────── */

func TestWorkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *WorkerConfig)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *WorkerConfig) {}},
		{
			name:    "invalid hotness schedule",
			mutate:  func(c *WorkerConfig) { c.HotnessSchedule = "every hour" },
			wantErr: "hotness schedule",
		},
		{
			name:    "empty staging schedule",
			mutate:  func(c *WorkerConfig) { c.StagingSchedule = "" },
			wantErr: "staging schedule",
		},
		{
			name:    "invalid timezone",
			mutate:  func(c *WorkerConfig) { c.Timezone = "Mars/Olympus" },
			wantErr: "timezone",
		},
		{
			name:    "job timeout too short",
			mutate:  func(c *WorkerConfig) { c.JobTimeout = time.Second },
			wantErr: "job timeout",
		},
		{
			name:    "hotness factor above one",
			mutate:  func(c *WorkerConfig) { c.HotnessFactor = 1.5 },
			wantErr: "hotness factor",
		},
		{
			name:    "cleanup limit zero",
			mutate:  func(c *WorkerConfig) { c.AutocropCleanupLimit = 0 },
			wantErr: "autocrop cleanup limit",
		},
		{
			name:    "staging max age too long",
			mutate:  func(c *WorkerConfig) { c.StagingMaxAge = 48 * time.Hour },
			wantErr: "staging max age",
		},
		{
			name:    "privileged health port",
			mutate:  func(c *WorkerConfig) { c.HealthPort = 80 },
			wantErr: "health port",
		},
		{
			name:    "task concurrency too high",
			mutate:  func(c *WorkerConfig) { c.TaskConcurrency = 100 },
			wantErr: "task concurrency",
		},
		{
			name: "boundaries are valid",
			mutate: func(c *WorkerConfig) {
				c.HotnessFactor = 1.0
				c.AutocropCleanupLimit = 1
				c.HealthPort = 65535
				c.TaskConcurrency = 64
				c.JobTimeout = time.Minute
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected valid config, got error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestWorkerConfig_Validate_MultipleErrors(t *testing.T) {
	c := DefaultConfig()
	c.HotnessSchedule = "bad"
	c.Timezone = "Nowhere/City"
	c.HealthPort = 1

	err := c.Validate()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	for _, want := range []string{"hotness schedule", "timezone", "health port"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %q, got %v", want, err)
		}
	}
}

/* ───────────────────────── LoadConfigFromEnv ───────────────────────── */

func TestLoadConfigFromEnv_AllEnvVarsValid(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOTNESS_SCHEDULE", "30 * * * *")
	t.Setenv("STAGING_SCHEDULE", "*/2 * * * *")
	t.Setenv("WORKER_TIMEZONE", "UTC")
	t.Setenv("JOB_TIMEOUT", "30m")
	t.Setenv("HOTNESS_FACTOR", "0.95")
	t.Setenv("AUTOCROP_CLEANUP_LIMIT", "50")
	t.Setenv("STAGING_DIR", "/srv/staging")
	t.Setenv("STAGING_MAX_AGE", "1h")
	t.Setenv("WORKER_HEALTH_PORT", "8081")
	t.Setenv("TASK_CONCURRENCY", "8")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	metrics := newTestMetrics(t)

	config, err := LoadConfigFromEnv(logger, metrics)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := DefaultConfig()
	want.HotnessSchedule = "30 * * * *"
	want.StagingSchedule = "*/2 * * * *"
	want.Timezone = "UTC"
	want.JobTimeout = 30 * time.Minute
	want.HotnessFactor = 0.95
	want.AutocropCleanupLimit = 50
	want.StagingDir = "/srv/staging"
	want.StagingMaxAge = time.Hour
	want.HealthPort = 8081
	want.TaskConcurrency = 8

	if *config != want {
		t.Errorf("Config mismatch:\n got %+v\nwant %+v", *config, want)
	}
	if buf.Len() > 0 {
		t.Errorf("Expected no warnings, got: %s", buf.String())
	}
	if got := testutil.ToFloat64(metrics.FallbackActive); got != 0 {
		t.Errorf("Expected fallback inactive, got %f", got)
	}
}

func TestLoadConfigFromEnv_MissingEnvVars(t *testing.T) {
	clearEnv(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	config, err := LoadConfigFromEnv(logger, newTestMetrics(t))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if *config != DefaultConfig() {
		t.Errorf("Expected defaults, got %+v", *config)
	}
	if buf.Len() > 0 {
		t.Errorf("Expected no warnings, got: %s", buf.String())
	}
}

func TestLoadConfigFromEnv_InvalidValuesFallBack(t *testing.T) {
	tests := []struct {
		key   string
		value string
		field string
		check func(c *WorkerConfig) bool
	}{
		{"HOTNESS_SCHEDULE", "invalid cron", "hotness_schedule", func(c *WorkerConfig) bool { return c.HotnessSchedule == "0 * * * *" }},
		{"SEARCH_VECTOR_SCHEDULE", "* *", "search_vector_schedule", func(c *WorkerConfig) bool { return c.SearchVectorSchedule == "*/30 * * * *" }},
		{"WORKER_TIMEZONE", "Invalid/Zone", "timezone", func(c *WorkerConfig) bool { return c.Timezone == "Europe/Oslo" }},
		{"JOB_TIMEOUT", "forever", "job_timeout", func(c *WorkerConfig) bool { return c.JobTimeout == 10*time.Minute }},
		{"HOTNESS_FACTOR", "2", "hotness_factor", func(c *WorkerConfig) bool { return c.HotnessFactor == 0.99 }},
		{"AUTOCROP_CLEANUP_LIMIT", "-5", "autocrop_cleanup_limit", func(c *WorkerConfig) bool { return c.AutocropCleanupLimit == 300 }},
		{"STAGING_MAX_AGE", "10s", "staging_max_age", func(c *WorkerConfig) bool { return c.StagingMaxAge == 10*time.Minute }},
		{"WORKER_HEALTH_PORT", "abc", "health_port", func(c *WorkerConfig) bool { return c.HealthPort == 9091 }},
		{"TASK_CONCURRENCY", "0", "task_concurrency", func(c *WorkerConfig) bool { return c.TaskConcurrency == 4 }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			metrics := newTestMetrics(t)

			config, err := LoadConfigFromEnv(logger, metrics)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if !tt.check(config) {
				t.Errorf("Expected default for %s, got %+v", tt.key, *config)
			}
			if !strings.Contains(buf.String(), "Configuration fallback applied") {
				t.Errorf("Expected fallback warning, got: %s", buf.String())
			}
			if got := testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues(tt.field)); got != 1 {
				t.Errorf("Expected 1 fallback for %s, got %f", tt.field, got)
			}
			if got := testutil.ToFloat64(metrics.FallbackActive); got != 1 {
				t.Errorf("Expected fallback active, got %f", got)
			}
		})
	}
}

func TestLoadConfigFromEnv_PartiallyValid(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOTNESS_SCHEDULE", "15 * * * *")
	t.Setenv("WORKER_TIMEZONE", "Bad/Zone")

	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	config, _ := LoadConfigFromEnv(logger, newTestMetrics(t))

	if config.HotnessSchedule != "15 * * * *" {
		t.Errorf("Expected valid schedule to load, got '%s'", config.HotnessSchedule)
	}
	if config.Timezone != "Europe/Oslo" {
		t.Errorf("Expected default timezone, got '%s'", config.Timezone)
	}
}

func TestLoadConfigFromEnv_NilMetrics(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOTNESS_FACTOR", "nope")

	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	config, err := LoadConfigFromEnv(logger, nil)
	if err != nil || config == nil {
		t.Fatalf("Expected config, got %v, %v", config, err)
	}
	if config.HotnessFactor != 0.99 {
		t.Errorf("Expected default factor, got %v", config.HotnessFactor)
	}
}
