package http

import (
	"context"
	"log/slog"
	"time"

	"universitas/internal/handler/http/middleware"
	"universitas/internal/pkg/config"
)

// DefaultCleanupInterval is how often idle rate limit buckets are dropped.
const DefaultCleanupInterval = 5 * time.Minute

// CleanupConfig controls StartRateLimitCleanup.
type CleanupConfig struct {
	Interval time.Duration
	// Idle is how long a client may be silent before its bucket is dropped.
	Idle time.Duration
}

// LoadCleanupConfigFromEnv reads RATELIMIT_CLEANUP_INTERVAL and
// RATELIMIT_IDLE, falling back to the defaults on invalid values.
func LoadCleanupConfigFromEnv() CleanupConfig {
	return CleanupConfig{
		Interval: config.LoadEnvDuration("RATELIMIT_CLEANUP_INTERVAL", DefaultCleanupInterval, config.ValidatePositiveDuration).Value,
		Idle:     config.LoadEnvDuration("RATELIMIT_IDLE", 10*time.Minute, config.ValidatePositiveDuration).Value,
	}
}

// StartRateLimitCleanup drops idle buckets from limiter every interval until
// ctx is cancelled. It blocks; run it in a goroutine.
func StartRateLimitCleanup(ctx context.Context, limiter *middleware.RateLimiter, cfg CleanupConfig, name string) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	slog.Info("rate limit cleanup started",
		slog.String("limiter", name),
		slog.Duration("interval", cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			slog.Info("rate limit cleanup stopped", slog.String("limiter", name))
			return
		case <-ticker.C:
			removed := limiter.CleanupExpired(cfg.Idle)
			slog.Debug("rate limit cleanup completed",
				slog.String("limiter", name),
				slog.Int("removed", removed),
				slog.Int("active", limiter.Len()))
		}
	}
}
