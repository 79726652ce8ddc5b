// Package retry re-runs operations that fail with transient errors, waiting
// with exponential backoff and jitter between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Config holds the configuration for retry logic.
type Config struct {
	// Name identifies the operation in log records.
	Name string

	// MaxAttempts is the maximum number of attempts, including the first.
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration

	// Multiplier is the factor applied to the delay after each retry.
	Multiplier float64

	// JitterFraction is the fraction of delay added as random jitter (0.0 to 1.0).
	JitterFraction float64
}

// DefaultConfig returns a general purpose configuration.
func DefaultConfig() Config {
	return Config{
		Name:           "default",
		MaxAttempts:    3,
		InitialDelay:   time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// StorageConfig is used for object storage writes. Uploads are user facing,
// so the total wait stays below a few seconds.
func StorageConfig() Config {
	return Config{
		Name:           "storage",
		MaxAttempts:    4,
		InitialDelay:   200 * time.Millisecond,
		MaxDelay:       2 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.2,
	}
}

// QueueConfig is used when enqueueing background tasks in Redis.
func QueueConfig() Config {
	return Config{
		Name:           "queue",
		MaxAttempts:    3,
		InitialDelay:   100 * time.Millisecond,
		MaxDelay:       time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// DBConfig is used for database probes at startup.
func DBConfig() Config {
	return Config{
		Name:           "database",
		MaxAttempts:    3,
		InitialDelay:   100 * time.Millisecond,
		MaxDelay:       time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// WithBackoff runs fn until it succeeds, returns a non-retryable error, the
// attempts are used up or ctx is done.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	_, err := Do(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Do is WithBackoff for operations that return a value.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	attempts := max(1, cfg.MaxAttempts)
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := fn()
		if err == nil {
			if attempt > 1 {
				slog.Info("operation succeeded after retry",
					slog.String("operation", cfg.Name),
					slog.Int("attempt", attempt))
			}
			return v, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}
		if attempt == attempts {
			break
		}

		slog.Warn("operation failed, retrying",
			slog.String("operation", cfg.Name),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", delay),
			slog.Any("error", err))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, fmt.Errorf("retry aborted: %w", ctx.Err())
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
		delay = addJitter(delay, cfg.JitterFraction)
	}

	return zero, fmt.Errorf("max retry attempts (%d) exceeded: %w", attempts, lastErr)
}

// temporary is implemented by client errors that know whether a retry can
// help, e.g. redis and asynq network errors.
type temporary interface {
	Temporary() bool
}

// IsRetryable reports whether err is a transient failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 ||
			httpErr.StatusCode == http.StatusTooManyRequests ||
			httpErr.StatusCode == http.StatusRequestTimeout
	}

	var tmp temporary
	if errors.As(err, &tmp) {
		return tmp.Temporary()
	}
	return false
}

// HTTPError is a failed response from an HTTP based backend such as the
// S3 API of the object store.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// addJitter adds up to jitterFraction of duration at random.
func addJitter(duration time.Duration, jitterFraction float64) time.Duration {
	if jitterFraction <= 0 {
		return duration
	}
	jitterFraction = min(jitterFraction, 1.0)
	// #nosec G404 -- backoff jitter does not need cryptographic randomness.
	jitter := time.Duration(rand.Float64() * float64(duration) * jitterFraction)
	return duration + jitter
}
