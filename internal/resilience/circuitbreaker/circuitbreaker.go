// Package circuitbreaker wraps sony/gobreaker for calls to the object store,
// Redis and the database, so that a failing dependency is given time to
// recover instead of being hammered by every request.
package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned instead of calling the protected function while the
// breaker is open or the half-open probe quota is used up.
var ErrOpen = errors.New("circuit breaker open")

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name is the breaker name used in logs.
	Name string

	// MaxRequests is the number of probe requests allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period after which counts are cleared while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration

	// FailureThreshold is the failure ratio (0..1) that trips the breaker.
	FailureThreshold float64

	// MinRequests is the number of requests needed before the ratio counts.
	MinRequests uint32
}

// DefaultConfig returns a general purpose configuration.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// StorageConfig protects the object store used for originals and thumbnails.
func StorageConfig() Config {
	return Config{
		Name:             "storage",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.5,
		MinRequests:      10,
	}
}

// CacheConfig protects Redis. Cache misses are cheap, so the breaker trips
// early and retries soon.
func CacheConfig() Config {
	return Config{
		Name:             "cache",
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 0.5,
		MinRequests:      5,
	}
}

// DBConfig protects the database readiness probe.
func DBConfig() Config {
	return Config{
		Name:             "database",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 1.0,
		MinRequests:      5,
	}
}

// CircuitBreaker wraps gobreaker.CircuitBreaker.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a breaker that trips when at least MinRequests were made and
// the failure ratio reaches FailureThreshold.
func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}
	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Execute runs fn through the breaker. While open it fails fast with an
// error matching ErrOpen.
func (cb *CircuitBreaker) Execute(fn func() (any, error)) (any, error) {
	v, err := cb.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.Join(ErrOpen, err)
	}
	return v, err
}

// Run is Execute with a typed result.
func Run[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	v, err := cb.Execute(func() (any, error) { return fn() })
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// State returns the current state.
func (cb *CircuitBreaker) State() gobreaker.State { return cb.breaker.State() }

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string { return cb.name }

// IsOpen reports whether calls are currently rejected.
func (cb *CircuitBreaker) IsOpen() bool { return cb.breaker.State() == gobreaker.StateOpen }
