package storage

import (
	"context"
	"errors"

	"universitas/internal/resilience/circuitbreaker"
	"universitas/internal/resilience/retry"
)

// BreakerStorage guards a backend with a circuit breaker. Writes are
// retried with backoff inside the breaker. Missing keys do not count as
// failures.
type BreakerStorage struct {
	inner    Storage
	cb       *circuitbreaker.CircuitBreaker
	retryCfg retry.Config
}

// NewBreakerStorage wraps inner with the storage breaker preset.
func NewBreakerStorage(inner Storage) *BreakerStorage {
	return NewBreakerStorageWithConfig(inner, circuitbreaker.StorageConfig(), retry.StorageConfig())
}

// NewBreakerStorageWithConfig wraps inner with custom settings.
func NewBreakerStorageWithConfig(inner Storage, cbCfg circuitbreaker.Config, retryCfg retry.Config) *BreakerStorage {
	return &BreakerStorage{inner: inner, cb: circuitbreaker.New(cbCfg), retryCfg: retryCfg}
}

func (s *BreakerStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.cb.Execute(func() (any, error) {
		return nil, retry.WithBackoff(ctx, s.retryCfg, func() error {
			return s.inner.Put(ctx, key, data, contentType)
		})
	})
	return err
}

func (s *BreakerStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var missing error
	data, err := circuitbreaker.Run(s.cb, func() ([]byte, error) {
		b, err := s.inner.Get(ctx, key)
		if errors.Is(err, ErrNotExist) {
			missing = err
			return nil, nil
		}
		return b, err
	})
	if missing != nil {
		return nil, missing
	}
	return data, err
}

func (s *BreakerStorage) Delete(ctx context.Context, key string) error {
	_, err := s.cb.Execute(func() (any, error) {
		return nil, s.inner.Delete(ctx, key)
	})
	return err
}

func (s *BreakerStorage) Exists(ctx context.Context, key string) (bool, error) {
	return circuitbreaker.Run(s.cb, func() (bool, error) {
		return s.inner.Exists(ctx, key)
	})
}

func (s *BreakerStorage) List(ctx context.Context, prefix string) ([]string, error) {
	return circuitbreaker.Run(s.cb, func() ([]string, error) {
		return s.inner.List(ctx, prefix)
	})
}

func (s *BreakerStorage) URL(key string) string { return s.inner.URL(key) }

// IsOpen reports whether the breaker currently rejects calls.
func (s *BreakerStorage) IsOpen() bool { return s.cb.IsOpen() }
