package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"universitas/internal/resilience/circuitbreaker"
)

// DefaultTimeout is how long memoized values live.
const DefaultTimeout = 24 * time.Hour

// Memoizer stores JSON encoded results under a key derived from a prefix
// and the call arguments. Errors are logged and treated as cache misses.
type Memoizer struct {
	client  Client
	cb      *circuitbreaker.CircuitBreaker
	timeout time.Duration
}

func NewMemoizer(client Client, timeout time.Duration) *Memoizer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Memoizer{client: client, cb: circuitbreaker.New(circuitbreaker.CacheConfig()), timeout: timeout}
}

// Key is "memo:<prefix>:" followed by the md5 of prefix and args.
func Key(prefix string, args ...any) string {
	sum := md5.Sum([]byte(prefix + fmt.Sprint(args...)))
	return "memo:" + prefix + ":" + hex.EncodeToString(sum[:])
}

// Get decodes the cached value into dest and reports whether it was found.
func (m *Memoizer) Get(ctx context.Context, prefix string, dest any, args ...any) bool {
	raw, err := circuitbreaker.Run(m.cb, func() (string, error) {
		v, err := m.client.Get(ctx, Key(prefix, args...)).Result()
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return v, err
	})
	if err != nil {
		slog.Warn("memoize get failed", slog.String("prefix", prefix), slog.Any("error", err))
		return false
	}
	if raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		slog.Warn("memoize decode failed", slog.String("prefix", prefix), slog.Any("error", err))
		return false
	}
	return true
}

// Set stores value.
func (m *Memoizer) Set(ctx context.Context, prefix string, value any, args ...any) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("memoize encode failed", slog.String("prefix", prefix), slog.Any("error", err))
		return
	}
	_, err = m.cb.Execute(func() (any, error) {
		return nil, m.client.Set(ctx, Key(prefix, args...), data, m.timeout).Err()
	})
	if err != nil {
		slog.Warn("memoize set failed", slog.String("prefix", prefix), slog.Any("error", err))
	}
}

// Invalidate removes the value cached for exactly these args.
func (m *Memoizer) Invalidate(ctx context.Context, prefix string, args ...any) error {
	if err := m.client.Del(ctx, Key(prefix, args...)).Err(); err != nil {
		return fmt.Errorf("invalidate %s: %w", prefix, err)
	}
	return nil
}

// InvalidateAll removes every value cached under prefix.
func (m *Memoizer) InvalidateAll(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := m.client.Scan(ctx, cursor, "memo:"+prefix+":*", 100).Result()
		if err != nil {
			return fmt.Errorf("invalidate %s: %w", prefix, err)
		}
		if len(keys) > 0 {
			if err := m.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("invalidate %s: %w", prefix, err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Store is the read and write half of a Memoizer.
type Store interface {
	Get(ctx context.Context, prefix string, dest any, args ...any) bool
	Set(ctx context.Context, prefix string, value any, args ...any)
}

// Memoize returns the cached result of fn, calling and caching it on a
// miss. A nil store always calls fn.
func Memoize[T any](ctx context.Context, m Store, prefix string, args []any, fn func() (T, error)) (T, error) {
	var v T
	if m != nil && m.Get(ctx, prefix, &v, args...) {
		return v, nil
	}
	v, err := fn()
	if err != nil {
		return v, err
	}
	if m != nil {
		m.Set(ctx, prefix, v, args...)
	}
	return v, nil
}
