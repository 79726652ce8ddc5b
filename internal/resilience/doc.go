// Package resilience groups the fault tolerance helpers used around the
// object store, Redis and PostgreSQL.
//
//   - circuitbreaker: fail fast while a dependency is down (sony/gobreaker)
//   - retry: exponential backoff with jitter for transient errors
//
// Usage:
//
//	cb := circuitbreaker.New(circuitbreaker.StorageConfig())
//	err := retry.WithBackoff(ctx, retry.StorageConfig(), func() error {
//	    _, err := cb.Execute(func() (any, error) { return nil, put(ctx) })
//	    return err
//	})
package resilience
