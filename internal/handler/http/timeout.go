package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Timeout cancels the request context after d and answers 504 if the
// handler has not started its response by then. Requests matching a skip
// predicate run without a deadline; image uploads decode and resize inside
// the request.
func Timeout(d time.Duration, skip ...func(*http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, s := range skip {
				if s(r) {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			tw := &deadlineWriter{w: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				tw.expire()
			}
		})
	}
}

// deadlineWriter forwards writes until the deadline passes. Whichever of
// the handler and expire takes the lock first owns the response.
type deadlineWriter struct {
	w       http.ResponseWriter
	mu      sync.Mutex
	started bool
	expired bool
}

func (t *deadlineWriter) Header() http.Header { return t.w.Header() }

func (t *deadlineWriter) WriteHeader(code int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.expired || t.started {
		return
	}
	t.started = true
	t.w.WriteHeader(code)
}

func (t *deadlineWriter) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.expired {
		return 0, http.ErrHandlerTimeout
	}
	if !t.started {
		t.started = true
		t.w.WriteHeader(http.StatusOK)
	}
	return t.w.Write(b)
}

func (t *deadlineWriter) expire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expired = true
	if t.started {
		return
	}
	t.w.Header().Set("Content-Type", "application/json")
	t.w.WriteHeader(http.StatusGatewayTimeout)
	_, _ = t.w.Write([]byte(`{"error":"request timeout"}`))
}

// IsUpload matches multipart image uploads.
func IsUpload(r *http.Request) bool {
	return r.Method == http.MethodPost && strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
