package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"universitas/internal/handler/http/respond"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a token bucket per client IP.
type RateLimiter struct {
	rate        rate.Limit
	burst       int
	ipExtractor IPExtractor
	now         func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter allows limit requests per window for every client IP,
// with bursts up to limit.
func NewRateLimiter(limit int, window time.Duration, ipExtractor IPExtractor) *RateLimiter {
	if ipExtractor == nil {
		ipExtractor = RemoteAddrExtractor{}
	}
	return &RateLimiter{
		rate:        rate.Limit(float64(limit) / window.Seconds()),
		burst:       limit,
		ipExtractor: ipExtractor,
		now:         time.Now,
		visitors:    make(map[string]*visitor),
	}
}

// Middleware answers 429 with a Retry-After header once the client's bucket
// is empty.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, err := rl.ipExtractor.ExtractIP(r)
		if err != nil {
			slog.Warn("rate limiter: IP extraction failed",
				slog.String("error", err.Error()),
				slog.String("remote_addr", r.RemoteAddr))
			ip = r.RemoteAddr
		}
		if delay := rl.take(ip); delay > 0 {
			slog.Warn("rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path))
			w.Header().Set("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
			respond.JSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Allow reports whether a request from ip may proceed now.
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.take(ip) == 0
}

// take consumes a token for ip. When none is available it returns how long
// the client has to wait and leaves the bucket untouched.
func (rl *RateLimiter) take(ip string) time.Duration {
	now := rl.now()
	rl.mu.Lock()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	rl.mu.Unlock()
	res := v.limiter.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	if delay > 0 {
		res.CancelAt(now)
	}
	return delay
}

// CleanupExpired forgets clients idle for longer than idle and returns how
// many were removed.
func (rl *RateLimiter) CleanupExpired(idle time.Duration) int {
	cutoff := rl.now().Add(-idle)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}
