package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── IP extraction ───────── */

func TestRemoteAddrExtractor(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
		wantErr    bool
	}{
		{remoteAddr: "192.168.1.1:54321", want: "192.168.1.1"},
		{remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{remoteAddr: "127.0.0.1", want: "127.0.0.1"},
		{remoteAddr: "[::1]", want: "::1"},
		{remoteAddr: "not-an-ip", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.remoteAddr, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			ip, err := RemoteAddrExtractor{}.ExtractIP(req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ip)
		})
	}
}

func TestLoadTrustedProxyConfig(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		t.Setenv("TRUST_PROXY", "")
		cfg, err := LoadTrustedProxyConfig()
		require.NoError(t, err)
		assert.False(t, cfg.Enabled)
		assert.IsType(t, RemoteAddrExtractor{}, NewIPExtractor(cfg))
	})
	t.Run("addresses and ranges", func(t *testing.T) {
		t.Setenv("TRUST_PROXY", "true")
		t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 172.16.0.0/12,2001:db8::1")
		cfg, err := LoadTrustedProxyConfig()
		require.NoError(t, err)
		assert.Equal(t, []netip.Prefix{
			netip.MustParsePrefix("10.0.0.1/32"),
			netip.MustParsePrefix("172.16.0.0/12"),
			netip.MustParsePrefix("2001:db8::1/128"),
		}, cfg.AllowedCIDRs)
	})
	t.Run("enabled without proxies", func(t *testing.T) {
		t.Setenv("TRUST_PROXY", "true")
		t.Setenv("TRUSTED_PROXIES", " , ")
		_, err := LoadTrustedProxyConfig()
		assert.Error(t, err)
	})
	t.Run("garbage", func(t *testing.T) {
		t.Setenv("TRUST_PROXY", "true")
		t.Setenv("TRUSTED_PROXIES", "10.0.0.300")
		_, err := LoadTrustedProxyConfig()
		assert.Error(t, err)
	})
}

func TestTrustedProxyExtractor(t *testing.T) {
	ex := NewTrustedProxyExtractor(TrustedProxyConfig{
		Enabled:      true,
		AllowedCIDRs: []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")},
	})
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		want       string
	}{
		{name: "trusted xff", remoteAddr: "10.1.2.3:80", xff: "203.0.113.9, 10.1.2.3", want: "203.0.113.9"},
		{name: "trusted real ip", remoteAddr: "10.1.2.3:80", realIP: "203.0.113.7", want: "203.0.113.7"},
		{name: "trusted without headers", remoteAddr: "10.1.2.3:80", want: "10.1.2.3"},
		{name: "trusted bad xff", remoteAddr: "10.1.2.3:80", xff: "garbage", realIP: "203.0.113.7", want: "203.0.113.7"},
		{name: "untrusted spoof", remoteAddr: "198.51.100.4:80", xff: "1.1.1.1", want: "198.51.100.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			ip, err := ex.ExtractIP(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ip)
		})
	}
}

/* ───────── rate limiting ───────── */

func TestRateLimiter_Middleware(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute, nil)
	rl.now = func() time.Time { return now }

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/stories/1/visit", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusNoContent, do("192.0.2.1:1000").Code)
	assert.Equal(t, http.StatusNoContent, do("192.0.2.1:1001").Code)
	w := do("192.0.2.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, do("192.0.2.2:1000").Code, "other clients have their own bucket")

	now = now.Add(30 * time.Second)
	assert.Equal(t, http.StatusNoContent, do("192.0.2.1:1003").Code, "one token refills every 30s")
	assert.Equal(t, http.StatusTooManyRequests, do("192.0.2.1:1004").Code)
}

func TestRateLimiter_CleanupExpired(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5, time.Minute, nil)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	now = now.Add(5 * time.Minute)
	assert.True(t, rl.Allow("b"))
	require.Equal(t, 2, rl.Len())

	assert.Equal(t, 1, rl.CleanupExpired(time.Minute))
	assert.Equal(t, 1, rl.Len())
}

/* ───────── CORS ───────── */

func TestCORS(t *testing.T) {
	cfg := CORSConfig{
		AllowedOrigins: []string{"https://universitas.no"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization"},
		MaxAge:         600,
	}
	called := false
	h := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("preflight", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodOptions, "/stories", nil)
		req.Header.Set("Origin", "https://universitas.no")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.False(t, called)
		assert.Equal(t, "https://universitas.no", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
	})
	t.Run("disallowed origin", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/stories", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.True(t, called)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
	t.Run("same origin", func(t *testing.T) {
		called = false
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stories", nil))
		assert.True(t, called)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestLoadCORSConfig(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://universitas.no/ ,http://localhost:3000,")
	cfg := LoadCORSConfig()
	assert.Equal(t, []string{"https://universitas.no", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.True(t, cfg.allowed("http://localhost:3000"))
	assert.False(t, cfg.allowed("http://localhost:3001"))
}
