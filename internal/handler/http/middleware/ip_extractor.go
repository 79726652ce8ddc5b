// Package middleware holds the HTTP middleware that needs configuration of
// its own: client IP extraction, per-IP rate limiting and CORS.
package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"os"
	"strings"
)

// IPExtractor finds the client IP of a request.
type IPExtractor interface {
	ExtractIP(r *http.Request) (string, error)
}

// RemoteAddrExtractor uses the TCP peer address. It cannot be spoofed and
// is the default.
type RemoteAddrExtractor struct{}

// ExtractIP strips the port from r.RemoteAddr.
func (RemoteAddrExtractor) ExtractIP(r *http.Request) (string, error) {
	return extractIPFromAddr(r.RemoteAddr)
}

// TrustedProxyConfig lists the reverse proxies whose forwarding headers are
// believed.
type TrustedProxyConfig struct {
	Enabled      bool
	AllowedCIDRs []netip.Prefix
}

// IsTrusted reports whether remoteAddr is inside one of the allowed ranges.
func (c TrustedProxyConfig) IsTrusted(remoteAddr string) bool {
	ip, err := extractIPFromAddr(remoteAddr)
	if err != nil {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range c.AllowedCIDRs {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// LoadTrustedProxyConfig reads TRUST_PROXY and TRUSTED_PROXIES. The latter
// is a comma separated list of addresses or CIDR ranges; a bare address
// becomes a /32 or /128. Enabling trust without any proxy is an error.
func LoadTrustedProxyConfig() (TrustedProxyConfig, error) {
	cfg := TrustedProxyConfig{Enabled: os.Getenv("TRUST_PROXY") == "true"}
	if !cfg.Enabled {
		return cfg, nil
	}
	for _, s := range strings.Split(os.Getenv("TRUSTED_PROXIES"), ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(s)
		if err != nil {
			ip, ipErr := netip.ParseAddr(s)
			if ipErr != nil {
				return TrustedProxyConfig{}, fmt.Errorf("invalid IP or CIDR %q in TRUSTED_PROXIES", s)
			}
			prefix = netip.PrefixFrom(ip, ip.BitLen())
		}
		cfg.AllowedCIDRs = append(cfg.AllowedCIDRs, prefix)
	}
	if len(cfg.AllowedCIDRs) == 0 {
		return TrustedProxyConfig{}, fmt.Errorf("TRUST_PROXY is enabled but TRUSTED_PROXIES is empty")
	}
	return cfg, nil
}

// TrustedProxyExtractor reads X-Forwarded-For, then X-Real-IP, but only
// when the peer is a trusted proxy. Everything else falls back to
// RemoteAddr.
type TrustedProxyExtractor struct {
	config TrustedProxyConfig
}

// NewTrustedProxyExtractor returns an extractor for config.
func NewTrustedProxyExtractor(config TrustedProxyConfig) *TrustedProxyExtractor {
	return &TrustedProxyExtractor{config: config}
}

// NewIPExtractor picks the extractor matching config.
func NewIPExtractor(config TrustedProxyConfig) IPExtractor {
	if config.Enabled {
		return NewTrustedProxyExtractor(config)
	}
	return RemoteAddrExtractor{}
}

// ExtractIP implements IPExtractor.
func (e *TrustedProxyExtractor) ExtractIP(r *http.Request) (string, error) {
	if !e.config.Enabled {
		return extractIPFromAddr(r.RemoteAddr)
	}
	if !e.config.IsTrusted(r.RemoteAddr) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			slog.Warn("untrusted peer sent X-Forwarded-For",
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("x_forwarded_for", xff))
		}
		return extractIPFromAddr(r.RemoteAddr)
	}
	if ip := parseFirstIP(r.Header.Get("X-Forwarded-For")); ip != "" {
		return ip, nil
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String(), nil
	}
	return extractIPFromAddr(r.RemoteAddr)
}

// extractIPFromAddr accepts "host:port", "[v6]:port" or a bare address.
func extractIPFromAddr(addr string) (string, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		if ip := net.ParseIP(strings.Trim(addr, "[]")); ip != nil {
			return ip.String(), nil
		}
		return "", fmt.Errorf("invalid address format: %s", addr)
	}
	return host, nil
}

// parseFirstIP returns the client entry of an X-Forwarded-For list.
func parseFirstIP(s string) string {
	first, _, _ := strings.Cut(s, ",")
	if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
		return ip.String()
	}
	return ""
}
