package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"blog-api/pkg/config"
)

// IPExtractor resolves the client IP used as rate-limit identity and voter
// hash input.
type IPExtractor interface {
	ExtractIP(r *http.Request) (string, error)
}

// RemoteAddrExtractor uses the TCP peer address and ignores headers.
type RemoteAddrExtractor struct{}

// ExtractIP strips the port from r.RemoteAddr.
func (e *RemoteAddrExtractor) ExtractIP(r *http.Request) (string, error) {
	return extractIPFromAddr(r.RemoteAddr)
}

// TrustedProxyConfig lists the proxies whose client IP headers are believed.
type TrustedProxyConfig struct {
	Enabled      bool
	AllowedCIDRs []netip.Prefix
}

// IsTrusted reports whether remoteAddr falls in one of the trusted ranges.
func (c *TrustedProxyConfig) IsTrusted(remoteAddr string) bool {
	ip, err := extractIPFromAddr(remoteAddr)
	if err != nil {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range c.AllowedCIDRs {
		if prefix.Contains(addr.Unmap()) {
			return true
		}
	}
	return false
}

// LoadTrustedProxyConfig reads RATE_LIMIT_TRUST_PROXY and
// RATE_LIMIT_TRUSTED_PROXIES (comma separated IPs or CIDRs). Enabling trust
// without a valid proxy list is a startup error.
func LoadTrustedProxyConfig() (*TrustedProxyConfig, error) {
	cfg := &TrustedProxyConfig{
		Enabled: config.GetEnvBool("RATE_LIMIT_TRUST_PROXY", false),
	}
	if !cfg.Enabled {
		return cfg, nil
	}

	entries := config.GetEnvStringList("RATE_LIMIT_TRUSTED_PROXIES", nil)
	if len(entries) == 0 {
		return nil, fmt.Errorf("RATE_LIMIT_TRUST_PROXY is enabled but RATE_LIMIT_TRUSTED_PROXIES is empty")
	}
	for _, entry := range entries {
		prefix, err := parsePrefix(entry)
		if err != nil {
			return nil, err
		}
		cfg.AllowedCIDRs = append(cfg.AllowedCIDRs, prefix)
	}
	return cfg, nil
}

func parsePrefix(s string) (netip.Prefix, error) {
	if prefix, err := netip.ParsePrefix(s); err == nil {
		return prefix.Masked(), nil
	}
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid IP or CIDR %q in RATE_LIMIT_TRUSTED_PROXIES", s)
	}
	return netip.PrefixFrom(ip, ip.BitLen()), nil
}

// clientIPHeaders are consulted in order for requests from trusted proxies.
// X-Forwarded-For contributes its first hop only.
var clientIPHeaders = []string{
	"CF-Connecting-IP",
	"X-Real-IP",
	"X-Forwarded-For",
	"X-Client-IP",
	"X-Cluster-Client-IP",
	"True-Client-IP",
}

// TrustedProxyExtractor believes client IP headers only from trusted peers.
// Everyone else is identified by RemoteAddr, so spoofed headers cannot rotate
// a client's rate-limit identity.
type TrustedProxyExtractor struct {
	config TrustedProxyConfig
}

func NewTrustedProxyExtractor(config TrustedProxyConfig) *TrustedProxyExtractor {
	return &TrustedProxyExtractor{config: config}
}

// ExtractIP returns the first valid IP among clientIPHeaders when the peer is
// trusted, and the peer address otherwise.
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

	for _, header := range clientIPHeaders {
		if ip := parseFirstIP(r.Header.Get(header)); ip != "" {
			return ip, nil
		}
	}
	return extractIPFromAddr(r.RemoteAddr)
}

// NewIPExtractor picks the extractor matching cfg.
func NewIPExtractor(cfg *TrustedProxyConfig) IPExtractor {
	if cfg == nil || !cfg.Enabled {
		return &RemoteAddrExtractor{}
	}
	return NewTrustedProxyExtractor(*cfg)
}

// extractIPFromAddr accepts "ip:port", "[v6]:port" or a bare IP.
func extractIPFromAddr(addr string) (string, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		if ip := net.ParseIP(strings.Trim(addr, "[]")); ip != nil {
			return ip.String(), nil
		}
		return "", fmt.Errorf("invalid address format: %q", addr)
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}
	return "", fmt.Errorf("invalid address format: %q", addr)
}

// parseFirstIP returns the first comma separated entry when it is a valid IP.
func parseFirstIP(s string) string {
	first, _, _ := strings.Cut(s, ",")
	if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
		return ip.String()
	}
	return ""
}
