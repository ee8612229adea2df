// Package realip provides middleware for extracting the real client IP
// from X-Forwarded-For headers when behind a trusted proxy.
package realip

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const clientIPKey contextKey = "client_ip"

// Config holds the configuration for the real IP middleware
type Config struct {
	// TrustProxy enables X-Forwarded-For header parsing
	TrustProxy bool
	// TrustedProxies is a list of CIDR ranges for trusted proxies
	TrustedProxies []string
}

// Middleware returns an HTTP middleware that resolves the real client IP
// and stores it in the request context.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	var trustedNets []*net.IPNet
	if cfg.TrustProxy {
		for _, cidr := range cfg.TrustedProxies {
			if network := parseCIDROrIP(cidr); network != nil {
				trustedNets = append(trustedNets, network)
			}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := resolveClientIP(r, cfg.TrustProxy, trustedNets)
			ctx := context.WithValue(r.Context(), clientIPKey, clientIP)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseCIDROrIP accepts either a CIDR range or a bare IP address.
func parseCIDROrIP(s string) *net.IPNet {
	if _, network, err := net.ParseCIDR(s); err == nil {
		return network
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil
	}
	if ip.To4() != nil {
		_, network, _ := net.ParseCIDR(s + "/32")
		return network
	}
	_, network, _ := net.ParseCIDR(s + "/128")
	return network
}

func resolveClientIP(r *http.Request, trustProxy bool, trustedNets []*net.IPNet) string {
	remoteIP := stripPort(r.RemoteAddr)
	if !trustProxy || !isTrusted(remoteIP, trustedNets) {
		return remoteIP
	}

	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
		return remoteIP
	}

	// Walk the chain right to left; the first hop that is not one of
	// our proxies is the client.
	ips := strings.Split(xff, ",")
	for i := len(ips) - 1; i >= 0; i-- {
		ip := strings.TrimSpace(ips[i])
		if ip == "" {
			continue
		}
		if !isTrusted(ip, trustedNets) {
			return ip
		}
	}
	return strings.TrimSpace(ips[0])
}

func stripPort(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func isTrusted(ipStr string, trustedNets []*net.IPNet) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, network := range trustedNets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// GetClientIP retrieves the real client IP from the request context.
// Falls back to RemoteAddr if not set.
func GetClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey).(string); ok && ip != "" {
		return ip
	}
	return stripPort(r.RemoteAddr)
}
