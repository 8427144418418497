// Package middleware holds the HTTP middleware chain, including the gate
// that admits or rejects authenticated requests.
package middleware

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"

	"login-backend/internal/platform/reqctx"
	"login-backend/internal/security"
	"login-backend/internal/telemetry"
)

// BlacklistChecker reports whether an access token has been revoked.
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// publicPaths are reachable without credentials. Everything else goes
// through the gate.
var publicPaths = map[string]bool{
	"/api/auth/register": true,
	"/api/auth/login":    true,
	"/api/auth/refresh":  true,
	"/api/health":        true,
}

// Gate rejects requests whose access token is missing, blacklisted, or
// fails verification. The blacklist is consulted first: a revoked token
// must be refused even while its signature and expiry still check out.
type Gate struct {
	codec     *security.TokenCodec
	blacklist BlacklistChecker
	metrics   *telemetry.Metrics
}

func NewGate(codec *security.TokenCodec, blacklist BlacklistChecker, metrics *telemetry.Metrics) *Gate {
	return &Gate{codec: codec, blacklist: blacklist, metrics: metrics}
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			unauthorized(w, "Missing or invalid Authorization header")
			return
		}

		blacklisted, err := g.blacklist.IsBlacklisted(r.Context(), token)
		if err != nil {
			log.Printf("gate: blacklist check failed: %v", err)
			unavailable(w)
			return
		}
		if blacklisted {
			g.metrics.RecordBlacklistDenial(r.Context())
			unauthorized(w, "Token has been revoked")
			return
		}

		subject, role, err := g.codec.Verify(token)
		if err != nil {
			switch {
			case errors.Is(err, security.ErrTokenExpired):
				unauthorized(w, "Token expired")
			case errors.Is(err, security.ErrBadSignature):
				unauthorized(w, "Invalid token signature")
			default:
				unauthorized(w, "Invalid token")
			}
			return
		}

		ctx := reqctx.WithIdentity(r.Context(), subject, security.FormatRole(role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RealIP stores the originating client address on the request context.
// Behind a proxy the first usable X-Forwarded-For entry wins; otherwise
// the socket peer.
func RealIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := reqctx.WithClientIP(r.Context(), clientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// forwardedHeaders are checked in order; proxies and legacy gateways
// disagree on which one they set.
var forwardedHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"Proxy-Client-IP",
	"WL-Proxy-Client-IP",
	"HTTP_X_FORWARDED_FOR",
	"HTTP_X_FORWARDED",
	"HTTP_X_CLUSTER_CLIENT_IP",
	"HTTP_CLIENT_IP",
	"HTTP_FORWARDED_FOR",
	"HTTP_FORWARDED",
	"HTTP_VIA",
	"REMOTE_ADDR",
}

func clientIP(r *http.Request) string {
	for _, header := range forwardedHeaders {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		// A header can carry a comma-separated proxy chain; the first
		// usable entry is the original client.
		for _, part := range strings.Split(value, ",") {
			ip := strings.TrimSpace(part)
			if ip != "" && !strings.EqualFold(ip, "unknown") {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}

func unavailable(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(`{"error":"Service temporarily unavailable"}`))
}
