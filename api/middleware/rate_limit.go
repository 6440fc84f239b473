package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/inkdrop-studio/inkdrop-backend/api/responses"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/config"
	pkgerrors "github.com/inkdrop-studio/inkdrop-backend/pkg/errors"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/logger"
)

type RateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// GenerateRateLimit throttles design generation per caller. The window is
// keyed by account when signed in, otherwise by the hashed guest credential,
// falling back to the client IP for callers presenting neither.
func GenerateRateLimit(cfg config.RateLimitConfig, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if cfg.GenerateLimit <= 0 || cfg.GenerateWindow <= 0 || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scope := "generate:" + callerKey(r)

			allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(cfg.GenerateLimit), cfg.GenerateWindow)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"scope":          scope,
						"attempts":       count,
						"limit":          cfg.GenerateLimit,
						"window_seconds": int(cfg.GenerateWindow.Seconds()),
					})
					logg.Warn(logCtx, "generate.rate_limit.blocked")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "generation rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if accountID := AccountIDFromContext(r.Context()); accountID != "" {
		return "acct:" + accountID
	}
	if credential := GuestCredentialFromContext(r.Context()); credential != "" {
		sum := sha256.Sum256([]byte(credential))
		return "cred:" + hex.EncodeToString(sum[:])
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
