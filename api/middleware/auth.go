package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/inkdrop-studio/inkdrop-backend/api/responses"
	pkgAuth "github.com/inkdrop-studio/inkdrop-backend/pkg/auth"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/config"
	pkgerrors "github.com/inkdrop-studio/inkdrop-backend/pkg/errors"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/logger"
)

const guestCredentialHeader = "X-Guest-Credential"

// Auth validates a bearer token and seeds the request context with the
// account id. Requests without a token are rejected.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			ctx, err := seedAccount(r, cfg, logg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth seeds the account context when a valid bearer token is
// present but lets anonymous requests through. Drafts are reachable by
// guests carrying only their credential, so most routes use this.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx, err := seedAccount(r, cfg, logg, token)
			if err != nil {
				// a presented-but-invalid token is an error, not anonymity
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GuestCredential copies the credential header into the request context so
// controllers can build the caller's identity without re-reading headers.
func GuestCredential() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := strings.TrimSpace(r.Header.Get(guestCredentialHeader))
			if credential != "" {
				r = r.WithContext(WithGuestCredential(r.Context(), credential))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}

func seedAccount(r *http.Request, cfg config.JWTConfig, logg *logger.Logger, token string) (ctx context.Context, err error) {
	claims, parseErr := pkgAuth.ParseAccessToken(cfg, token)
	if parseErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, parseErr, "invalid token")
	}

	ctx = WithAccountID(r.Context(), claims.AccountID.String())
	if logg != nil {
		ctx = logg.WithAccountID(ctx, claims.AccountID.String())
	}
	return ctx, nil
}
