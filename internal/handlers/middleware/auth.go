package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/pkg/logger"
)

// SessionCookie is the name of the cookie carrying the session token
const SessionCookie = "session"

type identityKey struct{}

// WithIdentity stores the caller on the context
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	ctx = context.WithValue(ctx, identityKey{}, identity)
	ctx = logger.WithUserID(ctx, identity.UserID)
	return logger.WithSessionID(ctx, identity.SessionID)
}

// IdentityFrom returns the caller stored by Authenticate, or nil
func IdentityFrom(ctx context.Context) *domain.Identity {
	identity, _ := ctx.Value(identityKey{}).(*domain.Identity)
	return identity
}

// TokenFromRequest reads the session cookie, falling back to a bearer token
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// Authenticate rejects requests without a valid session
func Authenticate(auth ports.AuthService, l *slog.Logger) func(http.Handler) http.Handler {
	return authenticate(auth, l, true)
}

// LoadIdentity attaches the session when one is present and valid, and
// lets the request through either way
func LoadIdentity(auth ports.AuthService, l *slog.Logger) func(http.Handler) http.Handler {
	return authenticate(auth, l, false)
}

func authenticate(auth ports.AuthService, l *slog.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := auth.Authenticate(r.Context(), TokenFromRequest(r))
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthenticated) {
					l.ErrorContext(r.Context(), "session check failed", slog.String("error", err.Error()))
					writeError(w, http.StatusInternalServerError, "Internal server error")
					return
				}
				if required {
					writeError(w, http.StatusUnauthorized, "Unauthorized")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequirePermission allows callers holding module:op
func RequirePermission(module domain.Module, op domain.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := IdentityFrom(r.Context()).Require(module, op)
			switch {
			case errors.Is(err, domain.ErrUnauthenticated):
				writeError(w, http.StatusUnauthorized, "Unauthorized")
			case err != nil:
				writeError(w, http.StatusForbidden, err.Error())
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireRole allows callers holding one of roles
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFrom(r.Context())
			switch {
			case identity == nil:
				writeError(w, http.StatusUnauthorized, "Unauthorized")
			case !identity.HasRole(roles...):
				writeError(w, http.StatusForbidden, "Insufficient role")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
