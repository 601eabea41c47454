package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	pkghttp "github.com/rcaluag/registrar/pkg/http"
	"github.com/rcaluag/registrar/internal/models"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// PrincipalContextKey is the key for storing the resolved principal in context
	PrincipalContextKey contextKey = "principal"
)

// Principal is the request-scoped "authenticated as user X" state. It is
// resolved once by SessionMiddleware and passed explicitly from there on;
// nothing reads ambient global auth state.
type Principal struct {
	User    *models.User
	Session *models.Session
}

// SessionStore looks up sessions by token hash
type SessionStore interface {
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// UserStore fetches user records for session resolution
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// SessionMiddleware resolves the session cookie into a Principal and injects
// it into the request context. Requests without a valid, unexpired session
// are rejected with 401; expired sessions are deleted on sight.
func SessionMiddleware(sessions SessionStore, users UserStore, cookieCfg CookieConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := GetSessionCookie(r, cookieCfg)
			if err != nil || token == "" {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			session, err := sessions.GetByTokenHash(r.Context(), HashSessionToken(token))
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					ClearSessionCookie(w, cookieCfg)
					pkghttp.WriteUnauthorized(w, "Authentication required")
					return
				}
				pkghttp.WriteInternalError(w, "Internal server error")
				return
			}

			if session.Expired(time.Now()) {
				_ = sessions.Delete(r.Context(), session.ID)
				ClearSessionCookie(w, cookieCfg)
				pkghttp.WriteUnauthorized(w, "Session expired")
				return
			}

			user, err := users.GetByID(r.Context(), session.UserID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					// Session outlived its user; tear it down
					_ = sessions.Delete(r.Context(), session.ID)
					ClearSessionCookie(w, cookieCfg)
					pkghttp.WriteUnauthorized(w, "Authentication required")
					return
				}
				pkghttp.WriteInternalError(w, "Internal server error")
				return
			}

			if err := user.CheckRecord(); err != nil {
				// Upstream identity mapping defect, never silently ignored
				logger.Error("session resolved to an invalid user record",
					slog.String("session_id", session.ID),
					slog.String("user_id", session.UserID))
				_ = sessions.Delete(r.Context(), session.ID)
				ClearSessionCookie(w, cookieCfg)
				pkghttp.WriteUnauthorized(w, "Authentication error")
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalContextKey, &Principal{
				User:    user,
				Session: session,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole enforces that the resolved principal holds the given role.
// Must run after SessionMiddleware.
func RequireRole(role models.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r)
			if principal == nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			if principal.User.Role != role {
				pkghttp.WriteForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyRole admits principals holding any of the given roles.
func RequireAnyRole(roles ...models.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r)
			if principal == nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			for _, role := range roles {
				if principal.User.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			pkghttp.WriteForbidden(w, "Insufficient permissions")
		})
	}
}

// GetPrincipal extracts the resolved principal from request context
func GetPrincipal(r *http.Request) *Principal {
	principal, ok := r.Context().Value(PrincipalContextKey).(*Principal)
	if !ok {
		return nil
	}
	return principal
}
