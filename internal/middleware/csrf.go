package middleware

import (
	"log/slog"
	"net/http"

	"github.com/rcaluag/registrar/internal/auth"
)

// CSRFProtection validates CSRF tokens on state-changing requests behind the
// session guard. The token is bound to the session that issued it, so a token
// harvested from one session is useless against another.
func CSRFProtection(csrfManager *auth.CSRFTokenManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			principal := auth.GetPrincipal(r)
			if principal == nil {
				// Session middleware runs first; reaching here without a
				// principal means the route was wired wrong.
				http.Error(w, "CSRF validation requires a session", http.StatusForbidden)
				return
			}

			csrfToken := r.Header.Get("X-CSRF-Token")
			if csrfToken == "" {
				logger.Warn("CSRF token missing",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("user_id", principal.User.ID))
				http.Error(w, "CSRF token missing", http.StatusForbidden)
				return
			}

			if !csrfManager.ValidateToken(csrfToken, principal.Session.ID) {
				logger.Warn("CSRF token validation failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("user_id", principal.User.ID))
				http.Error(w, "CSRF token invalid", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isStateChangingMethod checks if the HTTP method modifies state
func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}
