package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcaluag/registrar/internal/auth"
	"github.com/rcaluag/registrar/internal/models"
)

func csrfTestHandler(t *testing.T, manager *auth.CSRFTokenManager) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := CSRFProtection(manager, logger)
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func withPrincipal(r *http.Request, sessionID string) *http.Request {
	ctx := context.WithValue(r.Context(), auth.PrincipalContextKey, &auth.Principal{
		User:    &models.User{ID: "user-1", Email: "x@school.test", Role: models.RoleAdmin},
		Session: &models.Session{ID: sessionID, UserID: "user-1"},
	})
	return r.WithContext(ctx)
}

func TestCSRFProtection_ValidToken(t *testing.T) {
	manager := auth.NewCSRFTokenManager(time.Hour)
	token, err := manager.RotateToken("session-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin/applicants", nil)
	req.Header.Set("X-CSRF-Token", token)
	req = withPrincipal(req, "session-1")

	rec := httptest.NewRecorder()
	csrfTestHandler(t, manager).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCSRFProtection_MissingToken(t *testing.T) {
	manager := auth.NewCSRFTokenManager(time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/admin/applicants", nil)
	req = withPrincipal(req, "session-1")

	rec := httptest.NewRecorder()
	csrfTestHandler(t, manager).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFProtection_TokenFromOtherSession(t *testing.T) {
	manager := auth.NewCSRFTokenManager(time.Hour)
	token, err := manager.RotateToken("session-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin/applicants", nil)
	req.Header.Set("X-CSRF-Token", token)
	req = withPrincipal(req, "session-2")

	rec := httptest.NewRecorder()
	csrfTestHandler(t, manager).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFProtection_ReadsAreExempt(t *testing.T) {
	manager := auth.NewCSRFTokenManager(time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/admin/applicants", nil)
	req = withPrincipal(req, "session-1")

	rec := httptest.NewRecorder()
	csrfTestHandler(t, manager).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
