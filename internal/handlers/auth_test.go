package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcaluag/registrar/internal/auth"
	"github.com/rcaluag/registrar/internal/models"
	"github.com/rcaluag/registrar/internal/services"
	pkghttp "github.com/rcaluag/registrar/pkg/http"
)

var testCookieCfg = auth.CookieConfig{
	SessionName: "registrar_session",
	CSRFName:    "csrf_token",
	SameSite:    "lax",
}

func newTestAuthHandler(service AuthServiceInterface, resets PasswordResetServiceInterface, passwordResets bool) *AuthHandler {
	return NewAuthHandler(service, resets, testCookieCfg, 12*time.Hour, &pkghttp.IPConfig{}, passwordResets)
}

func decodeFieldError(t *testing.T, rec *httptest.ResponseRecorder) pkghttp.FieldErrorResponse {
	t.Helper()

	var resp pkghttp.FieldErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestLoginPage_Flags(t *testing.T) {
	handler := newTestAuthHandler(&MockAuthService{}, &MockPasswordResetService{}, true)

	rec := httptest.NewRecorder()
	handler.LoginPage(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginPageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.CanResetPassword)
}

func TestLogin_Success_SetsCookies(t *testing.T) {
	service := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, client services.ClientInfo) (*services.LoginResult, error) {
			return &services.LoginResult{
				User:         &models.User{ID: "user-1", Email: email, Name: "Jane", Role: models.RoleAdmin},
				SessionID:    "session-1",
				SessionToken: "opaque-token",
				CSRFToken:    "csrf-token",
				ExpiresAt:    time.Now().Add(12 * time.Hour),
				Redirect:     "/admin/dashboard",
			}, nil
		},
	}
	handler := newTestAuthHandler(service, &MockPasswordResetService{}, true)

	body := `{"email":"jdoe@school.test","password":"Sup3rSecret!pass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "/admin/dashboard", resp.Redirect)
	assert.Equal(t, "admin", resp.User.Role)

	cookies := rec.Result().Cookies()
	var sessionCookie, csrfCookie *http.Cookie
	for _, c := range cookies {
		switch c.Name {
		case "registrar_session":
			sessionCookie = c
		case "csrf_token":
			csrfCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	require.NotNil(t, csrfCookie)
	assert.Equal(t, "opaque-token", sessionCookie.Value)
	assert.True(t, sessionCookie.HttpOnly)
	// The CSRF cookie must be readable by the frontend
	assert.False(t, csrfCookie.HttpOnly)
}

func TestLogin_FailureShapes(t *testing.T) {
	// Every outcome class shares the same response shape; only the message
	// text differs.
	cases := []struct {
		name    string
		err     error
		message string
	}{
		{"invalid credentials", models.ErrInvalidCredentials, "Invalid credentials"},
		{"teacher profile missing", models.ErrTeacherProfileMissing, "Teacher profile not found"},
		{"account archived", models.ErrAccountArchived, "Account archived"},
		{"unauthorized role", models.ErrUnknownRole, "Unauthorized role"},
		{"identity mismatch", models.ErrIdentityMismatch, "Authentication error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &MockAuthService{
				LoginFunc: func(ctx context.Context, email, password string, client services.ClientInfo) (*services.LoginResult, error) {
					return nil, tc.err
				},
			}
			handler := newTestAuthHandler(service, &MockPasswordResetService{}, true)

			body := `{"email":"jdoe@school.test","password":"wrong"}`
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
			rec := httptest.NewRecorder()
			handler.Login(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			resp := decodeFieldError(t, rec)
			assert.Equal(t, tc.message, resp.Message)
			assert.Equal(t, []string{tc.message}, resp.Errors["email"])
		})
	}
}

func TestLogin_MalformedEmail(t *testing.T) {
	called := false
	service := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, client services.ClientInfo) (*services.LoginResult, error) {
			called = true
			return nil, models.ErrInvalidCredentials
		},
	}
	handler := newTestAuthHandler(service, &MockPasswordResetService{}, true)

	body := `{"email":"not-an-email","password":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeFieldError(t, rec)
	assert.Equal(t, "Invalid credentials", resp.Message)
	assert.False(t, called)
}

func TestLogin_RememberAcceptedButIgnored(t *testing.T) {
	service := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, client services.ClientInfo) (*services.LoginResult, error) {
			return &services.LoginResult{
				User:         &models.User{ID: "user-1", Email: email, Role: models.RoleStudent},
				SessionToken: "opaque-token",
				CSRFToken:    "csrf-token",
				Redirect:     "/student/home",
			}, nil
		},
	}
	handler := newTestAuthHandler(service, &MockPasswordResetService{}, true)

	body := `{"email":"jdoe@school.test","password":"Sup3rSecret!pass","remember":true}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "registrar_session" {
			// TTL unchanged by remember
			assert.InDelta(t, (12 * time.Hour).Seconds(), float64(c.MaxAge), 5)
		}
	}
}

func TestLogout_Idempotent(t *testing.T) {
	var tokens []string
	service := &MockAuthService{
		LogoutByTokenFunc: func(ctx context.Context, token string) {
			tokens = append(tokens, token)
		},
	}
	handler := newTestAuthHandler(service, &MockPasswordResetService{}, true)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "registrar_session", Value: "opaque-token"})
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"opaque-token"}, tokens)

	var resp LogoutResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "/", resp.Redirect)

	// No cookie at all still succeeds
	rec = httptest.NewRecorder()
	handler.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Both cookies cleared
	for _, c := range rec.Result().Cookies() {
		assert.Equal(t, -1, c.MaxAge)
	}
}

func TestForgotPassword_Disabled(t *testing.T) {
	handler := newTestAuthHandler(&MockAuthService{}, &MockPasswordResetService{}, false)

	body := `{"email":"jdoe@school.test"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/forgot-password", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ForgotPassword(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestForgotPassword_AlwaysGeneric(t *testing.T) {
	resets := &MockPasswordResetService{
		RequestResetFunc: func(ctx context.Context, email string) error { return nil },
	}
	handler := newTestAuthHandler(&MockAuthService{}, resets, true)

	body := `{"email":"unknown@school.test"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/forgot-password", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ForgotPassword(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "If the address is registered")
}

func TestResetPassword_InvalidToken(t *testing.T) {
	resets := &MockPasswordResetService{
		ResetPasswordFunc: func(ctx context.Context, userID, token, newPassword string) error {
			return models.ErrUnauthorized
		},
	}
	handler := newTestAuthHandler(&MockAuthService{}, resets, true)

	body := `{"uid":"user-1","token":"stale","password":"An0ther!Secret"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/reset-password", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ResetPassword(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or expired reset link")
}

func TestMe_RequiresPrincipal(t *testing.T) {
	handler := newTestAuthHandler(&MockAuthService{}, &MockPasswordResetService{}, true)

	rec := httptest.NewRecorder()
	handler.Me(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	ctx := context.WithValue(req.Context(), auth.PrincipalContextKey, &auth.Principal{
		User:    &models.User{ID: "user-1", Email: "jdoe@school.test", Role: models.RoleTeacher},
		Session: &models.Session{ID: "session-1"},
	})
	rec = httptest.NewRecorder()
	handler.Me(rec, req.WithContext(ctx))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp UserResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "teacher", resp.Role)
}
