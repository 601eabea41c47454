package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rcaluag/registrar/internal/auth"
	"github.com/rcaluag/registrar/internal/models"
	"github.com/rcaluag/registrar/internal/services"
	pkghttp "github.com/rcaluag/registrar/pkg/http"
)

// AuthServiceInterface defines the interface for the login/logout lifecycle
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string, client services.ClientInfo) (*services.LoginResult, error)
	LogoutByToken(ctx context.Context, token string)
}

// PasswordResetServiceInterface defines the self-service reset operations
type PasswordResetServiceInterface interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, userID, token, newPassword string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service        AuthServiceInterface
	resets         PasswordResetServiceInterface
	cookieCfg      auth.CookieConfig
	sessionTTL     time.Duration
	ipConfig       *pkghttp.IPConfig
	passwordResets bool
}

func NewAuthHandler(
	service AuthServiceInterface,
	resets PasswordResetServiceInterface,
	cookieCfg auth.CookieConfig,
	sessionTTL time.Duration,
	ipConfig *pkghttp.IPConfig,
	passwordResets bool,
) *AuthHandler {
	return &AuthHandler{
		service:        service,
		resets:         resets,
		cookieCfg:      cookieCfg,
		sessionTTL:     sessionTTL,
		ipConfig:       ipConfig,
		passwordResets: passwordResets,
	}
}

// Request DTOs

// LoginRequest represents the request body for login. Remember is accepted
// for form compatibility but does not change the session TTL.
type LoginRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	Remember    bool   `json:"remember"`
	IntendedURL string `json:"intended_url"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	UserID   string `json:"uid" validate:"required"`
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Response DTOs

type LoginPageResponse struct {
	Status           string `json:"status"`
	CanResetPassword bool   `json:"can_reset_password"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type LoginResponse struct {
	Redirect  string       `json:"redirect"`
	CSRFToken string       `json:"csrf_token"`
	User      UserResponse `json:"user"`
}

type LogoutResponse struct {
	Redirect string `json:"redirect"`
}

// LoginPage serves the login form state: whether self-service password resets
// are offered, plus a status field the frontend polls for liveness.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, LoginPageResponse{
		Status:           "ok",
		CanResetPassword: h.passwordResets,
	})
}

// Login handles the login POST. Every failure class comes back as a
// field-level error on email with status 401; only the message text differs.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteFieldError(w, http.StatusBadRequest, "email", "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteFieldError(w, http.StatusUnauthorized, "email", "Invalid credentials")
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password, services.ClientInfo{
		IPAddress:   pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent:   r.UserAgent(),
		IntendedURL: req.IntendedURL,
	})
	if err != nil {
		h.writeLoginFailure(w, err)
		return
	}

	auth.SetSessionCookie(w, result.SessionToken, h.sessionTTL, h.cookieCfg)
	auth.SetCSRFCookie(w, result.CSRFToken, h.sessionTTL, h.cookieCfg)

	pkghttp.WriteJSON(w, http.StatusOK, LoginResponse{
		Redirect:  result.Redirect,
		CSRFToken: result.CSRFToken,
		User: UserResponse{
			ID:    result.User.ID,
			Email: result.User.Email,
			Name:  result.User.Name,
			Role:  string(result.User.Role),
		},
	})
}

func (h *AuthHandler) writeLoginFailure(w http.ResponseWriter, err error) {
	// No session survives a failed login
	auth.ClearSessionCookie(w, h.cookieCfg)
	auth.ClearCSRFCookie(w, h.cookieCfg)

	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		pkghttp.WriteFieldError(w, http.StatusUnauthorized, "email", "Invalid credentials")
	case errors.Is(err, models.ErrTeacherProfileMissing):
		pkghttp.WriteFieldError(w, http.StatusUnauthorized, "email", "Teacher profile not found")
	case errors.Is(err, models.ErrAccountArchived):
		pkghttp.WriteFieldError(w, http.StatusUnauthorized, "email", "Account archived")
	case errors.Is(err, models.ErrUnknownRole):
		pkghttp.WriteFieldError(w, http.StatusUnauthorized, "email", "Unauthorized role")
	case errors.Is(err, models.ErrIdentityMismatch):
		// Operator-facing detail stays in the logs; the user sees a generic
		// authentication error.
		pkghttp.WriteFieldError(w, http.StatusUnauthorized, "email", "Authentication error")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// Logout destroys the current session. Safe to call without one; the response
// is identical either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, err := auth.GetSessionCookie(r, h.cookieCfg); err == nil {
		h.service.LogoutByToken(r.Context(), token)
	}

	auth.ClearSessionCookie(w, h.cookieCfg)
	auth.ClearCSRFCookie(w, h.cookieCfg)
	pkghttp.WriteJSON(w, http.StatusOK, LogoutResponse{Redirect: "/"})
}

// Me returns the authenticated principal. Runs behind the session middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := auth.GetPrincipal(r)
	if principal == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, UserResponse{
		ID:    principal.User.ID,
		Email: principal.User.Email,
		Name:  principal.User.Name,
		Role:  string(principal.User.Role),
	})
}

// ForgotPassword mails a reset link. The response never reveals whether the
// address is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if !h.passwordResets {
		pkghttp.WriteForbidden(w, "Password resets are disabled")
		return
	}

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.resets.RequestReset(r.Context(), req.Email); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "If the address is registered, a reset link has been sent",
	})
}

// ResetPassword redeems a reset token
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if !h.passwordResets {
		pkghttp.WriteForbidden(w, "Password resets are disabled")
		return
	}

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.resets.ResetPassword(r.Context(), req.UserID, req.Token, req.Password); err != nil {
		writeServiceError(w, err, "Invalid or expired reset link")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}
