package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rcaluag/registrar/internal/auth"
	"github.com/rcaluag/registrar/internal/models"
	pkgauth "github.com/rcaluag/registrar/pkg/auth"
	pkghttp "github.com/rcaluag/registrar/pkg/http"
	pkglogger "github.com/rcaluag/registrar/pkg/logger"
)

// UserRepository defines the user store operations the services need
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Archive(ctx context.Context, id string) error
}

// SessionRepository defines the session guard persistence operations
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) (*models.Session, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
}

// LoginAttemptLog is the durable audit trail interface. All operations are
// best-effort from the authenticator's point of view.
type LoginAttemptLog interface {
	RecordPending(ctx context.Context, email, ipAddress string, meta models.DeviceMeta) (string, error)
	MarkLatestPending(ctx context.Context, email, ipAddress string, outcome models.AttemptStatus) error
	CountByStatus(ctx context.Context, email string, status models.AttemptStatus, since time.Time) (int, error)
}

// A burst of failed logins against one account gets its own audit event so
// operators can spot credential stuffing in the log stream.
const (
	failureBurstThreshold = 5
	failureBurstWindow    = 15 * time.Minute
)

// ClientInfo carries the request metadata threaded through a login
type ClientInfo struct {
	IPAddress   string
	UserAgent   string
	IntendedURL string
}

// LoginResult is handed back to the HTTP layer on an admitted login
type LoginResult struct {
	User         *models.User
	SessionID    string
	SessionToken string
	CSRFToken    string
	ExpiresAt    time.Time
	Redirect     string
}

// AuthService owns the login/logout lifecycle: attempt audit, credential
// check, session establishment, role routing, teardown on rejection.
type AuthService struct {
	users       UserRepository
	sessions    SessionRepository
	attempts    LoginAttemptLog
	router      *auth.RoleRouter
	csrf        *auth.CSRFTokenManager
	sessionTTL  time.Duration
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewAuthService(
	users UserRepository,
	sessions SessionRepository,
	attempts LoginAttemptLog,
	router *auth.RoleRouter,
	csrf *auth.CSRFTokenManager,
	sessionTTL time.Duration,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		users:       users,
		sessions:    sessions,
		attempts:    attempts,
		router:      router,
		csrf:        csrf,
		sessionTTL:  sessionTTL,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Login runs the full authentication flow. The attempt row is created as
// pending before anything else and flipped to its outcome by this same
// request once the credential check settles; the role router runs after the
// outcome is recorded, matching the audited event ("authentication"), not the
// admission decision.
func (s *AuthService) Login(ctx context.Context, email, password string, client ClientInfo) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	meta := deviceMetaFromUserAgent(client.UserAgent)
	s.recordPendingAttempt(ctx, email, client.IPAddress, meta)

	if email == "" || password == "" {
		s.failAttempt(ctx, email, client, "invalid_credentials", "")
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.failAttempt(ctx, email, client, "invalid_credentials", "")
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		s.failAttempt(ctx, email, client, "store_error", "")
		return nil, models.ErrInternalServer
	}

	if user.ArchivedAt != nil {
		s.failAttempt(ctx, email, client, "account_archived", user.ID)
		return nil, models.ErrInvalidCredentials
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.failAttempt(ctx, email, client, "invalid_credentials", user.ID)
		return nil, models.ErrInvalidCredentials
	}

	if err := user.CheckRecord(); err != nil {
		// Credential store handed back a broken identity; never swallowed
		s.logger.Error("authenticated identity failed record check",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		s.failAttempt(ctx, email, client, "identity_mismatch", user.ID)
		return nil, models.ErrIdentityMismatch
	}

	// Credentials are good: record the outcome, then establish the guard.
	s.settleAttempt(ctx, email, client.IPAddress, models.AttemptSuccessful)
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Role:      string(user.Role),
		IPAddress: client.IPAddress,
		Success:   true,
	})

	session, token, err := s.establishSession(ctx, user, client)
	if err != nil {
		s.logger.Error("failed to establish session", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	csrfToken, err := s.csrf.RotateToken(session.ID)
	if err != nil {
		s.teardownSession(ctx, session)
		s.logger.Error("failed to rotate csrf token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	decision, err := s.router.Route(ctx, user, client.IntendedURL)
	if err != nil {
		s.teardownSession(ctx, session)
		s.logger.Error("role router failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !decision.Admitted {
		// Rejected always implies the just-established session is torn down
		// before the response leaves.
		s.teardownSession(ctx, session)
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_rejected",
			UserID:        user.ID,
			Role:          string(user.Role),
			IPAddress:     client.IPAddress,
			Success:       false,
			FailureReason: decision.Reason,
		})
		return nil, rejectionError(decision.Reason)
	}

	s.auditLogger.LogSessionEvent("session_established", user.ID, client.IPAddress)

	return &LoginResult{
		User:         user,
		SessionID:    session.ID,
		SessionToken: token,
		CSRFToken:    csrfToken,
		ExpiresAt:    session.ExpiresAt,
		Redirect:     decision.Destination,
	}, nil
}

// Logout destroys the session guard and its CSRF token as a unit. Calling it
// without a live session is a no-op; logout never fails from the caller's
// point of view.
func (s *AuthService) Logout(ctx context.Context, principal *auth.Principal) {
	if principal == nil || principal.Session == nil {
		return
	}

	s.teardownSession(ctx, principal.Session)
	s.auditLogger.LogSessionEvent("session_destroyed", principal.Session.UserID, principal.Session.IPAddress)
}

// LogoutByToken resolves the cookie token and tears the session down if it is
// still live. Used by the logout route, which does not run behind the session
// middleware so that logging out an already-dead session stays a no-op.
func (s *AuthService) LogoutByToken(ctx context.Context, token string) {
	if token == "" {
		return
	}

	session, err := s.sessions.GetByTokenHash(ctx, auth.HashSessionToken(token))
	if err != nil {
		// Already gone; logout is idempotent
		return
	}

	s.teardownSession(ctx, session)
	s.auditLogger.LogSessionEvent("session_destroyed", session.UserID, session.IPAddress)
}

func (s *AuthService) establishSession(ctx context.Context, user *models.User, client ClientInfo) (*models.Session, string, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, "", err
	}

	session, err := s.sessions.Create(ctx, &models.Session{
		TokenHash: auth.HashSessionToken(token),
		UserID:    user.ID,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	})
	if err != nil {
		return nil, "", err
	}

	return session, token, nil
}

// teardownSession removes the session row and revokes its CSRF token
// together; neither survives the other.
func (s *AuthService) teardownSession(ctx context.Context, session *models.Session) {
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		s.logger.Error("failed to delete session", slog.String("session_id", session.ID), slog.Any("error", err))
	}
	s.csrf.RevokeSession(session.ID)
}

// recordPendingAttempt writes the pending audit row. A failure here must not
// block authentication: log and move on.
func (s *AuthService) recordPendingAttempt(ctx context.Context, email, ipAddress string, meta models.DeviceMeta) {
	if _, err := s.attempts.RecordPending(ctx, email, ipAddress, meta); err != nil {
		s.logger.Warn("failed to record pending login attempt",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
	}
}

// settleAttempt flips the latest pending row to its outcome; best-effort.
func (s *AuthService) settleAttempt(ctx context.Context, email, ipAddress string, outcome models.AttemptStatus) {
	if err := s.attempts.MarkLatestPending(ctx, email, ipAddress, outcome); err != nil {
		s.logger.Warn("failed to settle login attempt",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
	}
}

func (s *AuthService) failAttempt(ctx context.Context, email string, client ClientInfo, reason, userID string) {
	s.settleAttempt(ctx, email, client.IPAddress, models.AttemptFailed)
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		UserID:        userID,
		IPAddress:     client.IPAddress,
		Success:       false,
		FailureReason: reason,
	})
	s.warnOnFailureBurst(ctx, email, client.IPAddress, userID)
}

// warnOnFailureBurst checks the recent failed-attempt count for the address
// and raises a security event once it crosses the threshold.
func (s *AuthService) warnOnFailureBurst(ctx context.Context, email, ipAddress, userID string) {
	count, err := s.attempts.CountByStatus(ctx, email, models.AttemptFailed, time.Now().Add(-failureBurstWindow))
	if err != nil {
		s.logger.Warn("failed to count recent login failures",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return
	}
	if count < failureBurstThreshold {
		return
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failure_burst",
		UserID:        userID,
		IPAddress:     ipAddress,
		Success:       false,
		FailureReason: fmt.Sprintf("%d failed attempts within %s", count, failureBurstWindow),
	})
}

func rejectionError(reason string) error {
	switch reason {
	case auth.ReasonTeacherProfileMissing:
		return models.ErrTeacherProfileMissing
	case auth.ReasonAccountArchived:
		return models.ErrAccountArchived
	default:
		return models.ErrUnknownRole
	}
}

func deviceMetaFromUserAgent(userAgent string) models.DeviceMeta {
	device, platform, browser := pkghttp.ParseUserAgent(userAgent)
	return models.DeviceMeta{Device: device, Platform: platform, Browser: browser}
}
