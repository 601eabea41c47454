package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/rcaluag/registrar/internal/auth"
	"github.com/rcaluag/registrar/internal/models"
	pkgauth "github.com/rcaluag/registrar/pkg/auth"
	pkglogger "github.com/rcaluag/registrar/pkg/logger"
)

// PasswordResetService issues and redeems self-service reset links. Tokens are
// stateless: the signing key is derived from the account's current password
// hash, so redeeming a token (or any password change) invalidates it.
type PasswordResetService struct {
	users        UserRepository
	sessions     SessionRepository
	email        EmailService
	tokenTTL     time.Duration
	resetURLBase string
	logger       *slog.Logger
}

func NewPasswordResetService(
	users UserRepository,
	sessions SessionRepository,
	email EmailService,
	tokenTTL time.Duration,
	resetURLBase string,
	logger *slog.Logger,
) *PasswordResetService {
	return &PasswordResetService{
		users:        users,
		sessions:     sessions,
		email:        email,
		tokenTTL:     tokenTTL,
		resetURLBase: resetURLBase,
		logger:       logger,
	}
}

// RequestReset mails a reset link if the address belongs to a live account.
// The outcome is identical either way so the endpoint cannot be used to probe
// which emails are registered.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("password reset requested for unknown email",
				slog.String("email", pkglogger.SanitizedEmail(email)))
			return nil
		}
		return err
	}

	if user.ArchivedAt != nil {
		s.logger.Info("password reset requested for archived account",
			slog.String("user_id", user.ID))
		return nil
	}

	token, err := auth.GenerateResetToken(user.ID, user.PasswordHash, s.tokenTTL)
	if err != nil {
		s.logger.Error("failed to generate reset token", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	link := fmt.Sprintf("%s?uid=%s&token=%s", s.resetURLBase, url.QueryEscape(user.ID), url.QueryEscape(token))
	if err := s.email.SendPasswordReset(ctx, user.Email, link); err != nil {
		return models.ErrInternalServer
	}

	s.logger.Info("password reset link sent", slog.String("user_id", user.ID))
	return nil
}

// ResetPassword redeems a token and sets the new password. Every live session
// for the account is destroyed on success.
func (s *PasswordResetService) ResetPassword(ctx context.Context, userID, token, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUnauthorized
		}
		return err
	}

	if err := auth.ValidateResetToken(token, user.ID, user.PasswordHash); err != nil {
		s.logger.Warn("rejected password reset token",
			slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrUnauthorized
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	if err := s.sessions.DeleteByUserID(ctx, user.ID); err != nil {
		s.logger.Error("failed to revoke sessions after password reset",
			slog.String("user_id", user.ID), slog.Any("error", err))
	}

	s.logger.Info("password reset completed", slog.String("user_id", user.ID))
	return nil
}
