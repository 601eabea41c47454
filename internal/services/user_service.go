package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/rcaluag/registrar/internal/models"
	pkgauth "github.com/rcaluag/registrar/pkg/auth"
)

// TeacherProfileRepository covers the registry records backing teacher accounts
type TeacherProfileRepository interface {
	GetByID(ctx context.Context, id string) (*models.TeacherProfile, error)
	GetByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error)
	List(ctx context.Context, limit, offset int) ([]*models.TeacherProfile, error)
	Create(ctx context.Context, profile *models.TeacherProfile) (*models.TeacherProfile, error)
	Update(ctx context.Context, id string, profile *models.TeacherProfile) (*models.TeacherProfile, error)
	SetArchived(ctx context.Context, id string, archived bool) error
}

// UserService manages accounts and the teacher profiles attached to them
type UserService struct {
	users    UserRepository
	profiles TeacherProfileRepository
	sessions SessionRepository
	logger   *slog.Logger
}

func NewUserService(users UserRepository, profiles TeacherProfileRepository, sessions SessionRepository, logger *slog.Logger) *UserService {
	return &UserService{
		users:    users,
		profiles: profiles,
		sessions: sessions,
		logger:   logger,
	}
}

type CreateUserInput struct {
	Email    string
	Password string
	Name     string
	Role     models.Role
}

func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if !input.Role.Valid() {
		return nil, models.ErrBadRequest
	}

	if err := pkgauth.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		Name:         input.Name,
		Role:         input.Role,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)))

	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}

type UpdateUserInput struct {
	Email string
	Name  string
}

func (s *UserService) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(input.Email))
	}
	if input.Name != "" {
		user.Name = input.Name
	}

	return s.users.Update(ctx, id, user)
}

// ChangePassword verifies the current password before accepting the new one.
// All live sessions for the account are destroyed on success.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return models.ErrInvalidCredentials
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	if err := s.sessions.DeleteByUserID(ctx, userID); err != nil {
		s.logger.Error("failed to revoke sessions after password change",
			slog.String("user_id", userID), slog.Any("error", err))
	}

	s.logger.Info("password changed", slog.String("user_id", userID))
	return nil
}

// ArchiveUser soft-archives the account and destroys its sessions, locking
// the user out immediately rather than at next login.
func (s *UserService) ArchiveUser(ctx context.Context, id string) error {
	if err := s.users.Archive(ctx, id); err != nil {
		return err
	}

	if err := s.sessions.DeleteByUserID(ctx, id); err != nil {
		s.logger.Error("failed to revoke sessions for archived user",
			slog.String("user_id", id), slog.Any("error", err))
	}

	s.logger.Info("user archived", slog.String("user_id", id))
	return nil
}

// Teacher profiles

type CreateTeacherProfileInput struct {
	UserID     string
	EmployeeNo string
	Department string
}

// CreateTeacherProfile attaches a registry record to a teacher account. The
// target user must exist and hold the teacher role.
func (s *UserService) CreateTeacherProfile(ctx context.Context, input CreateTeacherProfileInput) (*models.TeacherProfile, error) {
	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleTeacher {
		return nil, models.ErrBadRequest
	}

	if _, err := s.profiles.GetByUserID(ctx, input.UserID); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	return s.profiles.Create(ctx, &models.TeacherProfile{
		UserID:     input.UserID,
		EmployeeNo: input.EmployeeNo,
		Department: input.Department,
	})
}

func (s *UserService) ListTeacherProfiles(ctx context.Context, limit, offset int) ([]*models.TeacherProfile, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.profiles.List(ctx, limit, offset)
}

// SetTeacherProfileArchived flips the archive flag. Archiving also destroys
// the teacher's sessions since the role router would reject them anyway.
func (s *UserService) SetTeacherProfileArchived(ctx context.Context, profileID string, archived bool) error {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return err
	}

	if err := s.profiles.SetArchived(ctx, profileID, archived); err != nil {
		return err
	}

	if archived {
		if err := s.sessions.DeleteByUserID(ctx, profile.UserID); err != nil {
			s.logger.Error("failed to revoke sessions for archived teacher",
				slog.String("user_id", profile.UserID), slog.Any("error", err))
		}
	}

	return nil
}
