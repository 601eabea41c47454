package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcaluag/registrar/internal/models"
	pkgauth "github.com/rcaluag/registrar/pkg/auth"
)

func TestCreateUser_HashesPassword(t *testing.T) {
	var created *models.User
	users := &MockUserRepository{
		CreateFunc: func(ctx context.Context, u *models.User) (*models.User, error) {
			u.ID = "user-1"
			created = u
			return u, nil
		},
	}

	svc := NewUserService(users, &MockTeacherProfileRepository{}, &MockSessionRepository{}, testLogger())

	user, err := svc.CreateUser(context.Background(), CreateUserInput{
		Email:    " Admin@School.Test ",
		Password: "Sup3rSecret!pass",
		Name:     "Site Admin",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)

	assert.Equal(t, "admin@school.test", user.Email)
	assert.NotEqual(t, "Sup3rSecret!pass", created.PasswordHash)
	assert.NoError(t, pkgauth.ComparePassword(created.PasswordHash, "Sup3rSecret!pass"))
}

func TestCreateUser_InvalidRole(t *testing.T) {
	svc := NewUserService(&MockUserRepository{}, &MockTeacherProfileRepository{}, &MockSessionRepository{}, testLogger())

	_, err := svc.CreateUser(context.Background(), CreateUserInput{
		Email:    "x@school.test",
		Password: "Sup3rSecret!pass",
		Role:     models.Role("registrar"),
	})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestCreateUser_WeakPassword(t *testing.T) {
	svc := NewUserService(&MockUserRepository{}, &MockTeacherProfileRepository{}, &MockSessionRepository{}, testLogger())

	_, err := svc.CreateUser(context.Background(), CreateUserInput{
		Email:    "x@school.test",
		Password: "short",
		Role:     models.RoleStudent,
	})

	var validationErr *pkgauth.PasswordValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestChangePassword_RevokesSessions(t *testing.T) {
	hash, err := pkgauth.HashPassword("Sup3rSecret!pass")
	require.NoError(t, err)

	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Email: "x@school.test", PasswordHash: hash}, nil
		},
	}

	revoked := false
	sessions := &MockSessionRepository{
		DeleteByUserIDFunc: func(ctx context.Context, userID string) error {
			revoked = true
			return nil
		},
	}

	svc := NewUserService(users, &MockTeacherProfileRepository{}, sessions, testLogger())

	require.NoError(t, svc.ChangePassword(context.Background(), "user-1", "Sup3rSecret!pass", "An0ther!Secret"))
	assert.True(t, revoked)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	hash, err := pkgauth.HashPassword("Sup3rSecret!pass")
	require.NoError(t, err)

	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Email: "x@school.test", PasswordHash: hash}, nil
		},
	}

	svc := NewUserService(users, &MockTeacherProfileRepository{}, &MockSessionRepository{}, testLogger())

	err = svc.ChangePassword(context.Background(), "user-1", "wrong", "An0ther!Secret")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestArchiveUser_RevokesSessions(t *testing.T) {
	revoked := false
	sessions := &MockSessionRepository{
		DeleteByUserIDFunc: func(ctx context.Context, userID string) error {
			revoked = true
			return nil
		},
	}

	svc := NewUserService(&MockUserRepository{}, &MockTeacherProfileRepository{}, sessions, testLogger())

	require.NoError(t, svc.ArchiveUser(context.Background(), "user-1"))
	assert.True(t, revoked)
}

func TestCreateTeacherProfile_RequiresTeacherRole(t *testing.T) {
	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Email: "x@school.test", Role: models.RoleStudent}, nil
		},
	}

	svc := NewUserService(users, &MockTeacherProfileRepository{}, &MockSessionRepository{}, testLogger())

	_, err := svc.CreateTeacherProfile(context.Background(), CreateTeacherProfileInput{UserID: "user-1"})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestCreateTeacherProfile_AlreadyExists(t *testing.T) {
	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Email: "x@school.test", Role: models.RoleTeacher}, nil
		},
	}
	profiles := &MockTeacherProfileRepository{
		GetByUserIDFunc: func(ctx context.Context, userID string) (*models.TeacherProfile, error) {
			return &models.TeacherProfile{ID: "profile-1", UserID: userID}, nil
		},
	}

	svc := NewUserService(users, profiles, &MockSessionRepository{}, testLogger())

	_, err := svc.CreateTeacherProfile(context.Background(), CreateTeacherProfileInput{UserID: "user-1"})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestSetTeacherProfileArchived_RevokesSessions(t *testing.T) {
	profiles := &MockTeacherProfileRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.TeacherProfile, error) {
			return &models.TeacherProfile{ID: id, UserID: "user-9"}, nil
		},
	}

	var revokedUser string
	sessions := &MockSessionRepository{
		DeleteByUserIDFunc: func(ctx context.Context, userID string) error {
			revokedUser = userID
			return nil
		},
	}

	svc := NewUserService(&MockUserRepository{}, profiles, sessions, testLogger())

	require.NoError(t, svc.SetTeacherProfileArchived(context.Background(), "profile-1", true))
	assert.Equal(t, "user-9", revokedUser)
}
