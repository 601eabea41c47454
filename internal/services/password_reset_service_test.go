package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcaluag/registrar/internal/auth"
	"github.com/rcaluag/registrar/internal/models"
	pkgauth "github.com/rcaluag/registrar/pkg/auth"
)

func TestRequestReset_UnknownEmailIsSilent(t *testing.T) {
	mailed := false
	email := &MockEmailService{
		SendPasswordResetFunc: func(ctx context.Context, to, link string) error {
			mailed = true
			return nil
		},
	}

	svc := NewPasswordResetService(&MockUserRepository{}, &MockSessionRepository{}, email, time.Hour, "https://portal.school.test/reset", testLogger())

	// Same outcome whether or not the address exists
	require.NoError(t, svc.RequestReset(context.Background(), "nobody@school.test"))
	assert.False(t, mailed)
}

func TestRequestReset_SendsLink(t *testing.T) {
	hash, err := pkgauth.HashPassword("Sup3rSecret!pass")
	require.NoError(t, err)

	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: "user-1", Email: email, PasswordHash: hash}, nil
		},
	}

	var link string
	email := &MockEmailService{
		SendPasswordResetFunc: func(ctx context.Context, to, l string) error {
			link = l
			return nil
		},
	}

	svc := NewPasswordResetService(users, &MockSessionRepository{}, email, time.Hour, "https://portal.school.test/reset", testLogger())

	require.NoError(t, svc.RequestReset(context.Background(), "jdoe@school.test"))
	assert.True(t, strings.HasPrefix(link, "https://portal.school.test/reset?uid=user-1&token="))
}

func TestResetPassword_RoundTrip(t *testing.T) {
	hash, err := pkgauth.HashPassword("Sup3rSecret!pass")
	require.NoError(t, err)
	user := &models.User{ID: "user-1", Email: "jdoe@school.test", PasswordHash: hash}

	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) { return user, nil },
		UpdatePasswordFunc: func(ctx context.Context, id, newHash string) error {
			user.PasswordHash = newHash
			return nil
		},
	}

	revoked := false
	sessions := &MockSessionRepository{
		DeleteByUserIDFunc: func(ctx context.Context, userID string) error {
			revoked = true
			return nil
		},
	}

	svc := NewPasswordResetService(users, sessions, &MockEmailService{}, time.Hour, "https://portal.school.test/reset", testLogger())

	token, err := auth.GenerateResetToken(user.ID, user.PasswordHash, time.Hour)
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(context.Background(), "user-1", token, "An0ther!Secret"))
	assert.True(t, revoked)
	assert.NoError(t, pkgauth.ComparePassword(user.PasswordHash, "An0ther!Secret"))

	// The password change invalidated the signing key, so the token is spent
	err = svc.ResetPassword(context.Background(), "user-1", token, "Th1rd!Secret")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestResetPassword_ForgedToken(t *testing.T) {
	hash, err := pkgauth.HashPassword("Sup3rSecret!pass")
	require.NoError(t, err)

	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Email: "jdoe@school.test", PasswordHash: hash}, nil
		},
	}

	svc := NewPasswordResetService(users, &MockSessionRepository{}, &MockEmailService{}, time.Hour, "https://portal.school.test/reset", testLogger())

	err = svc.ResetPassword(context.Background(), "user-1", "not-a-token", "An0ther!Secret")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
