package handlers

import (
	"context"

	"github.com/rcaluag/registrar/internal/models"
	"github.com/rcaluag/registrar/internal/services"
)

// Mock services with overridable function fields, shared by the handler tests
// in this package.

type MockAuthService struct {
	LoginFunc         func(ctx context.Context, email, password string, client services.ClientInfo) (*services.LoginResult, error)
	LogoutByTokenFunc func(ctx context.Context, token string)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string, client services.ClientInfo) (*services.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, client)
	}
	return nil, models.ErrInvalidCredentials
}

func (m *MockAuthService) LogoutByToken(ctx context.Context, token string) {
	if m.LogoutByTokenFunc != nil {
		m.LogoutByTokenFunc(ctx, token)
	}
}

type MockPasswordResetService struct {
	RequestResetFunc  func(ctx context.Context, email string) error
	ResetPasswordFunc func(ctx context.Context, userID, token, newPassword string) error
}

func (m *MockPasswordResetService) RequestReset(ctx context.Context, email string) error {
	if m.RequestResetFunc != nil {
		return m.RequestResetFunc(ctx, email)
	}
	return nil
}

func (m *MockPasswordResetService) ResetPassword(ctx context.Context, userID, token, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, userID, token, newPassword)
	}
	return nil
}

type MockAdmissionService struct {
	CreateApplicantFunc func(ctx context.Context, input services.ApplicantInput) (*models.Applicant, error)
	GetApplicantFunc    func(ctx context.Context, id string) (*models.Applicant, error)
	ListApplicantsFunc  func(ctx context.Context, status models.ApplicantStatus, limit, offset int) ([]*models.Applicant, error)
	UpdateApplicantFunc func(ctx context.Context, id string, input services.ApplicantInput) (*models.Applicant, error)
	ApproveFunc         func(ctx context.Context, id string) (*models.Student, error)
	RejectFunc          func(ctx context.Context, id string) error
	DeleteApplicantFunc func(ctx context.Context, id string) error
}

func (m *MockAdmissionService) CreateApplicant(ctx context.Context, input services.ApplicantInput) (*models.Applicant, error) {
	if m.CreateApplicantFunc != nil {
		return m.CreateApplicantFunc(ctx, input)
	}
	return &models.Applicant{ID: "applicant-1", Status: models.ApplicantPending}, nil
}

func (m *MockAdmissionService) GetApplicant(ctx context.Context, id string) (*models.Applicant, error) {
	if m.GetApplicantFunc != nil {
		return m.GetApplicantFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdmissionService) ListApplicants(ctx context.Context, status models.ApplicantStatus, limit, offset int) ([]*models.Applicant, error) {
	if m.ListApplicantsFunc != nil {
		return m.ListApplicantsFunc(ctx, status, limit, offset)
	}
	return nil, nil
}

func (m *MockAdmissionService) UpdateApplicant(ctx context.Context, id string, input services.ApplicantInput) (*models.Applicant, error) {
	if m.UpdateApplicantFunc != nil {
		return m.UpdateApplicantFunc(ctx, id, input)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdmissionService) Approve(ctx context.Context, id string) (*models.Student, error) {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdmissionService) Reject(ctx context.Context, id string) error {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, id)
	}
	return models.ErrNotFound
}

func (m *MockAdmissionService) DeleteApplicant(ctx context.Context, id string) error {
	if m.DeleteApplicantFunc != nil {
		return m.DeleteApplicantFunc(ctx, id)
	}
	return models.ErrNotFound
}
