package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcaluag/registrar/internal/models"
	"github.com/rcaluag/registrar/internal/services"
)

func applicantRouter(service AdmissionServiceInterface) http.Handler {
	h := NewAdmissionHandler(service)
	r := chi.NewRouter()
	r.Post("/applicants", h.Create)
	r.Get("/applicants", h.List)
	r.Post("/applicants/{id}/approve", h.Approve)
	r.Post("/applicants/{id}/reject", h.Reject)
	return r
}

func TestCreateApplicant_Validation(t *testing.T) {
	router := applicantRouter(&MockAdmissionService{})

	body := `{"first_name":"Maria","last_name":"Cruz","email":"maria@family.test","grade_level":13}`
	req := httptest.NewRequest(http.MethodPost, "/applicants", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "GradeLevel")
}

func TestCreateApplicant_Success(t *testing.T) {
	service := &MockAdmissionService{
		CreateApplicantFunc: func(ctx context.Context, input services.ApplicantInput) (*models.Applicant, error) {
			return &models.Applicant{
				ID:         "applicant-1",
				FirstName:  input.FirstName,
				LastName:   input.LastName,
				Email:      input.Email,
				GradeLevel: input.GradeLevel,
				Status:     models.ApplicantPending,
			}, nil
		},
	}
	router := applicantRouter(service)

	body := `{"first_name":"Maria","last_name":"Cruz","email":"maria@family.test","grade_level":7}`
	req := httptest.NewRequest(http.MethodPost, "/applicants", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp ApplicantResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "pending", resp.Status)
}

func TestApprove_ReturnsStudent(t *testing.T) {
	service := &MockAdmissionService{
		ApproveFunc: func(ctx context.Context, id string) (*models.Student, error) {
			return &models.Student{ID: "student-1", StudentNo: "S-2026-0001", Status: models.StudentActive}, nil
		},
	}
	router := applicantRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/applicants/applicant-1/approve", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp StudentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "S-2026-0001", resp.StudentNo)
}

func TestApprove_AlreadyDecided(t *testing.T) {
	service := &MockAdmissionService{
		ApproveFunc: func(ctx context.Context, id string) (*models.Student, error) {
			return nil, models.ErrConflict
		},
	}
	router := applicantRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/applicants/applicant-1/approve", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
