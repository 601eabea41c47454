package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rcaluag/registrar/internal/models"
	"github.com/rcaluag/registrar/internal/services"
	pkghttp "github.com/rcaluag/registrar/pkg/http"
)

// AdmissionServiceInterface defines the applicant pipeline operations
type AdmissionServiceInterface interface {
	CreateApplicant(ctx context.Context, input services.ApplicantInput) (*models.Applicant, error)
	GetApplicant(ctx context.Context, id string) (*models.Applicant, error)
	ListApplicants(ctx context.Context, status models.ApplicantStatus, limit, offset int) ([]*models.Applicant, error)
	UpdateApplicant(ctx context.Context, id string, input services.ApplicantInput) (*models.Applicant, error)
	Approve(ctx context.Context, id string) (*models.Student, error)
	Reject(ctx context.Context, id string) error
	DeleteApplicant(ctx context.Context, id string) error
}

// AdmissionHandler handles the applicant pipeline HTTP requests
type AdmissionHandler struct {
	service AdmissionServiceInterface
}

func NewAdmissionHandler(service AdmissionServiceInterface) *AdmissionHandler {
	return &AdmissionHandler{service: service}
}

type ApplicantRequest struct {
	FirstName  string `json:"first_name" validate:"required,min=1,max=255"`
	LastName   string `json:"last_name" validate:"required,min=1,max=255"`
	Email      string `json:"email" validate:"required,email"`
	GradeLevel int    `json:"grade_level" validate:"required,gte=1,lte=12"`
	Notes      string `json:"notes" validate:"max=2000"`
}

type ApplicantResponse struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	GradeLevel int       `json:"grade_level"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type StudentResponse struct {
	ID         string  `json:"id"`
	StudentNo  string  `json:"student_no"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	GradeLevel int     `json:"grade_level"`
	SectionID  *string `json:"section_id,omitempty"`
	Status     string  `json:"status"`
}

func toApplicantResponse(a *models.Applicant) ApplicantResponse {
	return ApplicantResponse{
		ID:         a.ID,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Email:      a.Email,
		GradeLevel: a.GradeLevel,
		Status:     string(a.Status),
		Notes:      a.Notes,
		CreatedAt:  a.CreatedAt,
	}
}

func toStudentResponse(s *models.Student) StudentResponse {
	return StudentResponse{
		ID:         s.ID,
		StudentNo:  s.StudentNo,
		FirstName:  s.FirstName,
		LastName:   s.LastName,
		GradeLevel: s.GradeLevel,
		SectionID:  s.SectionID,
		Status:     string(s.Status),
	}
}

func (h *AdmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ApplicantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	applicant, err := h.service.CreateApplicant(r.Context(), services.ApplicantInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		GradeLevel: req.GradeLevel,
		Notes:      req.Notes,
	})
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, toApplicantResponse(applicant))
}

func (h *AdmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	status := models.ApplicantStatus(r.URL.Query().Get("status"))

	applicants, err := h.service.ListApplicants(r.Context(), status, limit, offset)
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}

	out := make([]ApplicantResponse, 0, len(applicants))
	for _, a := range applicants {
		out = append(out, toApplicantResponse(a))
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}

func (h *AdmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	applicant, err := h.service.GetApplicant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, toApplicantResponse(applicant))
}

func (h *AdmissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ApplicantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	applicant, err := h.service.UpdateApplicant(r.Context(), chi.URLParam(r, "id"), services.ApplicantInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		GradeLevel: req.GradeLevel,
		Notes:      req.Notes,
	})
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, toApplicantResponse(applicant))
}

// Approve decides an application and returns the freshly minted student
func (h *AdmissionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	student, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, toStudentResponse(student))
}

func (h *AdmissionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reject(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdmissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteApplicant(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
