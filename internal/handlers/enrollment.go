package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rcaluag/registrar/internal/models"
	"github.com/rcaluag/registrar/internal/services"
	pkghttp "github.com/rcaluag/registrar/pkg/http"
)

// EnrollmentServiceInterface defines enrollment, grading and graduation
type EnrollmentServiceInterface interface {
	Enroll(ctx context.Context, input services.EnrollInput) (*models.Enrollment, error)
	Drop(ctx context.Context, enrollmentID string) error
	Complete(ctx context.Context, enrollmentID string) error
	GetEnrollment(ctx context.Context, id string) (*models.Enrollment, error)
	ListBySection(ctx context.Context, sectionID, schoolYear string) ([]*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error)
	RecordGrade(ctx context.Context, input services.GradeInput) (*models.Grade, error)
	ListGrades(ctx context.Context, enrollmentID string) ([]*models.Grade, error)
	Graduate(ctx context.Context, studentID string) (*models.Alumni, error)
}

// EnrollmentHandler handles enrollment and grading HTTP requests
type EnrollmentHandler struct {
	service EnrollmentServiceInterface
}

func NewEnrollmentHandler(service EnrollmentServiceInterface) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

type EnrollRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	SectionID  string `json:"section_id" validate:"required"`
	SchoolYear string `json:"school_year" validate:"required,min=4,max=20"`
}

type EnrollmentResponse struct {
	ID         string `json:"id"`
	StudentID  string `json:"student_id"`
	SectionID  string `json:"section_id"`
	SchoolYear string `json:"school_year"`
	Status     string `json:"status"`
}

func toEnrollmentResponse(e *models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:         e.ID,
		StudentID:  e.StudentID,
		SectionID:  e.SectionID,
		SchoolYear: e.SchoolYear,
		Status:     string(e.Status),
	}
}

func (h *EnrollmentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	enrollment, err := h.service.Enroll(r.Context(), services.EnrollInput{
		StudentID:  req.StudentID,
		SectionID:  req.SectionID,
		SchoolYear: req.SchoolYear,
	})
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, toEnrollmentResponse(enrollment))
}

func (h *EnrollmentHandler) Drop(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Drop(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EnrollmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Complete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EnrollmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	enrollment, err := h.service.GetEnrollment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, toEnrollmentResponse(enrollment))
}

// List filters by section+school_year or by student
func (h *EnrollmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		enrollments []*models.Enrollment
		err         error
	)

	switch {
	case q.Get("student_id") != "":
		enrollments, err = h.service.ListByStudent(r.Context(), q.Get("student_id"))
	case q.Get("section_id") != "" && q.Get("school_year") != "":
		enrollments, err = h.service.ListBySection(r.Context(), q.Get("section_id"), q.Get("school_year"))
	default:
		pkghttp.WriteBadRequest(w, "student_id or section_id+school_year is required")
		return
	}
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}

	out := make([]EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		out = append(out, toEnrollmentResponse(e))
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}

// Grades

type GradeRequest struct {
	SubjectID string  `json:"subject_id" validate:"required"`
	Quarter   int     `json:"quarter" validate:"required,gte=1,lte=4"`
	Score     float64 `json:"score" validate:"gte=0,lte=100"`
}

type GradeResponse struct {
	ID           string  `json:"id"`
	EnrollmentID string  `json:"enrollment_id"`
	SubjectID    string  `json:"subject_id"`
	Quarter      int     `json:"quarter"`
	Score        float64 `json:"score"`
}

func toGradeResponse(g *models.Grade) GradeResponse {
	return GradeResponse{
		ID:           g.ID,
		EnrollmentID: g.EnrollmentID,
		SubjectID:    g.SubjectID,
		Quarter:      g.Quarter,
		Score:        g.Score,
	}
}

func (h *EnrollmentHandler) RecordGrade(w http.ResponseWriter, r *http.Request) {
	var req GradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	grade, err := h.service.RecordGrade(r.Context(), services.GradeInput{
		EnrollmentID: chi.URLParam(r, "id"),
		SubjectID:    req.SubjectID,
		Quarter:      req.Quarter,
		Score:        req.Score,
	})
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, toGradeResponse(grade))
}

func (h *EnrollmentHandler) ListGrades(w http.ResponseWriter, r *http.Request) {
	grades, err := h.service.ListGrades(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}

	out := make([]GradeResponse, 0, len(grades))
	for _, g := range grades {
		out = append(out, toGradeResponse(g))
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}

// Graduate archives the student and records the alumni row
func (h *EnrollmentHandler) Graduate(w http.ResponseWriter, r *http.Request) {
	alumni, err := h.service.Graduate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, AlumniResponse{
		ID:            alumni.ID,
		StudentID:     alumni.StudentID,
		GraduatedYear: alumni.GraduatedYear,
	})
}
