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

// RegistryServiceInterface defines catalog and roster management
type RegistryServiceInterface interface {
	CreateSection(ctx context.Context, input services.SectionInput) (*models.Section, error)
	GetSection(ctx context.Context, id string) (*models.Section, error)
	ListSections(ctx context.Context, limit, offset int) ([]*models.Section, error)
	UpdateSection(ctx context.Context, id string, input services.SectionInput) (*models.Section, error)
	DeleteSection(ctx context.Context, id string) error

	CreateClassGroup(ctx context.Context, input services.ClassGroupInput) (*models.ClassGroup, error)
	ListClassGroups(ctx context.Context, schoolYear string, limit, offset int) ([]*models.ClassGroup, error)
	DeleteClassGroup(ctx context.Context, id string) error

	CreateSubject(ctx context.Context, input services.SubjectInput) (*models.Subject, error)
	ListSubjects(ctx context.Context, limit, offset int) ([]*models.Subject, error)
	UpdateSubject(ctx context.Context, id string, input services.SubjectInput) (*models.Subject, error)
	DeleteSubject(ctx context.Context, id string) error

	GetStudent(ctx context.Context, id string) (*models.Student, error)
	ListStudents(ctx context.Context, limit, offset int) ([]*models.Student, error)
	UpdateStudent(ctx context.Context, id string, input services.StudentInput) (*models.Student, error)
	ListAlumni(ctx context.Context, limit, offset int) ([]*models.Alumni, error)
}

// RegistryHandler handles catalog and roster HTTP requests
type RegistryHandler struct {
	service RegistryServiceInterface
}

func NewRegistryHandler(service RegistryServiceInterface) *RegistryHandler {
	return &RegistryHandler{service: service}
}

type SectionRequest struct {
	Name       string  `json:"name" validate:"required,min=1,max=255"`
	GradeLevel int     `json:"grade_level" validate:"required,gte=1,lte=12"`
	AdviserID  *string `json:"adviser_id"`
	Capacity   int     `json:"capacity" validate:"omitempty,gte=1,lte=100"`
}

type SectionResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	GradeLevel int     `json:"grade_level"`
	AdviserID  *string `json:"adviser_id,omitempty"`
	Capacity   int     `json:"capacity"`
}

func toSectionResponse(s *models.Section) SectionResponse {
	return SectionResponse{
		ID:         s.ID,
		Name:       s.Name,
		GradeLevel: s.GradeLevel,
		AdviserID:  s.AdviserID,
		Capacity:   s.Capacity,
	}
}

func (h *RegistryHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	var req SectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	section, err := h.service.CreateSection(r.Context(), services.SectionInput{
		Name:       req.Name,
		GradeLevel: req.GradeLevel,
		AdviserID:  req.AdviserID,
		Capacity:   req.Capacity,
	})
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, toSectionResponse(section))
}

func (h *RegistryHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	sections, err := h.service.ListSections(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}

	out := make([]SectionResponse, 0, len(sections))
	for _, s := range sections {
		out = append(out, toSectionResponse(s))
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}

func (h *RegistryHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	section, err := h.service.GetSection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, toSectionResponse(section))
}

func (h *RegistryHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	var req SectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	section, err := h.service.UpdateSection(r.Context(), chi.URLParam(r, "id"), services.SectionInput{
		Name:       req.Name,
		GradeLevel: req.GradeLevel,
		AdviserID:  req.AdviserID,
		Capacity:   req.Capacity,
	})
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, toSectionResponse(section))
}

func (h *RegistryHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSection(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Class groups

type ClassGroupRequest struct {
	SectionID  string `json:"section_id" validate:"required"`
	SchoolYear string `json:"school_year" validate:"required,min=4,max=20"`
	Name       string `json:"name" validate:"required,min=1,max=255"`
}

type ClassGroupResponse struct {
	ID         string `json:"id"`
	SectionID  string `json:"section_id"`
	SchoolYear string `json:"school_year"`
	Name       string `json:"name"`
}

func toClassGroupResponse(g *models.ClassGroup) ClassGroupResponse {
	return ClassGroupResponse{ID: g.ID, SectionID: g.SectionID, SchoolYear: g.SchoolYear, Name: g.Name}
}

func (h *RegistryHandler) CreateClassGroup(w http.ResponseWriter, r *http.Request) {
	var req ClassGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	group, err := h.service.CreateClassGroup(r.Context(), services.ClassGroupInput{
		SectionID:  req.SectionID,
		SchoolYear: req.SchoolYear,
		Name:       req.Name,
	})
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, toClassGroupResponse(group))
}

func (h *RegistryHandler) ListClassGroups(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	groups, err := h.service.ListClassGroups(r.Context(), r.URL.Query().Get("school_year"), limit, offset)
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}

	out := make([]ClassGroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toClassGroupResponse(g))
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}

func (h *RegistryHandler) DeleteClassGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteClassGroup(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Subjects

type SubjectRequest struct {
	Code  string `json:"code" validate:"required,min=1,max=32"`
	Title string `json:"title" validate:"required,min=1,max=255"`
	Units int    `json:"units" validate:"omitempty,gte=1,lte=10"`
}

type SubjectResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Title string `json:"title"`
	Units int    `json:"units"`
}

func toSubjectResponse(s *models.Subject) SubjectResponse {
	return SubjectResponse{ID: s.ID, Code: s.Code, Title: s.Title, Units: s.Units}
}

func (h *RegistryHandler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	var req SubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	subject, err := h.service.CreateSubject(r.Context(), services.SubjectInput{
		Code:  req.Code,
		Title: req.Title,
		Units: req.Units,
	})
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, toSubjectResponse(subject))
}

func (h *RegistryHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	subjects, err := h.service.ListSubjects(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}

	out := make([]SubjectResponse, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, toSubjectResponse(s))
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}

func (h *RegistryHandler) UpdateSubject(w http.ResponseWriter, r *http.Request) {
	var req SubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	subject, err := h.service.UpdateSubject(r.Context(), chi.URLParam(r, "id"), services.SubjectInput{
		Code:  req.Code,
		Title: req.Title,
		Units: req.Units,
	})
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, toSubjectResponse(subject))
}

func (h *RegistryHandler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSubject(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Students and alumni

type StudentUpdateRequest struct {
	FirstName  string  `json:"first_name" validate:"required,min=1,max=255"`
	LastName   string  `json:"last_name" validate:"required,min=1,max=255"`
	GradeLevel int     `json:"grade_level" validate:"required,gte=1,lte=12"`
	SectionID  *string `json:"section_id"`
}

func (h *RegistryHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	students, err := h.service.ListStudents(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}

	out := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, toStudentResponse(s))
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}

func (h *RegistryHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.service.GetStudent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, toStudentResponse(student))
}

func (h *RegistryHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req StudentUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	student, err := h.service.UpdateStudent(r.Context(), chi.URLParam(r, "id"), services.StudentInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		GradeLevel: req.GradeLevel,
		SectionID:  req.SectionID,
	})
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, toStudentResponse(student))
}

type AlumniResponse struct {
	ID            string `json:"id"`
	StudentID     string `json:"student_id"`
	GraduatedYear int    `json:"graduated_year"`
}

func (h *RegistryHandler) ListAlumni(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	alumni, err := h.service.ListAlumni(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}

	out := make([]AlumniResponse, 0, len(alumni))
	for _, a := range alumni {
		out = append(out, AlumniResponse{ID: a.ID, StudentID: a.StudentID, GraduatedYear: a.GraduatedYear})
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}
