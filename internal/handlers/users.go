package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rcaluag/registrar/internal/auth"
	"github.com/rcaluag/registrar/internal/models"
	"github.com/rcaluag/registrar/internal/services"
	pkghttp "github.com/rcaluag/registrar/pkg/http"
)

// UserServiceInterface defines account and teacher profile management
type UserServiceInterface interface {
	CreateUser(ctx context.Context, input services.CreateUserInput) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateUser(ctx context.Context, id string, input services.UpdateUserInput) (*models.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	ArchiveUser(ctx context.Context, id string) error
	CreateTeacherProfile(ctx context.Context, input services.CreateTeacherProfileInput) (*models.TeacherProfile, error)
	ListTeacherProfiles(ctx context.Context, limit, offset int) ([]*models.TeacherProfile, error)
	SetTeacherProfileArchived(ctx context.Context, profileID string, archived bool) error
}

// UserHandler handles account management HTTP requests
type UserHandler struct {
	service UserServiceInterface
}

func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Role     string `json:"role" validate:"required,oneof=admin teacher student"`
}

type UpdateUserRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Name  string `json:"name" validate:"omitempty,min=1,max=255"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type CreateTeacherProfileRequest struct {
	UserID     string `json:"user_id" validate:"required"`
	EmployeeNo string `json:"employee_no" validate:"required"`
	Department string `json:"department" validate:"required"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: string(u.Role)}
}

type TeacherProfileResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	EmployeeNo string `json:"employee_no"`
	Department string `json:"department"`
	Archived   bool   `json:"archived"`
}

func toTeacherProfileResponse(p *models.TeacherProfile) TeacherProfileResponse {
	return TeacherProfileResponse{
		ID:         p.ID,
		UserID:     p.UserID,
		EmployeeNo: p.EmployeeNo,
		Department: p.Department,
		Archived:   p.IsArchived,
	}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.CreateUser(r.Context(), services.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	users, err := h.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.UpdateUser(r.Context(), chi.URLParam(r, "id"), services.UpdateUserInput{
		Email: req.Email,
		Name:  req.Name,
	})
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) Archive(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ArchiveUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword lets the authenticated user rotate their own password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal := auth.GetPrincipal(r)
	if principal == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ChangePassword(r.Context(), principal.User.ID, req.CurrentPassword, req.NewPassword); err != nil {
		if err == models.ErrInvalidCredentials {
			pkghttp.WriteUnauthorized(w, "Current password is incorrect")
			return
		}
		writeServiceError(w, err, "Unauthorized")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Teacher profiles

func (h *UserHandler) CreateTeacherProfile(w http.ResponseWriter, r *http.Request) {
	var req CreateTeacherProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	profile, err := h.service.CreateTeacherProfile(r.Context(), services.CreateTeacherProfileInput{
		UserID:     req.UserID,
		EmployeeNo: req.EmployeeNo,
		Department: req.Department,
	})
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, toTeacherProfileResponse(profile))
}

func (h *UserHandler) ListTeacherProfiles(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	profiles, err := h.service.ListTeacherProfiles(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	out := make([]TeacherProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toTeacherProfileResponse(p))
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}

type SetArchivedRequest struct {
	Archived bool `json:"archived"`
}

func (h *UserHandler) SetTeacherProfileArchived(w http.ResponseWriter, r *http.Request) {
	var req SetArchivedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.service.SetTeacherProfileArchived(r.Context(), chi.URLParam(r, "id"), req.Archived); err != nil {
		writeServiceError(w, err, "Unauthorized")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
