package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rcaluag/registrar/internal/models"
	pkgauth "github.com/rcaluag/registrar/pkg/auth"
	pkghttp "github.com/rcaluag/registrar/pkg/http"
)

// writeServiceError maps service-layer sentinel errors onto HTTP responses.
// unauthorizedMsg replaces the generic text for ErrUnauthorized so endpoints
// can keep their own phrasing without leaking internals.
func writeServiceError(w http.ResponseWriter, err error, unauthorizedMsg string) {
	var passwordErr *pkgauth.PasswordValidationError

	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Resource not found")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Conflicting state")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, unauthorizedMsg)
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Forbidden")
	case errors.As(err, &passwordErr):
		pkghttp.WriteBadRequest(w, passwordErr.Error())
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// parsePagination reads limit/offset query parameters with sane defaults
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
