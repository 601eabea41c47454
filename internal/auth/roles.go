package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rcaluag/registrar/internal/models"
)

// Landing destinations per role.
const (
	DestAdminDashboard   = "/admin/dashboard"
	DestTeacherDashboard = "/teacher/dashboard"
	DestStudentHome      = "/student/home"
)

// Rejection messages surfaced to the user. Only the text distinguishes the
// outcome classes; the response shape is identical to a credential failure.
const (
	ReasonTeacherProfileMissing = "Teacher profile not found"
	ReasonAccountArchived       = "Account archived"
	ReasonUnauthorizedRole      = "Unauthorized role"
)

// Decision is the role router's verdict: either admitted to a destination or
// rejected with a user-facing reason. A Rejected decision obliges the caller
// to tear down the session it just established before responding.
type Decision struct {
	Admitted    bool
	Destination string
	Reason      string
}

// TeacherProfileStore looks up the profile precondition for teacher logins
type TeacherProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error)
}

// RoleRouter maps an authenticated identity to a landing destination,
// enforcing role-specific preconditions along the way.
type RoleRouter struct {
	profiles TeacherProfileStore
}

func NewRoleRouter(profiles TeacherProfileStore) *RoleRouter {
	return &RoleRouter{profiles: profiles}
}

// Route evaluates the transition rules in order. intendedURL is the path the
// user originally requested; only the admin path honors it. Teachers and
// students always land on their fixed route.
func (rr *RoleRouter) Route(ctx context.Context, user *models.User, intendedURL string) (Decision, error) {
	switch user.Role {
	case models.RoleAdmin:
		dest := DestAdminDashboard
		if safeRedirectPath(intendedURL) {
			dest = intendedURL
		}
		return Decision{Admitted: true, Destination: dest}, nil

	case models.RoleTeacher:
		profile, err := rr.profiles.GetByUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return Decision{Reason: ReasonTeacherProfileMissing}, nil
			}
			return Decision{}, err
		}
		if profile.IsArchived {
			return Decision{Reason: ReasonAccountArchived}, nil
		}
		return Decision{Admitted: true, Destination: DestTeacherDashboard}, nil

	case models.RoleStudent:
		return Decision{Admitted: true, Destination: DestStudentHome}, nil

	default:
		return Decision{Reason: ReasonUnauthorizedRole}, nil
	}
}

// safeRedirectPath admits only local absolute paths as intended-URL targets,
// never protocol-relative or absolute URLs.
func safeRedirectPath(path string) bool {
	return path != "" && strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//")
}
