package models

import (
	"time"
)

// Role is the single role tag assigned to every user account.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether the role is one of the known set. An account whose
// role fails this check is rejected by the role router's default arm.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	ArchivedAt   *time.Time // Soft archive; archived users cannot authenticate
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CheckRecord verifies the basic invariants every hydrated user row must
// satisfy. A violation means the credential store handed back something that
// is not a usable identity and is treated as an internal inconsistency, not
// a user-correctable failure.
func (u *User) CheckRecord() error {
	if u == nil || u.ID == "" || u.Email == "" {
		return ErrIdentityMismatch
	}
	return nil
}
