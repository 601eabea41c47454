package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Authentication outcome errors
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrIdentityMismatch      = errors.New("authenticated identity is not a recognized user record")
	ErrTeacherProfileMissing = errors.New("teacher profile not found")
	ErrAccountArchived       = errors.New("account archived")
	ErrUnknownRole           = errors.New("unauthorized role")
)
