package models

import "time"

// TeacherProfile is the registry record backing a teacher account. Login for
// a teacher role requires an existing, non-archived profile.
type TeacherProfile struct {
	ID         string
	UserID     string
	EmployeeNo string
	Department string
	IsArchived bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
