package models

import "time"

// ApplicantStatus tracks an application through the admission decision.
type ApplicantStatus string

const (
	ApplicantPending  ApplicantStatus = "pending"
	ApplicantApproved ApplicantStatus = "approved"
	ApplicantRejected ApplicantStatus = "rejected"
)

// Applicant is a prospective student awaiting an admission decision.
type Applicant struct {
	ID         string
	FirstName  string
	LastName   string
	Email      string
	GradeLevel int
	Status     ApplicantStatus
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
