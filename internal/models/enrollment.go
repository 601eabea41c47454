package models

import "time"

// EnrollmentStatus tracks an enrollment through a school year.
type EnrollmentStatus string

const (
	EnrollmentEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentDropped   EnrollmentStatus = "dropped"
	EnrollmentCompleted EnrollmentStatus = "completed"
)

// Enrollment places a student into a section for one school year. A student
// holds at most one enrollment per school year.
type Enrollment struct {
	ID         string
	StudentID  string
	SectionID  string
	SchoolYear string
	Status     EnrollmentStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Grade is one quarter mark for a subject under an enrollment.
type Grade struct {
	ID           string
	EnrollmentID string
	SubjectID    string
	Quarter      int     // 1..4
	Score        float64 // 0..100
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
