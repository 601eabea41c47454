package models

import "time"

// StudentStatus distinguishes active students from archived ones. Archiving
// happens on graduation or withdrawal; archived students keep their records.
type StudentStatus string

const (
	StudentActive   StudentStatus = "active"
	StudentArchived StudentStatus = "archived"
)

type Student struct {
	ID         string
	UserID     *string // set once the student receives a portal account
	StudentNo  string
	FirstName  string
	LastName   string
	GradeLevel int
	SectionID  *string
	Status     StudentStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Alumni records a graduated student. One row per student, created by the
// graduate transition which also archives the student.
type Alumni struct {
	ID            string
	StudentID     string
	GraduatedYear int
	CreatedAt     time.Time
}
