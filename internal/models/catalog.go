package models

import "time"

// Section is a homeroom unit within a grade level, optionally assigned an
// adviser from the teacher roster.
type Section struct {
	ID         string
	Name       string
	GradeLevel int
	AdviserID  *string // teacher_profiles FK
	Capacity   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ClassGroup is a section's cohort for one school year.
type ClassGroup struct {
	ID         string
	SectionID  string
	SchoolYear string // e.g. "2026-2027"
	Name       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Subject struct {
	ID        string
	Code      string
	Title     string
	Units     int
	CreatedAt time.Time
	UpdatedAt time.Time
}
