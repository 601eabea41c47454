package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/rcaluag/registrar/internal/models"
)

// EnrollmentRepository covers enrollments and the grades hanging off them
type EnrollmentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Enrollment, error)
	ListBySection(ctx context.Context, sectionID, schoolYear string) ([]*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) (*models.Enrollment, error)
	SetStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
	UpsertGrade(ctx context.Context, grade *models.Grade) (*models.Grade, error)
	ListGrades(ctx context.Context, enrollmentID string) ([]*models.Grade, error)
}

// EnrollmentService handles enrolling students into sections, grade entry and
// the graduation transition.
type EnrollmentService struct {
	enrollments EnrollmentRepository
	students    StudentRepository
	catalog     CatalogRepository
	logger      *slog.Logger
}

func NewEnrollmentService(enrollments EnrollmentRepository, students StudentRepository, catalog CatalogRepository, logger *slog.Logger) *EnrollmentService {
	return &EnrollmentService{
		enrollments: enrollments,
		students:    students,
		catalog:     catalog,
		logger:      logger,
	}
}

type EnrollInput struct {
	StudentID  string
	SectionID  string
	SchoolYear string
}

// Enroll places an active student into a section for a school year. The
// capacity check is read-then-insert; the one-enrollment-per-year unique
// constraint is what actually holds under concurrency, so a section can
// transiently exceed capacity by the number of racing requests but a student
// can never hold two enrollments for the same year.
func (s *EnrollmentService) Enroll(ctx context.Context, input EnrollInput) (*models.Enrollment, error) {
	student, err := s.students.GetByID(ctx, input.StudentID)
	if err != nil {
		return nil, err
	}
	if student.Status != models.StudentActive {
		return nil, models.ErrConflict
	}

	section, err := s.catalog.GetSection(ctx, input.SectionID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.catalog.CountEnrolled(ctx, input.SectionID, input.SchoolYear)
	if err != nil {
		s.logger.Error("failed to count section enrollment", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if enrolled >= section.Capacity {
		return nil, models.ErrConflict
	}

	enrollment, err := s.enrollments.Create(ctx, &models.Enrollment{
		StudentID:  input.StudentID,
		SectionID:  input.SectionID,
		SchoolYear: input.SchoolYear,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("student enrolled",
		slog.String("student_id", input.StudentID),
		slog.String("section_id", input.SectionID),
		slog.String("school_year", input.SchoolYear))

	return enrollment, nil
}

// Drop marks an enrollment dropped. Only active enrollments can be dropped.
func (s *EnrollmentService) Drop(ctx context.Context, enrollmentID string) error {
	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return err
	}
	if enrollment.Status != models.EnrollmentEnrolled {
		return models.ErrConflict
	}

	return s.enrollments.SetStatus(ctx, enrollmentID, models.EnrollmentDropped)
}

// Complete closes out an enrollment at the end of the school year.
func (s *EnrollmentService) Complete(ctx context.Context, enrollmentID string) error {
	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return err
	}
	if enrollment.Status != models.EnrollmentEnrolled {
		return models.ErrConflict
	}

	return s.enrollments.SetStatus(ctx, enrollmentID, models.EnrollmentCompleted)
}

func (s *EnrollmentService) GetEnrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	return s.enrollments.GetByID(ctx, id)
}

func (s *EnrollmentService) ListBySection(ctx context.Context, sectionID, schoolYear string) ([]*models.Enrollment, error) {
	return s.enrollments.ListBySection(ctx, sectionID, schoolYear)
}

func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error) {
	return s.enrollments.ListByStudent(ctx, studentID)
}

// Grades

type GradeInput struct {
	EnrollmentID string
	SubjectID    string
	Quarter      int
	Score        float64
}

// RecordGrade writes or replaces the mark for one subject and quarter.
func (s *EnrollmentService) RecordGrade(ctx context.Context, input GradeInput) (*models.Grade, error) {
	if input.Quarter < 1 || input.Quarter > 4 {
		return nil, models.ErrBadRequest
	}
	if input.Score < 0 || input.Score > 100 {
		return nil, models.ErrBadRequest
	}

	enrollment, err := s.enrollments.GetByID(ctx, input.EnrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.Status == models.EnrollmentDropped {
		return nil, models.ErrConflict
	}

	if _, err := s.catalog.GetSubject(ctx, input.SubjectID); err != nil {
		return nil, err
	}

	return s.enrollments.UpsertGrade(ctx, &models.Grade{
		EnrollmentID: input.EnrollmentID,
		SubjectID:    input.SubjectID,
		Quarter:      input.Quarter,
		Score:        input.Score,
	})
}

func (s *EnrollmentService) ListGrades(ctx context.Context, enrollmentID string) ([]*models.Grade, error) {
	if _, err := s.enrollments.GetByID(ctx, enrollmentID); err != nil {
		return nil, err
	}
	return s.enrollments.ListGrades(ctx, enrollmentID)
}

// Graduate records the student as alumni and archives the registry record.
// The unique alumni constraint makes a second graduation a conflict before
// anything is archived.
func (s *EnrollmentService) Graduate(ctx context.Context, studentID string) (*models.Alumni, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.Status != models.StudentActive {
		return nil, models.ErrConflict
	}

	alumni, err := s.students.CreateAlumni(ctx, &models.Alumni{
		StudentID:     studentID,
		GraduatedYear: time.Now().Year(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.students.SetStatus(ctx, studentID, models.StudentArchived); err != nil {
		s.logger.Error("failed to archive graduated student",
			slog.String("student_id", studentID), slog.Any("error", err))
		return nil, err
	}

	s.logger.Info("student graduated",
		slog.String("student_id", studentID),
		slog.Int("year", alumni.GraduatedYear))

	return alumni, nil
}
