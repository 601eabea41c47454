package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rcaluag/registrar/internal/models"
)

// ApplicantRepository covers the admission pipeline store
type ApplicantRepository interface {
	GetByID(ctx context.Context, id string) (*models.Applicant, error)
	List(ctx context.Context, status models.ApplicantStatus, limit, offset int) ([]*models.Applicant, error)
	Create(ctx context.Context, applicant *models.Applicant) (*models.Applicant, error)
	Update(ctx context.Context, id string, applicant *models.Applicant) (*models.Applicant, error)
	SetStatusIfPending(ctx context.Context, id string, status models.ApplicantStatus) error
	ApproveIntoStudent(ctx context.Context, id string, student *models.Student) (*models.Student, error)
	Delete(ctx context.Context, id string) error
}

// StudentRepository covers the student registry store
type StudentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Student, error)
	GetByStudentNo(ctx context.Context, studentNo string) (*models.Student, error)
	List(ctx context.Context, limit, offset int) ([]*models.Student, error)
	NextSequence(ctx context.Context, prefix string) (int, error)
	Update(ctx context.Context, id string, student *models.Student) (*models.Student, error)
	SetStatus(ctx context.Context, id string, status models.StudentStatus) error
	CreateAlumni(ctx context.Context, alumni *models.Alumni) (*models.Alumni, error)
	ListAlumni(ctx context.Context, limit, offset int) ([]*models.Alumni, error)
}

// AdmissionService runs the applicant pipeline from submission to decision.
// Approval creates the student registry record and issues a student number.
type AdmissionService struct {
	applicants ApplicantRepository
	students   StudentRepository
	email      EmailService
	logger     *slog.Logger
}

func NewAdmissionService(applicants ApplicantRepository, students StudentRepository, email EmailService, logger *slog.Logger) *AdmissionService {
	return &AdmissionService{
		applicants: applicants,
		students:   students,
		email:      email,
		logger:     logger,
	}
}

type ApplicantInput struct {
	FirstName  string
	LastName   string
	Email      string
	GradeLevel int
	Notes      string
}

func (s *AdmissionService) CreateApplicant(ctx context.Context, input ApplicantInput) (*models.Applicant, error) {
	return s.applicants.Create(ctx, &models.Applicant{
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Email:      input.Email,
		GradeLevel: input.GradeLevel,
		Notes:      input.Notes,
	})
}

func (s *AdmissionService) GetApplicant(ctx context.Context, id string) (*models.Applicant, error) {
	return s.applicants.GetByID(ctx, id)
}

func (s *AdmissionService) ListApplicants(ctx context.Context, status models.ApplicantStatus, limit, offset int) ([]*models.Applicant, error) {
	if status != "" {
		switch status {
		case models.ApplicantPending, models.ApplicantApproved, models.ApplicantRejected:
		default:
			return nil, models.ErrBadRequest
		}
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.applicants.List(ctx, status, limit, offset)
}

func (s *AdmissionService) UpdateApplicant(ctx context.Context, id string, input ApplicantInput) (*models.Applicant, error) {
	applicant, err := s.applicants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if applicant.Status != models.ApplicantPending {
		return nil, models.ErrConflict
	}

	applicant.FirstName = input.FirstName
	applicant.LastName = input.LastName
	applicant.Email = input.Email
	applicant.GradeLevel = input.GradeLevel
	applicant.Notes = input.Notes

	return s.applicants.Update(ctx, id, applicant)
}

// Approve decides a pending application and creates the student record. The
// status flip and the student insert commit or roll back together, so a
// failed insert leaves the applicant pending and retryable; the flip stays
// conditional on the pending status, so two admins racing on the same
// applicant produce exactly one student.
func (s *AdmissionService) Approve(ctx context.Context, id string) (*models.Student, error) {
	applicant, err := s.applicants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	studentNo, err := s.nextStudentNo(ctx)
	if err != nil {
		s.logger.Error("failed to generate student number", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	student, err := s.applicants.ApproveIntoStudent(ctx, id, &models.Student{
		StudentNo:  studentNo,
		FirstName:  applicant.FirstName,
		LastName:   applicant.LastName,
		GradeLevel: applicant.GradeLevel,
	})
	if err != nil {
		return nil, err
	}
	applicant.Status = models.ApplicantApproved

	s.logger.Info("applicant approved",
		slog.String("applicant_id", id),
		slog.String("student_no", student.StudentNo))

	// Decision notice is best-effort; the admission stands even if the mail
	// bounces.
	if err := s.email.SendAdmissionDecision(ctx, applicant); err != nil {
		s.logger.Warn("failed to send approval notice", slog.String("applicant_id", id), slog.Any("error", err))
	}

	return student, nil
}

// Reject decides a pending application without creating a student.
func (s *AdmissionService) Reject(ctx context.Context, id string) error {
	applicant, err := s.applicants.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.applicants.SetStatusIfPending(ctx, id, models.ApplicantRejected); err != nil {
		return err
	}
	applicant.Status = models.ApplicantRejected

	s.logger.Info("applicant rejected", slog.String("applicant_id", id))

	if err := s.email.SendAdmissionDecision(ctx, applicant); err != nil {
		s.logger.Warn("failed to send rejection notice", slog.String("applicant_id", id), slog.Any("error", err))
	}

	return nil
}

func (s *AdmissionService) DeleteApplicant(ctx context.Context, id string) error {
	applicant, err := s.applicants.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if applicant.Status != models.ApplicantPending {
		return models.ErrConflict
	}
	return s.applicants.Delete(ctx, id)
}

// nextStudentNo builds "S-<year>-<seq>" from a per-year counter.
func (s *AdmissionService) nextStudentNo(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("S-%d-", time.Now().Year())
	seq, err := s.students.NextSequence(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}
