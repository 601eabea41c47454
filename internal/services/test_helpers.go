package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/rcaluag/registrar/internal/models"
	pkglogger "github.com/rcaluag/registrar/pkg/logger"
)

// Mock repositories with overridable function fields, shared by the service
// tests in this package.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(testLogger())
}

type MockUserRepository struct {
	GetByIDFunc        func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	ListFunc           func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CreateFunc         func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc         func(ctx context.Context, id string, user *models.User) (*models.User, error)
	UpdatePasswordFunc func(ctx context.Context, id, passwordHash string) error
	ArchiveFunc        func(ctx context.Context, id string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return user, nil
}

func (m *MockUserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, user)
	}
	return user, nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) Archive(ctx context.Context, id string) error {
	if m.ArchiveFunc != nil {
		return m.ArchiveFunc(ctx, id)
	}
	return nil
}

type MockSessionRepository struct {
	CreateFunc         func(ctx context.Context, session *models.Session) (*models.Session, error)
	GetByTokenHashFunc func(ctx context.Context, tokenHash string) (*models.Session, error)
	DeleteFunc         func(ctx context.Context, id string) error
	DeleteByUserIDFunc func(ctx context.Context, userID string) error
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	session.ID = "session-1"
	return session, nil
}

func (m *MockSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	if m.GetByTokenHashFunc != nil {
		return m.GetByTokenHashFunc(ctx, tokenHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockSessionRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockSessionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if m.DeleteByUserIDFunc != nil {
		return m.DeleteByUserIDFunc(ctx, userID)
	}
	return nil
}

type MockLoginAttemptLog struct {
	RecordPendingFunc     func(ctx context.Context, email, ipAddress string, meta models.DeviceMeta) (string, error)
	MarkLatestPendingFunc func(ctx context.Context, email, ipAddress string, outcome models.AttemptStatus) error
	CountByStatusFunc     func(ctx context.Context, email string, status models.AttemptStatus, since time.Time) (int, error)
}

func (m *MockLoginAttemptLog) RecordPending(ctx context.Context, email, ipAddress string, meta models.DeviceMeta) (string, error) {
	if m.RecordPendingFunc != nil {
		return m.RecordPendingFunc(ctx, email, ipAddress, meta)
	}
	return "attempt-1", nil
}

func (m *MockLoginAttemptLog) MarkLatestPending(ctx context.Context, email, ipAddress string, outcome models.AttemptStatus) error {
	if m.MarkLatestPendingFunc != nil {
		return m.MarkLatestPendingFunc(ctx, email, ipAddress, outcome)
	}
	return nil
}

func (m *MockLoginAttemptLog) CountByStatus(ctx context.Context, email string, status models.AttemptStatus, since time.Time) (int, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx, email, status, since)
	}
	return 0, nil
}

type MockTeacherProfileRepository struct {
	GetByIDFunc     func(ctx context.Context, id string) (*models.TeacherProfile, error)
	GetByUserIDFunc func(ctx context.Context, userID string) (*models.TeacherProfile, error)
	ListFunc        func(ctx context.Context, limit, offset int) ([]*models.TeacherProfile, error)
	CreateFunc      func(ctx context.Context, profile *models.TeacherProfile) (*models.TeacherProfile, error)
	UpdateFunc      func(ctx context.Context, id string, profile *models.TeacherProfile) (*models.TeacherProfile, error)
	SetArchivedFunc func(ctx context.Context, id string, archived bool) error
}

func (m *MockTeacherProfileRepository) GetByID(ctx context.Context, id string) (*models.TeacherProfile, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockTeacherProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockTeacherProfileRepository) List(ctx context.Context, limit, offset int) ([]*models.TeacherProfile, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockTeacherProfileRepository) Create(ctx context.Context, profile *models.TeacherProfile) (*models.TeacherProfile, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, profile)
	}
	return profile, nil
}

func (m *MockTeacherProfileRepository) Update(ctx context.Context, id string, profile *models.TeacherProfile) (*models.TeacherProfile, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, profile)
	}
	return profile, nil
}

func (m *MockTeacherProfileRepository) SetArchived(ctx context.Context, id string, archived bool) error {
	if m.SetArchivedFunc != nil {
		return m.SetArchivedFunc(ctx, id, archived)
	}
	return nil
}

type MockApplicantRepository struct {
	GetByIDFunc            func(ctx context.Context, id string) (*models.Applicant, error)
	ListFunc               func(ctx context.Context, status models.ApplicantStatus, limit, offset int) ([]*models.Applicant, error)
	CreateFunc             func(ctx context.Context, applicant *models.Applicant) (*models.Applicant, error)
	UpdateFunc             func(ctx context.Context, id string, applicant *models.Applicant) (*models.Applicant, error)
	SetStatusIfPendingFunc func(ctx context.Context, id string, status models.ApplicantStatus) error
	ApproveIntoStudentFunc func(ctx context.Context, id string, student *models.Student) (*models.Student, error)
	DeleteFunc             func(ctx context.Context, id string) error
}

func (m *MockApplicantRepository) GetByID(ctx context.Context, id string) (*models.Applicant, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockApplicantRepository) List(ctx context.Context, status models.ApplicantStatus, limit, offset int) ([]*models.Applicant, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, status, limit, offset)
	}
	return nil, nil
}

func (m *MockApplicantRepository) Create(ctx context.Context, applicant *models.Applicant) (*models.Applicant, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, applicant)
	}
	applicant.ID = "applicant-1"
	applicant.Status = models.ApplicantPending
	return applicant, nil
}

func (m *MockApplicantRepository) Update(ctx context.Context, id string, applicant *models.Applicant) (*models.Applicant, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, applicant)
	}
	return applicant, nil
}

func (m *MockApplicantRepository) SetStatusIfPending(ctx context.Context, id string, status models.ApplicantStatus) error {
	if m.SetStatusIfPendingFunc != nil {
		return m.SetStatusIfPendingFunc(ctx, id, status)
	}
	return nil
}

func (m *MockApplicantRepository) ApproveIntoStudent(ctx context.Context, id string, student *models.Student) (*models.Student, error) {
	if m.ApproveIntoStudentFunc != nil {
		return m.ApproveIntoStudentFunc(ctx, id, student)
	}
	student.ID = "student-1"
	student.Status = models.StudentActive
	return student, nil
}

func (m *MockApplicantRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type MockStudentRepository struct {
	GetByIDFunc        func(ctx context.Context, id string) (*models.Student, error)
	GetByStudentNoFunc func(ctx context.Context, studentNo string) (*models.Student, error)
	ListFunc           func(ctx context.Context, limit, offset int) ([]*models.Student, error)
	NextSequenceFunc   func(ctx context.Context, prefix string) (int, error)
	UpdateFunc         func(ctx context.Context, id string, student *models.Student) (*models.Student, error)
	SetStatusFunc      func(ctx context.Context, id string, status models.StudentStatus) error
	CreateAlumniFunc   func(ctx context.Context, alumni *models.Alumni) (*models.Alumni, error)
	ListAlumniFunc     func(ctx context.Context, limit, offset int) ([]*models.Alumni, error)
}

func (m *MockStudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockStudentRepository) GetByStudentNo(ctx context.Context, studentNo string) (*models.Student, error) {
	if m.GetByStudentNoFunc != nil {
		return m.GetByStudentNoFunc(ctx, studentNo)
	}
	return nil, models.ErrNotFound
}

func (m *MockStudentRepository) List(ctx context.Context, limit, offset int) ([]*models.Student, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockStudentRepository) NextSequence(ctx context.Context, prefix string) (int, error) {
	if m.NextSequenceFunc != nil {
		return m.NextSequenceFunc(ctx, prefix)
	}
	return 1, nil
}

func (m *MockStudentRepository) Update(ctx context.Context, id string, student *models.Student) (*models.Student, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, student)
	}
	return student, nil
}

func (m *MockStudentRepository) SetStatus(ctx context.Context, id string, status models.StudentStatus) error {
	if m.SetStatusFunc != nil {
		return m.SetStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockStudentRepository) CreateAlumni(ctx context.Context, alumni *models.Alumni) (*models.Alumni, error) {
	if m.CreateAlumniFunc != nil {
		return m.CreateAlumniFunc(ctx, alumni)
	}
	alumni.ID = "alumni-1"
	return alumni, nil
}

func (m *MockStudentRepository) ListAlumni(ctx context.Context, limit, offset int) ([]*models.Alumni, error) {
	if m.ListAlumniFunc != nil {
		return m.ListAlumniFunc(ctx, limit, offset)
	}
	return nil, nil
}

type MockCatalogRepository struct {
	GetSectionFunc    func(ctx context.Context, id string) (*models.Section, error)
	ListSectionsFunc  func(ctx context.Context, limit, offset int) ([]*models.Section, error)
	CreateSectionFunc func(ctx context.Context, section *models.Section) (*models.Section, error)
	UpdateSectionFunc func(ctx context.Context, id string, section *models.Section) (*models.Section, error)
	DeleteSectionFunc func(ctx context.Context, id string) error
	CountEnrolledFunc func(ctx context.Context, sectionID, schoolYear string) (int, error)

	GetClassGroupFunc    func(ctx context.Context, id string) (*models.ClassGroup, error)
	ListClassGroupsFunc  func(ctx context.Context, schoolYear string, limit, offset int) ([]*models.ClassGroup, error)
	CreateClassGroupFunc func(ctx context.Context, group *models.ClassGroup) (*models.ClassGroup, error)
	DeleteClassGroupFunc func(ctx context.Context, id string) error

	GetSubjectFunc    func(ctx context.Context, id string) (*models.Subject, error)
	ListSubjectsFunc  func(ctx context.Context, limit, offset int) ([]*models.Subject, error)
	CreateSubjectFunc func(ctx context.Context, subject *models.Subject) (*models.Subject, error)
	UpdateSubjectFunc func(ctx context.Context, id string, subject *models.Subject) (*models.Subject, error)
	DeleteSubjectFunc func(ctx context.Context, id string) error
}

func (m *MockCatalogRepository) GetSection(ctx context.Context, id string) (*models.Section, error) {
	if m.GetSectionFunc != nil {
		return m.GetSectionFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockCatalogRepository) ListSections(ctx context.Context, limit, offset int) ([]*models.Section, error) {
	if m.ListSectionsFunc != nil {
		return m.ListSectionsFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockCatalogRepository) CreateSection(ctx context.Context, section *models.Section) (*models.Section, error) {
	if m.CreateSectionFunc != nil {
		return m.CreateSectionFunc(ctx, section)
	}
	section.ID = "section-1"
	return section, nil
}

func (m *MockCatalogRepository) UpdateSection(ctx context.Context, id string, section *models.Section) (*models.Section, error) {
	if m.UpdateSectionFunc != nil {
		return m.UpdateSectionFunc(ctx, id, section)
	}
	return section, nil
}

func (m *MockCatalogRepository) DeleteSection(ctx context.Context, id string) error {
	if m.DeleteSectionFunc != nil {
		return m.DeleteSectionFunc(ctx, id)
	}
	return nil
}

func (m *MockCatalogRepository) CountEnrolled(ctx context.Context, sectionID, schoolYear string) (int, error) {
	if m.CountEnrolledFunc != nil {
		return m.CountEnrolledFunc(ctx, sectionID, schoolYear)
	}
	return 0, nil
}

func (m *MockCatalogRepository) GetClassGroup(ctx context.Context, id string) (*models.ClassGroup, error) {
	if m.GetClassGroupFunc != nil {
		return m.GetClassGroupFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockCatalogRepository) ListClassGroups(ctx context.Context, schoolYear string, limit, offset int) ([]*models.ClassGroup, error) {
	if m.ListClassGroupsFunc != nil {
		return m.ListClassGroupsFunc(ctx, schoolYear, limit, offset)
	}
	return nil, nil
}

func (m *MockCatalogRepository) CreateClassGroup(ctx context.Context, group *models.ClassGroup) (*models.ClassGroup, error) {
	if m.CreateClassGroupFunc != nil {
		return m.CreateClassGroupFunc(ctx, group)
	}
	group.ID = "group-1"
	return group, nil
}

func (m *MockCatalogRepository) DeleteClassGroup(ctx context.Context, id string) error {
	if m.DeleteClassGroupFunc != nil {
		return m.DeleteClassGroupFunc(ctx, id)
	}
	return nil
}

func (m *MockCatalogRepository) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	if m.GetSubjectFunc != nil {
		return m.GetSubjectFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockCatalogRepository) ListSubjects(ctx context.Context, limit, offset int) ([]*models.Subject, error) {
	if m.ListSubjectsFunc != nil {
		return m.ListSubjectsFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockCatalogRepository) CreateSubject(ctx context.Context, subject *models.Subject) (*models.Subject, error) {
	if m.CreateSubjectFunc != nil {
		return m.CreateSubjectFunc(ctx, subject)
	}
	subject.ID = "subject-1"
	return subject, nil
}

func (m *MockCatalogRepository) UpdateSubject(ctx context.Context, id string, subject *models.Subject) (*models.Subject, error) {
	if m.UpdateSubjectFunc != nil {
		return m.UpdateSubjectFunc(ctx, id, subject)
	}
	return subject, nil
}

func (m *MockCatalogRepository) DeleteSubject(ctx context.Context, id string) error {
	if m.DeleteSubjectFunc != nil {
		return m.DeleteSubjectFunc(ctx, id)
	}
	return nil
}

type MockEnrollmentRepository struct {
	GetByIDFunc       func(ctx context.Context, id string) (*models.Enrollment, error)
	ListBySectionFunc func(ctx context.Context, sectionID, schoolYear string) ([]*models.Enrollment, error)
	ListByStudentFunc func(ctx context.Context, studentID string) ([]*models.Enrollment, error)
	CreateFunc        func(ctx context.Context, enrollment *models.Enrollment) (*models.Enrollment, error)
	SetStatusFunc     func(ctx context.Context, id string, status models.EnrollmentStatus) error
	UpsertGradeFunc   func(ctx context.Context, grade *models.Grade) (*models.Grade, error)
	ListGradesFunc    func(ctx context.Context, enrollmentID string) ([]*models.Grade, error)
}

func (m *MockEnrollmentRepository) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockEnrollmentRepository) ListBySection(ctx context.Context, sectionID, schoolYear string) ([]*models.Enrollment, error) {
	if m.ListBySectionFunc != nil {
		return m.ListBySectionFunc(ctx, sectionID, schoolYear)
	}
	return nil, nil
}

func (m *MockEnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error) {
	if m.ListByStudentFunc != nil {
		return m.ListByStudentFunc(ctx, studentID)
	}
	return nil, nil
}

func (m *MockEnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) (*models.Enrollment, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, enrollment)
	}
	enrollment.ID = "enrollment-1"
	enrollment.Status = models.EnrollmentEnrolled
	return enrollment, nil
}

func (m *MockEnrollmentRepository) SetStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	if m.SetStatusFunc != nil {
		return m.SetStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockEnrollmentRepository) UpsertGrade(ctx context.Context, grade *models.Grade) (*models.Grade, error) {
	if m.UpsertGradeFunc != nil {
		return m.UpsertGradeFunc(ctx, grade)
	}
	grade.ID = "grade-1"
	return grade, nil
}

func (m *MockEnrollmentRepository) ListGrades(ctx context.Context, enrollmentID string) ([]*models.Grade, error) {
	if m.ListGradesFunc != nil {
		return m.ListGradesFunc(ctx, enrollmentID)
	}
	return nil, nil
}

type MockEmailService struct {
	SendPasswordResetFunc     func(ctx context.Context, email, resetLink string) error
	SendAdmissionDecisionFunc func(ctx context.Context, applicant *models.Applicant) error
}

func (m *MockEmailService) SendPasswordReset(ctx context.Context, email, resetLink string) error {
	if m.SendPasswordResetFunc != nil {
		return m.SendPasswordResetFunc(ctx, email, resetLink)
	}
	return nil
}

func (m *MockEmailService) SendAdmissionDecision(ctx context.Context, applicant *models.Applicant) error {
	if m.SendAdmissionDecisionFunc != nil {
		return m.SendAdmissionDecisionFunc(ctx, applicant)
	}
	return nil
}
