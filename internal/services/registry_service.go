package services

import (
	"context"
	"log/slog"

	"github.com/rcaluag/registrar/internal/models"
)

// CatalogRepository covers the school catalog store: sections, class groups,
// subjects.
type CatalogRepository interface {
	GetSection(ctx context.Context, id string) (*models.Section, error)
	ListSections(ctx context.Context, limit, offset int) ([]*models.Section, error)
	CreateSection(ctx context.Context, section *models.Section) (*models.Section, error)
	UpdateSection(ctx context.Context, id string, section *models.Section) (*models.Section, error)
	DeleteSection(ctx context.Context, id string) error
	CountEnrolled(ctx context.Context, sectionID, schoolYear string) (int, error)

	GetClassGroup(ctx context.Context, id string) (*models.ClassGroup, error)
	ListClassGroups(ctx context.Context, schoolYear string, limit, offset int) ([]*models.ClassGroup, error)
	CreateClassGroup(ctx context.Context, group *models.ClassGroup) (*models.ClassGroup, error)
	DeleteClassGroup(ctx context.Context, id string) error

	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	ListSubjects(ctx context.Context, limit, offset int) ([]*models.Subject, error)
	CreateSubject(ctx context.Context, subject *models.Subject) (*models.Subject, error)
	UpdateSubject(ctx context.Context, id string, subject *models.Subject) (*models.Subject, error)
	DeleteSubject(ctx context.Context, id string) error
}

// RegistryService manages the catalog and the student roster behind it
type RegistryService struct {
	catalog  CatalogRepository
	students StudentRepository
	profiles TeacherProfileRepository
	logger   *slog.Logger
}

func NewRegistryService(catalog CatalogRepository, students StudentRepository, profiles TeacherProfileRepository, logger *slog.Logger) *RegistryService {
	return &RegistryService{
		catalog:  catalog,
		students: students,
		profiles: profiles,
		logger:   logger,
	}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Sections

type SectionInput struct {
	Name       string
	GradeLevel int
	AdviserID  *string
	Capacity   int
}

// CreateSection registers a section. An adviser, when given, must be an
// existing non-archived teacher profile.
func (s *RegistryService) CreateSection(ctx context.Context, input SectionInput) (*models.Section, error) {
	if err := s.checkAdviser(ctx, input.AdviserID); err != nil {
		return nil, err
	}

	return s.catalog.CreateSection(ctx, &models.Section{
		Name:       input.Name,
		GradeLevel: input.GradeLevel,
		AdviserID:  input.AdviserID,
		Capacity:   input.Capacity,
	})
}

func (s *RegistryService) GetSection(ctx context.Context, id string) (*models.Section, error) {
	return s.catalog.GetSection(ctx, id)
}

func (s *RegistryService) ListSections(ctx context.Context, limit, offset int) ([]*models.Section, error) {
	limit, offset = clampPage(limit, offset)
	return s.catalog.ListSections(ctx, limit, offset)
}

func (s *RegistryService) UpdateSection(ctx context.Context, id string, input SectionInput) (*models.Section, error) {
	if err := s.checkAdviser(ctx, input.AdviserID); err != nil {
		return nil, err
	}

	section, err := s.catalog.GetSection(ctx, id)
	if err != nil {
		return nil, err
	}

	section.Name = input.Name
	section.GradeLevel = input.GradeLevel
	section.AdviserID = input.AdviserID
	if input.Capacity > 0 {
		section.Capacity = input.Capacity
	}

	return s.catalog.UpdateSection(ctx, id, section)
}

func (s *RegistryService) DeleteSection(ctx context.Context, id string) error {
	return s.catalog.DeleteSection(ctx, id)
}

func (s *RegistryService) checkAdviser(ctx context.Context, adviserID *string) error {
	if adviserID == nil {
		return nil
	}

	profile, err := s.profiles.GetByID(ctx, *adviserID)
	if err != nil {
		return err
	}
	if profile.IsArchived {
		return models.ErrBadRequest
	}
	return nil
}

// Class groups

type ClassGroupInput struct {
	SectionID  string
	SchoolYear string
	Name       string
}

func (s *RegistryService) CreateClassGroup(ctx context.Context, input ClassGroupInput) (*models.ClassGroup, error) {
	if _, err := s.catalog.GetSection(ctx, input.SectionID); err != nil {
		return nil, err
	}

	return s.catalog.CreateClassGroup(ctx, &models.ClassGroup{
		SectionID:  input.SectionID,
		SchoolYear: input.SchoolYear,
		Name:       input.Name,
	})
}

func (s *RegistryService) ListClassGroups(ctx context.Context, schoolYear string, limit, offset int) ([]*models.ClassGroup, error) {
	limit, offset = clampPage(limit, offset)
	return s.catalog.ListClassGroups(ctx, schoolYear, limit, offset)
}

func (s *RegistryService) DeleteClassGroup(ctx context.Context, id string) error {
	return s.catalog.DeleteClassGroup(ctx, id)
}

// Subjects

type SubjectInput struct {
	Code  string
	Title string
	Units int
}

func (s *RegistryService) CreateSubject(ctx context.Context, input SubjectInput) (*models.Subject, error) {
	return s.catalog.CreateSubject(ctx, &models.Subject{
		Code:  input.Code,
		Title: input.Title,
		Units: input.Units,
	})
}

func (s *RegistryService) ListSubjects(ctx context.Context, limit, offset int) ([]*models.Subject, error) {
	limit, offset = clampPage(limit, offset)
	return s.catalog.ListSubjects(ctx, limit, offset)
}

func (s *RegistryService) UpdateSubject(ctx context.Context, id string, input SubjectInput) (*models.Subject, error) {
	subject, err := s.catalog.GetSubject(ctx, id)
	if err != nil {
		return nil, err
	}

	subject.Code = input.Code
	subject.Title = input.Title
	if input.Units > 0 {
		subject.Units = input.Units
	}

	return s.catalog.UpdateSubject(ctx, id, subject)
}

func (s *RegistryService) DeleteSubject(ctx context.Context, id string) error {
	return s.catalog.DeleteSubject(ctx, id)
}

// Students

func (s *RegistryService) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	return s.students.GetByID(ctx, id)
}

func (s *RegistryService) ListStudents(ctx context.Context, limit, offset int) ([]*models.Student, error) {
	limit, offset = clampPage(limit, offset)
	return s.students.List(ctx, limit, offset)
}

type StudentInput struct {
	FirstName  string
	LastName   string
	GradeLevel int
	SectionID  *string
}

func (s *RegistryService) UpdateStudent(ctx context.Context, id string, input StudentInput) (*models.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.SectionID != nil {
		if _, err := s.catalog.GetSection(ctx, *input.SectionID); err != nil {
			return nil, err
		}
	}

	student.FirstName = input.FirstName
	student.LastName = input.LastName
	student.GradeLevel = input.GradeLevel
	student.SectionID = input.SectionID

	return s.students.Update(ctx, id, student)
}

func (s *RegistryService) ListAlumni(ctx context.Context, limit, offset int) ([]*models.Alumni, error) {
	limit, offset = clampPage(limit, offset)
	return s.students.ListAlumni(ctx, limit, offset)
}
