package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rcaluag/registrar/internal/database"
	"github.com/rcaluag/registrar/internal/models"
)

// CatalogRepository manages the static school catalog: sections, class
// groups and subjects.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(db *database.DB) *CatalogRepository {
	return &CatalogRepository{pool: db.Pool}
}

// Sections

const sectionColumns = `id, name, grade_level, adviser_id, capacity, created_at, updated_at`

func scanSectionRow(scanner rowScanner) (*models.Section, error) {
	var s models.Section

	err := scanner.Scan(
		&s.ID, &s.Name, &s.GradeLevel, &s.AdviserID, &s.Capacity,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &s, nil
}

func (r *CatalogRepository) GetSection(ctx context.Context, id string) (*models.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections WHERE id = $1`

	return scanSectionRow(r.pool.QueryRow(ctx, query, id))
}

func (r *CatalogRepository) ListSections(ctx context.Context, limit, offset int) ([]*models.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections ORDER BY grade_level, name LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query sections: %w", err)
	}
	defer rows.Close()

	sections := make([]*models.Section, 0)
	for rows.Next() {
		s, err := scanSectionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return sections, nil
}

func (r *CatalogRepository) CreateSection(ctx context.Context, section *models.Section) (*models.Section, error) {
	section.ID = uuid.New().String()
	if section.Capacity == 0 {
		section.Capacity = 40
	}

	now := time.Now()
	section.CreatedAt = now
	section.UpdatedAt = now

	query := `
		INSERT INTO sections (id, name, grade_level, adviser_id, capacity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		section.ID, section.Name, section.GradeLevel, section.AdviserID,
		section.Capacity, section.CreatedAt, section.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return section, nil
}

func (r *CatalogRepository) UpdateSection(ctx context.Context, id string, section *models.Section) (*models.Section, error) {
	query := `
		UPDATE sections
		SET name = $2, grade_level = $3, adviser_id = $4, capacity = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + sectionColumns

	return scanSectionRow(r.pool.QueryRow(ctx, query, id,
		section.Name, section.GradeLevel, section.AdviserID, section.Capacity))
}

// DeleteSection fails with conflict while enrollments reference the section.
func (r *CatalogRepository) DeleteSection(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CountEnrolled returns current enrollment headcount for capacity checks.
func (r *CatalogRepository) CountEnrolled(ctx context.Context, sectionID, schoolYear string) (int, error) {
	query := `
		SELECT COUNT(*) FROM enrollments
		WHERE section_id = $1 AND school_year = $2 AND status = 'enrolled'
	`

	var count int
	err := r.pool.QueryRow(ctx, query, sectionID, schoolYear).Scan(&count)
	return count, err
}

// Class groups

const classGroupColumns = `id, section_id, school_year, name, created_at, updated_at`

func scanClassGroupRow(scanner rowScanner) (*models.ClassGroup, error) {
	var g models.ClassGroup

	err := scanner.Scan(
		&g.ID, &g.SectionID, &g.SchoolYear, &g.Name, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &g, nil
}

func (r *CatalogRepository) GetClassGroup(ctx context.Context, id string) (*models.ClassGroup, error) {
	query := `SELECT ` + classGroupColumns + ` FROM class_groups WHERE id = $1`

	return scanClassGroupRow(r.pool.QueryRow(ctx, query, id))
}

func (r *CatalogRepository) ListClassGroups(ctx context.Context, schoolYear string, limit, offset int) ([]*models.ClassGroup, error) {
	query := `SELECT ` + classGroupColumns + ` FROM class_groups`
	args := []interface{}{}

	if schoolYear != "" {
		query += ` WHERE school_year = $1 ORDER BY name LIMIT $2 OFFSET $3`
		args = append(args, schoolYear, limit, offset)
	} else {
		query += ` ORDER BY school_year DESC, name LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query class groups: %w", err)
	}
	defer rows.Close()

	groups := make([]*models.ClassGroup, 0)
	for rows.Next() {
		g, err := scanClassGroupRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan class group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return groups, nil
}

func (r *CatalogRepository) CreateClassGroup(ctx context.Context, group *models.ClassGroup) (*models.ClassGroup, error) {
	group.ID = uuid.New().String()

	now := time.Now()
	group.CreatedAt = now
	group.UpdatedAt = now

	query := `
		INSERT INTO class_groups (id, section_id, school_year, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		group.ID, group.SectionID, group.SchoolYear, group.Name,
		group.CreatedAt, group.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return group, nil
}

func (r *CatalogRepository) DeleteClassGroup(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM class_groups WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Subjects

const subjectColumns = `id, code, title, units, created_at, updated_at`

func scanSubjectRow(scanner rowScanner) (*models.Subject, error) {
	var s models.Subject

	err := scanner.Scan(&s.ID, &s.Code, &s.Title, &s.Units, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &s, nil
}

func (r *CatalogRepository) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE id = $1`

	return scanSubjectRow(r.pool.QueryRow(ctx, query, id))
}

func (r *CatalogRepository) ListSubjects(ctx context.Context, limit, offset int) ([]*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects ORDER BY code LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}
	defer rows.Close()

	subjects := make([]*models.Subject, 0)
	for rows.Next() {
		s, err := scanSubjectRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return subjects, nil
}

func (r *CatalogRepository) CreateSubject(ctx context.Context, subject *models.Subject) (*models.Subject, error) {
	subject.ID = uuid.New().String()
	if subject.Units == 0 {
		subject.Units = 1
	}

	now := time.Now()
	subject.CreatedAt = now
	subject.UpdatedAt = now

	query := `
		INSERT INTO subjects (id, code, title, units, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		subject.ID, subject.Code, subject.Title, subject.Units,
		subject.CreatedAt, subject.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return subject, nil
}

func (r *CatalogRepository) UpdateSubject(ctx context.Context, id string, subject *models.Subject) (*models.Subject, error) {
	query := `
		UPDATE subjects
		SET code = $2, title = $3, units = $4, updated_at = now()
		WHERE id = $1
		RETURNING ` + subjectColumns

	return scanSubjectRow(r.pool.QueryRow(ctx, query, id, subject.Code, subject.Title, subject.Units))
}

func (r *CatalogRepository) DeleteSubject(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
