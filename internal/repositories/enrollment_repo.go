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

type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

func NewEnrollmentRepository(db *database.DB) *EnrollmentRepository {
	return &EnrollmentRepository{pool: db.Pool}
}

const enrollmentColumns = `id, student_id, section_id, school_year, status, created_at, updated_at`

func scanEnrollmentRow(scanner rowScanner) (*models.Enrollment, error) {
	var e models.Enrollment

	err := scanner.Scan(
		&e.ID, &e.StudentID, &e.SectionID, &e.SchoolYear, &e.Status,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &e, nil
}

func (r *EnrollmentRepository) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`

	return scanEnrollmentRow(r.pool.QueryRow(ctx, query, id))
}

func (r *EnrollmentRepository) ListBySection(ctx context.Context, sectionID, schoolYear string) ([]*models.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + ` FROM enrollments
		WHERE section_id = $1 AND school_year = $2
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, sectionID, schoolYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := make([]*models.Enrollment, 0)
	for rows.Next() {
		e, err := scanEnrollmentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return enrollments, nil
}

func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + ` FROM enrollments
		WHERE student_id = $1
		ORDER BY school_year DESC
	`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := make([]*models.Enrollment, 0)
	for rows.Next() {
		e, err := scanEnrollmentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return enrollments, nil
}

func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) (*models.Enrollment, error) {
	enrollment.ID = uuid.New().String()
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentEnrolled
	}

	now := time.Now()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	query := `
		INSERT INTO enrollments (id, student_id, section_id, school_year, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		enrollment.ID, enrollment.StudentID, enrollment.SectionID,
		enrollment.SchoolYear, enrollment.Status,
		enrollment.CreatedAt, enrollment.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return enrollment, nil
}

func (r *EnrollmentRepository) SetStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	query := `UPDATE enrollments SET status = $2, updated_at = now() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Grades

const gradeColumns = `id, enrollment_id, subject_id, quarter, score, created_at, updated_at`

func scanGradeRow(scanner rowScanner) (*models.Grade, error) {
	var g models.Grade

	err := scanner.Scan(
		&g.ID, &g.EnrollmentID, &g.SubjectID, &g.Quarter, &g.Score,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &g, nil
}

// UpsertGrade inserts or replaces the mark for (enrollment, subject, quarter).
func (r *EnrollmentRepository) UpsertGrade(ctx context.Context, grade *models.Grade) (*models.Grade, error) {
	if grade.ID == "" {
		grade.ID = uuid.New().String()
	}

	query := `
		INSERT INTO grades (id, enrollment_id, subject_id, quarter, score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (enrollment_id, subject_id, quarter)
		DO UPDATE SET score = EXCLUDED.score, updated_at = now()
		RETURNING ` + gradeColumns

	return scanGradeRow(r.pool.QueryRow(ctx, query,
		grade.ID, grade.EnrollmentID, grade.SubjectID, grade.Quarter, grade.Score))
}

func (r *EnrollmentRepository) ListGrades(ctx context.Context, enrollmentID string) ([]*models.Grade, error) {
	query := `
		SELECT ` + gradeColumns + ` FROM grades
		WHERE enrollment_id = $1
		ORDER BY subject_id, quarter
	`

	rows, err := r.pool.Query(ctx, query, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query grades: %w", err)
	}
	defer rows.Close()

	grades := make([]*models.Grade, 0)
	for rows.Next() {
		g, err := scanGradeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan grade: %w", err)
		}
		grades = append(grades, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return grades, nil
}
