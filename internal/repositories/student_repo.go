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

type StudentRepository struct {
	pool *pgxpool.Pool
}

func NewStudentRepository(db *database.DB) *StudentRepository {
	return &StudentRepository{pool: db.Pool}
}

const studentColumns = `id, user_id, student_no, first_name, last_name, grade_level, section_id, status, created_at, updated_at`

func scanStudentRow(scanner rowScanner) (*models.Student, error) {
	var s models.Student

	err := scanner.Scan(
		&s.ID, &s.UserID, &s.StudentNo, &s.FirstName, &s.LastName,
		&s.GradeLevel, &s.SectionID, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &s, nil
}

func (r *StudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`

	return scanStudentRow(r.pool.QueryRow(ctx, query, id))
}

func (r *StudentRepository) GetByStudentNo(ctx context.Context, studentNo string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE student_no = $1`

	return scanStudentRow(r.pool.QueryRow(ctx, query, studentNo))
}

func (r *StudentRepository) List(ctx context.Context, limit, offset int) ([]*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	students := make([]*models.Student, 0)
	for rows.Next() {
		s, err := scanStudentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return students, nil
}

// NextSequence returns the next value for student number generation within a
// year prefix, e.g. S-2026-0042.
func (r *StudentRepository) NextSequence(ctx context.Context, prefix string) (int, error) {
	query := `SELECT COUNT(*) + 1 FROM students WHERE student_no LIKE $1 || '%'`

	var seq int
	err := r.pool.QueryRow(ctx, query, prefix).Scan(&seq)
	return seq, err
}

func (r *StudentRepository) Update(ctx context.Context, id string, student *models.Student) (*models.Student, error) {
	query := `
		UPDATE students
		SET first_name = $2, last_name = $3, grade_level = $4, section_id = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + studentColumns

	return scanStudentRow(r.pool.QueryRow(ctx, query, id,
		student.FirstName, student.LastName, student.GradeLevel, student.SectionID))
}

// SetStatus archives or reactivates a student record.
func (r *StudentRepository) SetStatus(ctx context.Context, id string, status models.StudentStatus) error {
	query := `UPDATE students SET status = $2, updated_at = now() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CreateAlumni records a graduation. The unique student FK makes double
// graduation a conflict.
func (r *StudentRepository) CreateAlumni(ctx context.Context, alumni *models.Alumni) (*models.Alumni, error) {
	alumni.ID = uuid.New().String()
	alumni.CreatedAt = time.Now()

	query := `
		INSERT INTO alumni (id, student_id, graduated_year, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query,
		alumni.ID, alumni.StudentID, alumni.GraduatedYear, alumni.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return alumni, nil
}

func (r *StudentRepository) ListAlumni(ctx context.Context, limit, offset int) ([]*models.Alumni, error) {
	query := `
		SELECT id, student_id, graduated_year, created_at
		FROM alumni ORDER BY graduated_year DESC, created_at DESC LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query alumni: %w", err)
	}
	defer rows.Close()

	alumni := make([]*models.Alumni, 0)
	for rows.Next() {
		var a models.Alumni
		if err := rows.Scan(&a.ID, &a.StudentID, &a.GraduatedYear, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alumni: %w", err)
		}
		alumni = append(alumni, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return alumni, nil
}
