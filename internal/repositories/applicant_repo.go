package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rcaluag/registrar/internal/database"
	"github.com/rcaluag/registrar/internal/models"
)

type ApplicantRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewApplicantRepository(db *database.DB) *ApplicantRepository {
	return &ApplicantRepository{db: db, pool: db.Pool}
}

const applicantColumns = `id, first_name, last_name, email, grade_level, status, notes, created_at, updated_at`

func scanApplicantRow(scanner rowScanner) (*models.Applicant, error) {
	var a models.Applicant

	err := scanner.Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.GradeLevel,
		&a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &a, nil
}

func (r *ApplicantRepository) GetByID(ctx context.Context, id string) (*models.Applicant, error) {
	query := `SELECT ` + applicantColumns + ` FROM applicants WHERE id = $1`

	return scanApplicantRow(r.pool.QueryRow(ctx, query, id))
}

func (r *ApplicantRepository) List(ctx context.Context, status models.ApplicantStatus, limit, offset int) ([]*models.Applicant, error) {
	query := `SELECT ` + applicantColumns + ` FROM applicants`
	args := []interface{}{}

	if status != "" {
		query += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, status, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applicants: %w", err)
	}
	defer rows.Close()

	applicants := make([]*models.Applicant, 0)
	for rows.Next() {
		a, err := scanApplicantRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan applicant: %w", err)
		}
		applicants = append(applicants, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return applicants, nil
}

func (r *ApplicantRepository) Create(ctx context.Context, applicant *models.Applicant) (*models.Applicant, error) {
	applicant.ID = uuid.New().String()
	applicant.Status = models.ApplicantPending

	now := time.Now()
	applicant.CreatedAt = now
	applicant.UpdatedAt = now

	query := `
		INSERT INTO applicants (id, first_name, last_name, email, grade_level, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		applicant.ID, applicant.FirstName, applicant.LastName, applicant.Email,
		applicant.GradeLevel, applicant.Status, applicant.Notes,
		applicant.CreatedAt, applicant.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return applicant, nil
}

func (r *ApplicantRepository) Update(ctx context.Context, id string, applicant *models.Applicant) (*models.Applicant, error) {
	query := `
		UPDATE applicants
		SET first_name = $2, last_name = $3, email = $4, grade_level = $5, notes = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + applicantColumns

	return scanApplicantRow(r.pool.QueryRow(ctx, query, id,
		applicant.FirstName, applicant.LastName, applicant.Email,
		applicant.GradeLevel, applicant.Notes))
}

// SetStatusIfPending records the admission decision. Only pending applicants
// can be decided; anything else reports conflict so double approvals surface.
func (r *ApplicantRepository) SetStatusIfPending(ctx context.Context, id string, status models.ApplicantStatus) error {
	query := `UPDATE applicants SET status = $2, updated_at = now() WHERE id = $1 AND status = 'pending'`

	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		// Either missing or already decided; caller disambiguates via GetByID
		return models.ErrConflict
	}
	return nil
}

// ApproveIntoStudent flips a pending applicant to approved and inserts the
// student record in one transaction; neither commits without the other, so a
// failed insert leaves the applicant pending and the approval retryable. The
// flip stays conditional on the pending status so double approvals still
// surface as conflict.
func (r *ApplicantRepository) ApproveIntoStudent(ctx context.Context, id string, student *models.Student) (*models.Student, error) {
	student.ID = uuid.New().String()
	if student.Status == "" {
		student.Status = models.StudentActive
	}

	now := time.Now()
	student.CreatedAt = now
	student.UpdatedAt = now

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE applicants SET status = $2, updated_at = now() WHERE id = $1 AND status = 'pending'`,
			id, models.ApplicantApproved,
		)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if tag.RowsAffected() == 0 {
			return models.ErrConflict
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO students (id, user_id, student_no, first_name, last_name, grade_level, section_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			student.ID, student.UserID, student.StudentNo,
			student.FirstName, student.LastName, student.GradeLevel,
			student.SectionID, student.Status,
			student.CreatedAt, student.UpdatedAt,
		)
		return database.MapPostgresError(err)
	})
	if err != nil {
		return nil, err
	}

	return student, nil
}

func (r *ApplicantRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM applicants WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
