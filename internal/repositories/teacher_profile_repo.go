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

type TeacherProfileRepository struct {
	pool *pgxpool.Pool
}

func NewTeacherProfileRepository(db *database.DB) *TeacherProfileRepository {
	return &TeacherProfileRepository{pool: db.Pool}
}

const teacherProfileColumns = `id, user_id, employee_no, department, is_archived, created_at, updated_at`

func scanTeacherProfileRow(scanner rowScanner) (*models.TeacherProfile, error) {
	var p models.TeacherProfile

	err := scanner.Scan(
		&p.ID, &p.UserID, &p.EmployeeNo, &p.Department, &p.IsArchived,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &p, nil
}

func (r *TeacherProfileRepository) GetByID(ctx context.Context, id string) (*models.TeacherProfile, error) {
	query := `SELECT ` + teacherProfileColumns + ` FROM teacher_profiles WHERE id = $1`

	return scanTeacherProfileRow(r.pool.QueryRow(ctx, query, id))
}

func (r *TeacherProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	query := `SELECT ` + teacherProfileColumns + ` FROM teacher_profiles WHERE user_id = $1`

	return scanTeacherProfileRow(r.pool.QueryRow(ctx, query, userID))
}

func (r *TeacherProfileRepository) List(ctx context.Context, limit, offset int) ([]*models.TeacherProfile, error) {
	query := `SELECT ` + teacherProfileColumns + ` FROM teacher_profiles ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query teacher profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*models.TeacherProfile, 0)
	for rows.Next() {
		p, err := scanTeacherProfileRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan teacher profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return profiles, nil
}

func (r *TeacherProfileRepository) Create(ctx context.Context, profile *models.TeacherProfile) (*models.TeacherProfile, error) {
	profile.ID = uuid.New().String()

	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	query := `
		INSERT INTO teacher_profiles (id, user_id, employee_no, department, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		profile.ID, profile.UserID, profile.EmployeeNo, profile.Department,
		profile.IsArchived, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return profile, nil
}

func (r *TeacherProfileRepository) Update(ctx context.Context, id string, profile *models.TeacherProfile) (*models.TeacherProfile, error) {
	query := `
		UPDATE teacher_profiles
		SET employee_no = $2, department = $3, is_archived = $4, updated_at = now()
		WHERE id = $1
		RETURNING ` + teacherProfileColumns

	return scanTeacherProfileRow(r.pool.QueryRow(ctx, query, id, profile.EmployeeNo, profile.Department, profile.IsArchived))
}

// SetArchived flips the archive flag; an archived profile blocks teacher login.
func (r *TeacherProfileRepository) SetArchived(ctx context.Context, id string, archived bool) error {
	query := `UPDATE teacher_profiles SET is_archived = $2, updated_at = now() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, archived)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
