package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rcaluag/registrar/internal/database"
	"github.com/rcaluag/registrar/internal/models"
)

// LoginAttemptRepository is the durable audit trail of login submissions.
// One row per POST, created pending, mutated at most once by the same request.
type LoginAttemptRepository struct {
	pool *pgxpool.Pool
}

func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{pool: db.Pool}
}

// RecordPending inserts the pending row for a just-submitted login form.
func (r *LoginAttemptRepository) RecordPending(ctx context.Context, email, ipAddress string, meta models.DeviceMeta) (string, error) {
	id := uuid.New().String()
	now := time.Now()

	query := `
		INSERT INTO login_attempts (id, email, ip_address, status, device, platform, browser, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		id, email, ipAddress, models.AttemptPending,
		meta.Device, meta.Platform, meta.Browser,
		now, now,
	)
	if err != nil {
		return "", database.MapPostgresError(err)
	}

	return id, nil
}

// MarkLatestPending flips the most recent pending row for (email, address) to
// the given outcome. Zero matching rows is a silent no-op: a concurrent
// request may already have claimed the row. Read-then-update without locking;
// under true concurrency the wrong row may be marked. Accepted as a
// best-effort audit weakness, not a correctness requirement.
func (r *LoginAttemptRepository) MarkLatestPending(ctx context.Context, email, ipAddress string, outcome models.AttemptStatus) error {
	query := `
		UPDATE login_attempts
		SET status = $3, updated_at = now()
		WHERE id = (
			SELECT id FROM login_attempts
			WHERE email = $1 AND ip_address = $2 AND status = 'pending'
			ORDER BY created_at DESC
			LIMIT 1
		)
	`

	_, err := r.pool.Exec(ctx, query, email, ipAddress, outcome)
	return database.MapPostgresError(err)
}

// CountByStatus returns the number of attempts for an email with the given
// status since a cutoff. The authenticator uses it to flag bursts of failed
// logins against one account.
func (r *LoginAttemptRepository) CountByStatus(ctx context.Context, email string, status models.AttemptStatus, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM login_attempts
		WHERE email = $1 AND status = $2 AND created_at >= $3
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, email, status, since).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// DeleteOlderThan prunes attempts past the retention window. The login flow
// itself never deletes rows; only the cleanup task calls this.
func (r *LoginAttemptRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM login_attempts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}
