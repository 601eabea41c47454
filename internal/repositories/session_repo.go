package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rcaluag/registrar/internal/database"
	"github.com/rcaluag/registrar/internal/models"
)

// SessionRepository persists the server-side half of the session guard
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{pool: db.Pool}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	session.ID = uuid.New().String()
	session.CreatedAt = time.Now()

	query := `
		INSERT INTO sessions (id, token_hash, user_id, ip_address, user_agent, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		session.ID, session.TokenHash, session.UserID,
		session.IPAddress, session.UserAgent,
		session.CreatedAt, session.ExpiresAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return session, nil
}

func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	query := `
		SELECT id, token_hash, user_id, ip_address, user_agent, created_at, expires_at
		FROM sessions WHERE token_hash = $1
	`

	var s models.Session
	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(
		&s.ID, &s.TokenHash, &s.UserID, &s.IPAddress, &s.UserAgent,
		&s.CreatedAt, &s.ExpiresAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	// Deleting an already-deleted session is not an error; logout is idempotent
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return database.MapPostgresError(err)
}

// DeleteByUserID removes every session held by a user, e.g. on archive.
func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return database.MapPostgresError(err)
}

// DeleteExpired removes sessions past their expiry; called by the background
// cleanup task.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}
