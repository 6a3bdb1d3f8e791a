package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/website/internal/model"
)

// SessionRepo implements repository.SessionRepository using PostgreSQL.
type SessionRepo struct {
	db  *DB
	ttl time.Duration
}

// NewSessionRepo constructs a session-record repository.
// The ttl sets the expiration of newly created records.
func NewSessionRepo(db *DB, ttl time.Duration) *SessionRepo {
	return &SessionRepo{db: db, ttl: ttl}
}

// Create inserts a new session record for the user.
func (r *SessionRepo) Create(ctx context.Context, userID uuid.UUID) (*model.SessionRecord, error) {
	const q = `
INSERT INTO sessions (id, user_id, expires_at)
VALUES ($1, $2, $3)
RETURNING id, user_id, expires_at, created_at`
	row := r.db.Pool.QueryRow(ctx, q, uuid.New(), userID, time.Now().Add(r.ttl))
	var rec model.SessionRecord
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.ExpiresAt, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes a session record. Deleting a missing record is not an error.
func (r *SessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM sessions WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id)
	return err
}

// DeleteExpired removes expired session records.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM sessions WHERE expires_at <= now()`
	tag, err := r.db.Pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
