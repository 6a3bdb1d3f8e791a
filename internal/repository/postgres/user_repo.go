package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/avolkov/website/internal/model"
	"github.com/avolkov/website/internal/repository"
)

// UserRepo implements repository.UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// FindByEmail selects a user by email address.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
SELECT id, email, role, created_at
FROM users WHERE email=$1`
	row := r.db.Pool.QueryRow(ctx, q, email)
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &role, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// FindBySessionID selects the user owning an unexpired session record.
// Expiry is checked in SQL, so an expired record behaves like a missing one.
func (r *UserRepo) FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.User, error) {
	const q = `
SELECT u.id, u.email, u.role, u.created_at
FROM users u
JOIN sessions s ON s.user_id = u.id
WHERE s.id = $1 AND s.expires_at > now()`
	row := r.db.Pool.QueryRow(ctx, q, sessionID)
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &role, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}
