package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/avolkov/website/internal/model"
)

// SessionRepository manages server-side session records.
type SessionRepository interface {
	// Create inserts a new session record for the user and returns it.
	Create(ctx context.Context, userID uuid.UUID) (*model.SessionRecord, error)
	// Delete removes a session record.
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteExpired removes expired records and returns how many were deleted.
	DeleteExpired(ctx context.Context) (int64, error)
}
