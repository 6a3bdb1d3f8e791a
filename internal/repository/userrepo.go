// Package repository defines the persistence interfaces consumed by the
// auth subsystem. Implementations live in subpackages.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/avolkov/website/internal/model"
)

// UserRepository reads user accounts.
type UserRepository interface {
	// FindByEmail returns the user owning the email address.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// FindBySessionID returns the user owning an unexpired session record.
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.User, error)
}
