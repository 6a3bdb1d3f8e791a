// Package model holds the domain types shared across the application.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes ordinary users from administrators.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an account owned by the user store. This subsystem only reads it.
type User struct {
	ID        uuid.UUID
	Email     string
	Role      Role
	CreatedAt time.Time
}

// IsAdmin reports whether the user carries the administrator role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SessionRecord is the server-side row mapping a session id to a user.
// Created on sign-in, deleted on sign-out, invalid once expired.
type SessionRecord struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}
