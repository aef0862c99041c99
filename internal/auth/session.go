// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package auth

import (
	"context"
	"errors"
	"time"
)

// Session errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Session is one active login. The ID matches the jti claim of the JWT it
// was issued with; deleting the session revokes the token.
type Session struct {
	ID             string    `json:"id"`
	UserID         int64     `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// SessionStore persists active sessions so tokens stay revocable.
type SessionStore interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error
	// Get retrieves a live session by id. Expired sessions return
	// ErrSessionExpired, missing ones ErrSessionNotFound.
	Get(ctx context.Context, id string) (*Session, error)
	// Delete removes a session. Deleting a missing session is a no-op.
	Delete(ctx context.Context, id string) error
	// DeleteByUserID removes all of a user's sessions, returning the count.
	DeleteByUserID(ctx context.Context, userID int64) (int, error)
	// CleanupExpired removes expired sessions, returning the count.
	CleanupExpired(ctx context.Context) (int, error)
	// Close releases store resources.
	Close() error
}
