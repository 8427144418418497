package repository

import (
	"context"
	"time"

	"login-backend/internal/session/domain"
)

// Repository defines persistence for refresh sessions.
//
// Bulk mutations (RevokeOldestActive, RevokeAllByUser, DeleteExpired) are
// single set-based statements so concurrent session creation cannot lose
// updates to individually fetched rows.
type Repository interface {
	Create(ctx context.Context, s *domain.Session) error
	// GetByToken returns the session for the opaque token, or nil if not found.
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	// ListActiveByUser returns non-revoked sessions for the user, oldest first.
	ListActiveByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	CountActiveByUser(ctx context.Context, userID string) (int, error)
	// Revoke marks the session revoked. Idempotent; unknown tokens are a no-op.
	Revoke(ctx context.Context, token string) error
	// RevokeByIDAndUser revokes the session only if it exists, is active, and
	// belongs to userID. Returns true when a row was revoked.
	RevokeByIDAndUser(ctx context.Context, id, userID string) (bool, error)
	// RevokeOldestActive revokes the n oldest active sessions for the user in
	// one ordered bulk update. Returns the number revoked.
	RevokeOldestActive(ctx context.Context, userID string, n int) (int64, error)
	// RevokeAllByUser revokes every active session for the user. Returns the count.
	RevokeAllByUser(ctx context.Context, userID string) (int64, error)
	// DeleteExpired deletes sessions whose expiry is strictly before now. Returns the count.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
