package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"login-backend/internal/security"
	"login-backend/internal/session/domain"
	sessionrepo "login-backend/internal/session/repository"
)

// Sentinel errors for refresh session verification. Revoked sessions are
// reported distinctly from merely expired ones for audit clarity.
var (
	ErrTokenNotFound = errors.New("refresh token not found")
	ErrTokenRevoked  = errors.New("refresh token has been revoked")
	ErrTokenExpired  = errors.New("refresh token has expired")
)

// Manager owns the refresh session lifecycle: creation with per-user cap
// eviction, verification, revocation, and expired-session cleanup.
type Manager struct {
	repo        sessionrepo.Repository
	refreshTTL  time.Duration
	maxSessions int
}

// NewManager returns a Manager with the given store, session lifetime, and
// per-user active session cap.
func NewManager(repo sessionrepo.Repository, refreshTTL time.Duration, maxSessions int) *Manager {
	if maxSessions < 1 {
		maxSessions = 1
	}
	return &Manager{
		repo:        repo,
		refreshTTL:  refreshTTL,
		maxSessions: maxSessions,
	}
}

// CreateSession creates a refresh session for the user, evicting the oldest
// active sessions first when the user is at the cap, so a new login always
// succeeds ("make room then add").
//
// The cap is a soft bound: the count-then-revoke sequence is not serialized
// per user, so concurrent logins from one user can transiently exceed the cap
// until the next login's eviction reconciles it.
func (m *Manager) CreateSession(ctx context.Context, userID, ipAddress, userAgent string) (*domain.Session, error) {
	count, err := m.repo.CountActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count >= m.maxSessions {
		evict := count - m.maxSessions + 1
		revoked, err := m.repo.RevokeOldestActive(ctx, userID, evict)
		if err != nil {
			return nil, err
		}
		log.Printf("session: user %s at cap (%d active), revoked %d oldest", userID, count, revoked)
	}

	token, err := security.NewSessionToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	s := &domain.Session{
		ID:         uuid.New().String(),
		Token:      token,
		UserID:     userID,
		ExpiresAt:  now.Add(m.refreshTTL),
		Revoked:    false,
		DeviceName: ClassifyDevice(userAgent),
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		CreatedAt:  now,
	}
	if err := m.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Verify returns the session for the opaque token. Checks run in order:
// existence, then revocation, then expiry, so a revoked-and-expired session
// still reports ErrTokenRevoked.
func (m *Manager) Verify(ctx context.Context, token string) (*domain.Session, error) {
	s, err := m.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrTokenNotFound
	}
	if s.Revoked {
		return nil, ErrTokenRevoked
	}
	if s.Expired(time.Now().UTC()) {
		return nil, ErrTokenExpired
	}
	return s, nil
}

// Revoke marks the session revoked. Idempotent and silent for unknown tokens:
// logout must not reveal whether a session existed.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	return m.repo.Revoke(ctx, token)
}

// RevokeByIDAndUser revokes one session by surrogate id, only when owned by
// userID. Returns false when the session does not exist, is already revoked,
// or belongs to someone else; callers surface those identically.
func (m *Manager) RevokeByIDAndUser(ctx context.Context, id, userID string) (bool, error) {
	return m.repo.RevokeByIDAndUser(ctx, id, userID)
}

// RevokeAll revokes every active session for the user in one bulk update.
// Returns the number of sessions revoked.
func (m *Manager) RevokeAll(ctx context.Context, userID string) (int64, error) {
	return m.repo.RevokeAllByUser(ctx, userID)
}

// ListActive returns the user's non-revoked sessions ordered by creation time.
func (m *Manager) ListActive(ctx context.Context, userID string) ([]*domain.Session, error) {
	return m.repo.ListActiveByUser(ctx, userID)
}

// CleanupExpired deletes sessions expired before now. Returns the number deleted.
func (m *Manager) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	return m.repo.DeleteExpired(ctx, now)
}
