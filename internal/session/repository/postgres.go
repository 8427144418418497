package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"login-backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, token, user_id, expires_at, revoked, device_name, ip_address, user_agent, created_at`

// Create persists the session to the database. The session must have ID and Token set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	const query = `
		INSERT INTO refresh_sessions (id, token, user_id, expires_at, revoked, device_name, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Token, s.UserID, s.ExpiresAt, s.Revoked, s.DeviceName, s.IPAddress, s.UserAgent, s.CreatedAt,
	)
	return err
}

// GetByToken returns the session for token, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM refresh_sessions WHERE token = $1`
	s := &domain.Session{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&s.ID, &s.Token, &s.UserID, &s.ExpiresAt, &s.Revoked, &s.DeviceName, &s.IPAddress, &s.UserAgent, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// ListActiveByUser returns non-revoked sessions for the user ordered by
// creation time ascending, ties broken by insertion order (id).
func (r *PostgresRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM refresh_sessions
		WHERE user_id = $1 AND revoked = FALSE
		ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s := &domain.Session{}
		if err := rows.Scan(
			&s.ID, &s.Token, &s.UserID, &s.ExpiresAt, &s.Revoked, &s.DeviceName, &s.IPAddress, &s.UserAgent, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountActiveByUser returns the number of non-revoked sessions for the user.
func (r *PostgresRepository) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM refresh_sessions WHERE user_id = $1 AND revoked = FALSE`, userID,
	).Scan(&count)
	return count, err
}

// Revoke marks the session with the given token as revoked. Idempotent; a
// token that does not exist or is already revoked is a no-op.
func (r *PostgresRepository) Revoke(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_sessions SET revoked = TRUE WHERE token = $1`, token,
	)
	return err
}

// RevokeByIDAndUser revokes the session only when it belongs to userID and is
// still active. Returns true when a row was revoked.
func (r *PostgresRepository) RevokeByIDAndUser(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_sessions SET revoked = TRUE WHERE id = $1 AND user_id = $2 AND revoked = FALSE`,
		id, userID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevokeOldestActive revokes the n oldest active sessions for the user in a
// single ordered bulk update. Returns the number of sessions revoked.
func (r *PostgresRepository) RevokeOldestActive(ctx context.Context, userID string, n int) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	const query = `
		UPDATE refresh_sessions SET revoked = TRUE
		WHERE id IN (
			SELECT id FROM refresh_sessions
			WHERE user_id = $1 AND revoked = FALSE
			ORDER BY created_at ASC, id ASC
			LIMIT $2
		)`
	res, err := r.db.ExecContext(ctx, query, userID, n)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RevokeAllByUser revokes every active session for the user in one statement.
// Returns the number of sessions revoked.
func (r *PostgresRepository) RevokeAllByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_sessions SET revoked = TRUE WHERE user_id = $1 AND revoked = FALSE`, userID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpired deletes sessions whose expiry is strictly before now.
// Returns the number deleted. Scoped by the cutoff timestamp so the sweep
// never holds long table locks against request-serving reads.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_sessions WHERE expires_at < $1`, now,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
