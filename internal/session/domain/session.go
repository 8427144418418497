package domain

import "time"

// Session is one logged-in device: a refresh token row owned by a user.
// Token is the opaque high-entropy string presented by clients; ID is a
// surrogate used for session management endpoints.
type Session struct {
	ID         string
	Token      string
	UserID     string
	ExpiresAt  time.Time // fixed at creation; refresh never extends it
	Revoked    bool      // set-once; never reverts to false
	DeviceName string    // derived from UserAgent, display only
	IPAddress  string
	UserAgent  string
	CreatedAt  time.Time
}

// Expired reports whether the session is past its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
