package domain

import "time"

// Entry is a revoked access token held until its original expiry passes.
type Entry struct {
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
