package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
)

// Repository stores revoked access tokens until they would have expired
// anyway. Insert is idempotent: re-revoking an already blacklisted token
// is a no-op, not an error.
type Repository interface {
	Contains(ctx context.Context, token string) (bool, error)
	Insert(ctx context.Context, token string, expiresAt time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// New picks the blacklist backend: Redis when an address is configured,
// Postgres otherwise. Every binary that needs a blacklist goes through
// here so they all agree on the backend.
func New(database *sql.DB, redisAddr, redisPassword string) Repository {
	if redisAddr == "" {
		return NewPostgresRepository(database)
	}
	return NewRedisRepository(redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
	}))
}
