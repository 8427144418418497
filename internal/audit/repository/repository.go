package repository

import (
	"context"

	"login-backend/internal/audit/domain"
)

// Repository persists audit events.
type Repository interface {
	Create(ctx context.Context, e *domain.Event) error
}
