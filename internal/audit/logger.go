package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"login-backend/internal/audit/domain"
	auditrepo "login-backend/internal/audit/repository"
	"login-backend/internal/platform/reqctx"
)

// Logger writes audit trail entries. Recording is best effort: a failed
// write is logged and swallowed so it never fails the request that
// triggered it.
type Logger struct {
	repo auditrepo.Repository
}

func NewLogger(repo auditrepo.Repository) *Logger {
	return &Logger{repo: repo}
}

// LogEvent records an action by username on resource. The client IP is
// taken from the request context when present.
func (l *Logger) LogEvent(ctx context.Context, username, action, resource string, metadata map[string]string) {
	if l == nil || l.repo == nil {
		return
	}
	e := &domain.Event{
		ID:        uuid.New().String(),
		Username:  username,
		Action:    action,
		Resource:  resource,
		IP:        reqctx.ClientIP(ctx),
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, e); err != nil {
		log.Printf("audit: failed to record %s for %s: %v", action, username, err)
	}
}
