// Package sweep removes expired sessions and blacklist entries on a
// fixed interval.
package sweep

import (
	"context"
	"log"
	"time"

	"login-backend/internal/telemetry"
)

// Cleaner deletes rows past their expiry and reports how many went.
type Cleaner interface {
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

type Sweeper struct {
	sessions  Cleaner
	blacklist Cleaner
	interval  time.Duration
	metrics   *telemetry.Metrics
}

func NewSweeper(sessions, blacklist Cleaner, interval time.Duration, metrics *telemetry.Metrics) *Sweeper {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Sweeper{sessions: sessions, blacklist: blacklist, interval: interval, metrics: metrics}
}

// Run sweeps once immediately, then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	s.RunOnce(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep. A failure in one store does not stop
// the other from being swept.
func (s *Sweeper) RunOnce(ctx context.Context) {
	now := time.Now().UTC()

	if n, err := s.sessions.CleanupExpired(ctx, now); err != nil {
		log.Printf("sweep: sessions: %v", err)
	} else if n > 0 {
		log.Printf("sweep: removed %d expired sessions", n)
		s.metrics.RecordSweepDeletions(ctx, "sessions", n)
	}

	if n, err := s.blacklist.CleanupExpired(ctx, now); err != nil {
		log.Printf("sweep: blacklist: %v", err)
	} else if n > 0 {
		log.Printf("sweep: removed %d expired blacklist entries", n)
		s.metrics.RecordSweepDeletions(ctx, "blacklist", n)
	}
}
