package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"login-backend/internal/security"
)

type memBlacklistRepo struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newMemBlacklistRepo() *memBlacklistRepo {
	return &memBlacklistRepo{entries: make(map[string]time.Time)}
}

func (r *memBlacklistRepo) Contains(ctx context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[token]
	return ok, nil
}

func (r *memBlacklistRepo) Insert(ctx context.Context, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[token]; !ok {
		r.entries[token] = expiresAt
	}
	return nil
}

func (r *memBlacklistRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for token, exp := range r.entries {
		if exp.Before(now) {
			delete(r.entries, token)
			count++
		}
	}
	return count, nil
}

func (r *memBlacklistRepo) expiryOf(token string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.entries[token]
	return exp, ok
}

const testSecret = "0123456789abcdef0123456789abcdef"

func TestService_BlacklistVerifiableToken(t *testing.T) {
	codec := security.NewTokenCodec([]byte(testSecret), "login-backend", 15*time.Minute)
	repo := newMemBlacklistRepo()
	svc := NewService(repo, codec)
	ctx := context.Background()

	token, expiresAt, err := codec.Mint("alice", "USER")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := svc.Blacklist(ctx, token); err != nil {
		t.Fatalf("Blacklist: %v", err)
	}

	ok, err := svc.IsBlacklisted(ctx, token)
	if err != nil {
		t.Fatalf("IsBlacklisted: %v", err)
	}
	if !ok {
		t.Error("token should be blacklisted")
	}
	stored, _ := repo.expiryOf(token)
	if stored.Unix() != expiresAt.Unix() {
		t.Errorf("stored expiry = %v, want token expiry %v", stored, expiresAt)
	}
}

func TestService_BlacklistUnreadableTokenUsesFallbackTTL(t *testing.T) {
	codec := security.NewTokenCodec([]byte(testSecret), "login-backend", 15*time.Minute)
	repo := newMemBlacklistRepo()
	svc := NewService(repo, codec)
	ctx := context.Background()

	before := time.Now().UTC()
	if err := svc.Blacklist(ctx, "not-a-jwt"); err != nil {
		t.Fatalf("Blacklist: %v", err)
	}
	after := time.Now().UTC()

	ok, _ := svc.IsBlacklisted(ctx, "not-a-jwt")
	if !ok {
		t.Fatal("unreadable token must still be blacklisted")
	}
	stored, _ := repo.expiryOf("not-a-jwt")
	if stored.Before(before.Add(15*time.Minute)) || stored.After(after.Add(15*time.Minute)) {
		t.Errorf("fallback expiry = %v, want roughly now+15m", stored)
	}
}

func TestService_BlacklistIdempotent(t *testing.T) {
	codec := security.NewTokenCodec([]byte(testSecret), "login-backend", 15*time.Minute)
	repo := newMemBlacklistRepo()
	svc := NewService(repo, codec)
	ctx := context.Background()

	token, _, err := codec.Mint("alice", "USER")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := svc.Blacklist(ctx, token); err != nil {
		t.Fatalf("Blacklist: %v", err)
	}
	if err := svc.Blacklist(ctx, token); err != nil {
		t.Fatalf("second Blacklist: %v", err)
	}
}

func TestService_CleanupExpired(t *testing.T) {
	codec := security.NewTokenCodec([]byte(testSecret), "login-backend", 15*time.Minute)
	repo := newMemBlacklistRepo()
	svc := NewService(repo, codec)
	ctx := context.Background()
	now := time.Now().UTC()

	repo.Insert(ctx, "stale", now.Add(-time.Hour))
	repo.Insert(ctx, "fresh", now.Add(time.Hour))

	count, err := svc.CleanupExpired(ctx, now)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if count != 1 {
		t.Errorf("CleanupExpired = %d, want 1", count)
	}
	if ok, _ := svc.IsBlacklisted(ctx, "fresh"); !ok {
		t.Error("unexpired entry must survive cleanup")
	}
}
