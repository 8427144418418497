package service

import (
	"context"
	"log"
	"time"

	blacklistrepo "login-backend/internal/blacklist/repository"
)

// ExpiryReader extracts the expiry claim from an access token without
// requiring the token to verify.
type ExpiryReader interface {
	ExpiryOf(token string) (time.Time, error)
	AccessTTL() time.Duration
}

// Service records revoked access tokens so they stop working before
// their natural expiry.
type Service struct {
	repo  blacklistrepo.Repository
	codec ExpiryReader
}

func NewService(repo blacklistrepo.Repository, codec ExpiryReader) *Service {
	return &Service{repo: repo, codec: codec}
}

// Blacklist stores the token until its expiry claim passes. When the
// expiry cannot be read (tampered or truncated token) it is held for a
// full access-token lifetime from now, which covers the longest the
// token could still be valid.
func (s *Service) Blacklist(ctx context.Context, token string) error {
	expiresAt, err := s.codec.ExpiryOf(token)
	if err != nil {
		expiresAt = time.Now().UTC().Add(s.codec.AccessTTL())
		log.Printf("blacklist: could not read token expiry, holding until %s: %v", expiresAt.Format(time.RFC3339), err)
	}
	return s.repo.Insert(ctx, token, expiresAt)
}

func (s *Service) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return s.repo.Contains(ctx, token)
}

func (s *Service) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.DeleteExpired(ctx, now)
}
