package memory

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/quote-service/internal/repository"
)

// TokenStore is a revocation list that forgets entries after their ttl.
type TokenStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewTokenStore returns an empty revocation list.
func NewTokenStore() *TokenStore {
	return &TokenStore{revoked: map[string]time.Time{}, now: time.Now}
}

var _ repository.RevokedTokenStore = (*TokenStore)(nil)

func (s *TokenStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = s.now().Add(ttl)
	return nil
}

func (s *TokenStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if s.now().After(expires) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
