package memory

import (
	"context"
	"sync"
	"time"

	"github.com/lorrc/chamados/internal/core/domain"
	"github.com/lorrc/chamados/internal/core/ports"
)

// TokenStore remembers revoked token ids until they expire.
type TokenStore struct {
	mu      sync.Mutex
	clock   domain.Clock
	revoked map[string]time.Time
}

var _ ports.TokenRevocationStore = (*TokenStore)(nil)

func NewTokenStore(clock domain.Clock) *TokenStore {
	return &TokenStore{clock: clock, revoked: make(map[string]time.Time)}
}

func (s *TokenStore) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purge()
	s.revoked[tokenID] = expiresAt
	return nil
}

func (s *TokenStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !s.clock().Before(expiresAt) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

// purge drops entries whose token could no longer be presented anyway.
func (s *TokenStore) purge() {
	now := s.clock()
	for id, exp := range s.revoked {
		if !now.Before(exp) {
			delete(s.revoked, id)
		}
	}
}
