package redis

import (
	"context"
	"time"

	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/lorrc/chamados/internal/core/ports"
)

const revokedPrefix = "chamados:revoked:"

// TokenStore keeps revoked token ids as keys that expire with the token.
type TokenStore struct {
	client *Client
	clock  domain.Clock
}

var _ ports.TokenRevocationStore = (*TokenStore)(nil)

func NewTokenStore(client *Client, clock domain.Clock) *TokenStore {
	return &TokenStore{client: client, clock: clock}
}

// Revoke stores tokenID until expiresAt. Already expired tokens are ignored.
func (s *TokenStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.clock())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.rdb.Set(ctx, revokedPrefix+tokenID, "1", ttl).Err(); err != nil {
		return apperrors.NewStorageError("revoke token", err)
	}
	return nil
}

func (s *TokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.rdb.Exists(ctx, revokedPrefix+tokenID).Result()
	if err != nil {
		return false, apperrors.NewStorageError("check token", err)
	}
	return n > 0, nil
}
