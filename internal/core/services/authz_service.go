package services

import (
	"context"
	"slices"

	"github.com/lorrc/chamados/internal/core/domain"
	"github.com/lorrc/chamados/internal/core/ports"
)

// AuthorizationService implements role based access checks. Permissions are
// a static function of the actor's role.
type AuthorizationService struct{}

// Ensure implementation matches the interface.
var _ ports.AuthorizationService = (*AuthorizationService)(nil)

// NewAuthorizationService creates a new service for authorization logic.
func NewAuthorizationService() ports.AuthorizationService {
	return &AuthorizationService{}
}

// Can checks if the actor's role grants a specific permission.
func (s *AuthorizationService) Can(ctx context.Context, actor domain.Actor, permission string) (bool, error) {
	return slices.Contains(actor.Role.Permissions(), permission), nil
}

// GetPermissions returns all permissions for the actor.
func (s *AuthorizationService) GetPermissions(ctx context.Context, actor domain.Actor) ([]string, error) {
	return actor.Role.Permissions(), nil
}
