package services

import (
	"context"
	"errors"
	"strings"

	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/lorrc/chamados/internal/core/ports"
)

// AuthService implements authentication business logic
type AuthService struct {
	userRepo ports.UserRepository
	authzSvc ports.AuthorizationService
	clock    domain.Clock
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new authentication service
func NewAuthService(userRepo ports.UserRepository, authzSvc ports.AuthorizationService, clock domain.Clock) ports.AuthService {
	return &AuthService{
		userRepo: userRepo,
		authzSvc: authzSvc,
		clock:    clock,
	}
}

// Login authenticates a user with username and password
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	// Basic validation
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.ErrUsernameRequired
	}
	if password == "" {
		return nil, apperrors.ErrPasswordRequired
	}

	// Find user by username
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Don't reveal whether the username exists
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	// Verify password
	if !user.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return user, nil
}

// CreateUser registers a new account on behalf of an administrator.
func (s *AuthService) CreateUser(ctx context.Context, actor domain.Actor, params domain.UserParams) (*domain.User, error) {
	// 1. Authorization Check
	allowed, err := s.authzSvc.Can(ctx, actor, domain.PermAdminCreateUser)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.ErrForbidden
	}

	// 2. Validate before touching storage
	if err := params.Validate(); err != nil {
		return nil, err
	}

	// 3. Reject duplicates
	_, err = s.userRepo.GetByUsername(ctx, strings.TrimSpace(params.Username))
	if err == nil {
		return nil, apperrors.ErrUserExists
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}

	// 4. Persist
	user, err := domain.NewUser(params, s.clock())
	if err != nil {
		return nil, err
	}
	return s.userRepo.Create(ctx, user)
}

// EnsureUser creates the account if it does not exist yet. Existing accounts
// are returned untouched, including their password.
func (s *AuthService) EnsureUser(ctx context.Context, params domain.UserParams) (*domain.User, bool, error) {
	if err := params.Validate(); err != nil {
		return nil, false, err
	}

	existing, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(params.Username))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, false, err
	}

	user, err := domain.NewUser(params, s.clock())
	if err != nil {
		return nil, false, err
	}
	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}
