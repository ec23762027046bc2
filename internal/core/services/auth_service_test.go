package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/lorrc/chamados/internal/core/mocks"
	"github.com/lorrc/chamados/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func storedUser(t *testing.T, username, password string, role domain.Role) *domain.User {
	t.Helper()
	user, err := domain.NewUser(domain.UserParams{Username: username, Password: password, Role: role}, openedAt)
	require.NoError(t, err)
	user.ID = 1
	return user
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mockUserRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockUserRepo, services.NewAuthorizationService(), fixedClock(openedAt))

		mockUserRepo.On("GetByUsername", ctx, "admin").Return(storedUser(t, "admin", "admin123", domain.RoleAdmin), nil)

		user, err := svc.Login(ctx, " admin ", "admin123")

		require.NoError(t, err)
		assert.Equal(t, "admin", user.Username)
		assert.True(t, user.IsAdmin())
	})

	t.Run("wrong password", func(t *testing.T) {
		mockUserRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockUserRepo, services.NewAuthorizationService(), fixedClock(openedAt))

		mockUserRepo.On("GetByUsername", ctx, "admin").Return(storedUser(t, "admin", "admin123", domain.RoleAdmin), nil)

		user, err := svc.Login(ctx, "admin", "wrong-pass")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("unknown user looks like wrong password", func(t *testing.T) {
		mockUserRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockUserRepo, services.NewAuthorizationService(), fixedClock(openedAt))

		mockUserRepo.On("GetByUsername", ctx, "ghost").Return(nil, apperrors.ErrUserNotFound)

		_, err := svc.Login(ctx, "ghost", "whatever")

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("missing fields", func(t *testing.T) {
		mockUserRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockUserRepo, services.NewAuthorizationService(), fixedClock(openedAt))

		_, err := svc.Login(ctx, "", "secret")
		assert.ErrorIs(t, err, apperrors.ErrUsernameRequired)

		_, err = svc.Login(ctx, "admin", "")
		assert.ErrorIs(t, err, apperrors.ErrPasswordRequired)

		mockUserRepo.AssertNotCalled(t, "GetByUsername", mock.Anything, mock.Anything)
	})

	t.Run("storage error is propagated", func(t *testing.T) {
		mockUserRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockUserRepo, services.NewAuthorizationService(), fixedClock(openedAt))
		storageErr := apperrors.NewStorageError("get user", errors.New("connection refused"))

		mockUserRepo.On("GetByUsername", ctx, "admin").Return(nil, storageErr)

		_, err := svc.Login(ctx, "admin", "admin123")

		assert.True(t, apperrors.IsStorageError(err))
	})
}

func TestAuthService_CreateUser(t *testing.T) {
	ctx := context.Background()
	params := domain.UserParams{Username: "joana", Password: "segredo1", Role: domain.RoleUser}

	t.Run("admin creates user", func(t *testing.T) {
		mockUserRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockUserRepo, services.NewAuthorizationService(), fixedClock(openedAt))

		mockUserRepo.On("GetByUsername", ctx, "joana").Return(nil, apperrors.ErrUserNotFound)
		mockUserRepo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.Username == "joana" && u.CheckPassword("segredo1") && u.CreatedAt.Equal(openedAt)
		})).Return(&domain.User{ID: 5, Username: "joana", Role: domain.RoleUser}, nil)

		user, err := svc.CreateUser(ctx, adminUser, params)

		require.NoError(t, err)
		assert.Equal(t, int64(5), user.ID)
		mockUserRepo.AssertExpectations(t)
	})

	t.Run("operator is forbidden", func(t *testing.T) {
		mockUserRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockUserRepo, services.NewAuthorizationService(), fixedClock(openedAt))

		_, err := svc.CreateUser(ctx, operator, params)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		mockUserRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate username", func(t *testing.T) {
		mockUserRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockUserRepo, services.NewAuthorizationService(), fixedClock(openedAt))

		mockUserRepo.On("GetByUsername", ctx, "joana").Return(&domain.User{ID: 3, Username: "joana"}, nil)

		_, err := svc.CreateUser(ctx, adminUser, params)

		assert.ErrorIs(t, err, apperrors.ErrUserExists)
		mockUserRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid params", func(t *testing.T) {
		mockUserRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockUserRepo, services.NewAuthorizationService(), fixedClock(openedAt))

		_, err := svc.CreateUser(ctx, adminUser, domain.UserParams{Username: "x", Password: "123", Role: "root"})

		var validationErr *apperrors.ValidationErrors
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Errors, "password")
		assert.Contains(t, validationErr.Errors, "role")
	})
}

func TestAuthService_EnsureUser(t *testing.T) {
	ctx := context.Background()
	params := domain.UserParams{Username: "admin", Password: "admin123", Role: domain.RoleAdmin}

	t.Run("creates missing user", func(t *testing.T) {
		mockUserRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockUserRepo, services.NewAuthorizationService(), fixedClock(openedAt))

		mockUserRepo.On("GetByUsername", ctx, "admin").Return(nil, apperrors.ErrUserNotFound)
		mockUserRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).
			Return(&domain.User{ID: 1, Username: "admin", Role: domain.RoleAdmin}, nil)

		user, created, err := svc.EnsureUser(ctx, params)

		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, int64(1), user.ID)
	})

	t.Run("existing user is left alone", func(t *testing.T) {
		mockUserRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockUserRepo, services.NewAuthorizationService(), fixedClock(openedAt))
		existing := storedUser(t, "admin", "changed-pass", domain.RoleAdmin)

		mockUserRepo.On("GetByUsername", ctx, "admin").Return(existing, nil)

		user, created, err := svc.EnsureUser(ctx, params)

		require.NoError(t, err)
		assert.False(t, created)
		assert.True(t, user.CheckPassword("changed-pass"))
		mockUserRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
