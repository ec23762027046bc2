package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserParams_Validate(t *testing.T) {
	tests := []struct {
		name       string
		params     domain.UserParams
		errorField string
	}{
		{"valid", domain.UserParams{Username: "maria", Password: "secret1", Role: domain.RoleUser}, ""},
		{"missing username", domain.UserParams{Username: "  ", Password: "secret1", Role: domain.RoleUser}, "username"},
		{"long username", domain.UserParams{Username: strings.Repeat("u", 65), Password: "secret1", Role: domain.RoleUser}, "username"},
		{"short password", domain.UserParams{Username: "maria", Password: "abc", Role: domain.RoleUser}, "password"},
		{"bad role", domain.UserParams{Username: "maria", Password: "secret1", Role: "agent"}, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.errorField == "" {
				assert.NoError(t, err)
				return
			}
			var verrs *apperrors.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.Errors, tt.errorField)
		})
	}
}

func TestNewUser(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	user, err := domain.NewUser(domain.UserParams{Username: " admin ", Password: "admin123", Role: domain.RoleAdmin}, now)
	require.NoError(t, err)

	assert.Equal(t, "admin", user.Username)
	assert.True(t, user.IsAdmin())
	assert.NotEqual(t, "admin123", user.PasswordHash)
	assert.True(t, user.CheckPassword("admin123"))
	assert.False(t, user.CheckPassword("wrong"))
	assert.Equal(t, now, user.CreatedAt)
}

func TestRole_Permissions(t *testing.T) {
	assert.Contains(t, domain.RoleAdmin.Permissions(), domain.PermAdminReset)
	assert.NotContains(t, domain.RoleUser.Permissions(), domain.PermAdminReset)
	assert.NotContains(t, domain.RoleUser.Permissions(), domain.PermDashboardAll)
	assert.Contains(t, domain.RoleUser.Permissions(), domain.PermTicketsClose)
	assert.Empty(t, domain.Role("ghost").Permissions())
}

func TestHashPassword_TooShort(t *testing.T) {
	_, err := domain.HashPassword("abc")
	assert.ErrorIs(t, err, apperrors.ErrPasswordTooShort)
}
