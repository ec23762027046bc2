package domain

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/lorrc/chamados/internal/core/errors"
)

// Password validation constants
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72 // bcrypt ignores anything beyond 72 bytes
	MaxUsernameLength = 64
)

// Role is the access level of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "usuario"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Permissions checked by the services.
const (
	PermTicketsCreate   = "tickets:create"
	PermTicketsRead     = "tickets:read"
	PermTicketsClose    = "tickets:close"
	PermTicketsExport   = "tickets:export"
	PermDirectoryRead   = "directory:read"
	PermDashboardRead   = "dashboard:read"
	PermDashboardAll    = "dashboard:read:all"
	PermAdminReset      = "admin:reset"
	PermAdminCreateUser = "admin:users:create"
)

var rolePermissions = map[Role][]string{
	RoleUser: {
		PermTicketsCreate,
		PermTicketsRead,
		PermTicketsClose,
		PermTicketsExport,
		PermDirectoryRead,
		PermDashboardRead,
	},
	RoleAdmin: {
		PermTicketsCreate,
		PermTicketsRead,
		PermTicketsClose,
		PermTicketsExport,
		PermDirectoryRead,
		PermDashboardRead,
		PermDashboardAll,
		PermAdminReset,
		PermAdminCreateUser,
	},
}

// Permissions returns a copy of the permissions granted to r.
func (r Role) Permissions() []string {
	perms := rolePermissions[r]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	UserID   int64
	Username string
	Role     Role
}

// Actor returns the caller identity of u.
func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

// UserParams holds parameters for creating a user
type UserParams struct {
	Username string
	Password string
	Role     Role
}

// Validate validates user creation parameters
func (p *UserParams) Validate() error {
	errs := apperrors.NewValidationErrors()

	username := strings.TrimSpace(p.Username)
	if username == "" {
		errs.Add("username", "Username is required")
	} else if len(username) > MaxUsernameLength {
		errs.Add("username", "Username must be 64 characters or less")
	}

	if p.Password == "" {
		errs.Add("password", "Password is required")
	} else if len(p.Password) < MinPasswordLength {
		errs.Add("password", "Password must be at least 6 characters long")
	} else if len(p.Password) > MaxPasswordLength {
		errs.Add("password", "Password must be 72 characters or less")
	}

	if !p.Role.IsValid() {
		errs.Add("role", "Role must be admin or usuario")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", apperrors.ErrPasswordTooShort
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// NewUser creates a new user with validated parameters
func NewUser(params UserParams, createdAt time.Time) (*User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	hashedPassword, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	return &User{
		Username:     strings.TrimSpace(params.Username),
		PasswordHash: hashedPassword,
		Role:         params.Role,
		CreatedAt:    createdAt,
	}, nil
}
