// internal/core/domain/user.go
package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role represents a user's tier
type Role string

// Role constants
const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleAgent      Role = "agent"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleAgent:
		return true
	}
	return false
}

// IsElevated reports whether r is above the lowest tier
func (r Role) IsElevated() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// User represents an account that can sign in
type User struct {
	ID           uuid.UUID     `json:"id"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Name         string        `json:"name"`
	Role         Role          `json:"role"`
	Permissions  PermissionSet `json:"permissions"`
	Token        string        `json:"token"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Validate checks the fields required to persist a user
func (u *User) Validate() error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Name = strings.TrimSpace(u.Name)

	if u.Email == "" {
		return NewValidationError("email", "email is required")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return NewValidationError("email", "email is invalid")
	}
	if u.Name == "" {
		return NewValidationError("name", "name is required")
	}
	if u.Role == "" {
		u.Role = RoleAgent
	}
	if !u.Role.Valid() {
		return NewValidationError("role", "role must be one of superadmin, admin, agent")
	}
	return nil
}

// PrepareForStorage sets identifiers and timestamps
func (u *User) PrepareForStorage() {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}

// Identity returns the session view of the user
func (u *User) Identity() *Identity {
	return &Identity{
		UserID:      u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Permissions: u.Permissions,
		Token:       u.Token,
	}
}

// Identity is the authenticated caller as carried by a session token.
type Identity struct {
	UserID      uuid.UUID     `json:"id"`
	Email       string        `json:"email"`
	Name        string        `json:"name"`
	Role        Role          `json:"role"`
	Permissions PermissionSet `json:"permissions"`
	Token       string        `json:"token"`
	SessionID   string        `json:"-"`
	ExpiresAt   time.Time     `json:"-"`
}

// Can reports whether the identity holds module:op
func (i *Identity) Can(module Module, op Operation) bool {
	return i != nil && i.Permissions.Has(module, op)
}

// Require returns a PermissionError when module:op is not granted
func (i *Identity) Require(module Module, op Operation) error {
	if i == nil {
		return ErrUnauthenticated
	}
	return i.Permissions.Require(module, op)
}

// HasRole reports whether the identity holds one of roles
func (i *Identity) HasRole(roles ...Role) bool {
	if i == nil {
		return false
	}
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}
