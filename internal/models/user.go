package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user account can carry. Role is a closed enumeration stored
// directly on the user row.
const (
	RoleFarmer = "farmer"
	RoleAdmin  = "admin"
)

// User represents a registered account
type User struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Phone             *string    `json:"phone,omitempty"`
	Role              string     `json:"role"`
	PasswordHash      string     `json:"-"`
	EmailVerified     bool       `json:"email_verified"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
	PasswordChangedAt *time.Time `json:"password_changed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// UserInfo is the sanitized view of a user returned by the API.
// Credential material never appears here.
type UserInfo struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// Info returns the sanitized API view of the user
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// IsAdmin returns true if the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
