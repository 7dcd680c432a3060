package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is a user's position in the permission hierarchy.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
	RoleViewer  Role = "viewer"
)

// Roles lists every role, highest first.
var Roles = []Role{RoleAdmin, RoleManager, RoleCashier, RoleViewer}

// Rank returns the hierarchy level: admin 4, manager 3, cashier 2, viewer 1.
// Unknown roles rank 0.
func (r Role) Rank() int {
	switch r {
	case RoleAdmin:
		return 4
	case RoleManager:
		return 3
	case RoleCashier:
		return 2
	case RoleViewer:
		return 1
	}
	return 0
}

func (r Role) Valid() bool { return r.Rank() > 0 }

// User represents an authenticated POS user.
type User struct {
	Base
	Username     string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"` // never exposed in JSON
	FirstName    string     `gorm:"size:100" json:"first_name"`
	LastName     string     `gorm:"size:100" json:"last_name"`
	AvatarURL    *string    `gorm:"size:500" json:"avatar_url"`
	Role         Role       `gorm:"size:20;not null;index" json:"role"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	IsVerified   bool       `gorm:"not null" json:"is_verified"`
	LastLogin    *time.Time `json:"last_login"`
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsManager is true for managers and admins.
func (u *User) IsManager() bool { return u.Role == RoleAdmin || u.Role == RoleManager }

// HasRole reports whether the user's role is at least r.
func (u *User) HasRole(r Role) bool { return u.Role.Rank() >= r.Rank() }

// UserResponse is the public representation of a user.
type UserResponse struct {
	ID         uuid.UUID  `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	FullName   string     `json:"full_name"`
	AvatarURL  *string    `json:"avatar_url"`
	Role       Role       `json:"role"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	LastLogin  *time.Time `json:"last_login"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (u *User) Response() UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		FullName:   u.FullName(),
		AvatarURL:  u.AvatarURL,
		Role:       u.Role,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
