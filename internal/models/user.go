package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleTutor    UserRole = "tutor"
	RoleProvider UserRole = "provider"
	RoleAdmin    UserRole = "admin"
)

// User is a registered account. Exactly one role at a time.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         UserRole   `json:"role"`
	City         string     `json:"city,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"-"`
}

func IsValidRole(role UserRole) bool {
	switch role {
	case RoleTutor, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// ParseRole normalizes a role hint from user input. Admin is never
// self-assignable; unknown or empty hints fall back to tutor.
func ParseRole(raw string) UserRole {
	role := UserRole(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleTutor, RoleProvider:
		return role
	}
	return RoleTutor
}
