package domain

import (
	"strings"
	"time"
)

// Role enumerates institutional roles.
type Role string

const (
	RoleStudent              Role = "Student"
	RoleLecturer             Role = "Lecturer"
	RoleAdmin                Role = "Admin"
	RoleComplaintCoordinator Role = "Complaint Coordinator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleLecturer, RoleAdmin, RoleComplaintCoordinator:
		return true
	}
	return false
}

// IsStaff reports whether the role can hold complaint assignments.
func (r Role) IsStaff() bool {
	return r == RoleLecturer || r == RoleAdmin || r == RoleComplaintCoordinator
}

// User is an authenticated institutional identity.
type User struct {
	ID            string
	Email         string
	FirstName     string
	LastName      string
	Role          Role
	SecondaryRole *Role
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DisplayName returns the best human-readable name for the user.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// HasRole reports whether the user holds role as primary or secondary.
func (u *User) HasRole(role Role) bool {
	if u.Role == role {
		return true
	}
	return u.SecondaryRole != nil && *u.SecondaryRole == role
}

// SetRoles replaces both role fields, enforcing primary != secondary.
func (u *User) SetRoles(primary Role, secondary *Role) error {
	if !primary.Valid() {
		return ErrInvalidRole
	}
	if secondary != nil {
		if !secondary.Valid() {
			return ErrInvalidRole
		}
		if *secondary == primary {
			return ErrDuplicateRole
		}
	}
	u.Role = primary
	u.SecondaryRole = secondary
	return nil
}

// RolePtr is a small helper for optional roles.
func RolePtr(r Role) *Role {
	return &r
}
