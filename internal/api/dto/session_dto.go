package dto

import (
	"time"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

// LoginRequest carries the identity asserted by the upstream provider.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

// SessionResponse returns the issued token.
type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse describes a user and the profiles it holds.
type UserResponse struct {
	ID            string               `json:"id"`
	Email         string               `json:"email"`
	FirstName     string               `json:"first_name"`
	LastName      string               `json:"last_name"`
	Role          domain.Role          `json:"role"`
	SecondaryRole *domain.Role         `json:"secondary_role"`
	Profiles      []domain.ProfileKind `json:"profiles,omitempty"`
	Admin         *AdminProfileBody    `json:"admin_profile,omitempty"`
}

// AdminProfileBody is the office attributes of an admin.
type AdminProfileBody struct {
	Office   domain.Office  `json:"office"`
	Function string         `json:"function"`
	Faculty  domain.Faculty `json:"faculty"`
}

// NewUserResponse renders user with its profiles.
func NewUserResponse(user *domain.User, profiles domain.Profiles) UserResponse {
	resp := UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Role:          user.Role,
		SecondaryRole: user.SecondaryRole,
		Profiles:      profiles.Kinds(),
	}
	if profiles.Admin != nil {
		resp.Admin = &AdminProfileBody{
			Office:   profiles.Admin.Office,
			Function: profiles.Admin.Function,
			Faculty:  profiles.Admin.Faculty,
		}
	}
	return resp
}
