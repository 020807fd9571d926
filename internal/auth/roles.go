package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-desk/internal/domain"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

// RequireRole ensures the caller holds one of the roles, as primary or
// secondary. With no roles it only requires authentication.
func RequireRole(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok || user == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(roles) == 0 {
			return c.Next()
		}
		for _, role := range roles {
			if user.HasRole(role) {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("insufficient role")
	}
}

// RequireStaff ensures the caller can hold complaint assignments.
func RequireStaff() fiber.Handler {
	return RequireRole(domain.RoleLecturer, domain.RoleAdmin, domain.RoleComplaintCoordinator)
}
