package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-desk/internal/api/dto"
	"github.com/spec-kit/complaint-desk/internal/auth"
	"github.com/spec-kit/complaint-desk/internal/service"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

// AssignmentsHandler lists and revokes complaint assignments.
type AssignmentsHandler struct {
	service *service.ComplaintService
}

// NewAssignmentsHandler constructs handler.
func NewAssignmentsHandler(complaints *service.ComplaintService) *AssignmentsHandler {
	return &AssignmentsHandler{service: complaints}
}

// ListMine GET /assignments. ?all=true includes revoked assignments.
func (h *AssignmentsHandler) ListMine(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	assignments, err := h.service.ListAssignments(c.UserContext(), user, !c.QueryBool("all", false))
	if err != nil {
		return err
	}
	items := make([]dto.AssignmentResponse, 0, len(assignments))
	for i := range assignments {
		items = append(items, dto.NewAssignmentResponse(&assignments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Revoke POST /assignments/:id/revoke.
func (h *AssignmentsHandler) Revoke(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	assignment, err := h.service.RevokeAssignment(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAssignmentResponse(assignment)})
}
