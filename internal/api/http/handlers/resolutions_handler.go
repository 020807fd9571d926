package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-desk/internal/api/dto"
	"github.com/spec-kit/complaint-desk/internal/auth"
	"github.com/spec-kit/complaint-desk/internal/service"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

// ResolutionsHandler edits and reviews resolutions.
type ResolutionsHandler struct {
	service *service.ResolutionService
}

// NewResolutionsHandler constructs handler.
func NewResolutionsHandler(resolutions *service.ResolutionService) *ResolutionsHandler {
	return &ResolutionsHandler{service: resolutions}
}

// UpdateResolution PATCH /resolutions/:id.
func (h *ResolutionsHandler) UpdateResolution(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateResolutionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	resolution, err := h.service.Update(c.UserContext(), user, c.Params("id"), service.UpdateResolutionInput{
		Comments:   req.Comments,
		Marks:      req.MarksBody.Domain(),
		IsReviewed: req.IsReviewed,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewResolutionResponse(resolution)})
}

// ReviewResolution POST /resolutions/:id/review.
func (h *ResolutionsHandler) ReviewResolution(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	resolution, err := h.service.Review(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewResolutionResponse(resolution)})
}
