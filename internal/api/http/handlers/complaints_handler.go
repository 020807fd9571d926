package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-desk/internal/api/dto"
	"github.com/spec-kit/complaint-desk/internal/auth"
	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/service"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

// IdempotencyKeyHeader lets clients retry complaint creation safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// ComplaintsHandler manages complaint endpoints.
type ComplaintsHandler struct {
	complaints  *service.ComplaintService
	resolutions *service.ResolutionService
	now         func() time.Time
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaints *service.ComplaintService, resolutions *service.ResolutionService) *ComplaintsHandler {
	return &ComplaintsHandler{complaints: complaints, resolutions: resolutions, now: time.Now}
}

// CreateComplaint POST /complaints.
func (h *ComplaintsHandler) CreateComplaint(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	filed, err := h.complaints.FileComplaint(c.UserContext(), user, service.FileComplaintInput{
		Title:          req.Title,
		Description:    req.Description,
		CategoryID:     req.CategoryID,
		CourseID:       req.CourseID,
		Type:           req.Type,
		IsAnonymous:    req.IsAnonymous,
		Semester:       req.Semester,
		Year:           req.Year,
		IdempotencyKey: strings.TrimSpace(c.Get(IdempotencyKeyHeader)),
	})
	if err != nil {
		return err
	}

	resp := dto.FiledComplaintResponse{
		ComplaintResponse: dto.NewComplaintResponse(filed.Complaint, user.ID, h.now()),
		Replayed:          filed.Replayed,
		AssigneeIDs:       []string{},
	}
	status := http.StatusOK
	if filed.Route != nil {
		status = http.StatusCreated
		resp.AutoResolved = filed.Route.AutoResolved()
		resp.AssigneeIDs = filed.Route.AssigneeIDs()
		for _, p := range filed.Route.Preconditions {
			resp.Preconditions = append(resp.Preconditions, p.Error())
		}
	}
	return c.Status(status).JSON(fiber.Map{"data": resp})
}

// ListComplaints GET /complaints.
func (h *ComplaintsHandler) ListComplaints(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := service.ComplaintListFilter{}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		st := domain.ComplaintStatus(status)
		filter.Status = &st
	}
	switch scope := strings.TrimSpace(c.Query("scope")); scope {
	case "", "mine":
	case "community":
		filter.Community = true
	default:
		return apperrors.NewValidationError("invalid scope", map[string]any{"scope": scope})
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	complaints, err := h.complaints.ListComplaints(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	now := h.now()
	items := make([]dto.ComplaintResponse, 0, len(complaints))
	for i := range complaints {
		items = append(items, dto.NewComplaintResponse(&complaints[i], user.ID, now))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetComplaint GET /complaints/:id.
func (h *ComplaintsHandler) GetComplaint(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	complaint, err := h.complaints.GetComplaint(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint, user.ID, h.now())})
}

// ChangeStatus PATCH /complaints/:id/status.
func (h *ComplaintsHandler) ChangeStatus(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	complaint, err := h.complaints.ChangeStatus(c.UserContext(), user, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint, user.ID, h.now())})
}

// ListResolutions GET /complaints/:id/resolutions.
func (h *ComplaintsHandler) ListResolutions(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	resolutions, err := h.resolutions.ListForComplaint(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ResolutionResponse, 0, len(resolutions))
	for i := range resolutions {
		items = append(items, dto.NewResolutionResponse(&resolutions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateResolution POST /complaints/:id/resolutions.
func (h *ComplaintsHandler) CreateResolution(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateResolutionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	resolution, err := h.resolutions.Submit(c.UserContext(), user, service.SubmitResolutionInput{
		ComplaintID: c.Params("id"),
		Comments:    req.Comments,
		Marks:       req.MarksBody.Domain(),
		IsReviewed:  req.IsReviewed,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewResolutionResponse(resolution)})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
