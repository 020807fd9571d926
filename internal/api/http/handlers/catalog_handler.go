package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-desk/internal/api/dto"
	"github.com/spec-kit/complaint-desk/internal/auth"
	"github.com/spec-kit/complaint-desk/internal/service"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

// CatalogHandler lists categories and courses.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: catalog}
}

// ListCategories GET /categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		items = append(items, dto.CategoryResponse{ID: cat.ID, Name: cat.Name, Description: cat.Description})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListCourses GET /courses. ?mine=true limits to the lecturer's own courses.
func (h *CatalogHandler) ListCourses(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	courses, err := h.service.ListCourses(c.UserContext(), user, c.QueryBool("mine", false))
	if err != nil {
		return err
	}
	items := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		items = append(items, dto.CourseResponse{
			ID:         course.ID,
			Code:       course.Code,
			Title:      course.Title,
			Semester:   course.Semester,
			Year:       course.Year,
			Faculty:    course.Faculty,
			LecturerID: course.LecturerID,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
