package service

import (
	"context"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

// CatalogService exposes categories and courses for complaint forms.
type CatalogService struct {
	store repository.Store
}

// NewCatalogService constructs the service.
func NewCatalogService(store repository.Store) *CatalogService {
	return &CatalogService{store: store}
}

// ListCategories returns every category.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.store.Repos().Categories.List(ctx)
}

// ListCourses returns the lecturer's own courses, or every course for
// anyone else.
func (s *CatalogService) ListCourses(ctx context.Context, actor *domain.User, mine bool) ([]domain.Course, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	courses := s.store.Repos().Courses
	if mine {
		if !actor.HasRole(domain.RoleLecturer) {
			return nil, apperrors.NewForbidden("only lecturers own courses")
		}
		return courses.ListByLecturer(ctx, actor.ID)
	}
	return courses.List(ctx)
}
