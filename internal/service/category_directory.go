package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/policy"
	"github.com/spec-kit/complaint-desk/internal/repository"
)

// CategoryDirectory keeps the category-to-admin membership in line with the
// routing policy and answers who is responsible for a category.
type CategoryDirectory struct {
	policy *policy.Table
	logger *zap.Logger
}

// NewCategoryDirectory constructs the directory.
func NewCategoryDirectory(table *policy.Table, logger *zap.Logger) *CategoryDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryDirectory{policy: table, logger: logger}
}

// OnAdminProfileCreated links a new admin to every category its office handles.
// System profiles never join the directory. Categories missing from the
// store are skipped.
func (d *CategoryDirectory) OnAdminProfileCreated(ctx context.Context, repos repository.Repositories, profile *domain.AdminProfile) error {
	if profile == nil || profile.IsSystem {
		return nil
	}
	for _, name := range d.policy.CategoriesFor(profile.Office) {
		category, err := repos.Categories.GetByName(ctx, name)
		if errors.Is(err, repository.ErrNotFound) {
			d.logger.Warn("policy category not seeded", zap.String("category", name), zap.String("office", string(profile.Office)))
			continue
		}
		if err != nil {
			return err
		}
		if err := repos.Categories.AddAdmin(ctx, category.ID, profile.ID); err != nil {
			return err
		}
	}
	return nil
}

// ResponsibleAdmins returns the admins linked to categoryID from one snapshot read.
func (d *CategoryDirectory) ResponsibleAdmins(ctx context.Context, repos repository.Repositories, categoryID string) ([]domain.AdminProfile, error) {
	admins, err := repos.Categories.ListAdmins(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	out := admins[:0]
	for _, a := range admins {
		if !a.IsSystem {
			out = append(out, a)
		}
	}
	return out, nil
}

// Seed creates the fixed categories and backfills memberships for admins
// that existed before a category did. Safe to run repeatedly.
func (d *CategoryDirectory) Seed(ctx context.Context, repos repository.Repositories) ([]domain.Category, error) {
	categories := make([]domain.Category, 0, len(domain.SeedCategories))
	for _, seed := range domain.SeedCategories {
		c, err := repos.Categories.Ensure(ctx, seed.Name, seed.Description)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}

	admins, err := repos.Profiles.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	for i := range admins {
		if err := d.OnAdminProfileCreated(ctx, repos, &admins[i]); err != nil {
			return nil, err
		}
	}
	return categories, nil
}
