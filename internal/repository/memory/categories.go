package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository"
)

type categoryRepo struct{ handle }

func (r categoryRepo) Ensure(_ context.Context, name, description string) (*domain.Category, error) {
	defer r.lock()()
	if c, ok := r.byName(name); ok {
		return &c, nil
	}
	now := r.now()
	c := domain.Category{ID: r.newID(), Name: name, Description: description, CreatedAt: now, UpdatedAt: now}
	r.db().categories[c.ID] = c
	return &c, nil
}

func (r categoryRepo) byName(name string) (domain.Category, bool) {
	for _, c := range r.db().categories {
		if c.Name == name {
			return c, true
		}
	}
	return domain.Category{}, false
}

func (r categoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	defer r.lock()()
	c, ok := r.db().categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r categoryRepo) GetByName(_ context.Context, name string) (*domain.Category, error) {
	defer r.lock()()
	c, ok := r.byName(name)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r categoryRepo) List(_ context.Context) ([]domain.Category, error) {
	defer r.lock()()
	out := make([]domain.Category, 0, len(r.db().categories))
	for _, c := range r.db().categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r categoryRepo) AddAdmin(_ context.Context, categoryID, adminProfileID string) error {
	defer r.lock()()
	d := r.db()
	if _, ok := d.categories[categoryID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.adminByID(adminProfileID); !ok {
		return repository.ErrNotFound
	}
	if slices.Contains(d.categoryAdmins[categoryID], adminProfileID) {
		return nil
	}
	d.categoryAdmins[categoryID] = append(d.categoryAdmins[categoryID], adminProfileID)
	return nil
}

func (r categoryRepo) ListAdmins(_ context.Context, categoryID string) ([]domain.AdminProfile, error) {
	defer r.lock()()
	ids := r.db().categoryAdmins[categoryID]
	out := make([]domain.AdminProfile, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.adminByID(id); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r categoryRepo) adminByID(id string) (domain.AdminProfile, bool) {
	for _, p := range r.db().admins {
		if p.ID == id {
			return p, true
		}
	}
	return domain.AdminProfile{}, false
}
