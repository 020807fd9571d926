package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository"
)

type courseRepo struct{ handle }

func (r courseRepo) UpsertByCode(_ context.Context, course *domain.Course) error {
	defer r.lock()()
	d := r.db()
	if _, ok := d.users[course.LecturerID]; !ok {
		return repository.ErrNotFound
	}
	now := r.now()
	for id, existing := range d.courses {
		if existing.Code == course.Code {
			course.ID = id
			course.CreatedAt = existing.CreatedAt
			course.UpdatedAt = now
			d.courses[id] = *course
			return nil
		}
	}
	course.ID = r.newID()
	course.CreatedAt = now
	course.UpdatedAt = now
	d.courses[course.ID] = *course
	return nil
}

func (r courseRepo) GetByID(_ context.Context, id string) (*domain.Course, error) {
	defer r.lock()()
	c, ok := r.db().courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r courseRepo) ListByLecturer(_ context.Context, lecturerID string) ([]domain.Course, error) {
	defer r.lock()()
	return r.collect(func(c domain.Course) bool { return c.LecturerID == lecturerID }), nil
}

func (r courseRepo) List(_ context.Context) ([]domain.Course, error) {
	defer r.lock()()
	return r.collect(func(domain.Course) bool { return true }), nil
}

func (r courseRepo) collect(keep func(domain.Course) bool) []domain.Course {
	var out []domain.Course
	for _, c := range r.db().courses {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
