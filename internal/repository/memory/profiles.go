package memory

import (
	"context"
	"fmt"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository"
)

type profileRepo struct{ handle }

func (r profileRepo) Get(_ context.Context, userID string) (domain.Profiles, error) {
	defer r.lock()()
	var p domain.Profiles
	d := r.db()
	if s, ok := d.students[userID]; ok {
		s.StudentNumber = clonePtr(s.StudentNumber)
		p.Student = &s
	}
	if l, ok := d.lecturers[userID]; ok {
		p.Lecturer = &l
	}
	if a, ok := d.admins[userID]; ok {
		p.Admin = &a
	}
	return p, nil
}

func (r profileRepo) requireUser(userID string) error {
	if _, ok := r.db().users[userID]; !ok {
		return fmt.Errorf("memory: user %s: %w", userID, repository.ErrNotFound)
	}
	return nil
}

func (r profileRepo) EnsureStudent(_ context.Context, userID string) (*domain.StudentProfile, bool, error) {
	defer r.lock()()
	if p, ok := r.db().students[userID]; ok {
		return &p, false, nil
	}
	if err := r.requireUser(userID); err != nil {
		return nil, false, err
	}
	p := domain.StudentProfile{ID: r.newID(), UserID: userID, CreatedAt: r.now()}
	r.db().students[userID] = p
	return &p, true, nil
}

func (r profileRepo) EnsureLecturer(_ context.Context, userID string) (*domain.LecturerProfile, bool, error) {
	defer r.lock()()
	if p, ok := r.db().lecturers[userID]; ok {
		return &p, false, nil
	}
	if err := r.requireUser(userID); err != nil {
		return nil, false, err
	}
	p := domain.LecturerProfile{ID: r.newID(), UserID: userID, CreatedAt: r.now()}
	r.db().lecturers[userID] = p
	return &p, true, nil
}

func (r profileRepo) EnsureAdmin(_ context.Context, profile *domain.AdminProfile) (bool, error) {
	defer r.lock()()
	if p, ok := r.db().admins[profile.UserID]; ok {
		*profile = p
		return false, nil
	}
	if err := r.requireUser(profile.UserID); err != nil {
		return false, err
	}
	profile.ID = r.newID()
	profile.CreatedAt = r.now()
	r.db().admins[profile.UserID] = *profile
	return true, nil
}

func (r profileRepo) GetAdmin(_ context.Context, userID string) (*domain.AdminProfile, error) {
	defer r.lock()()
	p, ok := r.db().admins[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r profileRepo) ListAdmins(_ context.Context) ([]domain.AdminProfile, error) {
	defer r.lock()()
	byID := make(map[string]domain.AdminProfile, len(r.db().admins))
	ids := make([]string, 0, len(r.db().admins))
	for _, p := range r.db().admins {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	r.sortByOrder(ids, false)
	out := make([]domain.AdminProfile, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out, nil
}
