package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository"
)

type assignmentRepo struct{ handle }

func copyAssignment(a domain.ComplaintAssignment) *domain.ComplaintAssignment {
	a.RevokedAt = clonePtr(a.RevokedAt)
	return &a
}

func (r assignmentRepo) Create(_ context.Context, a *domain.ComplaintAssignment) (bool, error) {
	defer r.lock()()
	d := r.db()
	if _, ok := d.complaints[a.ComplaintID]; !ok {
		return false, fmt.Errorf("memory: complaint %s: %w", a.ComplaintID, repository.ErrNotFound)
	}
	if _, ok := d.users[a.StaffID]; !ok {
		return false, fmt.Errorf("memory: staff %s: %w", a.StaffID, repository.ErrNotFound)
	}
	for _, existing := range d.assignments {
		if existing.ComplaintID == a.ComplaintID && existing.StaffID == a.StaffID {
			return false, nil
		}
	}
	a.ID = r.newID()
	a.ReminderCount = 0
	a.RevokedAt = nil
	a.CreatedAt = r.now()
	a.UpdatedAt = a.CreatedAt
	d.assignments[a.ID] = *a
	return true, nil
}

func (r assignmentRepo) GetByID(_ context.Context, id string) (*domain.ComplaintAssignment, error) {
	defer r.lock()()
	a, ok := r.db().assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyAssignment(a), nil
}

// GetForShare needs no extra locking here: transactions already hold the store mutex.
func (r assignmentRepo) GetForShare(_ context.Context, complaintID, staffID string) (*domain.ComplaintAssignment, error) {
	defer r.lock()()
	for _, a := range r.db().assignments {
		if a.ComplaintID == complaintID && a.StaffID == staffID {
			return copyAssignment(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r assignmentRepo) ListByComplaint(_ context.Context, complaintID string) ([]domain.ComplaintAssignment, error) {
	defer r.lock()()
	return r.collect(func(a domain.ComplaintAssignment) bool { return a.ComplaintID == complaintID }, false), nil
}

func (r assignmentRepo) ListByStaff(_ context.Context, staffID string, openOnly bool) ([]domain.ComplaintAssignment, error) {
	defer r.lock()()
	return r.collect(func(a domain.ComplaintAssignment) bool {
		return a.StaffID == staffID && (!openOnly || a.Open())
	}, true), nil
}

func (r assignmentRepo) collect(keep func(domain.ComplaintAssignment) bool, desc bool) []domain.ComplaintAssignment {
	d := r.db()
	var ids []string
	for id, a := range d.assignments {
		if keep(a) {
			ids = append(ids, id)
		}
	}
	r.sortByOrder(ids, desc)
	out := make([]domain.ComplaintAssignment, 0, len(ids))
	for _, id := range ids {
		out = append(out, *copyAssignment(d.assignments[id]))
	}
	return out
}

func (r assignmentRepo) Revoke(_ context.Context, id string, at time.Time) error {
	defer r.lock()()
	a, ok := r.db().assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if a.RevokedAt == nil {
		at = at.UTC()
		a.RevokedAt = &at
	}
	a.UpdatedAt = r.now()
	r.db().assignments[id] = a
	return nil
}

func (r assignmentRepo) IncrementReminder(_ context.Context, id string) (int, error) {
	defer r.lock()()
	a, ok := r.db().assignments[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	a.ReminderCount++
	a.UpdatedAt = r.now()
	r.db().assignments[id] = a
	return a.ReminderCount, nil
}
