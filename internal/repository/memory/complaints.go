package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository"
)

type complaintRepo struct{ handle }

func copyComplaint(c domain.Complaint) *domain.Complaint {
	c.CourseID = clonePtr(c.CourseID)
	return &c
}

func (r complaintRepo) Create(_ context.Context, complaint *domain.Complaint) error {
	defer r.lock()()
	d := r.db()
	if _, ok := d.users[complaint.StudentID]; !ok {
		return fmt.Errorf("memory: student %s: %w", complaint.StudentID, repository.ErrNotFound)
	}
	if _, ok := d.categories[complaint.CategoryID]; !ok {
		return fmt.Errorf("memory: category %s: %w", complaint.CategoryID, repository.ErrNotFound)
	}
	if complaint.CourseID != nil {
		if _, ok := d.courses[*complaint.CourseID]; !ok {
			return fmt.Errorf("memory: course %s: %w", *complaint.CourseID, repository.ErrNotFound)
		}
	}
	complaint.ID = r.newID()
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = r.now()
	}
	complaint.UpdatedAt = complaint.CreatedAt
	complaint.Routed = false
	d.complaints[complaint.ID] = *copyComplaint(*complaint)
	return nil
}

func (r complaintRepo) Update(_ context.Context, complaint *domain.Complaint) error {
	defer r.lock()()
	stored, ok := r.db().complaints[complaint.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Title = complaint.Title
	stored.Description = complaint.Description
	stored.Type = complaint.Type
	stored.Status = complaint.Status
	stored.UpdatedAt = r.now()
	r.db().complaints[complaint.ID] = stored
	complaint.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r complaintRepo) MarkRouted(_ context.Context, id string) (bool, error) {
	defer r.lock()()
	stored, ok := r.db().complaints[id]
	if !ok || stored.Routed {
		return false, nil
	}
	stored.Routed = true
	r.db().complaints[id] = stored
	return true, nil
}

func (r complaintRepo) GetByID(_ context.Context, id string) (*domain.Complaint, error) {
	defer r.lock()()
	c, ok := r.db().complaints[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyComplaint(c), nil
}

func (r complaintRepo) List(_ context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	defer r.lock()()
	d := r.db()
	var ids []string
	for id, c := range d.complaints {
		if filter.StudentID != nil && c.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && c.Type != *filter.Type {
			continue
		}
		if filter.AssigneeID != nil && !r.assigned(id, *filter.AssigneeID) {
			continue
		}
		ids = append(ids, id)
	}
	r.sortByOrder(ids, true)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := max(filter.Offset, 0)
	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:min(offset+limit, len(ids))]

	out := make([]domain.Complaint, 0, len(ids))
	for _, id := range ids {
		out = append(out, *copyComplaint(d.complaints[id]))
	}
	return out, nil
}

func (r complaintRepo) assigned(complaintID, staffID string) bool {
	for _, a := range r.db().assignments {
		if a.ComplaintID == complaintID && a.StaffID == staffID && a.Open() {
			return true
		}
	}
	return false
}

func (r complaintRepo) ListOverdue(_ context.Context, now time.Time) ([]domain.Complaint, error) {
	defer r.lock()()
	var out []domain.Complaint
	for _, c := range r.db().complaints {
		if c.Overdue(now) {
			out = append(out, *copyComplaint(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Deadline.Equal(out[j].Deadline) {
			return out[i].ID < out[j].ID
		}
		return out[i].Deadline.Before(out[j].Deadline)
	})
	return out, nil
}
