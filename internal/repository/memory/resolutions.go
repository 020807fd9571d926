package memory

import (
	"context"
	"fmt"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository"
)

type resolutionRepo struct{ handle }

func copyResolution(res domain.Resolution) *domain.Resolution {
	res.ReviewedByID = clonePtr(res.ReviewedByID)
	res.AttendanceMark = clonePtr(res.AttendanceMark)
	res.AssignmentMark = clonePtr(res.AssignmentMark)
	res.CAMark = clonePtr(res.CAMark)
	res.ExamMark = clonePtr(res.ExamMark)
	res.FinalMark = clonePtr(res.FinalMark)
	return &res
}

func (r resolutionRepo) Create(_ context.Context, res *domain.Resolution) error {
	defer r.lock()()
	if err := res.CheckReviewed(); err != nil {
		return err
	}
	if _, ok := r.db().complaints[res.ComplaintID]; !ok {
		return fmt.Errorf("memory: complaint %s: %w", res.ComplaintID, repository.ErrNotFound)
	}
	res.ID = r.newID()
	res.CreatedAt = r.now()
	res.UpdatedAt = res.CreatedAt
	r.db().resolutions[res.ID] = *copyResolution(*res)
	return nil
}

func (r resolutionRepo) Update(_ context.Context, res *domain.Resolution) error {
	defer r.lock()()
	stored, ok := r.db().resolutions[res.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := res.CheckReviewed(); err != nil {
		return err
	}
	updated := *copyResolution(*res)
	updated.ComplaintID = stored.ComplaintID
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = r.now()
	r.db().resolutions[res.ID] = updated
	res.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r resolutionRepo) GetByID(_ context.Context, id string) (*domain.Resolution, error) {
	defer r.lock()()
	res, ok := r.db().resolutions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyResolution(res), nil
}

func (r resolutionRepo) ListByComplaint(_ context.Context, complaintID string) ([]domain.Resolution, error) {
	defer r.lock()()
	d := r.db()
	var ids []string
	for id, res := range d.resolutions {
		if res.ComplaintID == complaintID {
			ids = append(ids, id)
		}
	}
	r.sortByOrder(ids, false)
	out := make([]domain.Resolution, 0, len(ids))
	for _, id := range ids {
		out = append(out, *copyResolution(d.resolutions[id]))
	}
	return out, nil
}
