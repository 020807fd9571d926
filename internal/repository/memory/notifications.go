package memory

import (
	"context"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository"
)

type notificationRepo struct{ handle }

func (r notificationRepo) Create(_ context.Context, n *domain.Notification) error {
	defer r.lock()()
	n.ID = r.newID()
	n.CreatedAt = r.now()
	n.UpdatedAt = n.CreatedAt
	r.db().notifications[n.ID] = *n
	return nil
}

func (r notificationRepo) ListByRecipient(_ context.Context, recipientID string, unreadOnly bool) ([]domain.Notification, error) {
	defer r.lock()()
	d := r.db()
	var ids []string
	for id, n := range d.notifications {
		if n.RecipientID == recipientID && (!unreadOnly || !n.IsRead) {
			ids = append(ids, id)
		}
	}
	r.sortByOrder(ids, true)
	out := make([]domain.Notification, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.notifications[id])
	}
	return out, nil
}

func (r notificationRepo) MarkRead(_ context.Context, id, recipientID string) error {
	defer r.lock()()
	n, ok := r.db().notifications[id]
	if !ok || n.RecipientID != recipientID {
		return repository.ErrNotFound
	}
	n.IsRead = true
	n.UpdatedAt = r.now()
	r.db().notifications[id] = n
	return nil
}
