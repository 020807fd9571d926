package repository

import (
	"context"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

type notificationRepository struct {
	db DBTX
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (recipient_id, message, is_read)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query, n.RecipientID, n.Message, n.IsRead).
		Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]domain.Notification, error) {
	query := `SELECT id, recipient_id, message, is_read, created_at, updated_at FROM notifications WHERE recipient_id=$1`
	if unreadOnly {
		query += ` AND is_read=FALSE`
	}
	rows, err := r.db.Query(ctx, query+` ORDER BY created_at DESC, id`, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Message, &n.IsRead, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead only matches notifications owned by recipientID.
func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	return affected(r.db.Exec(ctx,
		`UPDATE notifications SET is_read=TRUE, updated_at=NOW() WHERE id=$1 AND recipient_id=$2`, id, recipientID))
}
