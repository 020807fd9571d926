package domain

import "time"

// Notification is an in-app message for one recipient.
type Notification struct {
	ID          string
	RecipientID string
	Message     string
	IsRead      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
