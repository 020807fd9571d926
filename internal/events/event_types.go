package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintFiled         EventType = "complaint_filed"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
	EventResolutionReviewed     EventType = "resolution_reviewed"
	EventNotificationCreated    EventType = "notification_created"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	ComplaintID string    `json:"complaint_id,omitempty"`
	ActorID     *string   `json:"actor_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Payload     any       `json:"payload"`
}

// New stamps an event with a fresh ID and the current time.
func New(eventType EventType, complaintID string, actorID *string, payload any) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		ComplaintID: complaintID,
		ActorID:     actorID,
		Timestamp:   time.Now().UTC(),
		Payload:     payload,
	}
}

// ComplaintFiledPayload payload.
type ComplaintFiledPayload struct {
	CategoryID    string   `json:"category_id"`
	AutoResolved  bool     `json:"auto_resolved"`
	AssigneeIDs   []string `json:"assignee_ids"`
	Preconditions []string `json:"preconditions,omitempty"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	OldStatus domain.ComplaintStatus `json:"old_status"`
	NewStatus domain.ComplaintStatus `json:"new_status"`
}

// ResolutionReviewedPayload payload.
type ResolutionReviewedPayload struct {
	ResolutionID string `json:"resolution_id"`
	ReviewerID   string `json:"reviewer_id"`
}

// NotificationCreatedPayload carries one in-app notification for outbound delivery.
type NotificationCreatedPayload struct {
	RecipientID string `json:"recipient_id"`
	Message     string `json:"message"`
}
