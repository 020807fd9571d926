package domain

import (
	"fmt"
	"strings"
	"time"
)

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusOpen       ComplaintStatus = "Open"
	ComplaintStatusInProgress ComplaintStatus = "In Progress"
	ComplaintStatusResolved   ComplaintStatus = "Resolved"
	ComplaintStatusEscalated  ComplaintStatus = "Escalated"
)

// ComplaintType controls complaint visibility.
type ComplaintType string

const (
	ComplaintTypePrivate   ComplaintType = "Private"
	ComplaintTypeCommunity ComplaintType = "Community"
)

// ComplaintDeadline is the fixed response window from creation.
const ComplaintDeadline = 3 * 24 * time.Hour

const titleTimestampLayout = "2006-01-02 15:04"

var allowedTransitions = map[ComplaintStatus][]ComplaintStatus{
	ComplaintStatusOpen:       {ComplaintStatusInProgress, ComplaintStatusResolved, ComplaintStatusEscalated},
	ComplaintStatusInProgress: {ComplaintStatusResolved, ComplaintStatusEscalated},
}

// Complaint is the aggregate for student grievances.
type Complaint struct {
	ID          string
	StudentID   string
	Title       string
	Description string
	CategoryID  string
	CourseID    *string
	Type        ComplaintType
	IsAnonymous bool
	Status      ComplaintStatus
	Deadline    time.Time
	Semester    string
	Year        int
	Routed      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewComplaintInput carries the student-supplied fields.
type NewComplaintInput struct {
	StudentID    string
	StudentName  string
	Title        string
	Description  string
	CategoryID   string
	CategoryName string
	CourseID     *string
	Type         ComplaintType
	IsAnonymous  bool
	Semester     string
	Year         int
}

// NewComplaint builds an Open complaint whose deadline is fixed at creation.
func NewComplaint(in NewComplaintInput, now time.Time) *Complaint {
	now = now.UTC()
	title := strings.TrimSpace(in.Title)
	if title == "" {
		student := in.StudentName
		if in.IsAnonymous {
			student = "Anonymous"
		}
		title = fmt.Sprintf("%s - %s - %s", in.CategoryName, student, now.Format(titleTimestampLayout))
	}
	complaintType := in.Type
	if complaintType == "" {
		complaintType = ComplaintTypePrivate
	}
	year := in.Year
	if year == 0 {
		year = now.Year()
	}
	return &Complaint{
		StudentID:   in.StudentID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		CategoryID:  in.CategoryID,
		CourseID:    in.CourseID,
		Type:        complaintType,
		IsAnonymous: in.IsAnonymous,
		Status:      ComplaintStatusOpen,
		Deadline:    now.Add(ComplaintDeadline),
		Semester:    in.Semester,
		Year:        year,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CanTransition reports whether moving from the current status to next is allowed.
func (c *Complaint) CanTransition(next ComplaintStatus) bool {
	if c.Status == next {
		return true
	}
	for _, s := range allowedTransitions[c.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the complaint forward. Same-state transitions are no-ops.
func (c *Complaint) TransitionTo(next ComplaintStatus) error {
	if !c.CanTransition(next) {
		return ErrIllegalTransition
	}
	c.Status = next
	return nil
}

// Terminal reports whether no further transition is possible.
func (c *Complaint) Terminal() bool {
	return len(allowedTransitions[c.Status]) == 0
}

// Overdue reports whether the deadline passed without a terminal outcome.
func (c *Complaint) Overdue(now time.Time) bool {
	return !c.Terminal() && now.After(c.Deadline)
}
