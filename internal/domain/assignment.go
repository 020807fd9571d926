package domain

import (
	"fmt"
	"time"
)

const assignmentDeadlineLayout = "Jan 2, 2006 15:04 MST"

// ComplaintAssignment binds one staff member to one complaint.
type ComplaintAssignment struct {
	ID            string
	ComplaintID   string
	StaffID       string
	Message       string
	ReminderCount int
	RevokedAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Open reports whether the assignment still grants resolve rights.
func (a *ComplaintAssignment) Open() bool {
	return a.RevokedAt == nil
}

// AssignmentMessage renders the reminder text stored on an assignment.
func AssignmentMessage(c *Complaint) string {
	return fmt.Sprintf("Complaint %q has been assigned to you. Please resolve it before %s.",
		c.Title, c.Deadline.Format(assignmentDeadlineLayout))
}

// ReminderMessage renders the text sent when an assignment is overdue.
func ReminderMessage(c *Complaint, count int) string {
	return fmt.Sprintf("Reminder %d: complaint %q passed its deadline of %s and is still %s.",
		count, c.Title, c.Deadline.Format(assignmentDeadlineLayout), c.Status)
}
