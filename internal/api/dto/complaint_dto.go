package dto

import (
	"time"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	Title       string               `json:"title" validate:"max=255"`
	Description string               `json:"description" validate:"required"`
	CategoryID  string               `json:"category_id" validate:"required,uuid"`
	CourseID    *string              `json:"course_id" validate:"omitempty,uuid"`
	Type        domain.ComplaintType `json:"complaint_type" validate:"omitempty,oneof=Private Community"`
	IsAnonymous bool                 `json:"is_anonymous"`
	Semester    string               `json:"semester" validate:"max=50"`
	Year        int                  `json:"year" validate:"omitempty,gte=2000,lte=2100"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status domain.ComplaintStatus `json:"status" validate:"required,oneof=Open 'In Progress' Resolved Escalated"`
}

// ComplaintResponse describes a complaint. The student is hidden on
// anonymous complaints unless the caller filed it.
type ComplaintResponse struct {
	ID          string                 `json:"id"`
	StudentID   *string                `json:"student_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	CategoryID  string                 `json:"category_id"`
	CourseID    *string                `json:"course_id"`
	Type        domain.ComplaintType   `json:"complaint_type"`
	IsAnonymous bool                   `json:"is_anonymous"`
	Status      domain.ComplaintStatus `json:"status"`
	Deadline    time.Time              `json:"deadline"`
	Overdue     bool                   `json:"overdue"`
	Semester    string                 `json:"semester"`
	Year        int                    `json:"year"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// NewComplaintResponse renders c for viewerID.
func NewComplaintResponse(c *domain.Complaint, viewerID string, now time.Time) ComplaintResponse {
	resp := ComplaintResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		CategoryID:  c.CategoryID,
		CourseID:    c.CourseID,
		Type:        c.Type,
		IsAnonymous: c.IsAnonymous,
		Status:      c.Status,
		Deadline:    c.Deadline,
		Overdue:     c.Overdue(now),
		Semester:    c.Semester,
		Year:        c.Year,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if !c.IsAnonymous || c.StudentID == viewerID {
		studentID := c.StudentID
		resp.StudentID = &studentID
	}
	return resp
}

// FiledComplaintResponse adds the routing outcome.
type FiledComplaintResponse struct {
	ComplaintResponse
	AutoResolved  bool     `json:"auto_resolved"`
	AssigneeIDs   []string `json:"assignee_ids"`
	Preconditions []string `json:"preconditions,omitempty"`
	Replayed      bool     `json:"replayed,omitempty"`
}

// AssignmentResponse describes a complaint assignment.
type AssignmentResponse struct {
	ID            string     `json:"id"`
	ComplaintID   string     `json:"complaint_id"`
	StaffID       string     `json:"staff_id"`
	Message       string     `json:"message"`
	ReminderCount int        `json:"reminder_count"`
	RevokedAt     *time.Time `json:"revoked_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewAssignmentResponse renders a.
func NewAssignmentResponse(a *domain.ComplaintAssignment) AssignmentResponse {
	return AssignmentResponse{
		ID:            a.ID,
		ComplaintID:   a.ComplaintID,
		StaffID:       a.StaffID,
		Message:       a.Message,
		ReminderCount: a.ReminderCount,
		RevokedAt:     a.RevokedAt,
		CreatedAt:     a.CreatedAt,
	}
}

// CategoryResponse describes a category.
type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CourseResponse describes a course.
type CourseResponse struct {
	ID         string         `json:"id"`
	Code       string         `json:"code"`
	Title      string         `json:"title"`
	Semester   string         `json:"semester"`
	Year       int            `json:"year"`
	Faculty    domain.Faculty `json:"faculty"`
	LecturerID string         `json:"lecturer_id"`
}
