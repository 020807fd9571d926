package dto

import (
	"time"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

// MarksBody carries optional marks.
type MarksBody struct {
	AttendanceMark *float64 `json:"attendance_mark" validate:"omitempty,gte=0,lte=100"`
	AssignmentMark *float64 `json:"assignment_mark" validate:"omitempty,gte=0,lte=100"`
	CAMark         *float64 `json:"ca_mark" validate:"omitempty,gte=0,lte=100"`
	ExamMark       *float64 `json:"exam_mark" validate:"omitempty,gte=0,lte=100"`
	FinalMark      *float64 `json:"final_mark" validate:"omitempty,gte=0,lte=100"`
}

// Domain converts the body to domain marks.
func (m MarksBody) Domain() domain.Marks {
	return domain.Marks{
		AttendanceMark: m.AttendanceMark,
		AssignmentMark: m.AssignmentMark,
		CAMark:         m.CAMark,
		ExamMark:       m.ExamMark,
		FinalMark:      m.FinalMark,
	}
}

// CreateResolutionRequest payload.
type CreateResolutionRequest struct {
	MarksBody
	Comments   string `json:"comments"`
	IsReviewed bool   `json:"is_reviewed"`
}

// UpdateResolutionRequest payload. Omitted fields are left unchanged.
type UpdateResolutionRequest struct {
	MarksBody
	Comments   *string `json:"comments"`
	IsReviewed *bool   `json:"is_reviewed"`
}

// ResolutionResponse describes a resolution.
type ResolutionResponse struct {
	ID             string    `json:"id"`
	ComplaintID    string    `json:"complaint_id"`
	ResolvedByID   string    `json:"resolved_by"`
	ReviewedByID   *string   `json:"reviewed_by"`
	IsReviewed     bool      `json:"is_reviewed"`
	Comments       string    `json:"comments"`
	AttendanceMark *float64  `json:"attendance_mark"`
	AssignmentMark *float64  `json:"assignment_mark"`
	CAMark         *float64  `json:"ca_mark"`
	ExamMark       *float64  `json:"exam_mark"`
	FinalMark      *float64  `json:"final_mark"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewResolutionResponse renders r.
func NewResolutionResponse(r *domain.Resolution) ResolutionResponse {
	return ResolutionResponse{
		ID:             r.ID,
		ComplaintID:    r.ComplaintID,
		ResolvedByID:   r.ResolvedByID,
		ReviewedByID:   r.ReviewedByID,
		IsReviewed:     r.IsReviewed,
		Comments:       r.Comments,
		AttendanceMark: r.AttendanceMark,
		AssignmentMark: r.AssignmentMark,
		CAMark:         r.CAMark,
		ExamMark:       r.ExamMark,
		FinalMark:      r.FinalMark,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// NotificationResponse describes a notification.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
