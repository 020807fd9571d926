package domain

import "time"

// MarkField names a numeric field a resolution can carry.
type MarkField string

const (
	MarkAttendance MarkField = "attendance_mark"
	MarkAssignment MarkField = "assignment_mark"
	MarkCA         MarkField = "ca_mark"
	MarkExam       MarkField = "exam_mark"
	MarkFinal      MarkField = "final_mark"
)

// Marks holds the optional numeric marks of a resolution.
type Marks struct {
	AttendanceMark *float64
	AssignmentMark *float64
	CAMark         *float64
	ExamMark       *float64
	FinalMark      *float64
}

// Present lists the fields that carry a value, in declaration order.
func (m Marks) Present() []MarkField {
	var fields []MarkField
	if m.AttendanceMark != nil {
		fields = append(fields, MarkAttendance)
	}
	if m.AssignmentMark != nil {
		fields = append(fields, MarkAssignment)
	}
	if m.CAMark != nil {
		fields = append(fields, MarkCA)
	}
	if m.ExamMark != nil {
		fields = append(fields, MarkExam)
	}
	if m.FinalMark != nil {
		fields = append(fields, MarkFinal)
	}
	return fields
}

// Resolution is a staff response to a complaint.
type Resolution struct {
	ID           string
	ComplaintID  string
	ResolvedByID string
	ReviewedByID *string
	IsReviewed   bool
	Comments     string
	Marks
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MarkReviewed records reviewerID as the reviewer.
func (r *Resolution) MarkReviewed(reviewerID string) {
	r.IsReviewed = true
	r.ReviewedByID = &reviewerID
}

// CheckReviewed enforces that a reviewed resolution names its reviewer.
func (r *Resolution) CheckReviewed() error {
	if r.IsReviewed && (r.ReviewedByID == nil || *r.ReviewedByID == "") {
		return ErrUnreviewedReviewer
	}
	return nil
}
