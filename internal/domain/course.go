package domain

import "time"

// Course is a taught course owned by a lecturer.
type Course struct {
	ID         string
	Code       string
	Title      string
	Semester   string
	Year       int
	Faculty    Faculty
	LecturerID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
