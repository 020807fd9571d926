package domain

import "time"

// Seed category names. Routing depends on these existing by name.
const (
	CategoryMissingGrade     = "Missing Grade"
	CategoryNoCAMark         = "No CA Mark"
	CategoryNoExamMark       = "No Exam Mark"
	CategoryUnsatisfiedFinal = "Unsatisfied With Final Grade"
)

// SeedCategory is a name/description pair that must always exist.
type SeedCategory struct {
	Name        string
	Description string
}

// SeedCategories are created idempotently at startup.
var SeedCategories = []SeedCategory{
	{Name: CategoryMissingGrade, Description: "Missing grade for a course."},
	{Name: CategoryNoCAMark, Description: "No continuous assessment mark."},
	{Name: CategoryNoExamMark, Description: "No exam mark recorded."},
	{Name: CategoryUnsatisfiedFinal, Description: "Final grade is unsatisfactory."},
}

// Category is a routing taxonomy entry.
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
