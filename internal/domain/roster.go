package domain

// AdminRosterRow is one entry of the externally maintained admin roster.
type AdminRosterRow struct {
	Name     string
	Office   string
	Function string
	Faculty  string
}

// CourseRosterRow is one entry of the course roster.
type CourseRosterRow struct {
	Lecturer string
	Code     string
	Title    string
	Semester string
	Year     int
	Faculty  string
}
