package domain

import (
	"strings"
	"time"
)

// ProfileKind discriminates the role-specific profile variants.
type ProfileKind string

const (
	ProfileStudent  ProfileKind = "Student"
	ProfileLecturer ProfileKind = "Lecturer"
	ProfileAdmin    ProfileKind = "Admin"
)

// Office enumerates the administrative offices an admin can belong to.
type Office string

const (
	OfficeFinance   Office = "Finance Department"
	OfficeCiscoLab  Office = "Cisco Lab"
	OfficeRegistrar Office = "Registrar Office"
	OfficeFaculty   Office = "Faculty"
	OfficeOther     Office = "Other"
)

// Offices lists every office in a stable order.
var Offices = []Office{OfficeFinance, OfficeCiscoLab, OfficeRegistrar, OfficeFaculty, OfficeOther}

// ParseOffice matches the internal enum value, case-insensitively.
func ParseOffice(v string) (Office, bool) {
	for _, o := range Offices {
		if strings.EqualFold(strings.TrimSpace(v), string(o)) {
			return o, true
		}
	}
	return "", false
}

// Faculty enumerates the faculties courses and admins belong to.
type Faculty string

const (
	FacultyICT  Faculty = "ICT"
	FacultyBMS  Faculty = "BMS"
	FacultyBoth Faculty = "Both"
)

// ParseFaculty parses a faculty label, case-insensitively.
func ParseFaculty(v string) (Faculty, bool) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "ICT":
		return FacultyICT, true
	case "BMS":
		return FacultyBMS, true
	case "BOTH":
		return FacultyBoth, true
	}
	return "", false
}

// Covers reports whether an admin of faculty f is responsible for a course in faculty course.
func (f Faculty) Covers(course Faculty) bool {
	return f == FacultyBoth || f == course
}

// StudentProfile holds student attributes.
type StudentProfile struct {
	ID            string
	UserID        string
	StudentNumber *string
	CreatedAt     time.Time
}

// LecturerProfile links a user to the lecturer role.
type LecturerProfile struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

// AdminProfile holds office attributes used for routing and review.
type AdminProfile struct {
	ID        string
	UserID    string
	Office    Office
	Function  string
	Faculty   Faculty
	IsSystem  bool
	CreatedAt time.Time
}

// Profiles is the set of profile variants a user holds.
type Profiles struct {
	Student  *StudentProfile
	Lecturer *LecturerProfile
	Admin    *AdminProfile
}

// Kinds lists the variants present.
func (p Profiles) Kinds() []ProfileKind {
	kinds := make([]ProfileKind, 0, 3)
	if p.Student != nil {
		kinds = append(kinds, ProfileStudent)
	}
	if p.Lecturer != nil {
		kinds = append(kinds, ProfileLecturer)
	}
	if p.Admin != nil {
		kinds = append(kinds, ProfileAdmin)
	}
	return kinds
}
