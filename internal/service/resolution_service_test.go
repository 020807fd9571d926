package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-desk/internal/domain"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

func mark(v float64) *float64 { return &v }

type resolutionFixture struct {
	*fixture
	student  *domain.User
	lecturer *domain.User
	filed    *FiledComplaint
	svc      *ResolutionService
}

func newResolutionFixture(t *testing.T, category string) *resolutionFixture {
	fx := newFixture(t)
	student := fx.user(t, "jane.roe@"+testDomain, domain.RoleStudent, nil)
	lecturer := fx.user(t, "ada.king@"+testDomain, domain.RoleLecturer, nil)
	course := fx.course(t, "ICT101", domain.FacultyICT, lecturer)
	return &resolutionFixture{
		fixture:  fx,
		student:  student,
		lecturer: lecturer,
		filed:    fx.file(t, student, category, course),
		svc:      fx.resolutionService(),
	}
}

func TestSubmit_AssignedStaffResolvesComplaint(t *testing.T) {
	rf := newResolutionFixture(t, domain.CategoryNoCAMark)

	res, err := rf.svc.Submit(rf.ctx, rf.lecturer, SubmitResolutionInput{
		ComplaintID: rf.filed.Complaint.ID,
		Comments:    "CA mark uploaded",
		Marks:       domain.Marks{CAMark: mark(17)},
	})
	require.NoError(t, err)
	assert.Equal(t, rf.lecturer.ID, res.ResolvedByID)
	assert.False(t, res.IsReviewed)

	complaint, err := rf.store.Repos().Complaints.GetByID(rf.ctx, rf.filed.Complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusResolved, complaint.Status)
	assert.Equal(t, rf.student.ID, rf.sink.sent[len(rf.sink.sent)-1].RecipientID)

	listed, err := rf.svc.ListForComplaint(rf.ctx, rf.student, rf.filed.Complaint.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestSubmit_EscalatedComplaintKeepsStatus(t *testing.T) {
	rf := newResolutionFixture(t, domain.CategoryNoCAMark)
	_, err := rf.complaintService(nil).ChangeStatus(rf.ctx, rf.lecturer, rf.filed.Complaint.ID, domain.ComplaintStatusEscalated)
	require.NoError(t, err)

	res, err := rf.svc.Submit(rf.ctx, rf.lecturer, SubmitResolutionInput{
		ComplaintID: rf.filed.Complaint.ID,
		Marks:       domain.Marks{CAMark: mark(14)},
	})
	require.NoError(t, err)
	require.NotNil(t, res.CAMark)
	assert.Equal(t, 14.0, *res.CAMark)

	complaint, err := rf.store.Repos().Complaints.GetByID(rf.ctx, rf.filed.Complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusEscalated, complaint.Status)

	listed, err := rf.store.Repos().Resolutions.ListByComplaint(rf.ctx, rf.filed.Complaint.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	last := rf.sink.sent[len(rf.sink.sent)-1]
	assert.Equal(t, rf.student.ID, last.RecipientID)
	assert.Contains(t, last.Message, "A resolution was filed")
}

func TestSubmit_RejectsUnassignedStaff(t *testing.T) {
	rf := newResolutionFixture(t, domain.CategoryNoCAMark)
	outsider := rf.user(t, "alan.turing@"+testDomain, domain.RoleLecturer, nil)

	_, err := rf.svc.Submit(rf.ctx, outsider, SubmitResolutionInput{ComplaintID: rf.filed.Complaint.ID})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthorizationDenied))

	complaint, err := rf.store.Repos().Complaints.GetByID(rf.ctx, rf.filed.Complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusOpen, complaint.Status)
}

func TestSubmit_RevokedAssignmentLosesResolveRights(t *testing.T) {
	rf := newResolutionFixture(t, domain.CategoryNoCAMark)
	coordinator := rf.user(t, "grace.hopper@"+testDomain, domain.RoleComplaintCoordinator, nil)
	_, err := rf.complaintService(nil).RevokeAssignment(rf.ctx, coordinator, rf.filed.Route.Assignments[0].ID)
	require.NoError(t, err)

	_, err = rf.svc.Submit(rf.ctx, rf.lecturer, SubmitResolutionInput{ComplaintID: rf.filed.Complaint.ID})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthorizationDenied))
}

func TestSubmit_RejectsMarksOutsideCategory(t *testing.T) {
	rf := newResolutionFixture(t, domain.CategoryNoCAMark)

	_, err := rf.svc.Submit(rf.ctx, rf.lecturer, SubmitResolutionInput{
		ComplaintID: rf.filed.Complaint.ID,
		Marks:       domain.Marks{CAMark: mark(10), ExamMark: mark(55)},
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvariantViolation))

	list, err := rf.store.Repos().Resolutions.ListByComplaint(rf.ctx, rf.filed.Complaint.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmit_LecturerCannotSelfReview(t *testing.T) {
	rf := newResolutionFixture(t, domain.CategoryNoCAMark)

	_, err := rf.svc.Submit(rf.ctx, rf.lecturer, SubmitResolutionInput{ComplaintID: rf.filed.Complaint.ID, IsReviewed: true})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthorizationDenied))
}

func TestReview(t *testing.T) {
	rf := newResolutionFixture(t, domain.CategoryNoCAMark)
	coordinator := rf.user(t, "grace.hopper@"+testDomain, domain.RoleComplaintCoordinator, nil)
	registrar, _ := rf.admin(t, "reg.office@"+testDomain, domain.OfficeRegistrar, domain.FacultyBoth)
	finance, _ := rf.admin(t, "fin.office@"+testDomain, domain.OfficeFinance, domain.FacultyBoth)

	res, err := rf.svc.Submit(rf.ctx, rf.lecturer, SubmitResolutionInput{ComplaintID: rf.filed.Complaint.ID})
	require.NoError(t, err)

	cisco, _ := rf.admin(t, "cisco.lab@"+testDomain, domain.OfficeCiscoLab, domain.FacultyICT)
	faculty, _ := rf.admin(t, "dean.ict@"+testDomain, domain.OfficeFaculty, domain.FacultyICT)
	other, _ := rf.admin(t, "it.support@"+testDomain, domain.OfficeOther, domain.FacultyBoth)
	noProfile := rf.user(t, "new.admin@"+testDomain, domain.RoleAdmin, nil)

	denied := []struct {
		name string
		user *domain.User
	}{
		{"lecturer", rf.lecturer},
		{"finance admin", finance},
		{"cisco lab admin", cisco},
		{"faculty admin", faculty},
		{"other office admin", other},
		{"admin without profile", noProfile},
		{"student", rf.student},
	}
	for _, tc := range denied {
		t.Run(tc.name, func(t *testing.T) {
			_, err := rf.svc.Review(rf.ctx, tc.user, res.ID)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthorizationDenied))
		})
	}
	stored, err := rf.store.Repos().Resolutions.GetByID(rf.ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsReviewed)

	for _, reviewer := range []*domain.User{coordinator, registrar} {
		reviewed, err := rf.svc.Review(rf.ctx, reviewer, res.ID)
		require.NoError(t, err, reviewer.Email)
		assert.True(t, reviewed.IsReviewed)
		assert.Equal(t, reviewer.ID, *reviewed.ReviewedByID)
	}
	assert.Equal(t, rf.lecturer.ID, rf.sink.sent[len(rf.sink.sent)-1].RecipientID)
}

func TestUpdate_MergesMarksAndRechecksFields(t *testing.T) {
	rf := newResolutionFixture(t, domain.CategoryMissingGrade)

	res, err := rf.svc.Submit(rf.ctx, rf.lecturer, SubmitResolutionInput{
		ComplaintID: rf.filed.Complaint.ID,
		Marks:       domain.Marks{AttendanceMark: mark(8)},
	})
	require.NoError(t, err)

	comments := "final mark corrected"
	updated, err := rf.svc.Update(rf.ctx, rf.lecturer, res.ID, UpdateResolutionInput{
		Comments: &comments,
		Marks:    domain.Marks{FinalMark: mark(64)},
	})
	require.NoError(t, err)
	assert.Equal(t, comments, updated.Comments)
	require.NotNil(t, updated.AttendanceMark)
	require.NotNil(t, updated.FinalMark)
	assert.Equal(t, 8.0, *updated.AttendanceMark)
	assert.Equal(t, 64.0, *updated.FinalMark)

	_, err = rf.svc.Update(rf.ctx, rf.lecturer, res.ID, UpdateResolutionInput{Marks: domain.Marks{CAMark: mark(1)}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvariantViolation))

	reviewed := true
	_, err = rf.svc.Update(rf.ctx, rf.lecturer, res.ID, UpdateResolutionInput{IsReviewed: &reviewed})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthorizationDenied))
}
