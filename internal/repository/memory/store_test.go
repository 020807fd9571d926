package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository"
)

func seedComplaint(t *testing.T, s *Store) (*domain.User, *domain.Complaint) {
	t.Helper()
	ctx := context.Background()
	repos := s.Repos()

	student := &domain.User{Email: "jane.roe@ictuniversity.edu.cm", Role: domain.RoleStudent}
	require.NoError(t, repos.Users.Create(ctx, student))
	cat, err := repos.Categories.Ensure(ctx, domain.CategoryMissingGrade, "")
	require.NoError(t, err)

	c := domain.NewComplaint(domain.NewComplaintInput{
		StudentID:    student.ID,
		StudentName:  "Jane Roe",
		Description:  "grade missing",
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
	}, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repos.Complaints.Create(ctx, c))
	return student, c
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(r repository.Repositories) error {
		require.NoError(t, r.Users.Create(ctx, &domain.User{Email: "a.b@x.edu", Role: domain.RoleStudent}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Repos().Users.GetByEmail(ctx, "a.b@x.edu")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.WithinTx(ctx, func(r repository.Repositories) error {
		return r.Users.Create(ctx, &domain.User{Email: "a.b@x.edu", Role: domain.RoleStudent})
	}))
	u, err := s.Repos().Users.GetByEmail(ctx, "A.B@x.edu")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, u.Role)
}

func TestMarkRouted_SingleFireUnderConcurrency(t *testing.T) {
	s := New()
	_, c := seedComplaint(t, s)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithinTx(context.Background(), func(r repository.Repositories) error {
				ok, err := r.Complaints.MarkRouted(context.Background(), c.ID)
				if err != nil {
					return err
				}
				if ok {
					wins.Add(1)
				}
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestComplaintUpdate_NeverWritesDeadline(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, c := seedComplaint(t, s)
	original := c.Deadline

	c.Deadline = original.Add(48 * time.Hour)
	c.Status = domain.ComplaintStatusInProgress
	require.NoError(t, s.Repos().Complaints.Update(ctx, c))

	stored, err := s.Repos().Complaints.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, stored.Deadline.Equal(original))
	assert.Equal(t, domain.ComplaintStatusInProgress, stored.Status)
}

func TestCategoryAddAdmin_IsIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()
	repos := s.Repos()

	u := &domain.User{Email: "john.doe@x.edu", Role: domain.RoleAdmin}
	require.NoError(t, repos.Users.Create(ctx, u))
	profile := &domain.AdminProfile{UserID: u.ID, Office: domain.OfficeRegistrar, Faculty: domain.FacultyBoth}
	created, err := repos.Profiles.EnsureAdmin(ctx, profile)
	require.NoError(t, err)
	require.True(t, created)

	again := &domain.AdminProfile{UserID: u.ID, Office: domain.OfficeOther}
	created, err = repos.Profiles.EnsureAdmin(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, domain.OfficeRegistrar, again.Office)

	cat, err := repos.Categories.Ensure(ctx, domain.CategoryNoExamMark, "")
	require.NoError(t, err)
	require.NoError(t, repos.Categories.AddAdmin(ctx, cat.ID, profile.ID))
	require.NoError(t, repos.Categories.AddAdmin(ctx, cat.ID, profile.ID))

	admins, err := repos.Categories.ListAdmins(ctx, cat.ID)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, profile.ID, admins[0].ID)
}

func TestAssignments_UniquePerComplaintAndStaff(t *testing.T) {
	s := New()
	ctx := context.Background()
	repos := s.Repos()
	_, c := seedComplaint(t, s)

	staff := &domain.User{Email: "l.k@x.edu", Role: domain.RoleLecturer}
	require.NoError(t, repos.Users.Create(ctx, staff))

	created, err := repos.Assignments.Create(ctx, &domain.ComplaintAssignment{ComplaintID: c.ID, StaffID: staff.ID})
	require.NoError(t, err)
	assert.True(t, created)
	created, err = repos.Assignments.Create(ctx, &domain.ComplaintAssignment{ComplaintID: c.ID, StaffID: staff.ID})
	require.NoError(t, err)
	assert.False(t, created)

	a, err := repos.Assignments.GetForShare(ctx, c.ID, staff.ID)
	require.NoError(t, err)
	require.NoError(t, repos.Assignments.Revoke(ctx, a.ID, time.Now()))

	open, err := repos.Assignments.ListByStaff(ctx, staff.ID, true)
	require.NoError(t, err)
	assert.Empty(t, open)

	count, err := repos.Assignments.IncrementReminder(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestResolutionCreate_RejectsReviewedWithoutReviewer(t *testing.T) {
	s := New()
	ctx := context.Background()
	student, c := seedComplaint(t, s)

	err := s.Repos().Resolutions.Create(ctx, &domain.Resolution{ComplaintID: c.ID, ResolvedByID: student.ID, IsReviewed: true})
	assert.ErrorIs(t, err, domain.ErrUnreviewedReviewer)
}

func TestUserDelete_Cascades(t *testing.T) {
	s := New()
	ctx := context.Background()
	student, c := seedComplaint(t, s)
	require.NoError(t, s.Repos().Notifications.Create(ctx, &domain.Notification{RecipientID: student.ID, Message: "hi"}))

	require.NoError(t, s.Repos().Users.Delete(ctx, student.ID))

	_, err := s.Repos().Complaints.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	notes, err := s.Repos().Notifications.ListByRecipient(ctx, student.ID, false)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestListOverdue(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, c := seedComplaint(t, s)

	overdue, err := s.Repos().Complaints.ListOverdue(ctx, c.Deadline.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, overdue, 1)

	overdue, err = s.Repos().Complaints.ListOverdue(ctx, c.Deadline.Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestComplaintList_FiltersByType(t *testing.T) {
	s := New()
	ctx := context.Background()
	student, private := seedComplaint(t, s)

	shared := domain.NewComplaint(domain.NewComplaintInput{
		StudentID:    student.ID,
		Description:  "lab closed",
		CategoryID:   private.CategoryID,
		CategoryName: domain.CategoryMissingGrade,
		Type:         domain.ComplaintTypeCommunity,
	}, time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC))
	require.NoError(t, s.Repos().Complaints.Create(ctx, shared))

	community := domain.ComplaintTypeCommunity
	got, err := s.Repos().Complaints.List(ctx, repository.ComplaintFilter{Type: &community})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, shared.ID, got[0].ID)

	all, err := s.Repos().Complaints.List(ctx, repository.ComplaintFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
