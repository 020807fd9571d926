package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/observability"
)

func TestSweep_RemindsOpenAssignmentsOfOverdueComplaints(t *testing.T) {
	fx := newFixture(t)
	student := fx.user(t, "jane.roe@"+testDomain, domain.RoleStudent, nil)
	lecturer := fx.user(t, "ada.king@"+testDomain, domain.RoleLecturer, nil)
	coordinator := fx.user(t, "grace.hopper@"+testDomain, domain.RoleComplaintCoordinator, nil)
	ict, _ := fx.admin(t, "ict.dean@"+testDomain, domain.OfficeFaculty, domain.FacultyICT)
	course := fx.course(t, "ICT101", domain.FacultyICT, lecturer)

	overdue := fx.file(t, student, domain.CategoryNoCAMark, course)
	fx.file(t, student, domain.CategoryUnsatisfiedFinal, nil)

	var revoked string
	for _, a := range overdue.Route.Assignments {
		if a.StaffID == ict.ID {
			revoked = a.ID
		}
	}
	_, err := fx.complaintService(nil).RevokeAssignment(fx.ctx, coordinator, revoked)
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	svc := NewReminderService(ReminderDependencies{
		Store:   fx.store,
		Sink:    fx.sink,
		Metrics: metrics,
		Clock:   func() time.Time { return testNow.Add(domain.ComplaintDeadline + time.Hour) },
	})

	before := len(fx.sink.sent)
	report, err := svc.Sweep(fx.ctx)
	require.NoError(t, err)
	assert.Equal(t, ReminderReport{Complaints: 1, Reminders: 1}, report)
	require.Len(t, fx.sink.sent, before+1)
	assert.Equal(t, lecturer.ID, fx.sink.sent[before].RecipientID)
	assert.Contains(t, fx.sink.sent[before].Message, "Reminder 1")

	_, err = svc.Sweep(fx.ctx)
	require.NoError(t, err)
	assert.Contains(t, fx.sink.sent[len(fx.sink.sent)-1].Message, "Reminder 2")

	assignments, err := fx.store.Repos().Assignments.ListByStaff(fx.ctx, lecturer.ID, true)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, 2, assignments[0].ReminderCount)
	assert.Equal(t, int64(2), metrics.Snapshot().Workflows["reminder_sweep|completed"])
}

func TestSweep_NothingDueBeforeDeadline(t *testing.T) {
	fx := newFixture(t)
	student := fx.user(t, "jane.roe@"+testDomain, domain.RoleStudent, nil)
	lecturer := fx.user(t, "ada.king@"+testDomain, domain.RoleLecturer, nil)
	fx.file(t, student, domain.CategoryNoCAMark, fx.course(t, "ICT101", domain.FacultyICT, lecturer))

	svc := NewReminderService(ReminderDependencies{Store: fx.store, Sink: fx.sink, Clock: fx.clock()})
	report, err := svc.Sweep(fx.ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Reminders)
}
