package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

func TestNewComplaint_DeadlineIsThreeDaysAfterCreation(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	c := NewComplaint(NewComplaintInput{
		StudentID:    "s1",
		Title:        "  Missing CA  ",
		CategoryName: CategoryNoCAMark,
	}, now)

	assert.Equal(t, ComplaintStatusOpen, c.Status)
	assert.Equal(t, now.Add(72*time.Hour), c.Deadline)
	assert.Equal(t, now, c.CreatedAt)
	assert.Equal(t, "Missing CA", c.Title)
	assert.Equal(t, ComplaintTypePrivate, c.Type)
	assert.Equal(t, 2025, c.Year)
}

func TestNewComplaint_SynthesizesTitle(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	c := NewComplaint(NewComplaintInput{
		StudentName:  "Jane Roe",
		CategoryName: CategoryMissingGrade,
	}, now)
	assert.Equal(t, "Missing Grade - Jane Roe - 2025-03-10 09:30", c.Title)

	anon := NewComplaint(NewComplaintInput{
		StudentName:  "Jane Roe",
		CategoryName: CategoryMissingGrade,
		IsAnonymous:  true,
	}, now)
	assert.False(t, strings.Contains(anon.Title, "Jane"))
	assert.True(t, strings.HasPrefix(anon.Title, "Missing Grade - Anonymous - "))
}

func TestComplaint_Transitions(t *testing.T) {
	cases := []struct {
		from, to ComplaintStatus
		ok       bool
	}{
		{ComplaintStatusOpen, ComplaintStatusInProgress, true},
		{ComplaintStatusOpen, ComplaintStatusResolved, true},
		{ComplaintStatusOpen, ComplaintStatusEscalated, true},
		{ComplaintStatusInProgress, ComplaintStatusResolved, true},
		{ComplaintStatusInProgress, ComplaintStatusEscalated, true},
		{ComplaintStatusInProgress, ComplaintStatusOpen, false},
		{ComplaintStatusResolved, ComplaintStatusOpen, false},
		{ComplaintStatusResolved, ComplaintStatusEscalated, false},
		{ComplaintStatusEscalated, ComplaintStatusResolved, false},
		{ComplaintStatusEscalated, ComplaintStatusInProgress, false},
		{ComplaintStatusResolved, ComplaintStatusResolved, true},
	}
	for _, tc := range cases {
		c := &Complaint{Status: tc.from}
		err := c.TransitionTo(tc.to)
		if tc.ok {
			require.NoError(t, err, "%s -> %s", tc.from, tc.to)
			assert.Equal(t, tc.to, c.Status)
		} else {
			require.Error(t, err, "%s -> %s", tc.from, tc.to)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeInvariantViolation))
			assert.Equal(t, tc.from, c.Status)
		}
	}
}

func TestComplaint_TransitionKeepsDeadline(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewComplaint(NewComplaintInput{Title: "x"}, now)
	deadline := c.Deadline
	require.NoError(t, c.TransitionTo(ComplaintStatusInProgress))
	require.NoError(t, c.TransitionTo(ComplaintStatusResolved))
	assert.Equal(t, deadline, c.Deadline)
}

func TestComplaint_Overdue(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewComplaint(NewComplaintInput{Title: "x"}, now)
	assert.False(t, c.Overdue(now.Add(71*time.Hour)))
	assert.True(t, c.Overdue(now.Add(73*time.Hour)))
	c.Status = ComplaintStatusResolved
	assert.False(t, c.Overdue(now.Add(100*time.Hour)))
}
