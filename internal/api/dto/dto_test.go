package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-desk/internal/domain"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

func TestValidate_CreateComplaint(t *testing.T) {
	err := Validate(CreateComplaintRequest{CategoryID: "nope", Type: "Secret"})
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	details := apperrors.ToDomainError(err).Details
	assert.Equal(t, "required", details["description"])
	assert.Equal(t, "uuid", details["category_id"])
	assert.Equal(t, "oneof", details["complaint_type"])

	assert.NoError(t, Validate(CreateComplaintRequest{
		Description: "missing CA",
		CategoryID:  "5f1c9f0e-8c1f-4f43-9a55-0b1b2a8f6a10",
	}))
}

func TestValidate_ChangeStatus(t *testing.T) {
	assert.NoError(t, Validate(ChangeStatusRequest{Status: domain.ComplaintStatusInProgress}))
	assert.Error(t, Validate(ChangeStatusRequest{Status: "Closed"}))
}

func TestNewComplaintResponse_HidesAnonymousStudent(t *testing.T) {
	now := time.Date(2024, 5, 6, 9, 30, 0, 0, time.UTC)
	c := &domain.Complaint{ID: "c1", StudentID: "s1", IsAnonymous: true, Status: domain.ComplaintStatusOpen, Deadline: now.Add(-time.Hour)}

	owner := NewComplaintResponse(c, "s1", now)
	require.NotNil(t, owner.StudentID)
	assert.Equal(t, "s1", *owner.StudentID)
	assert.True(t, owner.Overdue)

	assert.Nil(t, NewComplaintResponse(c, "staff", now).StudentID)

	c.IsAnonymous = false
	assert.NotNil(t, NewComplaintResponse(c, "staff", now).StudentID)
}
