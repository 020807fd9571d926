package service

import (
	"context"
	"errors"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/policy"
	"github.com/spec-kit/complaint-desk/internal/repository"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

// Resolver is a staff member cleared to resolve one complaint.
// AdminProfile is nil for lecturer-only staff.
type Resolver struct {
	User         *domain.User
	AdminProfile *domain.AdminProfile
	Assignment   *domain.ComplaintAssignment
}

// ResolutionAuthorizer decides who may resolve and who may review.
type ResolutionAuthorizer struct {
	policy *policy.Table
}

// NewResolutionAuthorizer constructs the authorizer.
func NewResolutionAuthorizer(table *policy.Table) *ResolutionAuthorizer {
	return &ResolutionAuthorizer{policy: table}
}

// AuthorizeResolve requires an open assignment of staff to complaint. The
// assignment row is read for share so a concurrent revocation waits for the
// surrounding transaction.
func (a *ResolutionAuthorizer) AuthorizeResolve(ctx context.Context, repos repository.Repositories, staff *domain.User, complaint *domain.Complaint) (*Resolver, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	details := map[string]any{"complaint_id": complaint.ID, "staff_id": staff.ID}

	assignment, err := repos.Assignments.GetForShare(ctx, complaint.ID, staff.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewAuthorizationDenied("staff member is not assigned to this complaint", details)
	}
	if err != nil {
		return nil, err
	}
	if !assignment.Open() {
		return nil, apperrors.NewAuthorizationDenied("assignment has been revoked", details)
	}

	admin, err := repos.Profiles.GetAdmin(ctx, staff.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return &Resolver{User: staff, AdminProfile: admin, Assignment: assignment}, nil
}

// AuthorizeReview allows setting the reviewed flag only to a Complaint
// Coordinator (primary or secondary role) or a Registrar Office admin.
// Clearing or leaving the flag unset needs no authority.
func (a *ResolutionAuthorizer) AuthorizeReview(ctx context.Context, repos repository.Repositories, reviewer *domain.User, isReviewed bool) error {
	if !isReviewed {
		return nil
	}
	if reviewer == nil {
		return apperrors.NewAuthorizationDenied("reviewed resolution requires a reviewer", nil)
	}
	if reviewer.HasRole(domain.RoleComplaintCoordinator) {
		return nil
	}
	admin, err := repos.Profiles.GetAdmin(ctx, reviewer.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if admin != nil && admin.Office == domain.OfficeRegistrar {
		return nil
	}
	return apperrors.NewAuthorizationDenied("only a complaint coordinator or the registrar office may review resolutions",
		map[string]any{"reviewer_id": reviewer.ID})
}

// CheckFields rejects marks the category does not allow.
func (a *ResolutionAuthorizer) CheckFields(categoryName string, marks domain.Marks) error {
	var rejected []string
	for _, field := range marks.Present() {
		if !a.policy.Allows(categoryName, field) {
			rejected = append(rejected, string(field))
		}
	}
	if len(rejected) == 0 {
		return nil
	}
	return apperrors.NewInvariantViolation("marks not editable for this category",
		map[string]any{"category": categoryName, "fields": rejected})
}
