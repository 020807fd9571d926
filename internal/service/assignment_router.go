package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-desk/internal/config"
	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

// AutoResolutionComment is recorded on complaints the system resolves itself.
const AutoResolutionComment = "Final grade disputes are not handled through the complaint desk. " +
	"Please submit a remarking request to the Registrar Office."

// RouteResult collects everything Route wrote. Preconditions lists routing
// steps that could not run; they do not fail the call.
type RouteResult struct {
	Assignments   []domain.ComplaintAssignment
	Notifications []domain.Notification
	Resolution    *domain.Resolution
	Preconditions []error
}

// AutoResolved reports whether routing closed the complaint without staff.
func (r *RouteResult) AutoResolved() bool {
	return r.Resolution != nil
}

// AssigneeIDs lists the staff user IDs that received an assignment.
func (r *RouteResult) AssigneeIDs() []string {
	ids := make([]string, 0, len(r.Assignments))
	for _, a := range r.Assignments {
		ids = append(ids, a.StaffID)
	}
	return ids
}

// AssignmentRouter decides who handles a new complaint.
type AssignmentRouter struct {
	directory   *CategoryDirectory
	institution config.InstitutionConfig
	logger      *zap.Logger
}

// NewAssignmentRouter constructs the router.
func NewAssignmentRouter(directory *CategoryDirectory, institution config.InstitutionConfig, logger *zap.Logger) *AssignmentRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentRouter{directory: directory, institution: institution, logger: logger}
}

// Route assigns complaint to staff, or resolves it outright for categories
// the desk does not handle. It must run inside the creating transaction,
// after the caller won the routed flag.
func (r *AssignmentRouter) Route(ctx context.Context, repos repository.Repositories, complaint *domain.Complaint) (*RouteResult, error) {
	ctx, span := tracer.Start(ctx, "AssignmentRouter.Route")
	defer span.End()
	span.SetAttributes(attribute.String("complaint.id", complaint.ID))

	category, err := repos.Categories.GetByID(ctx, complaint.CategoryID)
	if err != nil {
		return nil, notFoundOr(err, "category", map[string]any{"category_id": complaint.CategoryID})
	}

	if category.Name == domain.CategoryUnsatisfiedFinal {
		span.SetAttributes(attribute.Bool("complaint.auto_resolved", true))
		return r.autoResolve(ctx, repos, complaint)
	}
	return r.fanOut(ctx, repos, complaint, category)
}

func (r *AssignmentRouter) fanOut(ctx context.Context, repos repository.Repositories, complaint *domain.Complaint, category *domain.Category) (*RouteResult, error) {
	result := &RouteResult{}
	details := map[string]any{"complaint_id": complaint.ID}

	var course *domain.Course
	if complaint.CourseID == nil {
		result.Preconditions = append(result.Preconditions,
			apperrors.NewRoutingPrecondition("complaint has no course; lecturer not assigned", details))
	} else {
		c, err := repos.Courses.GetByID(ctx, *complaint.CourseID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			result.Preconditions = append(result.Preconditions,
				apperrors.NewRoutingPrecondition("course not found; lecturer not assigned",
					map[string]any{"complaint_id": complaint.ID, "course_id": *complaint.CourseID}))
		case err != nil:
			return nil, err
		default:
			course = c
		}
	}

	admins, err := r.directory.ResponsibleAdmins(ctx, repos, category.ID)
	if err != nil {
		return nil, err
	}

	var staff []string
	for _, a := range admins {
		if course == nil || a.Faculty.Covers(course.Faculty) {
			staff = append(staff, a.UserID)
		}
	}
	if len(staff) == 0 {
		result.Preconditions = append(result.Preconditions,
			apperrors.NewRoutingPrecondition(fmt.Sprintf("no responsible admins for category %q", category.Name), details))
	}
	if course != nil {
		staff = append(staff, course.LecturerID)
	}

	message := domain.AssignmentMessage(complaint)
	seen := make(map[string]bool, len(staff))
	for _, staffID := range staff {
		if seen[staffID] {
			continue
		}
		seen[staffID] = true

		assignment := &domain.ComplaintAssignment{ComplaintID: complaint.ID, StaffID: staffID, Message: message}
		created, err := repos.Assignments.Create(ctx, assignment)
		if err != nil {
			return nil, err
		}
		if !created {
			continue
		}
		result.Assignments = append(result.Assignments, *assignment)

		notification := &domain.Notification{RecipientID: staffID, Message: message}
		if err := repos.Notifications.Create(ctx, notification); err != nil {
			return nil, err
		}
		result.Notifications = append(result.Notifications, *notification)
	}

	for _, p := range result.Preconditions {
		r.logger.Warn("routing precondition", zap.String("complaint_id", complaint.ID), zap.Error(p))
	}
	r.logger.Info("complaint routed", zap.String("complaint_id", complaint.ID), zap.Int("assignees", len(result.Assignments)))
	return result, nil
}

func (r *AssignmentRouter) autoResolve(ctx context.Context, repos repository.Repositories, complaint *domain.Complaint) (*RouteResult, error) {
	system, err := r.EnsureSystemIdentity(ctx, repos)
	if err != nil {
		return nil, err
	}

	if err := complaint.TransitionTo(domain.ComplaintStatusResolved); err != nil {
		return nil, err
	}
	if err := repos.Complaints.Update(ctx, complaint); err != nil {
		return nil, err
	}

	resolution := &domain.Resolution{
		ComplaintID:  complaint.ID,
		ResolvedByID: system.ID,
		Comments:     AutoResolutionComment,
	}
	resolution.MarkReviewed(system.ID)
	if err := repos.Resolutions.Create(ctx, resolution); err != nil {
		return nil, err
	}

	notification := &domain.Notification{
		RecipientID: complaint.StudentID,
		Message:     fmt.Sprintf("Your complaint %q was resolved automatically. %s", complaint.Title, AutoResolutionComment),
	}
	if err := repos.Notifications.Create(ctx, notification); err != nil {
		return nil, err
	}

	r.logger.Info("complaint auto-resolved", zap.String("complaint_id", complaint.ID))
	return &RouteResult{
		Resolution:    resolution,
		Notifications: []domain.Notification{*notification},
	}, nil
}

// EnsureSystemIdentity returns the system user, creating it and its
// Registrar Office admin profile on first use. The profile is never
// added to the category directory.
func (r *AssignmentRouter) EnsureSystemIdentity(ctx context.Context, repos repository.Repositories) (*domain.User, error) {
	user, err := repos.Users.GetByEmail(ctx, r.institution.SystemEmail)
	if errors.Is(err, repository.ErrNotFound) {
		user = &domain.User{
			Email:     r.institution.SystemEmail,
			FirstName: "Complaint",
			LastName:  "Desk",
			Role:      domain.RoleAdmin,
		}
		err = repos.Users.Create(ctx, user)
	}
	if err != nil {
		return nil, err
	}

	profile := &domain.AdminProfile{
		UserID:   user.ID,
		Office:   domain.OfficeRegistrar,
		Function: "Automated resolution",
		Faculty:  domain.FacultyBoth,
		IsSystem: true,
	}
	if _, err := repos.Profiles.EnsureAdmin(ctx, profile); err != nil {
		return nil, err
	}
	return user, nil
}
