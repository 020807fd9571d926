package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/events"
	"github.com/spec-kit/complaint-desk/internal/observability"
	"github.com/spec-kit/complaint-desk/internal/repository"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

// IdempotencyGuard remembers which complaint a retried request produced.
type IdempotencyGuard interface {
	// Reserve claims key. When the key is already claimed it returns the
	// complaint ID recorded for it, or "" while the first request is in flight.
	Reserve(ctx context.Context, key string) (existingID string, reserved bool, err error)
	Complete(ctx context.Context, key, complaintID string) error
	Release(ctx context.Context, key string) error
}

// FileComplaintInput describes a complaint filed by a student.
type FileComplaintInput struct {
	Title          string
	Description    string
	CategoryID     string
	CourseID       *string
	Type           domain.ComplaintType
	IsAnonymous    bool
	Semester       string
	Year           int
	IdempotencyKey string
}

// FiledComplaint is the result of FileComplaint. Route is nil when the
// request replayed an earlier one.
type FiledComplaint struct {
	Complaint *domain.Complaint
	Route     *RouteResult
	Replayed  bool
}

// ComplaintListFilter narrows complaint listings.
type ComplaintListFilter struct {
	Status *domain.ComplaintStatus
	// Community lists every Community complaint regardless of the actor's role.
	Community bool
	Limit     int
	Offset    int
}

// ComplaintService coordinates complaint workflows.
type ComplaintService struct {
	store       repository.Store
	router      *AssignmentRouter
	sink        NotificationSink
	dispatcher  events.Dispatcher
	idempotency IdempotencyGuard
	metrics     *observability.Metrics
	logger      *zap.Logger
	clock       Clock
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	Store       repository.Store
	Router      *AssignmentRouter
	Sink        NotificationSink
	Dispatcher  events.Dispatcher
	Idempotency IdempotencyGuard
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Clock       Clock
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{
		store:       deps.Store,
		router:      deps.Router,
		sink:        deps.Sink,
		dispatcher:  deps.Dispatcher,
		idempotency: deps.Idempotency,
		metrics:     deps.Metrics,
		logger:      logger,
		clock:       deps.Clock,
	}
}

// FileComplaint creates a complaint and routes it exactly once. Creation,
// the routed flag and every routing write commit together; notifications
// are delivered after commit.
func (s *ComplaintService) FileComplaint(ctx context.Context, student *domain.User, in FileComplaintInput) (*FiledComplaint, error) {
	if student == nil {
		return nil, apperrors.NewUnauthorized("student required")
	}
	if student.Role != domain.RoleStudent {
		return nil, apperrors.NewForbidden("only students may file complaints")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}

	key := ""
	if in.IdempotencyKey != "" && s.idempotency != nil {
		key = fmt.Sprintf("complaint:%s:%s", student.ID, in.IdempotencyKey)
		existingID, reserved, err := s.idempotency.Reserve(ctx, key)
		if err != nil {
			return nil, err
		}
		if !reserved {
			return s.replay(ctx, existingID)
		}
	}

	filed, err := s.create(ctx, student, in)
	if key != "" {
		if err != nil {
			if relErr := s.idempotency.Release(ctx, key); relErr != nil {
				s.logger.Warn("release idempotency key", zap.String("key", key), zap.Error(relErr))
			}
		} else if compErr := s.idempotency.Complete(ctx, key, filed.Complaint.ID); compErr != nil {
			s.logger.Warn("complete idempotency key", zap.String("key", key), zap.Error(compErr))
		}
	}
	if err != nil {
		return nil, err
	}

	outcome := "assigned"
	if filed.Route.AutoResolved() {
		outcome = "auto_resolved"
	}
	s.metrics.RecordWorkflow("complaint_filed", outcome)

	deliver(ctx, s.sink, s.logger, filed.Route.Notifications...)
	preconditions := make([]string, 0, len(filed.Route.Preconditions))
	for _, p := range filed.Route.Preconditions {
		preconditions = append(preconditions, p.Error())
	}
	s.publish(ctx, events.New(events.EventComplaintFiled, filed.Complaint.ID, &student.ID, events.ComplaintFiledPayload{
		CategoryID:    filed.Complaint.CategoryID,
		AutoResolved:  filed.Route.AutoResolved(),
		AssigneeIDs:   filed.Route.AssigneeIDs(),
		Preconditions: preconditions,
	}))
	return filed, nil
}

func (s *ComplaintService) replay(ctx context.Context, complaintID string) (*FiledComplaint, error) {
	if complaintID == "" {
		return nil, apperrors.NewConflict("an identical request is still being processed", nil)
	}
	complaint, err := s.store.Repos().Complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, notFoundOr(err, "complaint", map[string]any{"complaint_id": complaintID})
	}
	return &FiledComplaint{Complaint: complaint, Replayed: true}, nil
}

func (s *ComplaintService) create(ctx context.Context, student *domain.User, in FileComplaintInput) (*FiledComplaint, error) {
	filed := &FiledComplaint{}
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		category, err := repos.Categories.GetByID(ctx, in.CategoryID)
		if err != nil {
			return notFoundOr(err, "category", map[string]any{"category_id": in.CategoryID})
		}
		if in.CourseID != nil {
			if _, err := repos.Courses.GetByID(ctx, *in.CourseID); err != nil {
				return notFoundOr(err, "course", map[string]any{"course_id": *in.CourseID})
			}
		}

		complaint := domain.NewComplaint(domain.NewComplaintInput{
			StudentID:    student.ID,
			StudentName:  student.DisplayName(),
			Title:        in.Title,
			Description:  in.Description,
			CategoryID:   category.ID,
			CategoryName: category.Name,
			CourseID:     in.CourseID,
			Type:         in.Type,
			IsAnonymous:  in.IsAnonymous,
			Semester:     in.Semester,
			Year:         in.Year,
		}, s.clock.now())
		if err := repos.Complaints.Create(ctx, complaint); err != nil {
			return err
		}

		won, err := repos.Complaints.MarkRouted(ctx, complaint.ID)
		if err != nil {
			return err
		}
		if !won {
			return apperrors.NewConflict("complaint already routed", map[string]any{"complaint_id": complaint.ID})
		}
		complaint.Routed = true

		route, err := s.router.Route(ctx, repos, complaint)
		if err != nil {
			return err
		}
		filed.Complaint = complaint
		filed.Route = route
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("complaint filed",
		zap.String("complaint_id", filed.Complaint.ID),
		zap.String("student_id", student.ID),
		zap.String("status", string(filed.Complaint.Status)))
	return filed, nil
}

// GetComplaint returns a complaint the actor may see.
func (s *ComplaintService) GetComplaint(ctx context.Context, actor *domain.User, id string) (*domain.Complaint, error) {
	repos := s.store.Repos()
	complaint, err := repos.Complaints.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "complaint", map[string]any{"complaint_id": id})
	}
	if err := canView(ctx, repos, actor, complaint); err != nil {
		return nil, err
	}
	return complaint, nil
}

// ListComplaints returns the student's own complaints, the complaints
// assigned to a staff member, or everything for supervisors. The community
// scope returns the shared feed to anyone.
func (s *ComplaintService) ListComplaints(ctx context.Context, actor *domain.User, filter ComplaintListFilter) ([]domain.Complaint, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	repos := s.store.Repos()
	query := repository.ComplaintFilter{Status: filter.Status, Limit: filter.Limit, Offset: filter.Offset}
	if filter.Community {
		community := domain.ComplaintTypeCommunity
		query.Type = &community
		return repos.Complaints.List(ctx, query)
	}

	supervisor, err := isSupervisor(ctx, repos, actor)
	if err != nil {
		return nil, err
	}
	switch {
	case supervisor:
	case actor.Role.IsStaff():
		query.AssigneeID = &actor.ID
	default:
		query.StudentID = &actor.ID
	}
	return repos.Complaints.List(ctx, query)
}

// ChangeStatus moves a complaint along its lifecycle. Assigned staff and
// coordinators may do this.
func (s *ComplaintService) ChangeStatus(ctx context.Context, actor *domain.User, id string, next domain.ComplaintStatus) (*domain.Complaint, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	var (
		complaint    *domain.Complaint
		oldStatus    domain.ComplaintStatus
		notification domain.Notification
	)
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		complaint, err = repos.Complaints.GetByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "complaint", map[string]any{"complaint_id": id})
		}
		if !actor.HasRole(domain.RoleComplaintCoordinator) {
			assignment, err := repos.Assignments.GetForShare(ctx, complaint.ID, actor.ID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			if assignment == nil || !assignment.Open() {
				return apperrors.NewAuthorizationDenied("staff member is not assigned to this complaint",
					map[string]any{"complaint_id": complaint.ID, "staff_id": actor.ID})
			}
		}

		oldStatus = complaint.Status
		if err := complaint.TransitionTo(next); err != nil {
			return err
		}
		if oldStatus == complaint.Status {
			return nil
		}
		if err := repos.Complaints.Update(ctx, complaint); err != nil {
			return err
		}
		notification = domain.Notification{
			RecipientID: complaint.StudentID,
			Message:     fmt.Sprintf("Your complaint %q is now %s.", complaint.Title, complaint.Status),
		}
		return repos.Notifications.Create(ctx, &notification)
	})
	if err != nil {
		return nil, err
	}
	if oldStatus == complaint.Status {
		return complaint, nil
	}

	s.logger.Info("complaint status changed",
		zap.String("complaint_id", complaint.ID),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(complaint.Status)))
	deliver(ctx, s.sink, s.logger, notification)
	s.publish(ctx, events.New(events.EventComplaintStatusChanged, complaint.ID, &actor.ID,
		events.ComplaintStatusChangedPayload{OldStatus: oldStatus, NewStatus: complaint.Status}))
	return complaint, nil
}

// ListAssignments returns the actor's assignments.
func (s *ComplaintService) ListAssignments(ctx context.Context, actor *domain.User, openOnly bool) ([]domain.ComplaintAssignment, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return s.store.Repos().Assignments.ListByStaff(ctx, actor.ID, openOnly)
}

// RevokeAssignment withdraws a staff member's resolve rights. Coordinators only.
func (s *ComplaintService) RevokeAssignment(ctx context.Context, actor *domain.User, assignmentID string) (*domain.ComplaintAssignment, error) {
	if actor == nil || !actor.HasRole(domain.RoleComplaintCoordinator) {
		return nil, apperrors.NewAuthorizationDenied("only a complaint coordinator may revoke assignments",
			map[string]any{"assignment_id": assignmentID})
	}
	var (
		assignment   *domain.ComplaintAssignment
		notification domain.Notification
	)
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		assignment, err = repos.Assignments.GetByID(ctx, assignmentID)
		if err != nil {
			return notFoundOr(err, "assignment", map[string]any{"assignment_id": assignmentID})
		}
		if !assignment.Open() {
			return nil
		}
		if err := repos.Assignments.Revoke(ctx, assignment.ID, s.clock.now()); err != nil {
			return err
		}
		complaint, err := repos.Complaints.GetByID(ctx, assignment.ComplaintID)
		if err != nil {
			return err
		}
		notification = domain.Notification{
			RecipientID: assignment.StaffID,
			Message:     fmt.Sprintf("Your assignment to complaint %q has been withdrawn.", complaint.Title),
		}
		if err := repos.Notifications.Create(ctx, &notification); err != nil {
			return err
		}
		assignment, err = repos.Assignments.GetByID(ctx, assignmentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if notification.ID != "" {
		s.logger.Info("assignment revoked", zap.String("assignment_id", assignment.ID), zap.String("complaint_id", assignment.ComplaintID))
		deliver(ctx, s.sink, s.logger, notification)
	}
	return assignment, nil
}

func (s *ComplaintService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// isSupervisor reports whether actor sees every complaint: coordinators and
// Registrar Office admins.
func isSupervisor(ctx context.Context, repos repository.Repositories, actor *domain.User) (bool, error) {
	if actor.HasRole(domain.RoleComplaintCoordinator) {
		return true, nil
	}
	admin, err := repos.Profiles.GetAdmin(ctx, actor.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return admin.Office == domain.OfficeRegistrar, nil
}

// canView allows the filing student, any user for community complaints,
// staff holding an assignment, and supervisors.
func canView(ctx context.Context, repos repository.Repositories, actor *domain.User, complaint *domain.Complaint) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if complaint.StudentID == actor.ID || complaint.Type == domain.ComplaintTypeCommunity {
		return nil
	}
	supervisor, err := isSupervisor(ctx, repos, actor)
	if err != nil {
		return err
	}
	if supervisor {
		return nil
	}
	if actor.Role.IsStaff() || actor.SecondaryRole != nil {
		_, err := repos.Assignments.GetForShare(ctx, complaint.ID, actor.ID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	return apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaint.ID})
}
