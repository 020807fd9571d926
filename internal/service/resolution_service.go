package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/events"
	"github.com/spec-kit/complaint-desk/internal/repository"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

// SubmitResolutionInput describes a new resolution.
type SubmitResolutionInput struct {
	ComplaintID string
	Comments    string
	Marks       domain.Marks
	IsReviewed  bool
}

// UpdateResolutionInput patches a resolution. Nil fields are left unchanged.
type UpdateResolutionInput struct {
	Comments   *string
	Marks      domain.Marks
	IsReviewed *bool
}

// ResolutionService runs the resolve and review workflows. Authorization
// and the write share one transaction on every path.
type ResolutionService struct {
	store      repository.Store
	authorizer *ResolutionAuthorizer
	sink       NotificationSink
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ResolutionDependencies bundles collaborators for the resolution service.
type ResolutionDependencies struct {
	Store      repository.Store
	Authorizer *ResolutionAuthorizer
	Sink       NotificationSink
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewResolutionService constructs the service.
func NewResolutionService(deps ResolutionDependencies) *ResolutionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResolutionService{
		store:      deps.Store,
		authorizer: deps.Authorizer,
		sink:       deps.Sink,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Submit records a resolution by an assigned staff member and marks the
// complaint resolved when its status still allows it.
func (s *ResolutionService) Submit(ctx context.Context, actor *domain.User, in SubmitResolutionInput) (*domain.Resolution, error) {
	ctx, span := tracer.Start(ctx, "ResolutionService.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("complaint.id", in.ComplaintID))

	var (
		resolution   *domain.Resolution
		complaint    *domain.Complaint
		oldStatus    domain.ComplaintStatus
		notification domain.Notification
	)
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		complaint, err = repos.Complaints.GetByID(ctx, in.ComplaintID)
		if err != nil {
			return notFoundOr(err, "complaint", map[string]any{"complaint_id": in.ComplaintID})
		}
		if _, err := s.authorizer.AuthorizeResolve(ctx, repos, actor, complaint); err != nil {
			return err
		}
		if err := s.checkFields(ctx, repos, complaint, in.Marks); err != nil {
			return err
		}

		resolution = &domain.Resolution{
			ComplaintID:  complaint.ID,
			ResolvedByID: actor.ID,
			Comments:     in.Comments,
			Marks:        in.Marks,
		}
		if in.IsReviewed {
			resolution.MarkReviewed(actor.ID)
		}
		if err := s.checkReview(ctx, repos, resolution); err != nil {
			return err
		}
		if err := repos.Resolutions.Create(ctx, resolution); err != nil {
			return err
		}

		// Escalated complaints still accept resolutions but keep their status.
		oldStatus = complaint.Status
		message := fmt.Sprintf("A resolution was filed on your complaint %q.", complaint.Title)
		if complaint.CanTransition(domain.ComplaintStatusResolved) {
			if err := complaint.TransitionTo(domain.ComplaintStatusResolved); err != nil {
				return err
			}
			if err := repos.Complaints.Update(ctx, complaint); err != nil {
				return err
			}
			message = fmt.Sprintf("Your complaint %q has been resolved.", complaint.Title)
		}

		notification = domain.Notification{
			RecipientID: complaint.StudentID,
			Message:     message,
		}
		return repos.Notifications.Create(ctx, &notification)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("resolution submitted",
		zap.String("complaint_id", complaint.ID),
		zap.String("resolution_id", resolution.ID),
		zap.String("resolved_by", actor.ID))
	deliver(ctx, s.sink, s.logger, notification)
	if oldStatus != complaint.Status {
		s.publish(ctx, events.New(events.EventComplaintStatusChanged, complaint.ID, &actor.ID,
			events.ComplaintStatusChangedPayload{OldStatus: oldStatus, NewStatus: complaint.Status}))
	}
	return resolution, nil
}

// Update edits a resolution. The actor needs an open assignment, and the
// stored reviewer must still qualify after the edit.
func (s *ResolutionService) Update(ctx context.Context, actor *domain.User, resolutionID string, in UpdateResolutionInput) (*domain.Resolution, error) {
	var resolution *domain.Resolution
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		resolution, err = repos.Resolutions.GetByID(ctx, resolutionID)
		if err != nil {
			return notFoundOr(err, "resolution", map[string]any{"resolution_id": resolutionID})
		}
		complaint, err := repos.Complaints.GetByID(ctx, resolution.ComplaintID)
		if err != nil {
			return notFoundOr(err, "complaint", map[string]any{"complaint_id": resolution.ComplaintID})
		}
		if _, err := s.authorizer.AuthorizeResolve(ctx, repos, actor, complaint); err != nil {
			return err
		}

		merged := mergeMarks(resolution.Marks, in.Marks)
		if err := s.checkFields(ctx, repos, complaint, merged); err != nil {
			return err
		}
		resolution.Marks = merged
		if in.Comments != nil {
			resolution.Comments = *in.Comments
		}
		if in.IsReviewed != nil {
			if *in.IsReviewed {
				resolution.MarkReviewed(actor.ID)
			} else {
				resolution.IsReviewed = false
				resolution.ReviewedByID = nil
			}
		}
		if err := s.checkReview(ctx, repos, resolution); err != nil {
			return err
		}
		return repos.Resolutions.Update(ctx, resolution)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("resolution updated", zap.String("resolution_id", resolution.ID), zap.String("actor_id", actor.ID))
	return resolution, nil
}

// Review marks a resolution reviewed by reviewer.
func (s *ResolutionService) Review(ctx context.Context, reviewer *domain.User, resolutionID string) (*domain.Resolution, error) {
	ctx, span := tracer.Start(ctx, "ResolutionService.Review")
	defer span.End()
	span.SetAttributes(attribute.String("resolution.id", resolutionID))

	var (
		resolution   *domain.Resolution
		notification domain.Notification
	)
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		resolution, err = repos.Resolutions.GetByID(ctx, resolutionID)
		if err != nil {
			return notFoundOr(err, "resolution", map[string]any{"resolution_id": resolutionID})
		}
		if reviewer == nil {
			return apperrors.NewUnauthorized("reviewer required")
		}
		resolution.MarkReviewed(reviewer.ID)
		if err := s.checkReview(ctx, repos, resolution); err != nil {
			return err
		}
		if err := repos.Resolutions.Update(ctx, resolution); err != nil {
			return err
		}
		notification = domain.Notification{
			RecipientID: resolution.ResolvedByID,
			Message:     "Your resolution has been reviewed.",
		}
		return repos.Notifications.Create(ctx, &notification)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("resolution reviewed", zap.String("resolution_id", resolution.ID), zap.String("reviewer_id", reviewer.ID))
	deliver(ctx, s.sink, s.logger, notification)
	s.publish(ctx, events.New(events.EventResolutionReviewed, resolution.ComplaintID, &reviewer.ID,
		events.ResolutionReviewedPayload{ResolutionID: resolution.ID, ReviewerID: reviewer.ID}))
	return resolution, nil
}

// ListForComplaint returns the resolutions of a complaint the actor may see.
func (s *ResolutionService) ListForComplaint(ctx context.Context, actor *domain.User, complaintID string) ([]domain.Resolution, error) {
	repos := s.store.Repos()
	complaint, err := repos.Complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, notFoundOr(err, "complaint", map[string]any{"complaint_id": complaintID})
	}
	if err := canView(ctx, repos, actor, complaint); err != nil {
		return nil, err
	}
	return repos.Resolutions.ListByComplaint(ctx, complaintID)
}

func (s *ResolutionService) checkFields(ctx context.Context, repos repository.Repositories, complaint *domain.Complaint, marks domain.Marks) error {
	category, err := repos.Categories.GetByID(ctx, complaint.CategoryID)
	if err != nil {
		return notFoundOr(err, "category", map[string]any{"category_id": complaint.CategoryID})
	}
	return s.authorizer.CheckFields(category.Name, marks)
}

// checkReview re-validates the reviewer named on res against the current roles.
func (s *ResolutionService) checkReview(ctx context.Context, repos repository.Repositories, res *domain.Resolution) error {
	if err := res.CheckReviewed(); err != nil {
		return err
	}
	if !res.IsReviewed {
		return nil
	}
	reviewer, err := repos.Users.GetByID(ctx, *res.ReviewedByID)
	if err != nil {
		return notFoundOr(err, "reviewer", map[string]any{"reviewer_id": *res.ReviewedByID})
	}
	return s.authorizer.AuthorizeReview(ctx, repos, reviewer, true)
}

func (s *ResolutionService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func mergeMarks(base, patch domain.Marks) domain.Marks {
	if patch.AttendanceMark != nil {
		base.AttendanceMark = patch.AttendanceMark
	}
	if patch.AssignmentMark != nil {
		base.AssignmentMark = patch.AssignmentMark
	}
	if patch.CAMark != nil {
		base.CAMark = patch.CAMark
	}
	if patch.ExamMark != nil {
		base.ExamMark = patch.ExamMark
	}
	if patch.FinalMark != nil {
		base.FinalMark = patch.FinalMark
	}
	return base
}
