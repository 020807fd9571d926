package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/observability"
	"github.com/spec-kit/complaint-desk/internal/repository"
)

// ReminderReport summarizes one sweep.
type ReminderReport struct {
	Complaints int
	Reminders  int
}

// ReminderService nudges staff holding open assignments on overdue complaints.
type ReminderService struct {
	store   repository.Store
	sink    NotificationSink
	metrics *observability.Metrics
	logger  *zap.Logger
	clock   Clock
}

// ReminderDependencies bundles collaborators for the reminder sweep.
type ReminderDependencies struct {
	Store   repository.Store
	Sink    NotificationSink
	Metrics *observability.Metrics
	Logger  *zap.Logger
	Clock   Clock
}

// NewReminderService constructs the service.
func NewReminderService(deps ReminderDependencies) *ReminderService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{
		store:   deps.Store,
		sink:    deps.Sink,
		metrics: deps.Metrics,
		logger:  logger,
		clock:   deps.Clock,
	}
}

// Sweep sends one reminder per open assignment of every overdue complaint.
// Each complaint is handled in its own transaction so one failure does not
// hold back the rest.
func (s *ReminderService) Sweep(ctx context.Context) (ReminderReport, error) {
	var report ReminderReport
	overdue, err := s.store.Repos().Complaints.ListOverdue(ctx, s.clock.now())
	if err != nil {
		return report, err
	}

	for i := range overdue {
		complaint := &overdue[i]
		var sent []domain.Notification
		err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
			sent = sent[:0]
			assignments, err := repos.Assignments.ListByComplaint(ctx, complaint.ID)
			if err != nil {
				return err
			}
			for _, a := range assignments {
				if !a.Open() {
					continue
				}
				count, err := repos.Assignments.IncrementReminder(ctx, a.ID)
				if err != nil {
					return err
				}
				n := domain.Notification{RecipientID: a.StaffID, Message: domain.ReminderMessage(complaint, count)}
				if err := repos.Notifications.Create(ctx, &n); err != nil {
					return err
				}
				sent = append(sent, n)
			}
			return nil
		})
		if err != nil {
			s.logger.Error("reminder sweep failed for complaint", zap.String("complaint_id", complaint.ID), zap.Error(err))
			continue
		}
		if len(sent) == 0 {
			continue
		}
		report.Complaints++
		report.Reminders += len(sent)
		deliver(ctx, s.sink, s.logger, sent...)
	}

	s.metrics.RecordWorkflow("reminder_sweep", "completed")
	s.logger.Info("reminder sweep finished",
		zap.Int("overdue", len(overdue)),
		zap.Int("complaints", report.Complaints),
		zap.Int("reminders", report.Reminders))
	return report, nil
}
