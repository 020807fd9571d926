package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"

	"github.com/spec-kit/complaint-desk/internal/config"
	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/events"
	"github.com/spec-kit/complaint-desk/internal/repository"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

// NotificationSink delivers an already stored notification to outbound
// channels. Delivery failures never undo the stored row.
type NotificationSink interface {
	Deliver(ctx context.Context, notification domain.Notification) error
}

// Mailer sends email. *mail.Dialer satisfies it.
type Mailer interface {
	DialAndSend(m ...*mail.Message) error
}

// NewSMTPMailer returns a dialer for the configured SMTP relay, or nil when
// email delivery is disabled.
func NewSMTPMailer(cfg config.NotificationConfig) Mailer {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil
	}
	dialer := mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	dialer.Timeout = 10 * time.Second
	return dialer
}

// deliver hands committed notifications to sink, logging failures.
func deliver(ctx context.Context, sink NotificationSink, logger *zap.Logger, notifications ...domain.Notification) {
	if sink == nil {
		return
	}
	for _, n := range notifications {
		if n.ID == "" {
			continue
		}
		if err := sink.Deliver(ctx, n); err != nil {
			logger.Warn("notification delivery failed",
				zap.String("notification_id", n.ID),
				zap.String("recipient_id", n.RecipientID),
				zap.Error(err))
		}
	}
}

// NotificationService stores in-app notifications and fans them out to
// email and webhook channels through the event dispatcher.
type NotificationService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	mailer     Mailer
	http       *resty.Client
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Mailer     Mailer
	HTTPClient *resty.Client
	Logger     *zap.Logger
	Config     config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := deps.HTTPClient
	if client == nil {
		client = resty.New().SetTimeout(10 * time.Second)
	}
	return &NotificationService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		mailer:     deps.Mailer,
		http:       client,
		logger:     logger,
		cfg:        deps.Config,
	}
}

// Deliver publishes the notification for the outbound handlers.
func (n *NotificationService) Deliver(ctx context.Context, notification domain.Notification) error {
	if n.dispatcher == nil {
		return nil
	}
	return n.dispatcher.Publish(ctx, events.New(events.EventNotificationCreated, "", nil,
		events.NotificationCreatedPayload{RecipientID: notification.RecipientID, Message: notification.Message}))
}

// Notify stores a notification for recipientID and delivers it.
func (n *NotificationService) Notify(ctx context.Context, recipientID, message string) (*domain.Notification, error) {
	notification := &domain.Notification{RecipientID: recipientID, Message: message}
	if err := n.store.Repos().Notifications.Create(ctx, notification); err != nil {
		return nil, err
	}
	deliver(ctx, n, n.logger, *notification)
	return notification, nil
}

// ListForUser returns the actor's notifications, newest first.
func (n *NotificationService) ListForUser(ctx context.Context, actor *domain.User, unreadOnly bool) ([]domain.Notification, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return n.store.Repos().Notifications.ListByRecipient(ctx, actor.ID, unreadOnly)
}

// MarkRead flags one of the actor's notifications as read.
func (n *NotificationService) MarkRead(ctx context.Context, actor *domain.User, id string) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	err := n.store.Repos().Notifications.MarkRead(ctx, id, actor.ID)
	return notFoundOr(err, "notification", map[string]any{"notification_id": id})
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventNotificationCreated, n.handleNotificationCreated)
	n.dispatcher.Subscribe(events.EventComplaintFiled, n.handleComplaintEvent)
	n.dispatcher.Subscribe(events.EventComplaintStatusChanged, n.handleComplaintEvent)
	n.dispatcher.Subscribe(events.EventResolutionReviewed, n.handleComplaintEvent)
}

func (n *NotificationService) handleNotificationCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.NotificationCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	return errors.Join(n.sendEmail(ctx, payload), n.postWebhook(ctx, event))
}

func (n *NotificationService) handleComplaintEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("complaint_id", event.ComplaintID), zap.Any("payload", event.Payload))
	return n.postWebhook(ctx, event)
}

func (n *NotificationService) sendEmail(ctx context.Context, payload events.NotificationCreatedPayload) error {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || n.store == nil {
		return nil
	}
	recipient, err := n.store.Repos().Users.GetByID(ctx, payload.RecipientID)
	if err != nil {
		return fmt.Errorf("load notification recipient: %w", err)
	}
	if n.mailer == nil {
		n.logger.Debug("email delivery disabled",
			zap.String("to", recipient.Email),
			zap.String("message", payload.Message))
		return nil
	}

	_, span := tracer.Start(ctx, "NotificationService.sendEmail")
	defer span.End()
	span.SetAttributes(attribute.String("email.to", recipient.Email))

	m := mail.NewMessage()
	m.SetHeader("From", n.cfg.EmailFrom)
	m.SetHeader("To", recipient.Email)
	m.SetHeader("Subject", "Complaint desk notification")
	m.SetBody("text/plain", payload.Message)
	if err := n.mailer.DialAndSend(m); err != nil {
		span.RecordError(err)
		return fmt.Errorf("send email to %s: %w", recipient.Email, err)
	}
	return nil
}

func (n *NotificationService) postWebhook(ctx context.Context, event events.Event) error {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if url == "" {
		return nil
	}
	resp, err := n.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned %s", resp.Status())
	}
	return nil
}
