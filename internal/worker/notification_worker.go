package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/service"
)

// ErrQueueClosed is returned by Deliver after Stop.
var ErrQueueClosed = errors.New("notification queue closed")

// StartNotificationWorker registers notification handlers and starts a
// queue that delivers notifications off the request path.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, workers, buffer int, logger *zap.Logger) *NotificationQueue {
	if notificationService == nil {
		return nil
	}
	notificationService.RegisterHandlers()
	queue := NewNotificationQueue(notificationService, buffer, logger)
	queue.Start(ctx, workers)
	return queue
}

// NotificationQueue is a service.NotificationSink that hands notifications
// to a pool of goroutines.
type NotificationQueue struct {
	next   service.NotificationSink
	jobs   chan domain.Notification
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewNotificationQueue wraps next with a buffered queue.
func NewNotificationQueue(next service.NotificationSink, buffer int, logger *zap.Logger) *NotificationQueue {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationQueue{next: next, jobs: make(chan domain.Notification, buffer), logger: logger}
}

// Start launches workers goroutines. They drain the queue until Stop.
func (q *NotificationQueue) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for n := range q.jobs {
				if err := q.next.Deliver(context.WithoutCancel(ctx), n); err != nil {
					q.logger.Warn("notification delivery failed",
						zap.String("notification_id", n.ID),
						zap.String("recipient_id", n.RecipientID),
						zap.Error(err))
				}
			}
		}()
	}
}

// Deliver enqueues notification. It blocks while the buffer is full unless
// ctx is done first.
func (q *NotificationQueue) Deliver(ctx context.Context, notification domain.Notification) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- notification:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queue and waits for queued notifications to be delivered.
func (q *NotificationQueue) Stop() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
