package worker

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

type collectSink struct {
	mu  sync.Mutex
	ids []string
}

func (s *collectSink) Deliver(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, n.ID)
	return nil
}

func TestNotificationQueue_StopDrainsPending(t *testing.T) {
	sink := &collectSink{}
	q := NewNotificationQueue(sink, 8, nil)
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx, 3)
	cancel()

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, q.Deliver(context.Background(), domain.Notification{ID: id}))
	}
	q.Stop()

	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, sink.ids)
	assert.ErrorIs(t, q.Deliver(context.Background(), domain.Notification{ID: "e"}), ErrQueueClosed)
	q.Stop()
}

func TestNotificationQueue_DeliverHonorsContextWhenFull(t *testing.T) {
	q := NewNotificationQueue(&collectSink{}, 1, nil)
	require.NoError(t, q.Deliver(context.Background(), domain.Notification{ID: "a"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, q.Deliver(ctx, domain.Notification{ID: "b"}), context.Canceled)
}
