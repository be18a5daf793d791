package notify

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testJob() *Job {
	return &Job{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ProductID: uuid.New(),
		Type:      model.ProductEventStockAvailable,
		EventID:   uuid.New(),
		Title:     "Back in stock",
		Body:      "Walnut Desk is back in stock.",
		CreatedAt: time.Now().UTC(),
	}
}

func TestWorker_Process_RecordsHistoryThenSends(t *testing.T) {
	ctx := context.Background()
	job := testJob()

	repo := new(MockNotificationRepository)
	sender := new(MockSender)

	repo.On("CreateHistory", ctx, mock.MatchedBy(func(h *model.NotificationHistory) bool {
		return h.UserID == job.UserID &&
			h.ProductID == job.ProductID &&
			h.EventID == job.EventID &&
			h.Type == job.Type
	})).Return(true, nil)

	wantKey := fmt.Sprintf("%s:%s", job.UserID, job.EventID)
	sender.On("Send", ctx, mock.MatchedBy(func(msg PushMessage) bool {
		return msg.UserID == job.UserID && msg.IdempotencyKey == wantKey
	})).Return(nil)

	w := NewWorker(repo, NewMemoryQueue(1), sender, zerolog.Nop())
	err := w.process(ctx, job)

	require.NoError(t, err)
	repo.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestWorker_Process_ReplaySkipsSend(t *testing.T) {
	ctx := context.Background()
	job := testJob()

	repo := new(MockNotificationRepository)
	sender := new(MockSender)

	// The (user, product, type, event) row already exists: this job is a
	// queue redelivery and must not reach the user again.
	repo.On("CreateHistory", ctx, mock.Anything).Return(false, nil)

	w := NewWorker(repo, NewMemoryQueue(1), sender, zerolog.Nop())
	err := w.process(ctx, job)

	require.NoError(t, err)
	sender.AssertNotCalled(t, "Send")
}

func TestWorker_Process_SendFailureKeepsHistory(t *testing.T) {
	ctx := context.Background()
	job := testJob()

	repo := new(MockNotificationRepository)
	sender := new(MockSender)

	repo.On("CreateHistory", ctx, mock.Anything).Return(true, nil)
	sender.On("Send", ctx, mock.Anything).Return(assert.AnError)

	w := NewWorker(repo, NewMemoryQueue(1), sender, zerolog.Nop())
	err := w.process(ctx, job)

	require.Error(t, err)
	// The history row was written before the send and is not rolled back.
	repo.AssertNumberOfCalls(t, "CreateHistory", 1)
}

func TestWorker_StartStop_DrainsQueue(t *testing.T) {
	job := testJob()

	repo := new(MockNotificationRepository)
	sender := new(MockSender)

	delivered := make(chan struct{})
	repo.On("CreateHistory", mock.Anything, mock.Anything).Return(true, nil)
	sender.On("Send", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { close(delivered) }).
		Return(nil)

	queue := NewMemoryQueue(4)
	require.NoError(t, queue.Enqueue(context.Background(), *job))

	w := NewWorker(repo, queue, sender, zerolog.Nop())
	w.Start(context.Background())

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not deliver the queued job")
	}

	w.Stop()
}

func TestMemoryQueue_EnqueueDequeue(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(2)
	job := testJob()

	require.NoError(t, q.Enqueue(ctx, *job))

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, job.EventID, got.EventID)
}

func TestMemoryQueue_DequeueHonoursContext(t *testing.T) {
	q := NewMemoryQueue(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryQueue_CloseUnblocks(t *testing.T) {
	q := NewMemoryQueue(1)

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(context.Background())
		errCh <- err
	}()

	require.NoError(t, q.Close())

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not return after Close")
	}
}

// failingQueue errors on every Dequeue and counts the attempts.
type failingQueue struct {
	calls atomic.Int32
}

func (q *failingQueue) Enqueue(ctx context.Context, job Job) error { return nil }

func (q *failingQueue) Dequeue(ctx context.Context) (*Job, error) {
	q.calls.Add(1)
	return nil, fmt.Errorf("queue unavailable")
}

func (q *failingQueue) Close() error { return nil }

func TestWorker_DequeueErrorBacksOff(t *testing.T) {
	queue := new(failingQueue)
	w := NewWorker(new(MockNotificationRepository), queue, new(MockSender), zerolog.Nop())

	w.Start(context.Background())
	time.Sleep(150 * time.Millisecond)
	w.Stop()

	// One immediate attempt, then the loop sits in the retry delay instead
	// of hammering the queue.
	calls := queue.calls.Load()
	assert.GreaterOrEqual(t, calls, int32(1))
	assert.LessOrEqual(t, calls, int32(2))
}
