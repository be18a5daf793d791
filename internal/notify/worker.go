package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// dequeueRetryDelay spaces out retries after a failed dequeue.
const dequeueRetryDelay = time.Second

// Worker drains the job queue and delivers notifications. Before every send
// it appends a history row; when the row already exists the job is a replay
// and the send is skipped, so at-least-once queue delivery stays
// at-most-once at the user's device.
type Worker struct {
	repo   repository.NotificationRepository
	queue  Queue
	sender Sender
	logger zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a notification worker.
func NewWorker(repo repository.NotificationRepository, queue Queue, sender Sender, logger zerolog.Logger) *Worker {
	return &Worker{
		repo:   repo,
		queue:  queue,
		sender: sender,
		logger: logger.With().Str("component", "notify_worker").Logger(),
	}
}

// Start launches the delivery loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
	w.logger.Info().Msg("notification worker started")
}

// Stop cancels the loop and waits for the in-flight job to finish.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info().Msg("notification worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			w.logger.Error().Err(err).Msg("failed to dequeue job")
			// Back off before retrying so a broken queue does not spin
			// the loop.
			select {
			case <-ctx.Done():
				return
			case <-time.After(dequeueRetryDelay):
				continue
			}
		}

		if err := w.process(ctx, job); err != nil {
			w.logger.Error().Err(err).
				Str("user_id", job.UserID.String()).
				Str("event_id", job.EventID.String()).
				Msg("failed to process notification job")
		}
	}
}

func (w *Worker) process(ctx context.Context, job *Job) error {
	history := &model.NotificationHistory{
		ID:        uuid.New(),
		UserID:    job.UserID,
		ProductID: job.ProductID,
		Type:      job.Type,
		EventID:   job.EventID,
		Title:     job.Title,
		Body:      job.Body,
	}

	inserted, err := w.repo.CreateHistory(ctx, history)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	if !inserted {
		w.logger.Debug().
			Str("user_id", job.UserID.String()).
			Str("event_id", job.EventID.String()).
			Msg("notification already delivered, skipping")
		return nil
	}

	msg := PushMessage{
		UserID:         job.UserID,
		Title:          job.Title,
		Body:           job.Body,
		IdempotencyKey: fmt.Sprintf("%s:%s", job.UserID, job.EventID),
	}
	if err := w.sender.Send(ctx, msg); err != nil {
		// The history row stays: the send was attempted and the relay
		// holds the idempotency key for any retry.
		return fmt.Errorf("failed to send notification: %w", err)
	}

	w.logger.Info().
		Str("user_id", job.UserID.String()).
		Str("type", string(job.Type)).
		Str("event_id", job.EventID.String()).
		Msg("notification delivered")

	return nil
}
