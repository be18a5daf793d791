package notify

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
)

// Job is one pending push notification for one user. Jobs are serialised onto
// the queue and consumed by the worker; EventID ties every job back to the
// product-change event that produced it so retries stay idempotent.
type Job struct {
	ID        uuid.UUID              `json:"id"`
	UserID    uuid.UUID              `json:"userId"`
	ProductID uuid.UUID              `json:"productId"`
	Type      model.ProductEventType `json:"type"`
	EventID   uuid.UUID              `json:"eventId"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	CreatedAt time.Time              `json:"createdAt"`
}

// Queue is the transport between the API process, which enqueues jobs, and
// the worker that delivers them.
type Queue interface {
	// Enqueue pushes a job onto the queue.
	Enqueue(ctx context.Context, job Job) error

	// Dequeue blocks until a job is available or the context is done.
	Dequeue(ctx context.Context) (*Job, error)

	// Close releases the queue's resources.
	Close() error
}
