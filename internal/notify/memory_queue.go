package notify

import (
	"context"
	"fmt"
	"sync"
)

// memoryQueue implements Queue on a buffered channel. Used when Redis is
// disabled: the API process then runs the worker in-process and jobs do not
// survive a restart.
type memoryQueue struct {
	jobs   chan Job
	closed chan struct{}
	once   sync.Once
}

// NewMemoryQueue returns an in-process job queue with the given capacity.
func NewMemoryQueue(capacity int) Queue {
	return &memoryQueue{
		jobs:   make(chan Job, capacity),
		closed: make(chan struct{}),
	}
}

func (q *memoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-q.closed:
		return fmt.Errorf("queue closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *memoryQueue) Dequeue(ctx context.Context) (*Job, error) {
	select {
	case job := <-q.jobs:
		return &job, nil
	case <-q.closed:
		return nil, fmt.Errorf("queue closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *memoryQueue) Close() error {
	q.once.Do(func() { close(q.closed) })
	return nil
}
