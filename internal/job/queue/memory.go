package queue

import (
	"context"
	"sync"
	"time"
)

type memoryQueue struct {
	mu      sync.Mutex
	items   []string
	arrived chan struct{}
}

// NewMemoryQueue returns a single-process queue used when Redis is not
// configured, and in tests.
func NewMemoryQueue() Queue {
	return &memoryQueue{arrived: make(chan struct{}, 1)}
}

func (q *memoryQueue) Enqueue(_ context.Context, jobID string) error {
	q.mu.Lock()
	q.items = append(q.items, jobID)
	q.mu.Unlock()

	select {
	case q.arrived <- struct{}{}:
	default:
	}
	return nil
}

func (q *memoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if id := q.pop(); id != "" {
			return id, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			return "", nil
		case <-q.arrived:
		}
	}
}

func (q *memoryQueue) Remove(_ context.Context, jobID string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, id := range q.items {
		if id == jobID {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (q *memoryQueue) pop() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return ""
	}
	id := q.items[0]
	q.items = q.items[1:]
	return id
}
