// Package queue provides the durable hand-off between job submission and the
// worker.
package queue

import (
	"context"
	"time"
)

// Queue carries job ids from the API to the worker. Dequeue blocks up to
// timeout and returns the empty string when nothing arrived. Remove is the
// best-effort cancel path for jobs not yet consumed.
type Queue interface {
	Enqueue(ctx context.Context, jobID string) error
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
	Remove(ctx context.Context, jobID string) (bool, error)
}
