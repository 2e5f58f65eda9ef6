// Package runner abstracts sandboxed execution of job commands. The worker
// only ever starts a detached execution and then observes or kills it by
// handle, so cancellation works across worker restarts.
package runner

import "context"

// Limits caps the resources a single execution may use.
type Limits struct {
	Memory  string
	CPUs    string
	Network string
}

// Runner starts and supervises detached executions. Handles are opaque
// strings that survive in the jobs table, so any worker process can act on
// an execution it did not start.
type Runner interface {
	// StartDetached launches command in a fresh sandbox and returns its handle.
	StartDetached(ctx context.Context, command string, limits Limits) (string, error)
	// IsRunning reports whether the execution behind handle is still alive.
	IsRunning(ctx context.Context, handle string) (bool, error)
	// Kill force-stops the execution. Killing an already-dead handle is not
	// an error.
	Kill(ctx context.Context, handle string) error
	// ExitCode returns the exit status of a finished execution.
	ExitCode(ctx context.Context, handle string) (int, error)
	// Logs returns the combined output captured so far.
	Logs(ctx context.Context, handle string) (string, error)
	// Cleanup releases resources held by the handle.
	Cleanup(ctx context.Context, handle string)
}
