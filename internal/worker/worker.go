// Package worker consumes the job queue and executes jobs. One worker
// process can run next to the API or standalone.
package worker

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/codequest-labs/codequest/internal/clock"
	"github.com/codequest-labs/codequest/internal/config"
	jobdomain "github.com/codequest-labs/codequest/internal/job/domain"
	"github.com/codequest-labs/codequest/internal/job/queue"
	"github.com/codequest-labs/codequest/internal/metrics"
	"github.com/codequest-labs/codequest/internal/runner"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dequeueTimeout = time.Second

type Worker struct {
	db      *gorm.DB
	log     *zap.Logger
	cfg     config.Config
	clock   clock.Clock
	queue   queue.Queue
	runner  runner.Runner
	metrics *metrics.Metrics
}

func New(db *gorm.DB, log *zap.Logger, cfg config.Config, clk clock.Clock, q queue.Queue, r runner.Runner, m *metrics.Metrics) *Worker {
	return &Worker{
		db:      db,
		log:     log.Named("worker"),
		cfg:     cfg,
		clock:   clk,
		queue:   q,
		runner:  r,
		metrics: m,
	}
}

// RunForever consumes the queue until ctx is cancelled.
func (w *Worker) RunForever(ctx context.Context) {
	w.log.Info("worker started", zap.Bool("sandboxed", w.runner != nil))
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		jobID, err := w.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.log.Error("dequeue failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(dequeueTimeout):
			}
			continue
		}
		if jobID == "" {
			continue
		}
		w.Process(ctx, jobID)
	}
}

// Process executes one job end to end. Whatever happens, the job never stays
// in running state once this returns.
func (w *Worker) Process(ctx context.Context, jobID string) {
	var job jobdomain.Job
	if err := w.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			w.log.Warn("dequeued unknown job", zap.String("job_id", jobID))
			return
		}
		w.log.Error("loading job failed", zap.String("job_id", jobID), zap.Error(err))
		return
	}

	// A cancel may land between enqueue and dequeue.
	if job.Status.Terminal() {
		w.log.Info("skipping terminal job", zap.String("job_id", jobID), zap.String("status", string(job.Status)))
		return
	}

	started := w.clock.Now()
	if err := w.update(ctx, job.ID, map[string]any{
		"status":     jobdomain.StatusRunning,
		"started_at": started,
	}); err != nil {
		w.log.Error("marking job running failed", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	w.countTransition(jobdomain.StatusRunning)

	command := job.Command()
	if command == "" {
		w.finish(ctx, job.ID, jobdomain.StatusFinished, "no command provided; execution disabled")
		return
	}

	if w.runner != nil {
		w.runSandboxed(ctx, &job, command)
		return
	}
	w.runLocal(ctx, &job, command)
}

// runSandboxed starts the command detached and polls for completion,
// re-reading the persisted job row each cycle so a cancel written by the API
// takes effect mid-run.
func (w *Worker) runSandboxed(ctx context.Context, job *jobdomain.Job, command string) {
	handle, err := w.runner.StartDetached(ctx, command, runner.Limits{
		Memory:  w.cfg.RunnerMemoryLimit,
		CPUs:    w.cfg.RunnerCPULimit,
		Network: w.networkMode(),
	})
	if err != nil {
		w.finish(ctx, job.ID, jobdomain.StatusFailed, "failed to start sandbox: "+err.Error())
		return
	}
	defer w.runner.Cleanup(context.Background(), handle)

	if err := w.update(ctx, job.ID, map[string]any{"runner_handle": handle}); err != nil {
		w.log.Error("persisting runner handle failed", zap.String("job_id", job.ID.String()), zap.Error(err))
	}

	deadline := w.clock.Now().Add(w.cfg.JobRunTimeout)
	for {
		select {
		case <-ctx.Done():
			// Shutdown mid-run. Kill the sandbox and finalize on a fresh
			// context so the job does not stay running forever.
			if kerr := w.runner.Kill(context.Background(), handle); kerr != nil {
				w.log.Warn("killing job on shutdown failed", zap.String("handle", handle), zap.Error(kerr))
			}
			logs, _ := w.runner.Logs(context.Background(), handle)
			w.finish(context.Background(), job.ID, jobdomain.StatusFailed, withLine(logs, "[worker shutdown]"))
			return
		case <-time.After(w.cfg.JobPollInterval):
		}

		var current jobdomain.Job
		if err := w.db.WithContext(ctx).First(&current, "id = ?", job.ID).Error; err == nil &&
			current.Status == jobdomain.StatusCancelled {
			if kerr := w.runner.Kill(ctx, handle); kerr != nil {
				w.log.Warn("killing cancelled job failed", zap.String("handle", handle), zap.Error(kerr))
			}
			logs, _ := w.runner.Logs(ctx, handle)
			w.appendOutput(ctx, job.ID, current.Output, withLine(logs, "[cancelled]"))
			return
		}

		running, err := w.runner.IsRunning(ctx, handle)
		if err != nil {
			w.log.Warn("sandbox inspect failed", zap.String("handle", handle), zap.Error(err))
			running = false
		}
		if !running {
			logs, _ := w.runner.Logs(ctx, handle)
			code, cerr := w.runner.ExitCode(ctx, handle)
			status := jobdomain.StatusFinished
			if cerr != nil || code != 0 {
				status = jobdomain.StatusFailed
			}
			w.finish(ctx, job.ID, status, logs)
			return
		}

		if w.clock.Now().After(deadline) {
			if kerr := w.runner.Kill(ctx, handle); kerr != nil {
				w.log.Warn("killing timed-out job failed", zap.String("handle", handle), zap.Error(kerr))
			}
			logs, _ := w.runner.Logs(ctx, handle)
			w.finish(ctx, job.ID, jobdomain.StatusFailed, withLine(logs, "[timed out]"))
			return
		}
	}
}

// runLocal executes the command on the worker host. No mid-run cancellation
// here: there is no handle to kill through, so the command runs to completion
// or the timeout.
func (w *Worker) runLocal(ctx context.Context, job *jobdomain.Job, command string) {
	runCtx, cancel := context.WithTimeout(ctx, w.cfg.JobRunTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	out, err := cmd.CombinedOutput()

	if runCtx.Err() == context.DeadlineExceeded {
		w.finish(ctx, job.ID, jobdomain.StatusFailed, withLine(string(out), "[timed out]"))
		return
	}

	var current jobdomain.Job
	if dberr := w.db.WithContext(ctx).First(&current, "id = ?", job.ID).Error; dberr == nil &&
		current.Status == jobdomain.StatusCancelled {
		w.appendOutput(ctx, job.ID, current.Output, withLine(string(out), "[cancelled]"))
		return
	}

	if err != nil {
		w.finish(ctx, job.ID, jobdomain.StatusFailed, string(out))
		return
	}
	w.finish(ctx, job.ID, jobdomain.StatusFinished, string(out))
}

func (w *Worker) finish(ctx context.Context, jobID interface{ String() string }, status jobdomain.Status, output string) {
	if err := w.update(ctx, jobID, map[string]any{
		"status":      status,
		"output":      output,
		"finished_at": w.clock.Now(),
	}); err != nil {
		w.log.Error("finalizing job failed", zap.String("job_id", jobID.String()), zap.Error(err))
		return
	}
	w.countTransition(status)
	w.log.Info("job done", zap.String("job_id", jobID.String()), zap.String("status", string(status)))
}

// appendOutput is used on the cancellation path, where the status column and
// any cancellation note are already owned by the cancel write. The worker only
// adds its own output after what is persisted.
func (w *Worker) appendOutput(ctx context.Context, jobID interface{ String() string }, existing, addition string) {
	if err := w.update(ctx, jobID, map[string]any{
		"output":      withLine(existing, addition),
		"finished_at": w.clock.Now(),
	}); err != nil {
		w.log.Error("recording cancelled output failed", zap.String("job_id", jobID.String()), zap.Error(err))
	}
}

func (w *Worker) update(ctx context.Context, jobID any, values map[string]any) error {
	return w.db.WithContext(ctx).Model(&jobdomain.Job{}).Where("id = ?", jobID).Updates(values).Error
}

func (w *Worker) networkMode() string {
	if w.cfg.RunnerNetworkAccess {
		return "bridge"
	}
	return "none"
}

func (w *Worker) countTransition(status jobdomain.Status) {
	if w.metrics != nil {
		w.metrics.JobTransitions.WithLabelValues(string(status)).Inc()
	}
}

func withLine(out, line string) string {
	if out == "" {
		return line
	}
	return out + "\n" + line
}
