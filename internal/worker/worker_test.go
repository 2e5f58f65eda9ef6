package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/codequest-labs/codequest/internal/clock"
	"github.com/codequest-labs/codequest/internal/config"
	jobdomain "github.com/codequest-labs/codequest/internal/job/domain"
	"github.com/codequest-labs/codequest/internal/job/queue"
	"github.com/codequest-labs/codequest/internal/runner"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakeRunner struct {
	mu       sync.Mutex
	running  bool
	killed   bool
	exitCode int
	logs     string
	startErr error
}

func (r *fakeRunner) StartDetached(context.Context, string, runner.Limits) (string, error) {
	if r.startErr != nil {
		return "", r.startErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = true
	return "fake-handle", nil
}

func (r *fakeRunner) IsRunning(context.Context, string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running, nil
}

func (r *fakeRunner) Kill(context.Context, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.killed = true
	return nil
}

func (r *fakeRunner) ExitCode(context.Context, string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exitCode, nil
}

func (r *fakeRunner) Logs(context.Context, string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logs, nil
}

func (r *fakeRunner) Cleanup(context.Context, string) {}

func (r *fakeRunner) finish(exitCode int, logs string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.exitCode = exitCode
	r.logs = logs
}

func (r *fakeRunner) wasKilled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.killed
}

type fixture struct {
	db     *gorm.DB
	genID  *snowflake.Node
	runner *fakeRunner
	worker *Worker
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&jobdomain.Job{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{
		JobRunTimeout:   timeout,
		JobPollInterval: 5 * time.Millisecond,
	}
	r := &fakeRunner{}
	w := New(db, zap.NewNop(), cfg, clock.NewSystemClock(), queue.NewMemoryQueue(), r, nil)

	return &fixture{db: db, genID: node, runner: r, worker: w}
}

func (f *fixture) createJob(t *testing.T, command string, status jobdomain.Status) *jobdomain.Job {
	t.Helper()
	job := &jobdomain.Job{
		ID:       f.genID.Generate(),
		UserID:   f.genID.Generate(),
		Language: "python",
		Status:   status,
	}
	if command != "" {
		job.Payload = datatypes.JSONMap{"command": command}
	}
	require.NoError(t, f.db.Create(job).Error)
	return job
}

func (f *fixture) reload(t *testing.T, id snowflake.ID) *jobdomain.Job {
	t.Helper()
	var job jobdomain.Job
	require.NoError(t, f.db.First(&job, "id = ?", id).Error)
	return &job
}

func TestProcess_NoCommandFinishesWithDiagnostic(t *testing.T) {
	f := newFixture(t, time.Second)
	job := f.createJob(t, "", jobdomain.StatusEnqueued)

	f.worker.Process(context.Background(), job.ID.String())

	got := f.reload(t, job.ID)
	assert.Equal(t, jobdomain.StatusFinished, got.Status)
	assert.Contains(t, got.Output, "no command provided")
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.FinishedAt)
}

func TestProcess_SkipsCancelledJob(t *testing.T) {
	f := newFixture(t, time.Second)
	job := f.createJob(t, "echo hi", jobdomain.StatusCancelled)

	f.worker.Process(context.Background(), job.ID.String())

	got := f.reload(t, job.ID)
	assert.Equal(t, jobdomain.StatusCancelled, got.Status)
	assert.Nil(t, got.StartedAt)
}

func TestProcess_SuccessfulRun(t *testing.T) {
	f := newFixture(t, time.Second)
	job := f.createJob(t, "echo hi", jobdomain.StatusEnqueued)

	go func() {
		time.Sleep(20 * time.Millisecond)
		f.runner.finish(0, "hi\n")
	}()

	f.worker.Process(context.Background(), job.ID.String())

	got := f.reload(t, job.ID)
	assert.Equal(t, jobdomain.StatusFinished, got.Status)
	assert.Equal(t, "hi\n", got.Output)
	assert.Equal(t, "fake-handle", got.RunnerHandle)
}

func TestProcess_NonZeroExitFails(t *testing.T) {
	f := newFixture(t, time.Second)
	job := f.createJob(t, "exit 1", jobdomain.StatusEnqueued)

	go func() {
		time.Sleep(20 * time.Millisecond)
		f.runner.finish(1, "boom")
	}()

	f.worker.Process(context.Background(), job.ID.String())

	got := f.reload(t, job.ID)
	assert.Equal(t, jobdomain.StatusFailed, got.Status)
	assert.Equal(t, "boom", got.Output)
}

func TestProcess_TimeoutKillsAndFails(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	job := f.createJob(t, "sleep 60", jobdomain.StatusEnqueued)

	f.worker.Process(context.Background(), job.ID.String())

	got := f.reload(t, job.ID)
	assert.Equal(t, jobdomain.StatusFailed, got.Status)
	assert.Contains(t, got.Output, "[timed out]")
	assert.True(t, f.runner.wasKilled())
}

func TestProcess_ObservesCancellationMidRun(t *testing.T) {
	f := newFixture(t, time.Second)
	job := f.createJob(t, "sleep 60", jobdomain.StatusEnqueued)

	// the API's cancel write sets the status and records its own note
	go func() {
		time.Sleep(20 * time.Millisecond)
		require.NoError(t, f.db.Model(&jobdomain.Job{}).
			Where("id = ?", job.ID).
			Updates(map[string]any{
				"status": jobdomain.StatusCancelled,
				"output": "[cancelled by user]",
			}).Error)
	}()

	f.worker.Process(context.Background(), job.ID.String())

	got := f.reload(t, job.ID)
	assert.Equal(t, jobdomain.StatusCancelled, got.Status)
	assert.Contains(t, got.Output, "[cancelled by user]")
	assert.Contains(t, got.Output, "[cancelled]")
	assert.True(t, f.runner.wasKilled())
	assert.NotNil(t, got.FinishedAt)
}

func TestProcess_CancellationKeepsSandboxLogs(t *testing.T) {
	f := newFixture(t, time.Second)
	f.runner.logs = "partial output\n"
	job := f.createJob(t, "sleep 60", jobdomain.StatusEnqueued)

	go func() {
		time.Sleep(20 * time.Millisecond)
		require.NoError(t, f.db.Model(&jobdomain.Job{}).
			Where("id = ?", job.ID).
			Updates(map[string]any{
				"status": jobdomain.StatusCancelled,
				"output": "[cancelled by user]",
			}).Error)
	}()

	f.worker.Process(context.Background(), job.ID.String())

	got := f.reload(t, job.ID)
	assert.Equal(t, "[cancelled by user]\npartial output\n\n[cancelled]", got.Output)
}

func TestProcess_StartFailureFailsJob(t *testing.T) {
	f := newFixture(t, time.Second)
	f.runner.startErr = assert.AnError
	job := f.createJob(t, "echo hi", jobdomain.StatusEnqueued)

	f.worker.Process(context.Background(), job.ID.String())

	got := f.reload(t, job.ID)
	assert.Equal(t, jobdomain.StatusFailed, got.Status)
	assert.Contains(t, got.Output, "failed to start sandbox")
}
