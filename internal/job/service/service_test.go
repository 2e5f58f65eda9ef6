package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/codequest-labs/codequest/internal/clock"
	"github.com/codequest-labs/codequest/internal/config"
	"github.com/codequest-labs/codequest/internal/counter"
	jobdomain "github.com/codequest-labs/codequest/internal/job/domain"
	"github.com/codequest-labs/codequest/internal/job/queue"
	"github.com/codequest-labs/codequest/internal/ratelimit"
	"github.com/codequest-labs/codequest/internal/user/domain"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	genID *snowflake.Node
	queue queue.Queue
	svc   jobdomain.Service
}

func newFixture(t *testing.T, quotaMax int) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &jobdomain.Job{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	cfg := config.Config{
		JobQuotaMax:        quotaMax,
		JobQuotaWindow:     time.Minute,
		JobMaxPayloadBytes: 200,
	}
	q := queue.NewMemoryQueue()

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		Cfg:   cfg,
		GenID: node,
		Clock: clk,
		Quota: ratelimit.NewJobQuota(counter.NewMemoryStore(clk), clk, cfg),
		Queue: q,
	})

	return &fixture{db: db, genID: node, queue: q, svc: svc}
}

func TestSubmit_EnqueuesJob(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	userID := f.genID.Generate()

	res, err := f.svc.Submit(ctx, jobdomain.SubmitRequest{
		UserID:  userID,
		Payload: map[string]any{"command": "echo hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, jobdomain.StatusEnqueued, res.Status)

	id, err := f.queue.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, res.JobID.String(), id)

	job, err := f.svc.Get(ctx, userID, res.JobID)
	require.NoError(t, err)
	assert.Equal(t, "python", job.Language)
	assert.Equal(t, "echo hi", job.Command())
}

func TestSubmit_RejectsUnsupportedLanguage(t *testing.T) {
	f := newFixture(t, 10)

	_, err := f.svc.Submit(context.Background(), jobdomain.SubmitRequest{
		UserID:   f.genID.Generate(),
		Language: "ruby",
	})
	assert.ErrorIs(t, err, jobdomain.ErrUnsupportedLanguage)
}

func TestSubmit_RejectsUnencodablePayload(t *testing.T) {
	f := newFixture(t, 10)

	_, err := f.svc.Submit(context.Background(), jobdomain.SubmitRequest{
		UserID:  f.genID.Generate(),
		Payload: map[string]any{"value": math.NaN()},
	})
	assert.ErrorIs(t, err, jobdomain.ErrInvalidPayload)
}

func TestSubmit_RejectsOversizedPayload(t *testing.T) {
	f := newFixture(t, 10)

	_, err := f.svc.Submit(context.Background(), jobdomain.SubmitRequest{
		UserID:  f.genID.Generate(),
		Payload: map[string]any{"command": strings.Repeat("x", 500)},
	})
	assert.ErrorIs(t, err, jobdomain.ErrPayloadTooLarge)
}

func TestSubmit_QuotaExceeded(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	userID := f.genID.Generate()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Submit(ctx, jobdomain.SubmitRequest{UserID: userID})
		require.NoError(t, err)
	}

	_, err := f.svc.Submit(ctx, jobdomain.SubmitRequest{UserID: userID})
	require.Error(t, err)
	assert.ErrorIs(t, err, jobdomain.ErrQuotaExceeded)

	var quotaErr *jobdomain.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Greater(t, quotaErr.RetryAfterSeconds, int64(0))

	// denied submission must not create a record
	var count int64
	require.NoError(t, f.db.Model(&jobdomain.Job{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestGet_OwnerOnly(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	owner := f.genID.Generate()
	other := f.genID.Generate()

	res, err := f.svc.Submit(ctx, jobdomain.SubmitRequest{UserID: owner})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, other, res.JobID)
	assert.ErrorIs(t, err, jobdomain.ErrForbidden)

	_, err = f.svc.Get(ctx, owner, f.genID.Generate())
	assert.ErrorIs(t, err, jobdomain.ErrNotFound)
}

func TestList_NewestFirstForUser(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	userID := f.genID.Generate()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Submit(ctx, jobdomain.SubmitRequest{UserID: userID})
		require.NoError(t, err)
	}
	_, err := f.svc.Submit(ctx, jobdomain.SubmitRequest{UserID: f.genID.Generate()})
	require.NoError(t, err)

	jobs, err := f.svc.List(ctx, jobdomain.ListRequest{UserID: userID})
	require.NoError(t, err)
	assert.Len(t, jobs, 3)
	for _, job := range jobs {
		assert.Equal(t, userID, job.UserID)
	}
}

func TestCancel_RemovesQueuedJob(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	userID := f.genID.Generate()

	res, err := f.svc.Submit(ctx, jobdomain.SubmitRequest{UserID: userID})
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, userID, res.JobID)
	require.NoError(t, err)
	assert.True(t, cancelled.Cancelled)
	assert.True(t, cancelled.RemovedFromQueue)

	job, err := f.svc.Get(ctx, userID, res.JobID)
	require.NoError(t, err)
	assert.Equal(t, jobdomain.StatusCancelled, job.Status)
	assert.Contains(t, job.Output, "[cancelled by user]")
}

func TestCancel_TerminalJob(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	userID := f.genID.Generate()

	res, err := f.svc.Submit(ctx, jobdomain.SubmitRequest{UserID: userID})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, userID, res.JobID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, userID, res.JobID)
	assert.ErrorIs(t, err, jobdomain.ErrAlreadyTerminal)
}

func TestCancel_OwnerOnly(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	owner := f.genID.Generate()

	res, err := f.svc.Submit(ctx, jobdomain.SubmitRequest{UserID: owner})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.genID.Generate(), res.JobID)
	assert.ErrorIs(t, err, jobdomain.ErrForbidden)
}
