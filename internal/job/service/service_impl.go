package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/codequest-labs/codequest/internal/clock"
	"github.com/codequest-labs/codequest/internal/config"
	jobdomain "github.com/codequest-labs/codequest/internal/job/domain"
	"github.com/codequest-labs/codequest/internal/job/queue"
	"github.com/codequest-labs/codequest/internal/metrics"
	"github.com/codequest-labs/codequest/internal/ratelimit"
	"github.com/codequest-labs/codequest/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const supportedLanguage = "python"

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Cfg     config.Config
	GenID   *snowflake.Node
	Clock   clock.Clock
	Quota   *ratelimit.JobQuota
	Queue   queue.Queue
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	cfg     config.Config
	genID   *snowflake.Node
	clock   clock.Clock
	quota   *ratelimit.JobQuota
	queue   queue.Queue
	metrics *metrics.Metrics
}

func NewService(p ServiceParam) jobdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("job.service"),
		cfg:     p.Cfg,
		genID:   p.GenID,
		clock:   p.Clock,
		quota:   p.Quota,
		queue:   p.Queue,
		metrics: p.Metrics,
	}
}

// Submit validates, quota-gates and persists a job, then hands it to the
// queue. An enqueue failure is recorded on the job but never surfaced to the
// caller: the job stays queued with a diagnostic in output.
func (s *Service) Submit(ctx context.Context, req jobdomain.SubmitRequest) (*jobdomain.SubmitResult, error) {
	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = supportedLanguage
	}
	if language != supportedLanguage {
		return nil, jobdomain.ErrUnsupportedLanguage
	}

	encoded, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, jobdomain.ErrInvalidPayload
	}
	if len(encoded) > s.cfg.JobMaxPayloadBytes {
		return nil, jobdomain.ErrPayloadTooLarge
	}

	check := s.quota.Check(ctx, req.UserID.String())
	if !check.Allowed {
		if s.metrics != nil {
			s.metrics.JobQuotaDenials.Inc()
		}
		return nil, &jobdomain.QuotaExceededError{RetryAfterSeconds: check.ResetSeconds}
	}

	job := &jobdomain.Job{
		ID:        s.genID.Generate(),
		UserID:    req.UserID,
		Language:  language,
		Status:    jobdomain.StatusQueued,
		CreatedAt: s.clock.Now(),
	}
	if req.Payload != nil {
		job.Payload = datatypes.JSONMap(req.Payload)
	}
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	s.countTransition(jobdomain.StatusQueued)

	if err := s.queue.Enqueue(ctx, job.ID.String()); err != nil {
		s.log.Error("enqueue failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		if s.metrics != nil {
			s.metrics.JobEnqueueFailures.Inc()
		}
		diag := "failed to enqueue: " + err.Error()
		if uerr := s.db.WithContext(ctx).Model(&jobdomain.Job{}).
			Where("id = ?", job.ID).
			Update("output", diag).Error; uerr != nil {
			s.log.Error("recording enqueue failure failed", zap.Error(uerr))
		}
		return &jobdomain.SubmitResult{JobID: job.ID, Status: jobdomain.StatusQueued}, nil
	}

	if err := s.db.WithContext(ctx).Model(&jobdomain.Job{}).
		Where("id = ?", job.ID).
		Update("status", jobdomain.StatusEnqueued).Error; err != nil {
		return nil, err
	}
	s.countTransition(jobdomain.StatusEnqueued)

	return &jobdomain.SubmitResult{JobID: job.ID, Status: jobdomain.StatusEnqueued}, nil
}

func (s *Service) Get(ctx context.Context, userID, jobID snowflake.ID) (*jobdomain.Job, error) {
	job, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, jobdomain.ErrForbidden
	}
	return job, nil
}

func (s *Service) List(ctx context.Context, req jobdomain.ListRequest) ([]jobdomain.Job, error) {
	page := pagination.Normalize(req.Limit, req.Offset)
	var jobs []jobdomain.Job
	err := s.db.WithContext(ctx).
		Where("user_id = ?", req.UserID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&jobs).Error
	return jobs, err
}

// Cancel writes the cancellation intent. The status write is authoritative;
// killing a running execution happens asynchronously in the worker's poll
// loop, which re-reads persisted state.
func (s *Service) Cancel(ctx context.Context, userID, jobID snowflake.ID) (*jobdomain.CancelResult, error) {
	job, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, jobdomain.ErrForbidden
	}
	if job.Status.Terminal() {
		return nil, jobdomain.ErrAlreadyTerminal
	}

	removed := false
	if !job.Status.Terminal() && job.Status != jobdomain.StatusRunning {
		removed, err = s.queue.Remove(ctx, job.ID.String())
		if err != nil {
			s.log.Warn("queue removal failed", zap.String("job_id", job.ID.String()), zap.Error(err))
			removed = false
		}
	}

	output := job.Output
	if output != "" {
		output += "\n"
	}
	output += "[cancelled by user]"

	if err := s.db.WithContext(ctx).Model(&jobdomain.Job{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"status": jobdomain.StatusCancelled,
			"output": output,
		}).Error; err != nil {
		return nil, err
	}
	s.countTransition(jobdomain.StatusCancelled)

	return &jobdomain.CancelResult{Cancelled: true, RemovedFromQueue: removed}, nil
}

func (s *Service) load(ctx context.Context, jobID snowflake.ID) (*jobdomain.Job, error) {
	var job jobdomain.Job
	err := s.db.WithContext(ctx).First(&job, "id = ?", jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jobdomain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (s *Service) countTransition(status jobdomain.Status) {
	if s.metrics != nil {
		s.metrics.JobTransitions.WithLabelValues(string(status)).Inc()
	}
}
