package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type SubmitRequest struct {
	UserID   snowflake.ID   `json:"-"`
	Language string         `json:"language"`
	Payload  map[string]any `json:"payload"`
}

type SubmitResult struct {
	JobID  snowflake.ID `json:"job_id"`
	Status Status       `json:"status"`
}

type ListRequest struct {
	UserID snowflake.ID
	Limit  int
	Offset int
}

type CancelResult struct {
	Cancelled        bool `json:"cancelled"`
	RemovedFromQueue bool `json:"removed_from_queue"`
}

// QuotaExceededError carries the retry hint for a denied submission.
type QuotaExceededError struct {
	RetryAfterSeconds int64
}

func (e *QuotaExceededError) Error() string { return "job_rate_limited" }

func (e *QuotaExceededError) Is(target error) bool { return target == ErrQuotaExceeded }

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
	Get(ctx context.Context, userID, jobID snowflake.ID) (*Job, error)
	List(ctx context.Context, req ListRequest) ([]Job, error)
	Cancel(ctx context.Context, userID, jobID snowflake.ID) (*CancelResult, error)
}

var (
	ErrNotFound            = errors.New("job_not_found")
	ErrForbidden           = errors.New("job_forbidden")
	ErrUnsupportedLanguage = errors.New("unsupported_language")
	ErrInvalidPayload      = errors.New("invalid_payload")
	ErrPayloadTooLarge     = errors.New("payload_too_large")
	ErrQuotaExceeded       = errors.New("job_rate_limited")
	ErrAlreadyTerminal     = errors.New("cannot_cancel")
)
