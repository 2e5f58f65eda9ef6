// Package domain contains the job record and its state machine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusEnqueued  Status = "enqueued"
	StatusRunning   Status = "running"
	StatusFinished  Status = "finished"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	switch s {
	case StatusFinished, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Job is one submitted execution request. The worker owns the execution-phase
// fields; the API layer owns creation and the cancellation-intent write.
// RunnerHandle is persisted so a cancel from another process can kill the
// running execution.
type Job struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID       snowflake.ID      `gorm:"not null;index" json:"user_id"`
	Language     string            `gorm:"type:text;not null;default:python" json:"language"`
	Payload      datatypes.JSONMap `gorm:"type:jsonb" json:"payload,omitempty"`
	Status       Status            `gorm:"type:text;not null;default:queued" json:"status"`
	Output       string            `gorm:"type:text" json:"output,omitempty"`
	RunnerHandle string            `gorm:"column:runner_handle;type:text" json:"-"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	FinishedAt   *time.Time        `json:"finished_at,omitempty"`
}

func (Job) TableName() string { return "jobs" }

// Command extracts the command string from the payload, if any.
func (j *Job) Command() string {
	if j.Payload == nil {
		return ""
	}
	if cmd, ok := j.Payload["command"].(string); ok {
		return cmd
	}
	return ""
}
