// Package domain contains persistence models for the XP event ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// XPEvent is one append-only ledger entry. Two composite unique constraints
// back the dedup paths: (user_id, idempotency_key) and
// (user_id, source, source_id).
type XPEvent struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID         snowflake.ID      `gorm:"not null;uniqueIndex:uq_user_idempotency_key,priority:1;uniqueIndex:uq_user_source_sourceid,priority:1" json:"user_id"`
	Amount         int64             `gorm:"not null" json:"amount"`
	Source         *string           `gorm:"type:text;uniqueIndex:uq_user_source_sourceid,priority:2" json:"source,omitempty"`
	SourceID       *string           `gorm:"column:source_id;type:text;uniqueIndex:uq_user_source_sourceid,priority:3" json:"source_id,omitempty"`
	IdempotencyKey *string           `gorm:"type:text;uniqueIndex:uq_user_idempotency_key,priority:2" json:"idempotency_key,omitempty"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (XPEvent) TableName() string { return "xp_events" }
