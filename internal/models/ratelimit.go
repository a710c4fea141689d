package models

import (
	"time"

	"github.com/google/uuid"
)

// RateLimitEvent is one admission recorded against an (action, identity)
// pair. The rows for a pair, newest first, are the sliding-window ledger.
type RateLimitEvent struct {
	Ref       uuid.UUID `gorm:"type:uuid;primaryKey;column:ref"`
	Action    string    `gorm:"type:varchar(64);not null;index:idx_rate_limiting_action_identity,priority:1;column:action"`
	Identity  string    `gorm:"type:varchar(255);not null;index:idx_rate_limiting_action_identity,priority:2;column:identity"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for RateLimitEvent
func (RateLimitEvent) TableName() string {
	return "rate_limiting"
}
