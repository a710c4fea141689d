package models

import (
	"time"

	"github.com/google/uuid"
)

// Hashtag is created lazily the first time a tag string is seen; the unique
// name index makes get-or-create race-safe.
type Hashtag struct {
	Ref       uuid.UUID `gorm:"type:uuid;primaryKey;column:ref"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex;column:name"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Hashtag
func (Hashtag) TableName() string {
	return "hashtags"
}
