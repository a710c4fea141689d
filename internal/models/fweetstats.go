package models

import (
	"github.com/google/uuid"
)

// FweetStats captures one user's relationship to one fweet. Created lazily
// on first interaction, upserted thereafter; (user, fweet) is unique.
type FweetStats struct {
	Ref      uuid.UUID `gorm:"type:uuid;primaryKey;column:ref"`
	UserRef  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_fweetstats_user_fweet,priority:1;column:user_ref"`
	FweetRef uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_fweetstats_user_fweet,priority:2;column:fweet_ref"`
	Like     bool      `gorm:"not null;default:false;column:like_flag"`
	Refweet  bool      `gorm:"not null;default:false;column:refweet_flag"`
	Comment  bool      `gorm:"not null;default:false;column:comment_flag"`
}

// TableName specifies the table name for FweetStats
func (FweetStats) TableName() string {
	return "fweetstats"
}
