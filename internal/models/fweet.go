package models

import (
	"time"

	"github.com/google/uuid"
)

// Fweet is a post. Counters are denormalized and maintained by the stats
// engine inside the same transaction as the interaction that changes them.
type Fweet struct {
	Ref         uuid.UUID  `gorm:"type:uuid;primaryKey;column:ref"`
	Message     string     `gorm:"type:text;not null;column:message"`
	AuthorRef   uuid.UUID  `gorm:"type:uuid;not null;index:idx_fweets_author_created,priority:1;column:author_ref"`
	AssetID     string     `gorm:"type:varchar(255);column:asset_id"`
	AssetType   string     `gorm:"type:varchar(32);column:asset_type"`
	Likes       int        `gorm:"not null;default:0;check:likes >= 0;column:likes"`
	Refweets    int        `gorm:"not null;default:0;check:refweets >= 0;column:refweets"`
	Comments    int        `gorm:"not null;default:0;check:comments >= 0;column:comments"`
	OriginalRef *uuid.UUID `gorm:"type:uuid;column:original_ref"`
	Created     time.Time  `gorm:"not null;index:idx_fweets_author_created,priority:2;column:created"`

	Author   *User  `gorm:"foreignKey:AuthorRef;references:Ref"`
	Original *Fweet `gorm:"foreignKey:OriginalRef;references:Ref"`
}

// TableName specifies the table name for Fweet
func (Fweet) TableName() string {
	return "fweets"
}

// IsRefweet reports whether this fweet re-shares another one.
func (f *Fweet) IsRefweet() bool {
	return f.OriginalRef != nil
}

// FweetHashtag links a fweet to one of its hashtags.
type FweetHashtag struct {
	FweetRef   uuid.UUID `gorm:"type:uuid;primaryKey;column:fweet_ref"`
	HashtagRef uuid.UUID `gorm:"type:uuid;primaryKey;index;column:hashtag_ref"`
}

// TableName specifies the table name for FweetHashtag
func (FweetHashtag) TableName() string {
	return "fweet_hashtags"
}
