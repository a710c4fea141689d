package models

import (
	"time"

	"github.com/google/uuid"
)

// FollowerStats is the (author, follower) relationship with the popularity
// counters that drive home-feed ordering. PostLikes can go negative through
// unlikes; PostRefweets never decreases.
type FollowerStats struct {
	Ref          uuid.UUID `gorm:"type:uuid;primaryKey;column:ref"`
	AuthorRef    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_followerstats_author_follower,priority:1;column:author_ref"`
	FollowerRef  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_followerstats_author_follower,priority:2;index;column:follower_ref"`
	PostLikes    int       `gorm:"not null;default:0;column:post_likes"`
	PostRefweets int       `gorm:"not null;default:0;check:post_refweets >= 0;column:post_refweets"`
	Created      time.Time `gorm:"not null;column:created"`
}

// TableName specifies the table name for FollowerStats
func (FollowerStats) TableName() string {
	return "followerstats"
}
