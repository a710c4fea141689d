package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is immutable once created.
type Comment struct {
	Ref       uuid.UUID `gorm:"type:uuid;primaryKey;column:ref"`
	Message   string    `gorm:"type:text;not null;column:message"`
	AuthorRef uuid.UUID `gorm:"type:uuid;not null;column:author_ref"`
	FweetRef  uuid.UUID `gorm:"type:uuid;not null;index:idx_comments_fweet_created,priority:1;column:fweet_ref"`
	Created   time.Time `gorm:"not null;index:idx_comments_fweet_created,priority:2;column:created"`

	Author *User `gorm:"foreignKey:AuthorRef;references:Ref"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "comments"
}
