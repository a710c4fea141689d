package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the public profile owned 1:1 by an Account.
type User struct {
	Ref       uuid.UUID `gorm:"type:uuid;primaryKey;column:ref"`
	Name      string    `gorm:"type:varchar(255);not null;column:name"`
	Alias     string    `gorm:"type:varchar(255);not null;uniqueIndex;column:alias"`
	Icon      string    `gorm:"type:varchar(1024);column:icon"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
