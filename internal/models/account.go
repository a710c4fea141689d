package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is a credential holder. Profile data lives on the linked User.
type Account struct {
	Ref          uuid.UUID `gorm:"type:uuid;primaryKey;column:ref"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex;column:email"`
	PasswordHash string    `gorm:"type:varchar(255);not null;column:password_hash"`
	UserRef      uuid.UUID `gorm:"type:uuid;not null;column:user_ref"`
	CreatedAt    time.Time `gorm:"not null;column:created_at"`

	User *User `gorm:"foreignKey:UserRef;references:Ref"`
}

// TableName specifies the table name for Account
func (Account) TableName() string {
	return "accounts"
}
