package models

import (
	"github.com/google/uuid"
)

// Entity type markers for SearchTerm rows.
const (
	SearchEntityUser = "user"
	SearchEntityTag  = "tag"
)

// SearchTerm is one generated wordpart mapping back to its owning user or
// hashtag. Length holds the full original name's length so shorter names
// rank first on an equal-length term match.
type SearchTerm struct {
	Term       string    `gorm:"type:varchar(255);primaryKey;index:idx_search_terms_term_length;column:term"`
	EntityRef  uuid.UUID `gorm:"type:uuid;primaryKey;column:entity_ref"`
	EntityType string    `gorm:"type:varchar(8);not null;column:entity_type"`
	Length     int       `gorm:"not null;column:length"`
}

// TableName specifies the table name for SearchTerm
func (SearchTerm) TableName() string {
	return "search_terms"
}
