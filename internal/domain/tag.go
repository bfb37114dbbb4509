package domain

import (
	"strings"

	"gorm.io/gorm"
)

// Tag is a global label shared across feedback items.
// Uniqueness is case-insensitive via NameKey; Name keeps the first spelling used.
type Tag struct {
	BaseModel
	Name    string `gorm:"type:varchar(50);not null" json:"name"`
	NameKey string `gorm:"type:varchar(50);not null;uniqueIndex:idx_tags_name_key" json:"-"`
}

// TableName specifies the table name for Tag
func (Tag) TableName() string {
	return "tags"
}

// BeforeSave keeps NameKey in step with Name
func (t *Tag) BeforeSave(tx *gorm.DB) error {
	t.NameKey = TagKey(t.Name)
	return nil
}

// TagKey returns the lookup key for a tag name
func TagKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
