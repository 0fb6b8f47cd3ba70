package models

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Tag labels documents for filtering.
type Tag struct {
	BaseModel

	Name string `gorm:"uniqueIndex;not null" json:"name"`

	Documents []Document `gorm:"many2many:document_tags;" json:"documents,omitempty"`
}

// BeforeSave normalises the tag name.
func (t *Tag) BeforeSave(tx *gorm.DB) error {
	t.Name = strings.ToLower(strings.TrimSpace(t.Name))
	if t.Name == "" {
		return errors.New("tag: name is required")
	}
	return nil
}
