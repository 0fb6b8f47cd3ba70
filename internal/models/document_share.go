package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// SharePermissions are the per-share access bits. Each bit is independent;
// the default grant is read-only.
type SharePermissions struct {
	CanRead   bool `gorm:"default:true" json:"can_read"`
	CanWrite  bool `gorm:"default:false" json:"can_write"`
	CanShare  bool `gorm:"default:false" json:"can_share"`
	CanDelete bool `gorm:"default:false" json:"can_delete"`
}

// DefaultSharePermissions returns the read-only bits applied when a share is
// created without an explicit permission set.
func DefaultSharePermissions() SharePermissions {
	return SharePermissions{CanRead: true}
}

// FullSharePermissions returns all-true bits, the owner's implicit grant.
func FullSharePermissions() SharePermissions {
	return SharePermissions{CanRead: true, CanWrite: true, CanShare: true, CanDelete: true}
}

// DocumentShare records that a document was shared with a user. Entries are
// owned by their document; the unique (document_id, user_id) index guarantees
// at most one entry per user, so sharing again replaces the previous grant.
type DocumentShare struct {
	BaseModel

	DocumentID  string           `gorm:"type:uuid;not null;uniqueIndex:idx_document_share_user,priority:1;index" json:"document_id"`
	UserID      string           `gorm:"type:uuid;not null;uniqueIndex:idx_document_share_user,priority:2;index" json:"user_id"`
	Permissions SharePermissions `gorm:"embedded;embeddedPrefix:perm_" json:"permissions"`
	SharedByID  string           `gorm:"type:uuid;not null" json:"shared_by_id"`
	SharedAt    time.Time        `gorm:"not null" json:"shared_at"`

	User     *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	SharedBy *User `gorm:"foreignKey:SharedByID" json:"shared_by,omitempty"`
}

// BeforeSave validates the share references.
func (s *DocumentShare) BeforeSave(tx *gorm.DB) error {
	if s.DocumentID == "" {
		return errors.New("document_share: document_id is required")
	}
	if s.UserID == "" {
		return errors.New("document_share: user_id is required")
	}
	if s.SharedByID == "" {
		return errors.New("document_share: shared_by_id is required")
	}
	if s.SharedAt.IsZero() {
		s.SharedAt = time.Now().UTC()
	}
	return nil
}
