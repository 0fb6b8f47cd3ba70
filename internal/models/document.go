package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document is the protected resource of the system: an uploaded file's
// metadata record, with exclusive ownership and a per-user share list.
type Document struct {
	BaseModel

	Title       string `gorm:"not null;index" json:"title"`
	Description string `json:"description"`

	FileName string `gorm:"not null" json:"file_name"`
	FilePath string `gorm:"not null" json:"file_path"`
	FileSize int64  `json:"file_size"`
	MimeType string `gorm:"type:varchar(128);index" json:"mime_type"`

	// OwnerID is immutable after creation; exactly one owner per document.
	OwnerID string `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner   *User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	Tags     []Tag          `gorm:"many2many:document_tags;" json:"tags,omitempty"`
	Metadata datatypes.JSON `json:"metadata"`

	Version int `gorm:"default:1" json:"version"`

	IsDeleted bool       `gorm:"default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	SharedWith []DocumentShare `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"shared_with,omitempty"`
}

// OwnerUserID exposes the ownership capability used by condition evaluation.
func (d *Document) OwnerUserID() string {
	return d.OwnerID
}

// SharedUserIDs exposes the sharing capability used by condition evaluation.
// SharedWith must be loaded for the result to be meaningful.
func (d *Document) SharedUserIDs() []string {
	if len(d.SharedWith) == 0 {
		return nil
	}
	ids := make([]string, 0, len(d.SharedWith))
	for _, share := range d.SharedWith {
		ids = append(ids, share.UserID)
	}
	return ids
}

// UserPermissions resolves the effective share bits for a user. The owner
// always holds the full set and never appears in SharedWith. A nil result
// means no access, which is distinct from a share with all-false bits.
func (d *Document) UserPermissions(userID string) *SharePermissions {
	if userID == "" {
		return nil
	}

	if userID == d.OwnerID {
		perms := FullSharePermissions()
		return &perms
	}

	for i := range d.SharedWith {
		if d.SharedWith[i].UserID == userID {
			perms := d.SharedWith[i].Permissions
			return &perms
		}
	}

	return nil
}
