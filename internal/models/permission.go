package models

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ConditionSet is the closed set of conditions that can narrow a grant to
// specific target instances. The zero value means the grant is unconditional.
//
// When more than one condition is set, each is independently sufficient:
// the grant applies if any set condition holds.
type ConditionSet struct {
	// Owner restricts the grant to targets owned by the checked user.
	Owner bool `gorm:"default:false" json:"owner,omitempty"`
	// Shared restricts the grant to targets shared with the checked user.
	Shared bool `gorm:"default:false" json:"shared,omitempty"`
}

// IsZero reports whether no condition is set, i.e. the grant is unconditional.
func (c ConditionSet) IsZero() bool {
	return !c.Owner && !c.Shared
}

// Permission grants one (resource, action) pair, optionally narrowed by
// conditions. Rows are owned by their role and have no independent lifecycle.
type Permission struct {
	BaseModel

	RoleID     string       `gorm:"type:uuid;not null;index" json:"role_id"`
	Resource   string       `gorm:"type:varchar(64);not null;index:idx_permission_resource_action" json:"resource"`
	Action     string       `gorm:"type:varchar(64);not null;index:idx_permission_resource_action" json:"action"`
	Conditions ConditionSet `gorm:"embedded;embeddedPrefix:cond_" json:"conditions"`
}

// BeforeSave normalises and validates the grant tags.
func (p *Permission) BeforeSave(tx *gorm.DB) error {
	p.Resource = strings.ToLower(strings.TrimSpace(p.Resource))
	if p.Resource == "" {
		return errors.New("permission: resource is required")
	}

	p.Action = strings.ToLower(strings.TrimSpace(p.Action))
	if p.Action == "" {
		return errors.New("permission: action is required")
	}

	return nil
}

// Matches reports whether the permission covers the given resource/action pair.
func (p *Permission) Matches(resource, action string) bool {
	return p.Resource == resource && p.Action == action
}
