package models

import "time"

// UserRole is the join record between users and roles, carrying assignment
// metadata. The composite primary key makes repeated assignment of the same
// role a no-op rather than a duplicated grant.
type UserRole struct {
	UserID       string     `gorm:"primaryKey;type:uuid" json:"user_id"`
	RoleID       string     `gorm:"primaryKey;type:uuid" json:"role_id"`
	AssignedByID *string    `gorm:"type:uuid" json:"assigned_by_id"`
	AssignedAt   time.Time  `gorm:"autoCreateTime" json:"assigned_at"`
}

// TableName keeps the join table name aligned with the many2many declarations.
func (UserRole) TableName() string {
	return "user_roles"
}
