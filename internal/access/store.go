package access

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/thetombrider/objectdms/internal/models"
)

// GormRoleSource resolves roles through the user_roles join table. An inner
// join means assignments whose role has been deleted simply resolve to
// nothing, which is exactly the grant they are worth.
type GormRoleSource struct {
	db *gorm.DB
}

// NewGormRoleSource constructs a role source backed by the provided database.
func NewGormRoleSource(db *gorm.DB) (*GormRoleSource, error) {
	if db == nil {
		return nil, errors.New("role source: db is required")
	}
	return &GormRoleSource{db: db}, nil
}

// RolesForUser returns the user's roles with permissions preloaded.
func (s *GormRoleSource) RolesForUser(ctx context.Context, userID string) ([]models.Role, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Preload("Permissions").
		Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// GormDocumentIndex answers the resolver's membership queries for documents.
// Both queries run against indexed columns (owner_id, document_shares.user_id).
type GormDocumentIndex struct {
	db *gorm.DB
}

// NewGormDocumentIndex constructs a document index backed by the provided database.
func NewGormDocumentIndex(db *gorm.DB) (*GormDocumentIndex, error) {
	if db == nil {
		return nil, errors.New("document index: db is required")
	}
	return &GormDocumentIndex{db: db}, nil
}

// OwnedIDs returns the ids of live documents owned by the user.
func (i *GormDocumentIndex) OwnedIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := i.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("owner_id = ? AND is_deleted = ?", userID, false).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// SharedIDs returns the ids of live documents shared with the user.
func (i *GormDocumentIndex) SharedIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := i.db.WithContext(ctx).
		Model(&models.DocumentShare{}).
		Joins("JOIN documents ON documents.id = document_shares.document_id").
		Where("document_shares.user_id = ? AND documents.is_deleted = ?", userID, false).
		Pluck("document_shares.document_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
