package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thetombrider/objectdms/internal/models"
	apperrors "github.com/thetombrider/objectdms/pkg/errors"
)

var (
	// ErrRoleNotFound indicates the requested role does not exist.
	ErrRoleNotFound = apperrors.New("ROLE_NOT_FOUND", "Role not found", http.StatusNotFound)
	// ErrSystemRoleImmutable prevents destructive operations on system roles.
	ErrSystemRoleImmutable = apperrors.New("ROLE_IMMUTABLE", "System roles cannot be modified", http.StatusBadRequest)
)

// RoleService provides role management and user-role assignment.
type RoleService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewRoleService constructs a RoleService using the provided database handle.
func NewRoleService(db *gorm.DB, audit *AuditService) (*RoleService, error) {
	if db == nil {
		return nil, errors.New("role service: db is required")
	}
	return &RoleService{db: db, auditService: audit}, nil
}

// CreateRoleInput describes the payload accepted by CreateRole.
type CreateRoleInput struct {
	Name        string
	Description string
}

// UpdateRoleInput describes mutable fields on a role.
type UpdateRoleInput struct {
	Name        string
	Description string
}

// PermissionGrant describes one grant when replacing a role's permission set.
type PermissionGrant struct {
	Resource   string
	Action     string
	Conditions models.ConditionSet
}

// CreateRole registers a new role.
func (s *RoleService) CreateRole(ctx context.Context, input CreateRoleInput) (*models.Role, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("role name is required")
	}

	role := &models.Role{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	}

	if err := s.db.WithContext(ctx).Create(role).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("role name already exists")
		}
		return nil, fmt.Errorf("role service: create role: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "role.create",
		Resource: role.ID,
		Result:   "success",
		Metadata: map[string]any{"name": role.Name},
	})

	return role, nil
}

// UpdateRole modifies existing role metadata.
func (s *RoleService) UpdateRole(ctx context.Context, roleID string, input UpdateRoleInput) (*models.Role, error) {
	ctx = ensureContext(ctx)

	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("role service: load role: %w", err)
	}

	if role.IsSystem {
		return nil, ErrSystemRoleImmutable
	}

	updates := map[string]any{}
	if name := strings.TrimSpace(input.Name); name != "" && name != role.Name {
		updates["name"] = name
	}
	if desc := strings.TrimSpace(input.Description); desc != role.Description {
		updates["description"] = desc
	}

	if len(updates) == 0 {
		return &role, nil
	}

	if err := s.db.WithContext(ctx).Model(&role).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("role name already exists")
		}
		return nil, fmt.Errorf("role service: update role: %w", err)
	}

	if err := s.db.WithContext(ctx).First(&role, "id = ?", roleID).Error; err != nil {
		return nil, fmt.Errorf("role service: reload role: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "role.update",
		Resource: role.ID,
		Result:   "success",
		Metadata: updates,
	})

	return &role, nil
}

// DeleteRole removes non-system roles permanently. Remaining user_roles rows
// resolve to nothing afterwards and are swept by maintenance.
func (s *RoleService) DeleteRole(ctx context.Context, roleID string) error {
	ctx = ensureContext(ctx)

	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("role service: load role: %w", err)
	}

	if role.IsSystem {
		return ErrSystemRoleImmutable
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.Permission{}).Error; err != nil {
			return fmt.Errorf("role service: delete role permissions: %w", err)
		}
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.UserRole{}).Error; err != nil {
			return fmt.Errorf("role service: delete role assignments: %w", err)
		}
		if err := tx.Delete(&role).Error; err != nil {
			return fmt.Errorf("role service: delete role: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "role.delete",
		Resource: role.ID,
		Result:   "success",
		Metadata: map[string]any{"name": role.Name},
	})

	return nil
}

// GetRole loads a role with its permissions.
func (s *RoleService) GetRole(ctx context.Context, roleID string) (*models.Role, error) {
	ctx = ensureContext(ctx)

	var role models.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").First(&role, "id = ?", roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("role service: load role: %w", err)
	}
	return &role, nil
}

// ListRoles returns all roles ordered by creation date.
func (s *RoleService) ListRoles(ctx context.Context) ([]models.Role, error) {
	ctx = ensureContext(ctx)

	var roles []models.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").Order("created_at ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("role service: list roles: %w", err)
	}
	return roles, nil
}

// SetRolePermissions replaces the role's grants with the provided set.
func (s *RoleService) SetRolePermissions(ctx context.Context, roleID string, grants []PermissionGrant) error {
	ctx = ensureContext(ctx)

	for _, grant := range grants {
		if strings.TrimSpace(grant.Resource) == "" || strings.TrimSpace(grant.Action) == "" {
			return apperrors.NewBadRequest("each grant requires a resource and an action")
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, "id = ?", roleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return fmt.Errorf("role service: load role: %w", err)
		}

		if role.IsSystem {
			return ErrSystemRoleImmutable
		}

		if err := tx.Where("role_id = ?", role.ID).Delete(&models.Permission{}).Error; err != nil {
			return fmt.Errorf("role service: clear role permissions: %w", err)
		}

		for _, grant := range grants {
			perm := models.Permission{
				RoleID:     role.ID,
				Resource:   grant.Resource,
				Action:     grant.Action,
				Conditions: grant.Conditions,
			}
			if err := tx.Create(&perm).Error; err != nil {
				return fmt.Errorf("role service: create permission: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "role.set_permissions",
		Resource: roleID,
		Result:   "success",
		Metadata: map[string]any{"grants": len(grants)},
	})

	return nil
}

// AssignRole links a role to a user. Repeating the same assignment is a
// no-op: the composite key on user_roles keeps effective grants single.
func (s *RoleService) AssignRole(ctx context.Context, userID, roleID, assignedByID string) error {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).Select("id").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewBadRequest("user not found")
		}
		return fmt.Errorf("role service: load user: %w", err)
	}

	var role models.Role
	if err := s.db.WithContext(ctx).Select("id").First(&role, "id = ?", roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("role service: load role: %w", err)
	}

	assignment := models.UserRole{
		UserID: userID,
		RoleID: roleID,
	}
	if assignedBy := strings.TrimSpace(assignedByID); assignedBy != "" {
		assignment.AssignedByID = &assignedBy
	}

	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&assignment).Error; err != nil {
		return fmt.Errorf("role service: assign role: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "role.assign",
		Resource: roleID,
		Result:   "success",
		Metadata: map[string]any{"user_id": userID},
	})

	return nil
}

// RevokeRole removes the user's assignment. Revoking an absent assignment is
// a no-op.
func (s *RoleService) RevokeRole(ctx context.Context, userID, roleID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&models.UserRole{})
	if result.Error != nil {
		return fmt.Errorf("role service: revoke role: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		recordAudit(s.auditService, ctx, AuditEntry{
			Action:   "role.revoke",
			Resource: roleID,
			Result:   "success",
			Metadata: map[string]any{"user_id": userID},
		})
	}

	return nil
}

// RolesForUser lists the user's assigned roles with permissions preloaded.
func (s *RoleService) RolesForUser(ctx context.Context, userID string) ([]models.Role, error) {
	ctx = ensureContext(ctx)

	var roles []models.Role
	err := s.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Preload("Permissions").
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("role service: list user roles: %w", err)
	}
	return roles, nil
}
