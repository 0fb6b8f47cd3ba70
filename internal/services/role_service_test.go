package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thetombrider/objectdms/internal/models"
)

func TestCreateRoleRejectsDuplicateNames(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.roles.CreateRole(ctx, CreateRoleInput{Name: "auditors"})
	require.NoError(t, err)

	_, err = env.roles.CreateRole(ctx, CreateRoleInput{Name: "auditors"})
	require.Error(t, err)
}

func TestAssignRoleIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "alice")

	require.NoError(t, env.roles.AssignRole(ctx, user.ID, roleEditor, ""))
	require.NoError(t, env.roles.AssignRole(ctx, user.ID, roleEditor, ""))

	var count int64
	require.NoError(t, env.db.Model(&models.UserRole{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAssignRoleRecordsAssigner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createSuperuser(t, "root")
	user := env.createUser(t, "alice")

	require.NoError(t, env.roles.AssignRole(ctx, user.ID, roleViewer, admin.ID))

	var assignment models.UserRole
	require.NoError(t, env.db.First(&assignment, "user_id = ? AND role_id = ?", user.ID, roleViewer).Error)
	require.NotNil(t, assignment.AssignedByID)
	require.Equal(t, admin.ID, *assignment.AssignedByID)
	require.False(t, assignment.AssignedAt.IsZero())
}

func TestAssignRoleUnknownRoleFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "alice")
	require.ErrorIs(t, env.roles.AssignRole(ctx, user.ID, "no-such-role", ""), ErrRoleNotFound)
}

func TestRevokeRoleIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "alice", roleEditor)

	require.NoError(t, env.roles.RevokeRole(ctx, user.ID, roleEditor))
	require.NoError(t, env.roles.RevokeRole(ctx, user.ID, roleEditor))

	roles, err := env.roles.RolesForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, roles)
}

func TestDeleteRoleRemovesGrantsAndAssignments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	role, err := env.roles.CreateRole(ctx, CreateRoleInput{Name: "temps"})
	require.NoError(t, err)
	require.NoError(t, env.roles.SetRolePermissions(ctx, role.ID, []PermissionGrant{
		{Resource: "document", Action: "read", Conditions: models.ConditionSet{Owner: true}},
	}))

	user := env.createUser(t, "alice")
	require.NoError(t, env.roles.AssignRole(ctx, user.ID, role.ID, ""))

	require.NoError(t, env.roles.DeleteRole(ctx, role.ID))

	var permCount, assignCount int64
	require.NoError(t, env.db.Model(&models.Permission{}).Where("role_id = ?", role.ID).Count(&permCount).Error)
	require.NoError(t, env.db.Model(&models.UserRole{}).Where("role_id = ?", role.ID).Count(&assignCount).Error)
	require.Zero(t, permCount)
	require.Zero(t, assignCount)

	roles, err := env.roles.RolesForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, roles)
}

func TestSystemRolesAreImmutable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.ErrorIs(t, env.roles.DeleteRole(ctx, roleAdmin), ErrSystemRoleImmutable)

	_, err := env.roles.UpdateRole(ctx, roleEditor, UpdateRoleInput{Name: "renamed"})
	require.ErrorIs(t, err, ErrSystemRoleImmutable)

	require.ErrorIs(t, env.roles.SetRolePermissions(ctx, roleViewer, nil), ErrSystemRoleImmutable)
}

func TestSetRolePermissionsReplacesGrants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	role, err := env.roles.CreateRole(ctx, CreateRoleInput{Name: "writers"})
	require.NoError(t, err)

	require.NoError(t, env.roles.SetRolePermissions(ctx, role.ID, []PermissionGrant{
		{Resource: "document", Action: "read"},
		{Resource: "document", Action: "write", Conditions: models.ConditionSet{Owner: true}},
	}))
	require.NoError(t, env.roles.SetRolePermissions(ctx, role.ID, []PermissionGrant{
		{Resource: "document", Action: "read", Conditions: models.ConditionSet{Shared: true}},
	}))

	loaded, err := env.roles.GetRole(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Permissions, 1)
	require.Equal(t, "read", loaded.Permissions[0].Action)
	require.True(t, loaded.Permissions[0].Conditions.Shared)
}

func TestRoleGrantsFlowIntoAccessDecisions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	doc := env.createDocument(t, owner, "report")

	user := env.createUser(t, "late")
	allowed, err := env.engine.Check(ctx, user, "document", "read", doc)
	require.NoError(t, err)
	require.False(t, allowed)

	// Granting unconditional read takes effect on the next check.
	role, err := env.roles.CreateRole(ctx, CreateRoleInput{Name: "readers"})
	require.NoError(t, err)
	require.NoError(t, env.roles.SetRolePermissions(ctx, role.ID, []PermissionGrant{
		{Resource: "document", Action: "read"},
	}))
	require.NoError(t, env.roles.AssignRole(ctx, user.ID, role.ID, ""))

	allowed, err = env.engine.Check(ctx, user, "document", "read", doc)
	require.NoError(t, err)
	require.True(t, allowed)
}
