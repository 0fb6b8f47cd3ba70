package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thetombrider/objectdms/internal/models"
	apperrors "github.com/thetombrider/objectdms/pkg/errors"
)

func TestShareDefaultsToReadOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	grantee := env.createUser(t, "grantee", roleViewer)
	doc := env.createDocument(t, owner, "report")

	share, err := env.shares.Share(ctx, owner, doc.ID, grantee.ID, nil)
	require.NoError(t, err)
	require.Equal(t, models.DefaultSharePermissions(), share.Permissions)
	require.Equal(t, owner.ID, share.SharedByID)
	require.False(t, share.SharedAt.IsZero())
}

func TestShareReplacesPreviousGrant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	grantee := env.createUser(t, "grantee", roleViewer)
	doc := env.createDocument(t, owner, "report")

	_, err := env.shares.Share(ctx, owner, doc.ID, grantee.ID,
		&models.SharePermissions{CanRead: true, CanWrite: true})
	require.NoError(t, err)

	// Sharing again downgrades to read-only and must not duplicate the entry.
	_, err = env.shares.Share(ctx, owner, doc.ID, grantee.ID, nil)
	require.NoError(t, err)

	var entries []models.DocumentShare
	require.NoError(t, env.db.Where("document_id = ? AND user_id = ?", doc.ID, grantee.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	require.True(t, entries[0].Permissions.CanRead)
	require.False(t, entries[0].Permissions.CanWrite)
}

func TestShareLeavesOtherGrantsUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	first := env.createUser(t, "first", roleViewer)
	second := env.createUser(t, "second", roleViewer)
	doc := env.createDocument(t, owner, "report")

	_, err := env.shares.Share(ctx, owner, doc.ID, first.ID, nil)
	require.NoError(t, err)
	_, err = env.shares.Share(ctx, owner, doc.ID, second.ID, nil)
	require.NoError(t, err)

	var count int64
	require.NoError(t, env.db.Model(&models.DocumentShare{}).Where("document_id = ?", doc.ID).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestShareRejectsOwnerAsTarget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	doc := env.createDocument(t, owner, "report")

	_, err := env.shares.Share(ctx, owner, doc.ID, owner.ID, nil)
	require.Error(t, err)

	appErr := apperrors.FromError(err)
	require.Equal(t, 400, appErr.StatusCode)
}

func TestShareUnknownTargetIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	doc := env.createDocument(t, owner, "report")

	_, err := env.shares.Share(ctx, owner, doc.ID, "no-such-user", nil)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestShareRequiresSharePermission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	intruder := env.createUser(t, "intruder", roleEditor)
	grantee := env.createUser(t, "grantee", roleViewer)
	doc := env.createDocument(t, owner, "report")

	// The editor share grant is owner-conditioned; a non-owner is denied.
	_, err := env.shares.Share(ctx, intruder, doc.ID, grantee.ID, nil)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestUnshareRemovesGrant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	grantee := env.createUser(t, "grantee", roleViewer)
	doc := env.createDocument(t, owner, "report")

	_, err := env.shares.Share(ctx, owner, doc.ID, grantee.ID, nil)
	require.NoError(t, err)
	require.NoError(t, env.shares.Unshare(ctx, owner, doc.ID, grantee.ID))

	var count int64
	require.NoError(t, env.db.Model(&models.DocumentShare{}).Where("document_id = ?", doc.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestUnshareAbsentGrantIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	stranger := env.createUser(t, "stranger", roleViewer)
	doc := env.createDocument(t, owner, "report")

	require.NoError(t, env.shares.Unshare(ctx, owner, doc.ID, stranger.ID))
}

func TestListSharesReturnsEntriesInOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	first := env.createUser(t, "first", roleViewer)
	second := env.createUser(t, "second", roleViewer)
	doc := env.createDocument(t, owner, "report")

	_, err := env.shares.Share(ctx, owner, doc.ID, first.ID, nil)
	require.NoError(t, err)
	_, err = env.shares.Share(ctx, owner, doc.ID, second.ID, nil)
	require.NoError(t, err)

	shares, err := env.shares.ListShares(ctx, owner, doc.ID)
	require.NoError(t, err)
	require.Len(t, shares, 2)
	require.NotNil(t, shares[0].User)
}

func TestEffectivePermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	grantee := env.createUser(t, "grantee", roleViewer)
	stranger := env.createUser(t, "stranger", roleViewer)
	doc := env.createDocument(t, owner, "report")

	_, err := env.shares.Share(ctx, owner, doc.ID, grantee.ID,
		&models.SharePermissions{CanRead: true, CanWrite: true})
	require.NoError(t, err)

	perms, err := env.shares.EffectivePermissions(ctx, owner, doc.ID)
	require.NoError(t, err)
	require.Equal(t, models.FullSharePermissions(), *perms)

	perms, err = env.shares.EffectivePermissions(ctx, grantee, doc.ID)
	require.NoError(t, err)
	require.True(t, perms.CanRead)
	require.True(t, perms.CanWrite)
	require.False(t, perms.CanDelete)

	perms, err = env.shares.EffectivePermissions(ctx, stranger, doc.ID)
	require.NoError(t, err)
	require.Nil(t, perms)
}
