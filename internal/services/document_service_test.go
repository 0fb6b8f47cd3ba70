package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/thetombrider/objectdms/pkg/errors"
)

func TestCreateRequiresCreateGrant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	viewer := env.createUser(t, "viewer", roleViewer)
	_, err := env.docs.Create(ctx, viewer, CreateDocumentInput{
		Title:    "report",
		FileName: "report.pdf",
	})
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	editor := env.createUser(t, "editor", roleEditor)
	doc, err := env.docs.Create(ctx, editor, CreateDocumentInput{
		Title:    "report",
		FileName: "report.pdf",
	})
	require.NoError(t, err)
	require.Equal(t, editor.ID, doc.OwnerID)
	require.Equal(t, 1, doc.Version)
}

func TestCreateAssignsTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	editor := env.createUser(t, "editor", roleEditor)
	doc, err := env.docs.Create(ctx, editor, CreateDocumentInput{
		Title:    "tagged",
		FileName: "tagged.pdf",
		Tags:     []string{"Finance", "finance", " q3 "},
	})
	require.NoError(t, err)

	loaded, err := env.docs.Get(ctx, editor, doc.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Tags, 2)
}

func TestGetEnforcesReadConditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	grantee := env.createUser(t, "grantee", roleViewer)
	stranger := env.createUser(t, "stranger", roleViewer)
	doc := env.createDocument(t, owner, "report")

	_, err := env.docs.Get(ctx, owner, doc.ID)
	require.NoError(t, err)

	_, err = env.docs.Get(ctx, stranger, doc.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = env.shares.Share(ctx, owner, doc.ID, grantee.ID, nil)
	require.NoError(t, err)

	_, err = env.docs.Get(ctx, grantee, doc.ID)
	require.NoError(t, err)
}

func TestListScopesToAccessibleDocuments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice", roleEditor)
	bob := env.createUser(t, "bob", roleEditor)
	admin := env.createSuperuser(t, "root")

	env.createDocument(t, alice, "a1")
	env.createDocument(t, alice, "a2")
	shared := env.createDocument(t, bob, "b1")

	_, err := env.shares.Share(ctx, bob, shared.ID, alice.ID, nil)
	require.NoError(t, err)

	docs, total, err := env.docs.List(ctx, alice, ListDocumentsOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, docs, 3)

	_, total, err = env.docs.List(ctx, bob, ListDocumentsOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	_, total, err = env.docs.List(ctx, admin, ListDocumentsOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
}

func TestListWithoutGrantIsEmptyNotError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	env.createDocument(t, owner, "report")

	// A user with no role at all gets an empty listing, not everything.
	roleless := env.createUser(t, "roleless")
	docs, total, err := env.docs.List(ctx, roleless, ListDocumentsOptions{})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, docs)
}

func TestSharedWithMeListsOnlyShares(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	grantee := env.createUser(t, "grantee", roleViewer)

	env.createDocument(t, owner, "private")
	shared := env.createDocument(t, owner, "shared")
	_, err := env.shares.Share(ctx, owner, shared.ID, grantee.ID, nil)
	require.NoError(t, err)

	docs, total, err := env.docs.SharedWithMe(ctx, grantee, 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, docs, 1)
	require.Equal(t, shared.ID, docs[0].ID)
}

func TestUpdateBumpsVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	doc := env.createDocument(t, owner, "draft")

	updated, err := env.docs.Update(ctx, owner, doc.ID, UpdateDocumentInput{Title: "final"})
	require.NoError(t, err)
	require.Equal(t, "final", updated.Title)
	require.Equal(t, 2, updated.Version)

	// No effective change leaves the version alone.
	same, err := env.docs.Update(ctx, owner, doc.ID, UpdateDocumentInput{Title: "final"})
	require.NoError(t, err)
	require.Equal(t, 2, same.Version)
}

func TestSoftDeleteHidesAndRestoreRecovers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	doc := env.createDocument(t, owner, "doomed")

	require.NoError(t, env.docs.SoftDelete(ctx, owner, doc.ID))

	_, err := env.docs.Get(ctx, owner, doc.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, total, err := env.docs.List(ctx, owner, ListDocumentsOptions{})
	require.NoError(t, err)
	require.Zero(t, total)

	require.NoError(t, env.docs.Restore(ctx, owner, doc.ID))

	restored, err := env.docs.Get(ctx, owner, doc.ID)
	require.NoError(t, err)
	require.False(t, restored.IsDeleted)
}

func TestSoftDeleteRequiresOwnerCondition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	grantee := env.createUser(t, "grantee", roleEditor)
	doc := env.createDocument(t, owner, "report")

	// A write-capable share does not satisfy the owner-only delete grant.
	_, err := env.shares.Share(ctx, owner, doc.ID, grantee.ID, nil)
	require.NoError(t, err)

	err = env.docs.SoftDelete(ctx, grantee, doc.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestSetTagsReplacesExisting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	doc, err := env.docs.Create(ctx, owner, CreateDocumentInput{
		Title:    "report",
		FileName: "report.pdf",
		Tags:     []string{"old"},
	})
	require.NoError(t, err)

	updated, err := env.docs.SetTags(ctx, owner, doc.ID, []string{"new", "fresh"})
	require.NoError(t, err)
	require.Len(t, updated.Tags, 2)

	names := []string{updated.Tags[0].Name, updated.Tags[1].Name}
	require.ElementsMatch(t, []string{"new", "fresh"}, names)
}

func TestSetTagsEmptyListClearsTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner", roleEditor)
	doc, err := env.docs.Create(ctx, owner, CreateDocumentInput{
		Title:    "report",
		FileName: "report.pdf",
		Tags:     []string{"finance", "q3"},
	})
	require.NoError(t, err)

	cleared, err := env.docs.SetTags(ctx, owner, doc.ID, []string{})
	require.NoError(t, err)
	require.Empty(t, cleared.Tags)

	reloaded, err := env.docs.Get(ctx, owner, doc.ID)
	require.NoError(t, err)
	require.Empty(t, reloaded.Tags)
}
