package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/thetombrider/objectdms/internal/access"
	"github.com/thetombrider/objectdms/internal/database/testutil"
	"github.com/thetombrider/objectdms/internal/models"
)

// Seeded role ids used throughout the service tests.
const (
	roleAdmin  = "admin"
	roleEditor = "editor"
	roleViewer = "viewer"
)

type testEnv struct {
	db     *gorm.DB
	engine *access.Engine
	audit  *AuditService
	users  *UserService
	roles  *RoleService
	docs   *DocumentService
	shares *DocumentShareService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	audit, err := NewAuditService(db)
	require.NoError(t, err)

	roleSource, err := access.NewGormRoleSource(db)
	require.NoError(t, err)
	docIndex, err := access.NewGormDocumentIndex(db)
	require.NoError(t, err)
	engine, err := access.NewEngine(roleSource,
		access.WithResourceIndex(access.ResourceDocument, docIndex),
		access.WithAuditSink(audit),
	)
	require.NoError(t, err)

	users, err := NewUserService(db, audit)
	require.NoError(t, err)
	roles, err := NewRoleService(db, audit)
	require.NoError(t, err)
	docs, err := NewDocumentService(db, engine, audit)
	require.NoError(t, err)
	shares, err := NewDocumentShareService(db, engine, audit)
	require.NoError(t, err)

	return &testEnv{
		db:     db,
		engine: engine,
		audit:  audit,
		users:  users,
		roles:  roles,
		docs:   docs,
		shares: shares,
	}
}

func (e *testEnv) createUser(t *testing.T, username string, roleIDs ...string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		IsActive: true,
	}
	require.NoError(t, e.db.Create(user).Error)

	for _, roleID := range roleIDs {
		require.NoError(t, e.roles.AssignRole(context.Background(), user.ID, roleID, ""))
	}
	return user
}

func (e *testEnv) createSuperuser(t *testing.T, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "hashed",
		IsActive:    true,
		IsSuperuser: true,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createDocument(t *testing.T, owner *models.User, title string) *models.Document {
	t.Helper()

	doc, err := e.docs.Create(context.Background(), owner, CreateDocumentInput{
		Title:    title,
		FileName: title + ".pdf",
		FilePath: "/files/" + title + ".pdf",
		MimeType: "application/pdf",
	})
	require.NoError(t, err)
	return doc
}
