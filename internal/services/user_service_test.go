package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/thetombrider/objectdms/pkg/errors"
)

func TestCreateUserHashesPasswordAndNormalisesInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.CreateUser(ctx, CreateUserInput{
		Username: "  Alice ",
		Email:    "Alice@Example.com",
		Password: "s3cret-pass",
		FullName: "Alice Doe",
	})
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "alice@example.com", user.Email)
	require.NotEqual(t, "s3cret-pass", user.Password)
	require.True(t, user.IsActive)
}

func TestCreateUserValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.CreateUser(ctx, CreateUserInput{Username: "ab", Email: "a@b.c", Password: "longenough"})
	require.Error(t, err)

	_, err = env.users.CreateUser(ctx, CreateUserInput{Username: "alice", Email: "not-an-email", Password: "longenough"})
	require.Error(t, err)

	_, err = env.users.CreateUser(ctx, CreateUserInput{Username: "alice", Email: "a@b.c", Password: "short"})
	require.Error(t, err)
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.CreateUser(ctx, CreateUserInput{Username: "alice", Email: "alice@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = env.users.CreateUser(ctx, CreateUserInput{Username: "alice", Email: "other@example.com", Password: "s3cret-pass"})
	require.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.users.CreateUser(ctx, CreateUserInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	user, err := env.users.Authenticate(ctx, "Alice", "s3cret-pass")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)
	require.NotNil(t, user.LastLoginAt)

	_, err = env.users.Authenticate(ctx, "alice", "wrong-pass")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = env.users.Authenticate(ctx, "nobody", "s3cret-pass")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestAuthenticateRejectsInactiveAccounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.CreateUser(ctx, CreateUserInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.NoError(t, env.db.Model(user).Update("is_active", false).Error)

	_, err = env.users.Authenticate(ctx, "alice", "s3cret-pass")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}
