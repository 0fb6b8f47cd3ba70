package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thetombrider/objectdms/internal/handlers/testutil"
)

func TestRegisterThenLogin(t *testing.T) {
	env := testutil.NewEnv(t)

	payload := map[string]string{
		"username":  "Carol",
		"email":     "Carol@Example.com",
		"password":  "CorrectHorse1",
		"full_name": "Carol Jones",
	}
	w := env.Request(http.MethodPost, "/api/auth/register", payload, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	require.True(t, resp.Success)
	var created map[string]any
	testutil.DecodeInto(t, resp.Data, &created)
	require.Equal(t, "carol", created["username"])
	require.Equal(t, "carol@example.com", created["email"])
	require.Equal(t, false, created["is_superuser"])
	require.NotContains(t, w.Body.String(), "CorrectHorse1")

	token := env.Login("carol", "CorrectHorse1")

	me := env.Request(http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, me.Code)
	var meData map[string]any
	testutil.DecodeInto(t, testutil.DecodeResponse(t, me).Data, &meData)
	require.Equal(t, "carol", meData["username"])
}

func TestRegisterValidation(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "dave",
		"email":    "dave@example.com",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	short := env.Request(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "dave",
		"email":    "dave@example.com",
		"password": "short",
	}, "")
	require.Equal(t, http.StatusBadRequest, short.Code)
}

func TestRegisterCannotGrantSuperuser(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/auth/register", map[string]any{
		"username":     "mallory",
		"email":        "mallory@example.com",
		"password":     "Sneaky-pass1",
		"is_superuser": true,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created map[string]any
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &created)
	require.Equal(t, false, created["is_superuser"])
}
