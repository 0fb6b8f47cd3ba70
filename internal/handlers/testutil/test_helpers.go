package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/thetombrider/objectdms/internal/api"
	"github.com/thetombrider/objectdms/internal/app"
	iauth "github.com/thetombrider/objectdms/internal/auth"
	sharedtestutil "github.com/thetombrider/objectdms/internal/database/testutil"
	"github.com/thetombrider/objectdms/internal/models"
	"github.com/thetombrider/objectdms/pkg/response"
)

// Env bundles a fully-wired API instance backed by an in-memory database.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
	JWT    *iauth.JWTService
}

// NewEnv provisions a handler test environment with migrations and seed data applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithSeedData())

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "handler-test-secret",
		Issuer:         "objectdms-test",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	cfg := &app.Config{}
	router, err := api.NewRouter(db, jwtSvc, cfg)
	require.NoError(t, err)

	return &Env{T: t, DB: db, Router: router, JWT: jwtSvc}
}

// CreateSuperuser inserts an active superuser and returns the record.
func (e *Env) CreateSuperuser(password string) *models.User {
	e.T.Helper()

	username := "admin-" + uuid.NewString()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(e.T, err)

	user := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    string(hashed),
		IsActive:    true,
		IsSuperuser: true,
	}
	require.NoError(e.T, e.DB.Create(user).Error)
	return user
}

// Login authenticates and returns the issued access token.
func (e *Env) Login(username, password string) string {
	e.T.Helper()

	payload := map[string]string{"username": username, "password": password}
	w := e.Request(http.MethodPost, "/api/auth/login", payload, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var data struct {
		AccessToken string `json:"access_token"`
	}
	DecodeInto(e.T, resp.Data, &data)
	require.NotEmpty(e.T, data.AccessToken)
	return data.AccessToken
}

// APIResponse mirrors the canonical handler envelope.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the API envelope from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	buf := bytes.NewBuffer(nil)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
