package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/neibo-app/neibo/internal/apperr"
	"github.com/neibo-app/neibo/internal/handlers"
	"github.com/neibo-app/neibo/internal/models"
	"github.com/neibo-app/neibo/internal/service"
	"github.com/neibo-app/neibo/internal/tokens"
	httpserver "github.com/neibo-app/neibo/internal/transport/http"
	"github.com/neibo-app/neibo/internal/validate"
)

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Tokens *tokens.Service
	Walks  *service.WalkService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named in-memory database with a shared cache, so every pooled
	// connection sees the same data. The name keeps tests isolated from
	// each other within the process.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	tokenSvc := &tokens.Service{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	}
	authSvc := &service.AuthService{DB: db, Tokens: tokenSvc, BcryptCost: bcrypt.MinCost}
	walkSvc := &service.WalkService{DB: db}

	e := echo.New()
	e.Validator = validate.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger, false)

	httpserver.Register(e, &httpserver.Deps{
		DB:            db,
		Tokens:        tokenSvc,
		AuthHandler:   &handlers.AuthHandler{Auth: authSvc},
		WalkHandler:   &handlers.WalkHandler{DB: db, Walks: walkSvc},
		UserHandler:   &handlers.UserHandler{DB: db, Walks: walkSvc},
		SearchHandler: &handlers.SearchHandler{},
		AIHandler:     &handlers.AIHandler{},
	})

	return &testEnv{T: t, E: e, DB: db, Tokens: tokenSvc, Walks: walkSvc}
}

func (env *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	env.T.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// registerUser registers a fresh user through the real endpoint and hands
// back the issued tokens together with the persisted id.
func (env *testEnv) registerUser(email, username string) (access, refresh string, userID uuid.UUID) {
	env.T.Helper()

	rec := env.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":     email,
		"username":  username,
		"password":  "password123",
		"firstName": "Test",
		"lastName":  "User",
	})
	require.Equal(env.T, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(env.T, rec)
	access, _ = body["token"].(string)
	refresh, _ = body["refreshToken"].(string)
	require.NotEmpty(env.T, access)
	require.NotEmpty(env.T, refresh)

	var user models.User
	require.NoError(env.T, env.DB.Where("email = ?", email).First(&user).Error)
	return access, refresh, user.ID
}
