package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neibo-app/neibo/internal/models"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":     "alice@example.com",
		"username":  "alice",
		"password":  "password123",
		"firstName": "Alice",
		"lastName":  "Walker",
		"bio":       "city wanderer",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	require.Equal(t, "User created successfully", body["message"])
	require.NotEmpty(t, body["token"])
	require.NotEmpty(t, body["refreshToken"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "alice@example.com", user["email"])
	require.Equal(t, "alice", user["username"])
	require.NotContains(t, user, "password")
	require.NotContains(t, rec.Body.String(), "password123")

	var count int64
	require.NoError(t, env.DB.Model(&models.RefreshToken{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser("alice@example.com", "alice")

	rec := env.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":     "alice@example.com",
		"username":  "alice2",
		"password":  "password123",
		"firstName": "Alice",
		"lastName":  "Walker",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Email already in use", decode(t, rec)["error"])

	rec = env.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":     "alice2@example.com",
		"username":  "alice",
		"password":  "password123",
		"firstName": "Alice",
		"lastName":  "Walker",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Username already in use", decode(t, rec)["error"])
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":     "not-an-email",
		"username":  "al",
		"password":  "short",
		"firstName": "",
		"lastName":  "Walker",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	require.Equal(t, "Validation failed", body["error"])
	require.NotEmpty(t, body["details"])
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	_, _, userID := env.registerUser("alice@example.com", "alice")

	rec := env.do(http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	require.Equal(t, "Login successful", body["message"])
	require.NotEmpty(t, body["token"])
	require.NotEmpty(t, body["refreshToken"])

	// Login replaces every refresh token the user holds, so repeated
	// logins never accumulate rows.
	env.do(http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "password123",
	})
	var count int64
	require.NoError(t, env.DB.Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser("alice@example.com", "alice")

	rec := env.do(http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid credentials", decode(t, rec)["error"])

	rec = env.do(http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid credentials", decode(t, rec)["error"])
}

func TestRefreshRotation(t *testing.T) {
	env := newTestEnv(t)
	_, refresh, _ := env.registerUser("alice@example.com", "alice")

	// Token timestamps have second precision; shift the issue clock so
	// the rotated token is not byte-identical to the original.
	env.Tokens.Now = func() time.Time { return time.Now().Add(2 * time.Second) }

	rec := env.do(http.MethodPost, "/api/auth/refresh", "", map[string]any{
		"refreshToken": refresh,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	require.Equal(t, "Token refreshed successfully", body["message"])
	rotated, _ := body["refreshToken"].(string)
	require.NotEmpty(t, rotated)
	require.NotEqual(t, refresh, rotated)

	// The presented token is single use.
	rec = env.do(http.MethodPost, "/api/auth/refresh", "", map[string]any{
		"refreshToken": refresh,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid or expired refresh token", decode(t, rec)["error"])

	// The rotated one still works.
	rec = env.do(http.MethodPost, "/api/auth/refresh", "", map[string]any{
		"refreshToken": rotated,
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshMissingToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/refresh", "", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Refresh token is required", decode(t, rec)["error"])
}

func TestRefreshGarbageToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/refresh", "", map[string]any{
		"refreshToken": "not.a.jwt",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid or expired refresh token", decode(t, rec)["error"])
}

func TestRefreshExpiredRow(t *testing.T) {
	env := newTestEnv(t)
	_, refresh, userID := env.registerUser("alice@example.com", "alice")

	require.NoError(t, env.DB.Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	rec := env.do(http.MethodPost, "/api/auth/refresh", "", map[string]any{
		"refreshToken": refresh,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid or expired refresh token", decode(t, rec)["error"])
}

func TestRefreshInactiveUser(t *testing.T) {
	env := newTestEnv(t)
	_, refresh, userID := env.registerUser("alice@example.com", "alice")

	require.NoError(t, env.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_active", false).Error)

	rec := env.do(http.MethodPost, "/api/auth/refresh", "", map[string]any{
		"refreshToken": refresh,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "User not found or inactive", decode(t, rec)["error"])
}
