package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateTourRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/ai/create-tour", "", map[string]any{
		"city":         "Amsterdam",
		"neighborhood": "Jordaan",
		"duration":     60,
		"tourTheme":    "history",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateTourUnavailableWithoutGenerator(t *testing.T) {
	env := newTestEnv(t)
	token, _, _ := env.registerUser("alice@example.com", "alice")

	rec := env.do(http.MethodPost, "/api/ai/create-tour", token, map[string]any{
		"city":         "Amsterdam",
		"neighborhood": "Jordaan",
		"duration":     60,
		"tourTheme":    "history",
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "Tour generation is not available", decode(t, rec)["error"])
}
