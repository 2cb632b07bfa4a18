package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchRequiresQuery(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/walks/search", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Search query is required", decode(t, rec)["error"])
}

func TestSearchUnavailableWithoutIndex(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/walks/search?q=harbor", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "Search is not available", decode(t, rec)["error"])
}
