package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/neibo-app/neibo/internal/models"
	"github.com/neibo-app/neibo/internal/service"
)

func walkPayload(name string) map[string]any {
	return map[string]any{
		"name":        name,
		"description": "a stroll through the old town",
		"isPublic":    true,
		"spots": []map[string]any{
			{
				"title":         "Town Hall",
				"description":   "start here",
				"latitude":      52.37,
				"longitude":     4.89,
				"positionOrder": 0,
				"imageUrls":     []string{"https://img.example/one.jpg"},
			},
			{
				"title":         "Old Harbor",
				"latitude":      52.38,
				"longitude":     4.9,
				"reach_radius":  80,
				"positionOrder": 1,
			},
		},
	}
}

func TestCreateWalk(t *testing.T) {
	env := newTestEnv(t)
	token, _, _ := env.registerUser("alice@example.com", "alice")

	rec := env.do(http.MethodPost, "/api/walks", token, walkPayload("Old Town Loop"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	require.Equal(t, "Walk created successfully", body["message"])

	walk := body["walk"].(map[string]any)
	require.Equal(t, "Old Town Loop", walk["name"])
	require.Equal(t, true, walk["isPublic"])

	spots := body["spots"].([]any)
	require.Len(t, spots, 2)
	first := spots[0].(map[string]any)
	require.Equal(t, "Town Hall", first["title"])
	require.EqualValues(t, 50, first["reach_radius"])
	second := spots[1].(map[string]any)
	require.EqualValues(t, 80, second["reach_radius"])
}

func TestCreateWalkRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/walks", "", walkPayload("Old Town Loop"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Unauthorized", decode(t, rec)["error"])
}

func TestCreateWalkDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	token, _, _ := env.registerUser("alice@example.com", "alice")
	otherToken, _, _ := env.registerUser("bob@example.com", "bob")

	rec := env.do(http.MethodPost, "/api/walks", token, walkPayload("Old Town Loop"))
	require.Equal(t, http.StatusCreated, rec.Code)

	// Walk names are unique across authors, not per author.
	rec = env.do(http.MethodPost, "/api/walks", otherToken, walkPayload("Old Town Loop"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Walk name already exists", decode(t, rec)["error"])
}

func TestCreateWalkInvalidCoordinates(t *testing.T) {
	env := newTestEnv(t)
	token, _, _ := env.registerUser("alice@example.com", "alice")

	payload := walkPayload("Broken Walk")
	payload["spots"] = []map[string]any{
		{"title": "Nowhere", "latitude": 91.0, "longitude": 0.0, "positionOrder": 0},
	}

	rec := env.do(http.MethodPost, "/api/walks", token, payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Walk{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}

func TestCreateWalkRollsBackOnBadTags(t *testing.T) {
	env := newTestEnv(t)
	_, _, userID := env.registerUser("alice@example.com", "alice")

	tag := models.Tag{Name: "history"}
	require.NoError(t, env.DB.Create(&tag).Error)

	// The duplicated tag id violates the walk_tags primary key inside the
	// transaction; the walk insert must go down with it.
	_, _, err := env.Walks.Create(context.Background(), userID, service.CreateWalkInput{
		Name:   "Doomed Walk",
		TagIDs: []uuid.UUID{tag.ID, tag.ID},
		Spots: []service.SpotInput{
			{Title: "Somewhere", Latitude: 10, Longitude: 10},
		},
	})
	require.Error(t, err)

	var walks, spots int64
	require.NoError(t, env.DB.Model(&models.Walk{}).Count(&walks).Error)
	require.NoError(t, env.DB.Model(&models.Spot{}).Count(&spots).Error)
	require.Equal(t, int64(0), walks)
	require.Equal(t, int64(0), spots)
}

func createWalk(t *testing.T, env *testEnv, token, name string) uuid.UUID {
	t.Helper()
	rec := env.do(http.MethodPost, "/api/walks", token, walkPayload(name))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id, err := uuid.Parse(decode(t, rec)["walk"].(map[string]any)["id"].(string))
	require.NoError(t, err)
	return id
}

func TestUpdateWalkPartial(t *testing.T) {
	env := newTestEnv(t)
	token, _, _ := env.registerUser("alice@example.com", "alice")
	walkID := createWalk(t, env, token, "Old Town Loop")

	rec := env.do(http.MethodPut, "/api/walks/"+walkID.String(), token, map[string]any{
		"name": "Renamed Loop",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	require.Equal(t, "Walk updated successfully", body["message"])
	require.Equal(t, "Renamed Loop", body["walk"].(map[string]any)["name"])

	// Spots were not part of the request but the persisted set comes back
	// anyway, in position order.
	spots := body["spots"].([]any)
	require.Len(t, spots, 2)
	require.Equal(t, "Town Hall", spots[0].(map[string]any)["title"])
	require.Equal(t, "Old Harbor", spots[1].(map[string]any)["title"])
}

func TestUpdateWalkReplacesSpots(t *testing.T) {
	env := newTestEnv(t)
	token, _, _ := env.registerUser("alice@example.com", "alice")
	walkID := createWalk(t, env, token, "Old Town Loop")

	rec := env.do(http.MethodPut, "/api/walks/"+walkID.String(), token, map[string]any{
		"spots": []map[string]any{
			{"title": "C", "latitude": 1.0, "longitude": 1.0, "positionOrder": 2},
			{"title": "A", "latitude": 1.0, "longitude": 1.0, "positionOrder": 0},
			{"title": "B", "latitude": 1.0, "longitude": 1.0, "positionOrder": 1},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	spots := decode(t, rec)["spots"].([]any)
	require.Len(t, spots, 3)
	require.Equal(t, "A", spots[0].(map[string]any)["title"])
	require.Equal(t, "B", spots[1].(map[string]any)["title"])
	require.Equal(t, "C", spots[2].(map[string]any)["title"])

	var count int64
	require.NoError(t, env.DB.Model(&models.Spot{}).Where("walk_id = ?", walkID).Count(&count).Error)
	require.Equal(t, int64(3), count)

	// An explicitly empty set clears the spots.
	rec = env.do(http.MethodPut, "/api/walks/"+walkID.String(), token, map[string]any{
		"spots": []map[string]any{},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode(t, rec)["spots"])
}

func TestUpdateWalkOwnership(t *testing.T) {
	env := newTestEnv(t)
	token, _, _ := env.registerUser("alice@example.com", "alice")
	otherToken, _, _ := env.registerUser("bob@example.com", "bob")
	walkID := createWalk(t, env, token, "Old Town Loop")

	rec := env.do(http.MethodPut, "/api/walks/"+walkID.String(), otherToken, map[string]any{
		"name": "Hijacked",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPut, "/api/walks/"+uuid.NewString(), token, map[string]any{
		"name": "Ghost",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteWalk(t *testing.T) {
	env := newTestEnv(t)
	token, _, _ := env.registerUser("alice@example.com", "alice")
	otherToken, _, _ := env.registerUser("bob@example.com", "bob")
	walkID := createWalk(t, env, token, "Old Town Loop")

	rec := env.do(http.MethodDelete, "/api/walks/"+walkID.String(), otherToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodDelete, "/api/walks/"+walkID.String(), token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, "/api/walks/"+walkID.String(), "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetWalk(t *testing.T) {
	env := newTestEnv(t)
	token, _, _ := env.registerUser("alice@example.com", "alice")
	walkID := createWalk(t, env, token, "Old Town Loop")

	rec := env.do(http.MethodGet, "/api/walks/"+walkID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decode(t, rec)["data"].(map[string]any)
	require.Equal(t, "Old Town Loop", data["name"])
	require.Nil(t, data["avgStars"])

	author := data["author"].(map[string]any)
	require.Equal(t, "alice", author["username"])

	spots := data["spots"].([]any)
	require.Len(t, spots, 2)
	require.Equal(t, "Town Hall", spots[0].(map[string]any)["title"])
}

func TestGetWalkSpotOrdering(t *testing.T) {
	env := newTestEnv(t)
	token, _, _ := env.registerUser("alice@example.com", "alice")

	rec := env.do(http.MethodPost, "/api/walks", token, map[string]any{
		"name": "Scrambled Walk",
		"spots": []map[string]any{
			{"title": "C", "latitude": 1.0, "longitude": 1.0, "positionOrder": 2},
			{"title": "A", "latitude": 1.0, "longitude": 1.0, "positionOrder": 0},
			{"title": "B", "latitude": 1.0, "longitude": 1.0, "positionOrder": 1},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	walkID := decode(t, rec)["walk"].(map[string]any)["id"].(string)

	// Insertion order was [2,0,1]; the read comes back ascending.
	rec = env.do(http.MethodGet, "/api/walks/"+walkID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	spots := decode(t, rec)["data"].(map[string]any)["spots"].([]any)
	require.Len(t, spots, 3)
	require.Equal(t, "A", spots[0].(map[string]any)["title"])
	require.Equal(t, "B", spots[1].(map[string]any)["title"])
	require.Equal(t, "C", spots[2].(map[string]any)["title"])
}

func TestGetWalkMissing(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/walks/"+uuid.NewString(), "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Walk not found", decode(t, rec)["error"])
}

func TestGetWalkBadID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/walks/not-a-uuid", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	require.Equal(t, "Invalid walk ID format", body["error"])
	details := body["details"].([]any)
	require.Equal(t, "id", details[0].(map[string]any)["field"])
}

func TestGetWalksPagination(t *testing.T) {
	env := newTestEnv(t)
	token, _, _ := env.registerUser("alice@example.com", "alice")
	for i := 0; i < 3; i++ {
		createWalk(t, env, token, fmt.Sprintf("Walk %d", i))
	}

	rec := env.do(http.MethodGet, "/api/walks?page=1&limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decode(t, rec)["data"].(map[string]any)
	require.Len(t, data["walks"].([]any), 2)

	pg := data["pagination"].(map[string]any)
	require.EqualValues(t, 3, pg["total"])
	require.EqualValues(t, 2, pg["totalPages"])
	require.Equal(t, true, pg["hasNext"])
	require.Equal(t, false, pg["hasPrevious"])
	require.Equal(t, "http://example.com/api/walks?limit=2&page=2", pg["next"])
	require.Nil(t, pg["previous"])

	rec = env.do(http.MethodGet, "/api/walks?page=2&limit=2", "", nil)
	data = decode(t, rec)["data"].(map[string]any)
	require.Len(t, data["walks"].([]any), 1)
	pg = data["pagination"].(map[string]any)
	require.Equal(t, false, pg["hasNext"])
	require.Equal(t, true, pg["hasPrevious"])

	// Same page, no intervening writes: identical body, ordering included.
	again := env.do(http.MethodGet, "/api/walks?page=2&limit=2", "", nil)
	require.JSONEq(t, rec.Body.String(), again.Body.String())
}

func TestGetWalksClampsLimits(t *testing.T) {
	env := newTestEnv(t)
	token, _, _ := env.registerUser("alice@example.com", "alice")
	createWalk(t, env, token, "Walk")

	rec := env.do(http.MethodGet, "/api/walks?page=-1&limit=9999", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	pg := decode(t, rec)["data"].(map[string]any)["pagination"].(map[string]any)
	require.EqualValues(t, 1, pg["page"])
	require.EqualValues(t, 100, pg["limit"])
}
