package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"playhub/internal/config"
	"playhub/internal/models"
	"playhub/internal/service"
	"playhub/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T, featureFlags string) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	cfg := &config.Config{
		Env:          "test",
		Port:         "0",
		JWTSecret:    "server-test-secret-0123456789abcdef",
		SessionStore: "database",
		FeatureFlags: featureFlags,
	}
	s, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)
	return s, s.NewApp(), db
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func signupPlayer(t *testing.T, app *fiber.App, email string) service.UserSession {
	t.Helper()
	resp, data := doRequest(t, app, http.MethodPost, "/api/auth/signup", "",
		service.SignupInput{Email: email, Password: "secret123"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var session service.UserSession
	require.NoError(t, json.Unmarshal(data, &session))
	return session
}

func loginAdmin(t *testing.T, s *Server, app *fiber.App) string {
	t.Helper()
	creds := service.AdminCredentials{Username: "root", Password: "changeme1"}
	_, err := s.AdminService().EnsureAdmin(t.Context(), creds)
	require.NoError(t, err)

	resp, data := doRequest(t, app, http.MethodPost, "/api/admin/login", "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var session service.AdminSession
	require.NoError(t, json.Unmarshal(data, &session))
	return session.Token
}

type reactionBody struct {
	Message      string  `json:"message"`
	ReactionType *string `json:"reactionType"`
}

func TestReactionEndpoints(t *testing.T) {
	_, app, db := newTestServer(t, "")
	game := testutil.CreateGame(t, db, "Snake")
	player := signupPlayer(t, app, "p1@example.com")
	base := "/api/games/" + game.ID

	resp, data := doRequest(t, app, http.MethodPost, base+"/like", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "reactions need a player identity")

	resp, data = doRequest(t, app, http.MethodPost, base+"/like", player.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var body reactionBody
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "Game liked successfully", body.Message)
	require.NotNil(t, body.ReactionType)
	assert.Equal(t, "like", *body.ReactionType)

	resp, data = doRequest(t, app, http.MethodPost, base+"/dislike", player.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "Reaction updated to dislike", body.Message)

	resp, data = doRequest(t, app, http.MethodGet, base+"/reactions", player.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats models.ReactionStats
	require.NoError(t, json.Unmarshal(data, &stats))
	assert.Equal(t, int64(0), stats.LikeCount)
	assert.Equal(t, int64(1), stats.DislikeCount)
	require.NotNil(t, stats.UserReaction)
	assert.Equal(t, models.ReactionDislike, *stats.UserReaction)

	resp, data = doRequest(t, app, http.MethodGet, base+"/reactions", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"userReaction":null`)

	resp, data = doRequest(t, app, http.MethodDelete, base+"/reaction", player.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "Reaction removed successfully", body.Message)
	assert.Nil(t, body.ReactionType)

	resp, data = doRequest(t, app, http.MethodGet, base+"/reactions", player.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats = models.ReactionStats{}
	require.NoError(t, json.Unmarshal(data, &stats))
	assert.Zero(t, stats.LikeCount)
	assert.Zero(t, stats.DislikeCount)
	assert.Nil(t, stats.UserReaction)
	assert.Contains(t, string(data), `"userReaction":null`)

	resp, data = doRequest(t, app, http.MethodDelete, base+"/reaction", player.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "No reaction to remove", body.Message)

	resp, data = doRequest(t, app, http.MethodPost, "/api/games/missing/like", player.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var envelope models.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.Equal(t, models.CodeNotFound, envelope.Code)
}

func TestReactionEndpoints_LegacyUserIDQuery(t *testing.T) {
	t.Run("flag on", func(t *testing.T) {
		_, app, db := newTestServer(t, "reaction_query_user_id=on")
		game := testutil.CreateGame(t, db, "Legacy")

		resp, data := doRequest(t, app, http.MethodPost, "/api/games/"+game.ID+"/like?userId=U1", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

		resp, data = doRequest(t, app, http.MethodGet, "/api/games/"+game.ID+"/reactions?userId=U1", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(data), `"userReaction":"like"`)
	})

	t.Run("flag off", func(t *testing.T) {
		_, app, db := newTestServer(t, "")
		game := testutil.CreateGame(t, db, "Legacy")

		resp, _ := doRequest(t, app, http.MethodPost, "/api/games/"+game.ID+"/like?userId=U1", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp, data := doRequest(t, app, http.MethodGet, "/api/games/"+game.ID+"/reactions?userId=U1", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(data), `"userReaction":null`)
	})
}

func TestAdminEndpoints(t *testing.T) {
	s, app, _ := newTestServer(t, "")
	player := signupPlayer(t, app, "p2@example.com")

	newGame := service.CreateGameInput{Title: "Tetra", Description: "Falling blocks", Rating: 4, PublishStatus: true}

	resp, _ := doRequest(t, app, http.MethodPost, "/api/games", "", newGame)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPost, "/api/games", player.Token, newGame)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "player tokens are not admin tokens")

	token := loginAdmin(t, s, app)

	resp, data := doRequest(t, app, http.MethodPost, "/api/games", token, newGame)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var game models.Game
	require.NoError(t, json.Unmarshal(data, &game))
	assert.NotNil(t, game.PublishedAt)

	resp, data = doRequest(t, app, http.MethodPatch, "/api/games/"+game.ID, token, map[string]any{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(data))

	resp, data = doRequest(t, app, http.MethodGet, "/api/games/admin/list?sortBy=title&sortOrder=asc", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page service.GamePage
	require.NoError(t, json.Unmarshal(data, &page))
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, page.Page)

	resp, data = doRequest(t, app, http.MethodPost, "/api/games/"+game.ID+"/increment-play-count", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"playCount":1}`, string(data))

	resp, _ = doRequest(t, app, http.MethodPost, "/api/admin/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodDelete, "/api/games/"+game.ID, token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "logged-out token is rejected")

	token = loginAdmin(t, s, app)
	resp, _ = doRequest(t, app, http.MethodDelete, "/api/games/"+game.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doRequest(t, app, http.MethodGet, "/api/games/"+game.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPageEndpoints(t *testing.T) {
	s, app, _ := newTestServer(t, "")
	token := loginAdmin(t, s, app)

	draft := map[string]any{"title": "About", "slug": "about-us", "htmlContent": "<p>hi</p>"}
	resp, data := doRequest(t, app, http.MethodPost, "/api/pages", token, draft)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var page models.Page
	require.NoError(t, json.Unmarshal(data, &page))

	resp, _ = doRequest(t, app, http.MethodPost, "/api/pages", token, draft)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/pages/"+page.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "drafts are not public by id either")

	resp, _ = doRequest(t, app, http.MethodGet, "/api/pages/admin/"+page.ID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, data = doRequest(t, app, http.MethodGet, "/api/pages/admin/"+page.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Contains(t, string(data), "about-us")

	resp, _ = doRequest(t, app, http.MethodGet, "/api/pages/slug/about-us", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "drafts are not public")

	resp, data = doRequest(t, app, http.MethodGet, "/api/pages/admin/list", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "about-us")

	resp, data = doRequest(t, app, http.MethodGet, "/api/pages", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(data), "about-us")

	resp, data = doRequest(t, app, http.MethodPatch, "/api/pages/"+page.ID, token, map[string]any{"publishStatus": true})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	resp, data = doRequest(t, app, http.MethodGet, "/api/pages/"+page.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "about-us")
}

func TestCategoryEndpoints(t *testing.T) {
	s, app, _ := newTestServer(t, "")
	token := loginAdmin(t, s, app)

	resp, data := doRequest(t, app, http.MethodPost, "/api/categories", token, map[string]any{"name": "Puzzle"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var category models.Category
	require.NoError(t, json.Unmarshal(data, &category))

	resp, _ = doRequest(t, app, http.MethodPatch, "/api/categories/"+category.ID, token, map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = doRequest(t, app, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "Puzzle")

	resp, _ = doRequest(t, app, http.MethodDelete, "/api/categories/"+category.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doRequest(t, app, http.MethodGet, "/api/categories/"+category.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuthEndpoints(t *testing.T) {
	_, app, _ := newTestServer(t, "")
	signupPlayer(t, app, "p3@example.com")

	resp, _ := doRequest(t, app, http.MethodPost, "/api/auth/signup", "",
		service.SignupInput{Email: "p3@example.com", Password: "secret123"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPost, "/api/auth/login", "",
		service.LoginInput{Email: "p3@example.com", Password: "nope-nope1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPost, "/api/auth/login", "",
		service.LoginInput{Email: "p3@example.com", Password: "secret123"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	raw, err := app.Test(req, -1)
	require.NoError(t, err)
	_ = raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestHealthAndRealtime(t *testing.T) {
	_, app, _ := newTestServer(t, "")

	resp, _ := doRequest(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := doRequest(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"redis":"unavailable"`)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/ws/games", "", nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}
