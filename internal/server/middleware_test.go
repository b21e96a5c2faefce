package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"playhub/internal/auth"
	"playhub/internal/config"
	"playhub/internal/featureflags"
	"playhub/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header   string
		expected string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", ""},
		{"BearerTokenOnly", ""},
		{"Bearer a b", ""},
		{"Basic dXNlcjpwYXNz", ""},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return c.SendString(bearerToken(c))
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			body := make([]byte, 64)
			n, _ := resp.Body.Read(body)
			assert.Equal(t, tt.expected, string(body[:n]))
		})
	}
}

func TestServer_PlayerRequired(t *testing.T) {
	secret := "test-secret-key-12345678901234567890123456789012"
	issuer, err := auth.NewTokenIssuer(secret)
	require.NoError(t, err)

	playerToken, _, err := issuer.Issue("player-1", auth.AudienceClient, auth.RolePlayer, time.Hour)
	require.NoError(t, err)
	adminToken, _, err := issuer.Issue("admin-1", auth.AudienceAdmin, auth.RoleAdmin, time.Hour)
	require.NoError(t, err)
	expiredToken, _, err := issuer.Issue("player-1", auth.AudienceClient, auth.RolePlayer, -time.Hour)
	require.NoError(t, err)

	newApp := func(flags string) *fiber.App {
		s := &Server{
			config:       &config.Config{JWTSecret: secret},
			userService:  service.NewUserService(nil, issuer, time.Hour),
			featureFlags: featureflags.NewManager(flags),
		}
		app := fiber.New()
		app.Get("/protected", s.OptionalAuth(), s.PlayerRequired(), func(c *fiber.Ctx) error {
			userID, _ := currentUserID(c)
			return c.JSON(fiber.Map{"userID": userID})
		})
		return app
	}

	tests := []struct {
		name           string
		flags          string
		authHeader     string
		query          string
		expectedStatus int
		expectedUser   string
	}{
		{
			name:           "Valid Player Token",
			authHeader:     "Bearer " + playerToken,
			expectedStatus: http.StatusOK,
			expectedUser:   "player-1",
		},
		{
			name:           "Token Wins Over Query",
			flags:          "reaction_query_user_id=on",
			authHeader:     "Bearer " + playerToken,
			query:          "?userId=someone-else",
			expectedStatus: http.StatusOK,
			expectedUser:   "player-1",
		},
		{
			name:           "Admin Token Is Not A Player",
			authHeader:     "Bearer " + adminToken,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Expired Token",
			authHeader:     "Bearer " + expiredToken,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Query User Without Flag",
			query:          "?userId=legacy-1",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Query User With Flag",
			flags:          "reaction_query_user_id=on",
			query:          "?userId=legacy-1",
			expectedStatus: http.StatusOK,
			expectedUser:   "legacy-1",
		},
		{
			name:           "Blank Query User",
			flags:          "reaction_query_user_id=on",
			query:          "?userId=%20",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Missing Identity",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected"+tt.query, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := newApp(tt.flags).Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedUser, body["userID"])
			}
		})
	}
}
