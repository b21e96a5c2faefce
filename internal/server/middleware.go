package server

import (
	"context"
	"strings"

	"playhub/internal/featureflags"
	"playhub/internal/middleware"
	"playhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// setIdentity stores the caller in locals and syncs it to the user context for logging.
func setIdentity(c *fiber.Ctx, key, id string) {
	c.Locals(key, id)
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, id)
	c.SetUserContext(ctx)
}

// OptionalAuth sets userID from a valid player token. Missing or invalid tokens are ignored.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := bearerToken(c); token != "" {
			if userID, err := s.userService.Authenticate(token); err == nil {
				setIdentity(c, "userID", userID)
			}
		}
		return c.Next()
	}
}

// PlayerRequired rejects requests without a player identity. Must follow OptionalAuth.
// Legacy clients may pass ?userId= while the reaction_query_user_id flag is on.
func (s *Server) PlayerRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := currentUserID(c); ok {
			return c.Next()
		}
		if userID, ok := s.legacyUserID(c); ok {
			setIdentity(c, "userID", userID)
			return c.Next()
		}
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}
}

// AdminRequired verifies an admin token and that it is still the admin's active session.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		adminID, err := s.adminService.Authenticate(c.UserContext(), token)
		if err != nil {
			return s.respondError(c, err)
		}

		setIdentity(c, "adminID", adminID)
		return c.Next()
	}
}

func currentUserID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals("userID").(string)
	return userID, ok && userID != ""
}

func (s *Server) legacyUserID(c *fiber.Ctx) (string, bool) {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" || !s.featureFlags.Enabled(featureflags.ReactionQueryUserID, userID) {
		return "", false
	}
	return userID, true
}
