package server

import (
	"log/slog"
	"strings"

	"playhub/internal/middleware"
	"playhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketGamesHandler streams live game events (reaction tallies and play counts).
// Anonymous viewers are allowed. ?games=id1,id2 narrows the feed, and so does a
// {"type":"watch","game_ids":[...]} message sent later.
func (s *Server) WebSocketGamesHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("userID").(string)

		client, err := s.gameHub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("rejecting game events websocket", slog.String("error", err.Error()))
			_ = conn.Close()
			return
		}
		if games := splitIDs(conn.Query("games")); len(games) > 0 {
			client.Watch(games)
		}

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return models.RespondWithError(c, fiber.StatusUpgradeRequired,
				models.NewValidationError("WebSocket upgrade required"))
		}
		return upgrade(c)
	}
}

func splitIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
