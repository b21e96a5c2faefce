package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"playhub/internal/middleware"
	"playhub/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const maxTotalConns = 10000

// ErrHubClosed is returned by Register after Shutdown.
var ErrHubClosed = errors.New("game event hub is shut down")

// GameHub fans game events out to every connected websocket client.
type GameHub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

// NewGameHub creates an empty hub.
func NewGameHub() *GameHub {
	return &GameHub{clients: make(map[*Client]struct{})}
}

// Name returns a human-readable identifier for this hub.
func (h *GameHub) Name() string { return "game events" }

// Register adds a connection. userID may be empty for anonymous viewers.
func (h *GameHub) Register(userID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if len(h.clients) >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.clients[client] = struct{}{}
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// UnregisterClient removes the client and closes its send channel.
func (h *GameHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	observability.WebSocketConnectionsTotal.Dec()
}

// Count returns the number of connected clients.
func (h *GameHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast delivers an event payload to every client watching its game.
func (h *GameHub) Broadcast(gameID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.Wants(gameID) {
			c.TrySend(payload)
		}
	}
}

// StartWiring forwards every event received by the notifier to connected clients.
func (h *GameHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartGameEventSubscriber(ctx, func(payload string) {
		event, err := decodeGameEvent(payload)
		if err != nil || event.GameID == "" {
			middleware.Logger.Warn("dropping malformed game event", slog.String("payload", payload))
			return
		}
		h.Broadcast(event.GameID, []byte(payload))
	})
}

// Shutdown detaches every client. Closing a client's send channel makes its
// WritePump send a close frame and drop the connection.
func (h *GameHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	for client := range h.clients {
		delete(h.clients, client)
		close(client.Send)
		observability.WebSocketConnectionsTotal.Dec()
	}
	return nil
}
