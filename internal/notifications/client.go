package notifications

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"playhub/internal/middleware"
	"playhub/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBufferSize = 64
)

// WSHub is implemented by hubs that own clients.
type WSHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	Hub WSHub

	// The websocket connection. Nil in tests.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	// UserID is the verified player id, empty for anonymous viewers.
	UserID string

	mu      sync.RWMutex
	gameIDs map[string]struct{}
}

// NewClient creates a new Client instance
func NewClient(hub WSHub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBufferSize),
	}
}

// Watch restricts delivery to the given games. An empty list means every game.
func (c *Client) Watch(gameIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(gameIDs) == 0 {
		c.gameIDs = nil
		return
	}
	c.gameIDs = make(map[string]struct{}, len(gameIDs))
	for _, id := range gameIDs {
		c.gameIDs[id] = struct{}{}
	}
}

// Wants reports whether the client should receive events about gameID.
func (c *Client) Wants(gameID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.gameIDs == nil {
		return true
	}
	_, ok := c.gameIDs[gameID]
	return ok
}

type clientCommand struct {
	Type    string   `json:"type"`
	GameIDs []string `json:"game_ids"`
}

// handleCommand applies a message sent by the peer. Only "watch" is understood.
func (c *Client) handleCommand(message []byte) {
	var cmd clientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		return
	}
	if cmd.Type == "watch" {
		c.Watch(cmd.GameIDs)
	}
}

// ReadPump pumps messages from the websocket connection to the client.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { _ = c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				middleware.Logger.Warn("websocket read error", slog.String("hub", c.Hub.Name()), slog.String("error", err.Error()))
			}
			break
		}
		c.handleCommand(message)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues a message without blocking. Slow clients lose messages instead of
// stalling the hub; the drop is counted.
func (c *Client) TrySend(message []byte) {
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "closed").Inc()
		}
	}()

	select {
	case c.Send <- message:
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "full").Inc()
	}
}
