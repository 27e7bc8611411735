// Package realtime pushes state-change events to connected users over
// WebSockets. Recipients subscribe by identity, not by connection: every live
// connection a user has (two open tabs, a phone) receives each event
// independently. Delivery is best-effort with no replay; a disconnected user
// re-fetches authoritative state on reconnect.
package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
)

// Event types pushed to clients.
const (
	EventAppointmentUpdated = "appointmentUpdated"
	EventQueueUpdated       = "queueUpdated"
	EventNotification       = "notification"
)

// Event is a single message delivered to a user's connections.
type Event struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// ClientMessage is an inbound message from a WebSocket client. A client must
// send {"action":"join","userId":...} before it receives anything.
type ClientMessage struct {
	Action string `json:"action"`
	UserID string `json:"userId"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a single WebSocket connection.
type Client struct {
	ID     string
	UserID string
	Send   chan []byte
	conn   Conn
}

// Hub is the connection registry. It owns the mapping from user identity to
// live connections; no other component reaches into it. All operations are
// thread-safe via sync.RWMutex.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{} // userID -> set of clients
	all   map[*Client]struct{}
	log   *slog.Logger
}

// NewHub creates a Hub ready to manage connections.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		all:   make(map[*Client]struct{}),
		log:   log,
	}
}

// Register adds a connection to the hub. The client belongs to no user room
// until Join is called.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.all[client] = struct{}{}
}

// Join binds a registered connection to a user's room.
func (h *Hub) Join(client *Client, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.UserID != "" {
		h.leaveLocked(client)
	}
	client.UserID = userID
	if h.rooms[userID] == nil {
		h.rooms[userID] = make(map[*Client]struct{})
	}
	h.rooms[userID][client] = struct{}{}
}

// Unregister removes a connection from the hub and its user room, and closes
// the client's Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	h.leaveLocked(client)
	delete(h.all, client)
	close(client.Send)
}

func (h *Hub) leaveLocked(client *Client) {
	if room, ok := h.rooms[client.UserID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, client.UserID)
		}
	}
}

// Publish sends an event to every live connection of the given user.
// Best-effort: a client whose buffer is full is skipped, and an absent user
// simply misses the event.
func (h *Hub) Publish(userID, eventType string, payload any) {
	data, err := json.Marshal(Event{
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now(),
		Data:      payload,
	})
	if err != nil {
		h.log.Error("realtime: marshal event failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[userID] {
		select {
		case client.Send <- data:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

// ConnectionCount returns the total number of connected clients.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// RoomSize returns the number of live connections a user has.
func (h *Hub) RoomSize(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced at the router level.
	},
}

// HandleConnect upgrades an HTTP connection to WebSocket, registers the
// client with the hub, and starts read/write pumps.
func (h *Hub) HandleConnect(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("realtime: upgrade failed", "error", err)
		return
	}

	client := &Client{
		ID:   uuid.New().String(),
		Send: make(chan []byte, 256),
		conn: &gorillaConnAdapter{ws},
	}
	h.Register(client)

	go h.writePump(client)
	go h.readPump(client)
}

// readPump reads messages from the connection and processes join requests.
func (h *Hub) readPump(client *Client) {
	defer func() {
		h.Unregister(client)
		client.conn.Close()
	}()

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue // Ignore malformed messages.
		}
		if msg.Action == "join" && msg.UserID != "" {
			h.Join(client, msg.UserID)
		}
	}
}

// writePump writes messages from the Send channel to the connection.
func (h *Hub) writePump(client *Client) {
	defer client.conn.Close()

	for message := range client.Send {
		if err := client.conn.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}

// gorillaConnAdapter wraps a gorilla/websocket.Conn to satisfy the Conn interface.
type gorillaConnAdapter struct {
	conn *gorillawebsocket.Conn
}

func (a *gorillaConnAdapter) ReadMessage() (int, []byte, error) {
	return a.conn.ReadMessage()
}

func (a *gorillaConnAdapter) WriteMessage(messageType int, data []byte) error {
	return a.conn.WriteMessage(messageType, data)
}

func (a *gorillaConnAdapter) Close() error {
	return a.conn.Close()
}
