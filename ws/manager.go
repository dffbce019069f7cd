package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var ErrNotConnected = errors.New("user not connected")

// Client is one live websocket connection of a user.
type Client struct {
	UserID string

	conn *websocket.Conn
	mu   sync.Mutex
}

// Write sends a text frame. gorilla connections allow one writer at a time.
func (c *Client) Write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Ping sends a ping control frame.
func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Manager keeps track of active websocket connections per user.
type Manager struct {
	mu          sync.RWMutex
	connections map[string]map[*Client]struct{} // userID -> clients
}

func NewManager() *Manager {
	return &Manager{connections: make(map[string]map[*Client]struct{})}
}

// Register adds a connection for the user. A user may hold several.
func (m *Manager) Register(userID string, conn *websocket.Conn) *Client {
	client := &Client{UserID: userID, conn: conn}

	m.mu.Lock()
	defer m.mu.Unlock()
	clients, ok := m.connections[userID]
	if !ok {
		clients = make(map[*Client]struct{})
		m.connections[userID] = clients
	}
	clients[client] = struct{}{}
	return client
}

// Unregister removes and closes one connection.
func (m *Manager) Unregister(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clients, ok := m.connections[client.UserID]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		_ = client.conn.Close()
		delete(clients, client)
	}
	if len(clients) == 0 {
		delete(m.connections, client.UserID)
	}
}

// SendToUser writes payload to every connection of the user and returns how
// many writes succeeded.
func (m *Manager) SendToUser(userID string, payload []byte) (int, error) {
	m.mu.RLock()
	targets := make([]*Client, 0, len(m.connections[userID]))
	for c := range m.connections[userID] {
		targets = append(targets, c)
	}
	m.mu.RUnlock()

	if len(targets) == 0 {
		return 0, ErrNotConnected
	}

	sent := 0
	var errs []error
	for _, c := range targets {
		if err := c.Write(payload); err != nil {
			errs = append(errs, err)
			m.Unregister(c)
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

// IsConnected returns whether a user has at least one live connection.
func (m *Manager) IsConnected(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections[userID]) > 0
}

// List returns a copy of currently connected user IDs.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.connections))
	for id := range m.connections {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of open connections.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, clients := range m.connections {
		n += len(clients)
	}
	return n
}

// CloseAll sends a close frame to every connection and forgets them.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, clients := range m.connections {
		for c := range clients {
			c.mu.Lock()
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			c.mu.Unlock()
			_ = c.conn.Close()
		}
	}
	m.connections = make(map[string]map[*Client]struct{})
}
