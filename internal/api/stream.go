package api

import (
	"sync"

	"github.com/gorilla/websocket"
)

// ConnectionManager tracks WebSocket subscribers to the live audit feed.
// Connections are keyed by user ID; one live connection per user.
type ConnectionManager struct {
	connections map[string]*websocket.Conn
	mu          sync.RWMutex
}

// NewConnectionManager creates an empty ConnectionManager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*websocket.Conn),
	}
}

// Add registers a connection for a user, replacing any previous one.
func (m *ConnectionManager) Add(userID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.connections[userID]; ok {
		old.Close()
	}
	m.connections[userID] = conn
}

// Remove closes and forgets the connection for a user.
func (m *ConnectionManager) Remove(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conn, ok := m.connections[userID]; ok {
		conn.Close()
		delete(m.connections, userID)
	}
}

// Broadcast pushes a message to every subscriber. Write failures drop the
// connection; the client is expected to reconnect.
func (m *ConnectionManager) Broadcast(message []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, conn := range m.connections {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			conn.Close()
			delete(m.connections, userID)
		}
	}
}
