// Package realtime serves interviews over a WebSocket channel.
package realtime

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Registry tracks open interview connections per candidate.
type Registry struct {
	mu     sync.RWMutex
	active map[string]map[string]*websocket.Conn
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		active: make(map[string]map[string]*websocket.Conn),
	}
}

// Register adds a connection for username under connID.
func (m *Registry) Register(username, connID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[username]; !exists {
		m.active[username] = make(map[string]*websocket.Conn)
	}
	m.active[username][connID] = conn
	slog.Debug("Interview channel registered", "username", username, "conn_id", connID)
}

// Unregister removes a connection if it is still the one registered.
func (m *Registry) Unregister(username, connID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conns, ok := m.active[username]
	if !ok {
		return
	}
	if current, exists := conns[connID]; exists && current == conn {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(m.active, username)
		}
		slog.Debug("Interview channel unregistered", "username", username, "conn_id", connID)
	}
}

// Count returns the number of open connections for username.
func (m *Registry) Count(username string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active[username])
}

// CloseAll closes every open connection. Used on shutdown.
func (m *Registry) CloseAll(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for username, conns := range m.active {
		for _, conn := range conns {
			_ = conn.Close(websocket.StatusGoingAway, reason)
		}
		delete(m.active, username)
	}
}
