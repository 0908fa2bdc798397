package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Registry tracks at most one live stream per driver. A second connection
// from the same driver replaces and closes the first.
type Registry struct {
	connections map[string]*websocket.Conn
	mu          sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]*websocket.Conn),
	}
}

func (m *Registry) Register(driverID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, exists := m.connections[driverID]; exists && existing != conn {
		existing.Close()
	}
	m.connections[driverID] = conn
}

// Unregister removes conn only if it is still the driver's current stream.
func (m *Registry) Unregister(driverID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, exists := m.connections[driverID]; exists && current == conn {
		delete(m.connections, driverID)
	}
}

func (m *Registry) IsConnected(driverID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.connections[driverID]
	return exists
}

func (m *Registry) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// CloseAll drops every stream. Hijacked connections are not closed by
// http.Server.Shutdown.
func (m *Registry) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, conn := range m.connections {
		conn.Close()
		delete(m.connections, id)
	}
}
