package wsgateway

import (
	"sort"
	"sync"
)

// ConnectionRegistry tracks the active connections
type ConnectionRegistry struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	perUser     map[string]int
}

// NewConnectionRegistry creates a new connection registry
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		connections: make(map[string]*Connection),
		perUser:     make(map[string]int),
	}
}

// Add adds a connection to the registry
func (r *ConnectionRegistry) Add(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connections[conn.ID]; exists {
		return
	}
	r.connections[conn.ID] = conn
	r.perUser[conn.UserID]++
}

// Remove removes a connection and reports whether it was present
func (r *ConnectionRegistry) Remove(connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, exists := r.connections[connectionID]
	if !exists {
		return false
	}
	delete(r.connections, connectionID)

	if r.perUser[conn.UserID] <= 1 {
		delete(r.perUser, conn.UserID)
	} else {
		r.perUser[conn.UserID]--
	}
	return true
}

// Get retrieves a connection by ID
func (r *ConnectionRegistry) Get(connectionID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, exists := r.connections[connectionID]
	return conn, exists
}

// Snapshot returns the active connections ordered by creation time
func (r *ConnectionRegistry) Snapshot() []*Connection {
	r.mu.RLock()
	connections := make([]*Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		connections = append(connections, conn)
	}
	r.mu.RUnlock()

	sort.Slice(connections, func(i, j int) bool {
		return connections[i].createdAt.Before(connections[j].createdAt)
	})
	return connections
}

// Count returns the total number of connections
func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

// CountByUser returns the number of connections for a user
func (r *ConnectionRegistry) CountByUser(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.perUser[userID]
}
