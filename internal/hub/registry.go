package hub

import "sync"

// SessionRegistry maps a user to its single live connection.
type SessionRegistry struct {
	conns map[string]Connection
	mu    sync.RWMutex
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{conns: make(map[string]Connection)}
}

// Register installs conn for userID and returns the connection it displaced,
// if any. The caller owns closing the displaced connection.
func (r *SessionRegistry) Register(userID string, conn Connection) Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.conns[userID]
	r.conns[userID] = conn
	if prev == conn {
		return nil
	}
	return prev
}

func (r *SessionRegistry) Lookup(userID string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}

// Unregister removes the mapping only while it still points at conn, so a
// displaced connection closing late cannot evict its replacement.
func (r *SessionRegistry) Unregister(userID string, conn Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.conns[userID]; !ok || cur != conn {
		return false
	}
	delete(r.conns, userID)
	return true
}

func (r *SessionRegistry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}

func (r *SessionRegistry) IsCurrent(userID string, conn Connection) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conns[userID] == conn
}

func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Snapshot returns every registered connection.
func (r *SessionRegistry) Snapshot() []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Connection, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}
