package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Registry owns the mapping from user id to live connection. One user
// has at most one slot; a second connection for the same user replaces
// the first (last writer wins) and the superseded handle is closed so
// its client sees a clean close instead of a dead socket.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]Conn
	log   *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		conns: make(map[uuid.UUID]Conn),
		log:   log,
	}
}

// Register stores the active connection for a user, silently
// superseding any previous one.
func (r *Registry) Register(userID uuid.UUID, conn Conn) {
	r.mu.Lock()
	prev := r.conns[userID]
	r.conns[userID] = conn
	r.mu.Unlock()

	if prev != nil && prev != conn {
		prev.Close()
		r.log.Info("connection superseded", "user_id", userID)
	}
}

// Unregister removes the user's slot if present; no-op otherwise.
func (r *Registry) Unregister(userID uuid.UUID) {
	r.mu.Lock()
	delete(r.conns, userID)
	r.mu.Unlock()
}

// Release removes the slot only if it still holds conn. Sessions use
// this at teardown so a superseded session cannot evict the connection
// that replaced it.
func (r *Registry) Release(userID uuid.UUID, conn Conn) {
	r.mu.Lock()
	if r.conns[userID] == conn {
		delete(r.conns, userID)
	}
	r.mu.Unlock()
}

// SendToUser delivers an event to the user's connection if one exists.
// Delivery failures are swallowed: the caller is usually fanning out to
// many recipients and one bad peer must not abort the rest.
func (r *Registry) SendToUser(userID uuid.UUID, event ServerEvent) {
	r.mu.RLock()
	conn := r.conns[userID]
	r.mu.RUnlock()

	if conn == nil {
		return
	}
	if err := conn.Send(event); err != nil {
		r.log.Debug("delivery failed", "user_id", userID, "event", event.Event, "error", err)
	}
}

func (r *Registry) IsConnected(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}

// Count reports the number of live connections, for the health surface.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
