package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"rstays/internal/app/policies"
)

// Registry tracks live notification sockets per user. Handlers push through
// policies.ConnectionRegistry and never see the connections.
type Registry struct {
	mu    sync.Mutex
	conns map[string][]*websocket.Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string][]*websocket.Conn)}
}

// Attach registers a connection and blocks reading it until the peer goes
// away, then cleans up.
func (r *Registry) Attach(userID string, conn *websocket.Conn) {
	r.mu.Lock()
	r.conns[userID] = append(r.conns[userID], conn)
	r.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	r.detach(userID, conn)
	_ = conn.Close()
}

func (r *Registry) detach(userID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.conns[userID][:0]
	for _, c := range r.conns[userID] {
		if c != conn {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(r.conns, userID)
		return
	}
	r.conns[userID] = kept
}

// Notify sends an event envelope to every live connection of the user.
// Dead connections are dropped; a user with no connections is not an error.
func (r *Registry) Notify(ctx context.Context, userID string, event string, payload any) error {
	msg, err := json.Marshal(map[string]any{"event": event, "payload": payload})
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.conns[userID][:0]
	for _, conn := range r.conns[userID] {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			_ = conn.Close()
			continue
		}
		kept = append(kept, conn)
	}
	if len(kept) == 0 {
		delete(r.conns, userID)
		return nil
	}
	r.conns[userID] = kept
	return nil
}

func (r *Registry) Connected(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns[userID]) > 0
}

var _ policies.ConnectionRegistry = (*Registry)(nil)
