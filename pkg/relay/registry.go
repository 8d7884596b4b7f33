package relay

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Registry tracks connected client conns so the gateway can broadcast
// service-level notices and close everything on drain. It is the only
// cross-session shared state in the relay.
type Registry struct {
	mu    sync.Mutex
	conns map[ClientConn]struct{}
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[ClientConn]struct{})}
}

func (r *Registry) Register(c ClientConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c] = struct{}{}
}

func (r *Registry) Unregister(c ClientConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, c)
}

// Len reports the number of registered conns.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Broadcast writes frame to every registered conn. Per-conn write errors are
// ignored; a dying conn unregisters itself when its relay tears down.
func (r *Registry) Broadcast(frame any) {
	r.mu.Lock()
	conns := make([]ClientConn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	for _, c := range conns {
		_ = c.WriteJSON(frame)
	}
}

// CloseAll closes every registered conn with a normal closure. Used on
// shutdown drain.
func (r *Registry) CloseAll(reason string) {
	r.mu.Lock()
	conns := make([]ClientConn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.conns = make(map[ClientConn]struct{})
	r.mu.Unlock()

	for _, c := range conns {
		_ = c.Close(websocket.CloseNormalClosure, reason)
	}
}
