// Package hub fans events out to in-process subscribers (the websocket
// dashboard handler, tests, and anything else that wants the broadcast
// surface). It is deliberately independent of net/http and gorilla/websocket;
// subscribers register a buffered channel and read from it.
package hub

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Hub manages subscriber channels. Per-client sends are non-blocking: a slow
// client drops messages instead of stalling the broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]chan Event
}

func New() *Hub {
	return &Hub{clients: make(map[string]chan Event)}
}

// Register adds a subscriber under id. The channel should be buffered.
func (h *Hub) Register(id string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[id] = ch
}

// Unregister removes and closes the subscriber's channel.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[id]; ok {
		close(ch)
		delete(h.clients, id)
	}
}

// Broadcast delivers ev to every subscriber, skipping any with a full buffer.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.clients {
		select {
		case ch <- ev:
		default:
			log.Debugf("hub: client %s buffer full, dropping %s", id, ev.Type)
		}
	}
}

// ClientCount reports connected subscribers. The reboot scheduler refuses to
// reboot while an operator is watching the dashboard.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close shuts down every subscriber channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.clients {
		close(ch)
		delete(h.clients, id)
	}
}
