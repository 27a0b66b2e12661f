package server

import (
	"sync"

	"github.com/google/uuid"
)

// hub fans payloads out to subscribed clients. Slow clients miss messages
// instead of blocking the publisher.
type hub struct {
	mu      sync.Mutex
	clients map[uuid.UUID]chan []byte
}

func newHub() *hub {
	return &hub{clients: make(map[uuid.UUID]chan []byte)}
}

func (h *hub) subscribe() (uuid.UUID, <-chan []byte) {
	id := uuid.New()
	ch := make(chan []byte, 16)

	h.mu.Lock()
	h.clients[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *hub) unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(ch)
	}
}

// publish offers payload to every client and reports how many took it out
// of how many are subscribed.
func (h *hub) publish(payload []byte) (sent, total int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for _, ch := range h.clients {
		select {
		case ch <- payload:
			sent++
		default:
		}
	}
	return sent, len(h.clients)
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
