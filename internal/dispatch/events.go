package dispatch

import "sync"

// Hub fans dispatcher events out to websocket subscribers. Publishing
// never blocks; a slow subscriber misses events rather than stalling
// command processing.
type Hub struct {
	mu        sync.Mutex
	nextSubID int
	subs      map[int]chan any
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan any)}
}

func (h *Hub) Subscribe() (<-chan any, func()) {
	ch := make(chan any, 256)
	h.mu.Lock()
	h.nextSubID++
	id := h.nextSubID
	h.subs[id] = ch
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
}

func (h *Hub) Publish(evt any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
