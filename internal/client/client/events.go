package client

import (
	"sync"

	"github.com/suraj-driod/swa-antarang/internal/models"
)

// hub fans auth events out to subscribers. Handlers run on the emitting
// goroutine without the lock held and must not block.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]func(models.AuthEvent)
}

func newHub() *hub {
	return &hub{subs: make(map[int]func(models.AuthEvent))}
}

func (h *hub) subscribe(fn func(models.AuthEvent)) func() {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

func (h *hub) emit(ev models.AuthEvent) {
	h.mu.Lock()
	fns := make([]func(models.AuthEvent), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
