package devtools

import "sync"

// subscriberBuffer is the per-client event buffer. A client that cannot
// keep up loses events rather than stalling the engine goroutine.
const subscriberBuffer = 256

// hub fans engine events out to connected inspector clients.
type hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}

	// dropped counts events lost to slow subscribers.
	dropped uint64
}

func newHub() *hub {
	return &hub{
		subs: make(map[chan Event]struct{}),
	}
}

// subscribe registers a client and returns its channel plus a cancel
// function. Cancel is idempotent and closes the channel.
func (h *hub) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// broadcast delivers an event to every subscriber without blocking.
func (h *hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.dropped++
		}
	}
}

// subscriberCount reports the number of connected clients.
func (h *hub) subscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
