package weather

import "sync"

// subscriberBuffer bounds how far a subscriber may lag behind the publisher
// before its oldest pending states are dropped.
const subscriberBuffer = 8

// StateHolder is a single-slot, last-write-wins publisher of FetchState
// values with fan-out to any number of subscribers.
type StateHolder struct {
	mu      sync.RWMutex
	current FetchState
	subs    map[int]chan FetchState
	nextID  int
	closed  bool
}

// NewStateHolder creates an empty (idle) holder.
func NewStateHolder() *StateHolder {
	return &StateHolder{subs: make(map[int]chan FetchState)}
}

// State returns the latest published value, or nil if nothing was published.
func (h *StateHolder) State() FetchState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Publish replaces the slot and delivers s to every subscriber. Publishing
// to a closed holder is a no-op. Subscribers that are not keeping up lose
// their oldest pending values, never the newest.
func (h *StateHolder) Publish(s FetchState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.current = s
	for _, ch := range h.subs {
		deliver(ch, s)
	}
}

func deliver(ch chan FetchState, s FetchState) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Subscribe returns a channel receiving the current state (when not idle)
// followed by every later publication, and a function that unsubscribes.
// The channel is closed on unsubscribe or when the holder is closed.
func (h *StateHolder) Subscribe() (<-chan FetchState, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan FetchState, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	if h.current != nil {
		ch <- h.current
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
}

// Close stops all future publications and closes every subscriber channel.
func (h *StateHolder) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
