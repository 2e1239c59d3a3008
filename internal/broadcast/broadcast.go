// Package broadcast pushes best-effort messages to narrator-facing
// subscribers. Delivery is fire-and-forget: a client that misses a message
// recovers by re-querying the pending lists, not by replay.
package broadcast

import (
	"context"
	"sync"
)

// Message is one narrator-facing push.
type Message struct {
	Topic   string
	Payload any
}

// Broadcaster is the outbound push boundary.
type Broadcaster interface {
	Broadcast(ctx context.Context, gameID string, msg Message) error
}

var _ Broadcaster = (*Hub)(nil)

// Hub fans messages out to in-process subscribers per game. Sends never
// block: a subscriber with a full buffer misses the message.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Message]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Message]struct{})}
}

// Subscribe registers a buffered channel for a game's messages and returns
// it with a cancel func. Cancel is idempotent and closes the channel.
func (h *Hub) Subscribe(gameID string, buffer int) (<-chan Message, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Message, buffer)

	h.mu.Lock()
	if h.subs[gameID] == nil {
		h.subs[gameID] = make(map[chan Message]struct{})
	}
	h.subs[gameID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[gameID], ch)
			if len(h.subs[gameID]) == 0 {
				delete(h.subs, gameID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (h *Hub) Broadcast(ctx context.Context, gameID string, msg Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[gameID] {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}
