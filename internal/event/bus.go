package event

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

type InMemoryBus struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	bufferSize  int
}

func NewBus() *InMemoryBus {
	return &InMemoryBus{
		subscribers: make(map[string]chan Event),
		bufferSize:  256,
	}
}

func (b *InMemoryBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		// Non-blocking send so a slow subscriber never stalls a request.
		select {
		case ch <- e:
		default:
			slog.Warn("event dropped: subscriber buffer full", "subscriber", id, "event_type", e.Type, "event_id", e.ID)
		}
	}
}

func (b *InMemoryBus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Event, b.bufferSize)
	b.subscribers[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if ch, exists := b.subscribers[id]; exists {
				close(ch)
				delete(b.subscribers, id)
			}
		})
	}

	return ch, unsubscribe
}
