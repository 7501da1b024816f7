// Package events carries cart notifications from the stores to whoever listens: the HTTP layer
// surfaces them as toasts and the Kafka publisher forwards them downstream.
package events

import (
	"sync"
	"time"
)

type Type string

const (
	ItemAdded   Type = "item_added"
	ItemUpdated Type = "item_updated"
	ItemRemoved Type = "item_removed"
	CartCleared Type = "cart_cleared"
)

// Level is the presentation hint of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
)

type Event struct {
	Type      Type      `json:"type"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Session   string    `json:"session,omitempty"`
	LineID    string    `json:"lineId,omitempty"`
	ProductID int64     `json:"productId,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	At        time.Time `json:"at"`
}

type Handler func(Event)

// Bus fans events out to its subscribers. Handlers run synchronously on the publishing
// goroutine, outside the bus lock.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

// Subscribe registers h and returns the func that removes it.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
