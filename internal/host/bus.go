package host

import (
	"slices"
	"sync"
)

// Bus is an in-memory EventBus
type Bus struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[Event]map[int]Listener
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{listeners: make(map[Event]map[int]Listener)}
}

// Subscribe registers l for event
func (b *Bus) Subscribe(event Event, l Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.listeners[event] == nil {
		b.listeners[event] = make(map[int]Listener)
	}
	id := b.nextID
	b.nextID++
	b.listeners[event][id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.listeners[event], id)
		})
	}
}

// Publish delivers payload to every listener of event, in registration order
func (b *Bus) Publish(event Event, payload any) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.listeners[event]))
	for id := range b.listeners[event] {
		ids = append(ids, id)
	}
	snapshot := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		snapshot = append(snapshot, b.listeners[event][id])
	}
	b.mu.RUnlock()

	for _, l := range snapshot {
		l(payload)
	}
}

// Count returns the number of listeners registered for event
func (b *Bus) Count(event Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[event])
}
