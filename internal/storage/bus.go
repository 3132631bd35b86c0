package storage

import "sync"

type EventKind string

const (
	EventPut    EventKind = "put"
	EventDelete EventKind = "delete"
)

// Event describes one committed entity change. Value holds a copy of the
// stored entity for puts and is nil for deletes.
type Event struct {
	Collection string
	Kind       EventKind
	ID         string
	Value      any
}

type Handler func(Event)

type subscription struct {
	collection string
	fn         Handler
}

// Bus fans committed changes out to subscribers. Handlers run on the
// committing goroutine after the write lock is released, so they may call
// back into the store but should hand slow work to a goroutine.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]subscription)}
}

// Subscribe registers fn for one collection, or for every collection when
// collection is empty. The returned func removes the subscription and is
// safe to call more than once.
func (b *Bus) Subscribe(collection string, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = subscription{collection: collection, fn: fn}
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
	for id := 0; id < b.next; id++ {
		s, ok := b.subs[id]
		if !ok {
			continue
		}
		if s.collection == "" || s.collection == e.Collection {
			handlers = append(handlers, s.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(e)
	}
}
