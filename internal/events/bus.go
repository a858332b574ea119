package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCapacity is the buffer size used when NewBus gets a non-positive capacity
const DefaultCapacity = 256

// Handler receives events from the bus. Handlers run on the bus's
// dispatch goroutine, one event at a time, in emit order.
type Handler func(Event)

// Bus provides asynchronous event distribution across components
type Bus struct {
	Capacity int

	mu       sync.RWMutex
	handlers []Handler
	events   chan Event
	closed   bool
	done     chan struct{}
	dropped  atomic.Int64
}

// NewBus creates a new event bus with the specified capacity and starts
// its dispatch loop
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	b := &Bus{
		Capacity: capacity,
		events:   make(chan Event, capacity),
		done:     make(chan struct{}),
	}
	go b.dispatch()
	return b
}

// Subscribe registers h for every subsequently dispatched event
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

// Emit queues e for dispatch without blocking. The event time is set if
// zero. Returns false if the event was dropped because the buffer is full
// or the bus is closed.
func (b *Bus) Emit(e Event) bool {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return false
	}
	select {
	case b.events <- e:
		return true
	default:
		b.dropped.Add(1)
		return false
	}
}

// Dropped returns how many events were discarded because the buffer was full
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Close stops accepting events, dispatches what is already queued and
// waits for the dispatch loop to exit
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.done
		return nil
	}
	b.closed = true
	close(b.events)
	b.mu.Unlock()

	<-b.done
	return nil
}

func (b *Bus) dispatch() {
	defer close(b.done)
	for e := range b.events {
		b.mu.RLock()
		handlers := b.handlers
		b.mu.RUnlock()

		for _, h := range handlers {
			h(e)
		}
	}
}
