package bus

import (
	"context"
	"sync"
	"time"
)

const defaultBufferSize = 100

// EventBus fans run lifecycle events out to subscribers. Publishing never
// blocks the pipeline: events for slow subscribers are dropped.
type EventBus struct {
	subscribers      map[uint64]chan Event
	nextSubscriberID uint64

	done      chan struct{}
	closeOnce sync.Once

	mu sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[uint64]chan Event),
		done:        make(chan struct{}),
	}
}

// Publish delivers an event to all current subscribers. It reports false when
// the bus is closed or the context is done.
func (eb *EventBus) Publish(ctx context.Context, event Event) bool {
	if ctx == nil {
		ctx = context.Background()
	}

	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return false
	default:
	}

	// Sends stay under the read lock: unsubscribe and Close close subscriber
	// channels under the write lock, so a send can never race a close. The
	// sends are non-blocking, so holding the lock here is cheap.
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	select {
	case <-eb.done:
		return false
	default:
	}

	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Drop instead of blocking the publisher on slow subscribers.
		}
	}

	return true
}

// Subscribe registers a buffered event channel. The returned function
// unsubscribes and closes the channel; it is safe to call more than once.
func (eb *EventBus) Subscribe(ctx context.Context, buffer int) (<-chan Event, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	if buffer <= 0 {
		buffer = defaultBufferSize
	}

	ch := make(chan Event, buffer)

	eb.mu.Lock()
	select {
	case <-eb.done:
		eb.mu.Unlock()
		close(ch)
		return ch, func() {}
	default:
	}

	id := eb.nextSubscriberID
	eb.nextSubscriberID++
	eb.subscribers[id] = ch
	eb.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			eb.mu.Lock()
			if eventCh, ok := eb.subscribers[id]; ok {
				delete(eb.subscribers, id)
				close(eventCh)
			}
			eb.mu.Unlock()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-eb.done:
			unsubscribe()
		}
	}()

	return ch, unsubscribe
}

func (eb *EventBus) Close() {
	eb.closeOnce.Do(func() {
		close(eb.done)

		eb.mu.Lock()
		for id, ch := range eb.subscribers {
			close(ch)
			delete(eb.subscribers, id)
		}
		eb.mu.Unlock()
	})
}
