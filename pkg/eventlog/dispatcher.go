package eventlog

import (
	"context"
	"sync"
)

// Handler reacts to a dispatched event. Handlers must be idempotent:
// delivery is at-least-once and a handler may see the same event again
// after a log replay.
type Handler func(ctx context.Context, event Event)

// Dispatcher fans events out to in-process subscribers, synchronously and
// in subscription order. It replaces implicit save-hook reactions with an
// explicit call path.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for the given event type. The empty string
// subscribes to every event.
func (d *Dispatcher) Subscribe(eventType string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], h)
}

func (d *Dispatcher) Dispatch(ctx context.Context, event Event) {
	d.mu.RLock()
	handlers := make([]Handler, 0, len(d.handlers[event.EventType])+len(d.handlers[""]))
	handlers = append(handlers, d.handlers[event.EventType]...)
	handlers = append(handlers, d.handlers[""]...)
	d.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, event)
	}
}
