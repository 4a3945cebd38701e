package outbox

import (
	"context"
	"sync"

	"sirenops/internal/outbox/dedupe"
)

// Handler processes a delivered event. Returning an error nacks the event;
// the dispatcher will redeliver it with backoff. Delivery is at-least-once,
// so handlers must be idempotent. Wrap side-effecting handlers with
// Deduplicated when replays would be visible downstream.
type Handler interface {
	Handle(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event *Event) error

func (f HandlerFunc) Handle(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// wildcard subscribes a handler to every event type.
const wildcard = "*"

// Registry maps event types to subscribed handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for the given event types. An empty slice
// subscribes to all types.
func (r *Registry) Subscribe(eventTypes []string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(eventTypes) == 0 {
		r.handlers[wildcard] = append(r.handlers[wildcard], handler)
		return
	}
	for _, t := range eventTypes {
		r.handlers[t] = append(r.handlers[t], handler)
	}
}

// Deduplicated wraps a handler so replayed events are acked without
// reaching it. The id is marked only after the handler succeeds, so a
// failure leaves the event eligible for redelivery. A dedupe store error
// on the read path nacks the event rather than risking a duplicate side
// effect; a Mark failure is acked since the work is already done.
func Deduplicated(deduper dedupe.Deduper, next Handler) Handler {
	return HandlerFunc(func(ctx context.Context, event *Event) error {
		seen, err := deduper.Seen(ctx, event.ID)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
		if err := next.Handle(ctx, event); err != nil {
			return err
		}
		_ = deduper.Mark(ctx, event.ID)
		return nil
	})
}

// HandlersFor returns the handlers subscribed to an event type.
func (r *Registry) HandlersFor(eventType string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Handler, 0, len(r.handlers[eventType])+len(r.handlers[wildcard]))
	out = append(out, r.handlers[eventType]...)
	out = append(out, r.handlers[wildcard]...)
	return out
}
