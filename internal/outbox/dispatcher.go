package outbox

import (
	"context"
	"log/slog"
	"time"

	"sirenops/internal/platform/metrics"
)

// Dispatcher is the background delivery loop. It polls the store for
// undelivered events and hands them to subscribers, marking an event
// delivered only after every subscriber acknowledged it.
//
// Guarantees:
//   - at-least-once: a crash between handler success and MarkDelivered
//     results in redelivery, never loss
//   - per-resource ordering: events for one resource id are delivered in
//     enqueue order; a failing or not-yet-due event holds back everything
//     newer for the same resource, and nothing else
type Dispatcher struct {
	store    Store
	registry *Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics

	pollInterval time.Duration
	batchSize    int
	maxBackoff   time.Duration
	now          func() time.Time
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithPollInterval overrides how often the store is polled.
func WithPollInterval(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) { dp.pollInterval = d }
}

// WithBatchSize overrides how many pending events one pass considers.
func WithBatchSize(n int) DispatcherOption {
	return func(dp *Dispatcher) { dp.batchSize = n }
}

// WithMaxBackoff caps the retry backoff.
func WithMaxBackoff(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) { dp.maxBackoff = d }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(dp *Dispatcher) { dp.metrics = m }
}

// WithClock overrides the dispatcher clock for tests.
func WithClock(now func() time.Time) DispatcherOption {
	return func(dp *Dispatcher) { dp.now = now }
}

func NewDispatcher(store Store, registry *Registry, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:        store,
		registry:     registry,
		logger:       logger,
		pollInterval: time.Second,
		batchSize:    100,
		maxBackoff:   time.Minute,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run polls until the context is canceled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := d.Dispatch(ctx); err != nil {
				d.logger.ErrorContext(ctx, "outbox dispatch pass failed", "error", err)
			}
		}
	}
}

// Dispatch performs one delivery pass over pending events. Exported so
// tests can drive the loop deterministically.
func (d *Dispatcher) Dispatch(ctx context.Context) error {
	events, err := d.store.ListPending(ctx, d.batchSize)
	if err != nil {
		return err
	}
	now := d.now()

	// Resources held back in this pass: once an event for a resource fails
	// or is not yet due, every newer event for that resource waits too.
	held := make(map[string]bool)

	for _, event := range events {
		key := string(event.ResourceType) + "/" + event.ResourceID
		if held[key] {
			continue
		}
		if event.NextAttemptAt.After(now) {
			held[key] = true
			continue
		}
		if err := d.deliver(ctx, event); err != nil {
			held[key] = true
			backoff := backoffFor(event.Attempts+1, d.maxBackoff)
			if recErr := d.store.RecordFailure(ctx, event.ID, now.Add(backoff)); recErr != nil {
				return recErr
			}
			if d.metrics != nil {
				d.metrics.IncEventDeliveryRetries()
			}
			d.logger.WarnContext(ctx, "event delivery failed, scheduled retry",
				"event_id", event.ID, "event_type", event.Type,
				"attempts", event.Attempts+1, "backoff", backoff, "error", err)
			continue
		}
		if err := d.store.MarkDelivered(ctx, event.ID, now); err != nil {
			return err
		}
		if d.metrics != nil {
			d.metrics.IncEventsDelivered()
		}
	}
	return nil
}

// deliver hands the event to every subscribed handler; the first error
// nacks the whole event so redelivery is possible for all handlers.
func (d *Dispatcher) deliver(ctx context.Context, event *Event) error {
	for _, handler := range d.registry.HandlersFor(event.Type) {
		if err := handler.Handle(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// backoffFor computes exponential backoff with a cap: 1s, 2s, 4s, ...
func backoffFor(attempts int, max time.Duration) time.Duration {
	backoff := time.Second
	for i := 1; i < attempts && backoff < max; i++ {
		backoff *= 2
	}
	if backoff > max {
		return max
	}
	return backoff
}
