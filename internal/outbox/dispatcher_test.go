package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"sirenops/internal/outbox/dedupe"
	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
)

// =============================================================================
// Dispatcher Test Suite
// =============================================================================
// The dispatcher's ordering and retry behavior carry the at-least-once and
// per-resource-ordering delivery guarantees, so the passes are driven
// deterministically with a pinned clock.

type DispatcherSuite struct {
	suite.Suite
	store    *InMemory
	registry *Registry
	clock    time.Time
	orgID    id.OrgID
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.store = NewInMemory()
	s.registry = NewRegistry()
	s.clock = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.orgID = id.OrgID(uuid.New())
}

func (s *DispatcherSuite) dispatcher(opts ...DispatcherOption) *Dispatcher {
	opts = append(opts, WithClock(func() time.Time { return s.clock }))
	return NewDispatcher(s.store, s.registry, slog.New(slog.DiscardHandler), opts...)
}

func (s *DispatcherSuite) enqueue(rt resource.Type, resourceID string, createdAt time.Time) *Event {
	event := &Event{
		ID:            id.EventID(uuid.New()),
		OrgID:         s.orgID,
		Type:          EventType(rt, SuffixMutated),
		ResourceType:  rt,
		ResourceID:    resourceID,
		Payload:       json.RawMessage(`{"action":"delete"}`),
		CreatedAt:     createdAt,
		NextAttemptAt: createdAt,
	}
	s.Require().NoError(s.store.Enqueue(context.Background(), event))
	return event
}

// recorder collects delivered events and can fail a configurable number of
// times per event id.
type recorder struct {
	mu        sync.Mutex
	delivered []id.EventID
	failures  map[id.EventID]int
}

func newRecorder() *recorder {
	return &recorder{failures: make(map[id.EventID]int)}
}

func (r *recorder) failNext(eventID id.EventID, times int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[eventID] = times
}

func (r *recorder) Handle(_ context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures[event.ID] > 0 {
		r.failures[event.ID]--
		return errors.New("downstream unavailable")
	}
	r.delivered = append(r.delivered, event.ID)
	return nil
}

func (r *recorder) deliveredIDs() []id.EventID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]id.EventID(nil), r.delivered...)
}

// =============================================================================
// Delivery and Ordering
// =============================================================================

func (s *DispatcherSuite) TestDeliversInCreationOrder() {
	rec := newRecorder()
	s.registry.Subscribe(nil, rec)

	e1 := s.enqueue(resource.TypeDocument, "doc-1", s.clock.Add(-3*time.Second))
	e2 := s.enqueue(resource.TypeDocument, "doc-1", s.clock.Add(-2*time.Second))
	e3 := s.enqueue(resource.TypeEmail, "thread-9", s.clock.Add(-time.Second))

	s.Require().NoError(s.dispatcher().Dispatch(context.Background()))

	s.Equal([]id.EventID{e1.ID, e2.ID, e3.ID}, rec.deliveredIDs())
	s.Equal(0, s.store.Undelivered())
}

func (s *DispatcherSuite) TestFailureHoldsBackNewerEventsForSameResource() {
	rec := newRecorder()
	s.registry.Subscribe(nil, rec)

	e1 := s.enqueue(resource.TypeDocument, "doc-1", s.clock.Add(-3*time.Second))
	e2 := s.enqueue(resource.TypeDocument, "doc-1", s.clock.Add(-2*time.Second))
	other := s.enqueue(resource.TypeEmail, "thread-9", s.clock.Add(-time.Second))
	rec.failNext(e1.ID, 1)

	d := s.dispatcher()
	s.Require().NoError(d.Dispatch(context.Background()))

	// e2 waits for e1; an unrelated resource is not held back.
	s.Equal([]id.EventID{other.ID}, rec.deliveredIDs())

	// Next pass after the backoff: order is preserved.
	s.clock = s.clock.Add(2 * time.Second)
	s.Require().NoError(d.Dispatch(context.Background()))
	s.Equal([]id.EventID{other.ID, e1.ID, e2.ID}, rec.deliveredIDs())
}

func (s *DispatcherSuite) TestAtLeastOnceRedelivery() {
	rec := newRecorder()
	s.registry.Subscribe(nil, rec)

	event := s.enqueue(resource.TypeDocument, "doc-1", s.clock.Add(-time.Second))
	rec.failNext(event.ID, 2)

	d := s.dispatcher()
	for i := 0; i < 3; i++ {
		s.Require().NoError(d.Dispatch(context.Background()))
		s.clock = s.clock.Add(time.Minute)
	}

	s.Equal([]id.EventID{event.ID}, rec.deliveredIDs())
	s.Equal(0, s.store.Undelivered())
}

func (s *DispatcherSuite) TestBackoffScheduleIsExponential() {
	rec := newRecorder()
	s.registry.Subscribe(nil, rec)

	event := s.enqueue(resource.TypeDocument, "doc-1", s.clock.Add(-time.Second))
	rec.failNext(event.ID, 10)
	d := s.dispatcher(WithMaxBackoff(8 * time.Second))

	// First failure schedules +1s; immediately retrying does nothing.
	s.Require().NoError(d.Dispatch(context.Background()))
	s.Require().NoError(d.Dispatch(context.Background()))
	s.Empty(rec.deliveredIDs())

	pending, err := s.store.ListPending(context.Background(), 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(1, pending[0].Attempts)
	s.Equal(s.clock.Add(time.Second), pending[0].NextAttemptAt)

	// Walk the schedule: 1s, 2s, 4s, 8s, then capped at 8s.
	wantBackoffs := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 8 * time.Second}
	for _, want := range wantBackoffs {
		s.clock = pending[0].NextAttemptAt
		s.Require().NoError(d.Dispatch(context.Background()))
		pending, err = s.store.ListPending(context.Background(), 10)
		s.Require().NoError(err)
		s.Require().Len(pending, 1)
		s.Equal(s.clock.Add(want), pending[0].NextAttemptAt)
	}
}

func (s *DispatcherSuite) TestNotYetDueEventWaits() {
	rec := newRecorder()
	s.registry.Subscribe(nil, rec)

	s.enqueue(resource.TypeDocument, "doc-1", s.clock.Add(time.Minute))

	s.Require().NoError(s.dispatcher().Dispatch(context.Background()))
	s.Empty(rec.deliveredIDs())
	s.Equal(1, s.store.Undelivered())
}

// =============================================================================
// Subscription Routing
// =============================================================================

func (s *DispatcherSuite) TestTypedSubscriptionsOnlySeeTheirTypes() {
	blockedOnly := newRecorder()
	everything := newRecorder()
	s.registry.Subscribe([]string{EventType(resource.TypeDocument, SuffixWriteBlocked)}, blockedOnly)
	s.registry.Subscribe(nil, everything)

	mutated := s.enqueue(resource.TypeDocument, "doc-1", s.clock.Add(-2*time.Second))
	blocked := &Event{
		ID:            id.EventID(uuid.New()),
		OrgID:         s.orgID,
		Type:          EventType(resource.TypeDocument, SuffixWriteBlocked),
		ResourceType:  resource.TypeDocument,
		ResourceID:    "doc-2",
		Payload:       json.RawMessage(`{}`),
		CreatedAt:     s.clock.Add(-time.Second),
		NextAttemptAt: s.clock.Add(-time.Second),
	}
	s.Require().NoError(s.store.Enqueue(context.Background(), blocked))

	s.Require().NoError(s.dispatcher().Dispatch(context.Background()))

	s.Equal([]id.EventID{blocked.ID}, blockedOnly.deliveredIDs())
	s.Equal([]id.EventID{mutated.ID, blocked.ID}, everything.deliveredIDs())
}

func (s *DispatcherSuite) TestOneFailingSubscriberNacksForAll() {
	failing := newRecorder()
	healthy := newRecorder()
	s.registry.Subscribe(nil, failing)
	s.registry.Subscribe(nil, healthy)

	event := s.enqueue(resource.TypeDocument, "doc-1", s.clock.Add(-time.Second))
	failing.failNext(event.ID, 1)

	d := s.dispatcher()
	s.Require().NoError(d.Dispatch(context.Background()))
	s.Equal(1, s.store.Undelivered(), "partial delivery still nacks the event")

	// Redelivery reaches both subscribers; the healthy one sees it twice,
	// which is why side-effecting handlers wrap with Deduplicated.
	s.clock = s.clock.Add(2 * time.Second)
	s.Require().NoError(d.Dispatch(context.Background()))
	s.Equal([]id.EventID{event.ID}, failing.deliveredIDs())
	s.Equal([]id.EventID{event.ID, event.ID}, healthy.deliveredIDs())
}

// =============================================================================
// Dedupe Wrapper
// =============================================================================

func (s *DispatcherSuite) TestDeduplicatedSkipsReplays() {
	rec := newRecorder()
	wrapped := Deduplicated(dedupe.NewInMemory(), rec)
	event := s.enqueue(resource.TypeDocument, "doc-1", s.clock.Add(-time.Second))

	s.Require().NoError(wrapped.Handle(context.Background(), event))
	s.Require().NoError(wrapped.Handle(context.Background(), event))
	s.Equal([]id.EventID{event.ID}, rec.deliveredIDs())
}

func (s *DispatcherSuite) TestDeduplicatedDoesNotMarkFailedHandling() {
	rec := newRecorder()
	wrapped := Deduplicated(dedupe.NewInMemory(), rec)
	event := s.enqueue(resource.TypeDocument, "doc-1", s.clock.Add(-time.Second))
	rec.failNext(event.ID, 1)

	s.Error(wrapped.Handle(context.Background(), event))
	s.Require().NoError(wrapped.Handle(context.Background(), event))
	s.Equal([]id.EventID{event.ID}, rec.deliveredIDs())
}
