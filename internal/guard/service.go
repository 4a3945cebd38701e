// Package guard is the write-guard coordinator: the single entry point
// domain modules call before performing a destructive write on a regulated
// resource. It evaluates policy, audits every evaluated attempt, and
// announces every state change, all inside one atomic unit of work.
package guard

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sirenops/internal/decision"
	"sirenops/internal/ledger"
	"sirenops/internal/org"
	"sirenops/internal/outbox"
	"sirenops/internal/platform/metrics"
	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
	dErrors "sirenops/pkg/domain-errors"
	"sirenops/pkg/requestcontext"
)

// MutateFunc performs the caller's actual state change inside the guard's
// transaction and returns the resulting after-state snapshot. It runs only
// on an ALLOW verdict, before the audit append, so the single immutable
// audit row carries the real after state.
type MutateFunc func(ctx context.Context) (after json.RawMessage, err error)

// Request describes one guarded mutation attempt.
type Request struct {
	OrgID    id.OrgID
	Actor    id.ActorID
	Action   resource.Action
	Resource resource.Descriptor
	// Before is the caller-captured state snapshot prior to mutation.
	Before json.RawMessage
}

// Outcome reports a committed attempt back to the caller.
type Outcome struct {
	Decision decision.Packet
	EntryID  id.EntryID
	After    json.RawMessage
}

// Service is the write-guard coordinator.
type Service struct {
	orgs    org.Store
	engine  *decision.Engine
	ledger  ledger.Store
	outbox  outbox.Store
	tx      TxManager
	locker  ResourceLocker
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLocker overrides the resource locker.
func WithLocker(l ResourceLocker) Option {
	return func(s *Service) { s.locker = l }
}

func New(orgs org.Store, engine *decision.Engine, ledgerStore ledger.Store, outboxStore outbox.Store, tx TxManager, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		orgs:   orgs,
		engine: engine,
		ledger: ledgerStore,
		outbox: outboxStore,
		tx:     tx,
		locker: NewNoopLocker(),
		logger: logger,
		tracer: otel.Tracer("sirenops/guard"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Guard evaluates, audits, and (on ALLOW) applies one mutation attempt.
//
// Exactly one audit entry is committed per attempt whose transaction
// commits: blocked attempts commit an entry and a write_blocked event
// alongside the returned *BlockedError; allowed attempts commit the
// mutation, an entry, and a mutated event. A failing mutate or audit
// append rolls the whole attempt back: technical failures leave no audit
// row and are surfaced as retryable errors, never as policy decisions.
func (s *Service) Guard(ctx context.Context, req Request, mutate MutateFunc) (*Outcome, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "guard.evaluate", trace.WithAttributes(
		attribute.String("org_id", req.OrgID.String()),
		attribute.String("action", string(req.Action)),
		attribute.String("resource_type", string(req.Resource.Type)),
		attribute.String("resource_id", req.Resource.ID),
	))
	defer span.End()

	if err := s.validate(req, mutate); err != nil {
		return nil, err
	}

	var (
		outcome    Outcome
		blockedErr *BlockedError
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.locker.Lock(txCtx, req.OrgID, req.Resource); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "resource lock")
		}

		organization, err := s.orgs.FindByID(txCtx, req.OrgID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "org lookup")
		}

		packet := s.engine.Evaluate(txCtx, decision.Input{
			Org:      organization,
			Actor:    req.Actor,
			Action:   req.Action,
			Resource: req.Resource,
			Now:      requestcontext.Now(txCtx),
		})
		outcome.Decision = packet

		if !packet.Allowed() {
			entryID, err := s.audit(txCtx, req, packet, nil)
			if err != nil {
				return err
			}
			outcome.EntryID = entryID
			if err := s.announce(txCtx, req, packet, outbox.SuffixWriteBlocked); err != nil {
				return err
			}
			// The block itself commits; the error is attached afterwards so
			// the audit row and event survive.
			blockedErr = &BlockedError{
				Kind:    kindForRule(packet.RuleID),
				RuleID:  packet.RuleID,
				Reason:  packet.Reason,
				HoldIDs: packet.BlockingHolds,
			}
			return nil
		}

		// Mutate first so the single audit append records the real after
		// state; entries are immutable once written.
		var after json.RawMessage
		if mutate != nil {
			after, err = mutate(txCtx)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "mutation failed")
			}
		}
		outcome.After = after

		entryID, err := s.audit(txCtx, req, packet, after)
		if err != nil {
			return err
		}
		outcome.EntryID = entryID
		return s.announce(txCtx, req, packet, outbox.SuffixMutated)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "guarded attempt failed",
			"org_id", req.OrgID, "action", req.Action,
			"resource_type", req.Resource.Type, "resource_id", req.Resource.ID,
			"request_id", requestcontext.RequestID(ctx), "error", err)
		return nil, err
	}

	s.observe(ctx, req, outcome.Decision, start)
	if blockedErr != nil {
		return &outcome, blockedErr
	}
	return &outcome, nil
}

func (s *Service) validate(req Request, mutate MutateFunc) error {
	if req.OrgID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "org id is required")
	}
	if req.Actor.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "actor id is required")
	}
	if !resource.Registered(req.Resource.Type) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown resource type %q", req.Resource.Type)
	}
	if req.Resource.ID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "resource id is required")
	}
	if req.Action == "" {
		return dErrors.New(dErrors.CodeBadRequest, "action is required")
	}
	if req.Action.IsDestructive() && mutate == nil {
		return dErrors.New(dErrors.CodeBadRequest, "destructive action requires a mutate function")
	}
	return nil
}

// audit writes the single immutable ledger entry for this attempt.
func (s *Service) audit(ctx context.Context, req Request, packet decision.Packet, after json.RawMessage) (id.EntryID, error) {
	entryID := id.EntryID(uuid.New())
	entry := &ledger.Entry{
		ID:             entryID,
		OrgID:          req.OrgID,
		ActorID:        req.Actor,
		Action:         req.Action,
		ResourceType:   req.Resource.Type,
		ResourceID:     req.Resource.ID,
		BeforeState:    req.Before,
		AfterState:     after,
		Classification: classify(req.Action, req.Resource.Type),
		Decision:       packet.Verdict,
		RuleID:         packet.RuleID,
		Reason:         packet.Reason,
		CreatedAt:      packet.EvaluatedAt,
	}
	if err := s.ledger.Append(ctx, entry); err != nil {
		if s.metrics != nil {
			s.metrics.IncAuditAppendFailures()
		}
		return id.EntryID{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "audit append failed")
	}
	if s.metrics != nil {
		s.metrics.IncAuditAppends()
	}
	return entryID, nil
}

// eventPayload is the JSON body of guard-emitted domain events.
type eventPayload struct {
	Actor         string    `json:"actor_id"`
	Action        string    `json:"action"`
	Decision      string    `json:"decision"`
	RuleID        string    `json:"rule_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	BlockingHolds []string  `json:"blocking_hold_ids,omitempty"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
}

func (s *Service) announce(ctx context.Context, req Request, packet decision.Packet, suffix string) error {
	payload := eventPayload{
		Actor:       req.Actor.String(),
		Action:      string(req.Action),
		Decision:    string(packet.Verdict),
		RuleID:      packet.RuleID,
		Reason:      packet.Reason,
		EvaluatedAt: packet.EvaluatedAt,
	}
	for _, holdID := range packet.BlockingHolds {
		payload.BlockingHolds = append(payload.BlockingHolds, holdID.String())
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "marshal event payload")
	}

	event := &outbox.Event{
		ID:            id.EventID(uuid.New()),
		OrgID:         req.OrgID,
		Type:          outbox.EventType(req.Resource.Type, suffix),
		ResourceType:  req.Resource.Type,
		ResourceID:    req.Resource.ID,
		Payload:       raw,
		CreatedAt:     packet.EvaluatedAt,
		NextAttemptAt: packet.EvaluatedAt,
	}
	if err := s.outbox.Enqueue(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "event enqueue failed")
	}
	if s.metrics != nil {
		s.metrics.IncEventsEnqueued()
	}
	return nil
}

func (s *Service) observe(ctx context.Context, req Request, packet decision.Packet, start time.Time) {
	if s.metrics != nil {
		s.metrics.IncGuardDecision(string(req.Resource.Type), string(packet.Verdict))
		s.metrics.ObserveGuardDuration(time.Since(start).Seconds())
	}
	level := slog.LevelInfo
	if packet.Verdict == decision.VerdictBlock && kindForRule(packet.RuleID) == PolicyStoreUnavailable {
		// Outage blocks are infrastructure failures wearing a policy hat;
		// they page, ordinary blocks do not.
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, "guarded attempt evaluated",
		"log_type", "audit",
		"org_id", req.OrgID,
		"actor_id", req.Actor,
		"action", req.Action,
		"resource_type", req.Resource.Type,
		"resource_id", req.Resource.ID,
		"decision", packet.Verdict,
		"rule_id", packet.RuleID,
		"request_id", requestcontext.RequestID(ctx),
	)
}

// classify labels the audit entry. Hold lifecycle actions always classify
// as LEGAL_HOLD; everything else takes the resource type's classification.
func classify(action resource.Action, rt resource.Type) resource.Classification {
	if action == resource.ActionHoldCreate || action == resource.ActionHoldRelease {
		return resource.ClassificationLegalHold
	}
	if cfg, ok := resource.Lookup(rt); ok {
		return cfg.Classification
	}
	return resource.ClassificationOps
}
