// Package domain defines strongly typed identifiers shared across modules.
//
// Every entity gets its own UUID-backed type so the compiler rejects a hold
// id where an org id is expected. Parse helpers enforce the invariant that
// identifiers are valid, non-nil UUIDs at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "sirenops/pkg/domain-errors"
)

type (
	// OrgID identifies a tenant organization.
	OrgID uuid.UUID
	// ActorID identifies the authenticated principal an action is attributed to.
	ActorID uuid.UUID
	// HoldID identifies a legal hold.
	HoldID uuid.UUID
	// PolicyID identifies a retention policy row.
	PolicyID uuid.UUID
	// EntryID identifies an audit ledger entry.
	EntryID uuid.UUID
	// EventID identifies a domain event in the outbox.
	EventID uuid.UUID
)

func parse(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be the nil UUID")
	}
	return parsed, nil
}

// ParseOrgID validates and converts a raw string into an OrgID.
func ParseOrgID(raw string) (OrgID, error) {
	parsed, err := parse(raw, "org")
	return OrgID(parsed), err
}

// ParseActorID validates and converts a raw string into an ActorID.
func ParseActorID(raw string) (ActorID, error) {
	parsed, err := parse(raw, "actor")
	return ActorID(parsed), err
}

// ParseHoldID validates and converts a raw string into a HoldID.
func ParseHoldID(raw string) (HoldID, error) {
	parsed, err := parse(raw, "hold")
	return HoldID(parsed), err
}

// ParsePolicyID validates and converts a raw string into a PolicyID.
func ParsePolicyID(raw string) (PolicyID, error) {
	parsed, err := parse(raw, "policy")
	return PolicyID(parsed), err
}

// ParseEntryID validates and converts a raw string into an EntryID.
func ParseEntryID(raw string) (EntryID, error) {
	parsed, err := parse(raw, "entry")
	return EntryID(parsed), err
}

// ParseEventID validates and converts a raw string into an EventID.
func ParseEventID(raw string) (EventID, error) {
	parsed, err := parse(raw, "event")
	return EventID(parsed), err
}

func (id OrgID) String() string    { return uuid.UUID(id).String() }
func (id ActorID) String() string  { return uuid.UUID(id).String() }
func (id HoldID) String() string   { return uuid.UUID(id).String() }
func (id PolicyID) String() string { return uuid.UUID(id).String() }
func (id EntryID) String() string  { return uuid.UUID(id).String() }
func (id EventID) String() string  { return uuid.UUID(id).String() }

// The wrapper types do not inherit uuid.UUID's methods, so text marshaling
// is restated here to keep JSON and slog output in canonical string form.

func (id OrgID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id ActorID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id HoldID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id PolicyID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id EntryID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id EventID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *OrgID) UnmarshalText(b []byte) error {
	parsed, err := ParseOrgID(string(b))
	*id = parsed
	return err
}

func (id *ActorID) UnmarshalText(b []byte) error {
	parsed, err := ParseActorID(string(b))
	*id = parsed
	return err
}

func (id *HoldID) UnmarshalText(b []byte) error {
	parsed, err := ParseHoldID(string(b))
	*id = parsed
	return err
}

func (id *PolicyID) UnmarshalText(b []byte) error {
	parsed, err := ParsePolicyID(string(b))
	*id = parsed
	return err
}

func (id *EntryID) UnmarshalText(b []byte) error {
	parsed, err := ParseEntryID(string(b))
	*id = parsed
	return err
}

func (id *EventID) UnmarshalText(b []byte) error {
	parsed, err := ParseEventID(string(b))
	*id = parsed
	return err
}

func (id OrgID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ActorID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id HoldID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id PolicyID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
