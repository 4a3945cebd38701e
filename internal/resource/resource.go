// Package resource defines the regulated resource types the write guard
// protects and the per-type configuration the decision engine is generic
// over. Domains plug in here with a registry entry instead of subclassing.
package resource

import (
	"strings"
	"time"
)

// Type names a regulated resource category. Its uppercase form is the
// rule-id namespace rendered in block reasons and compliance exports.
type Type string

const (
	TypeDocument      Type = "document"
	TypeEmail         Type = "email"
	TypeBilling       Type = "billing"
	TypeCommunication Type = "communication"
	TypeClinical      Type = "clinical"
)

// Namespace returns the rule-id namespace for the type. Rule ids follow
// "{NAMESPACE}.{CATEGORY}.{OUTCOME}.v{N}" and the namespace is part of the
// external contract, so it comes from the registry rather than string
// manipulation ("document" maps to DOCUMENTS but "email" to EMAIL).
func (t Type) Namespace() string {
	if cfg, ok := registry[t]; ok {
		return cfg.Namespace
	}
	return strings.ToUpper(string(t))
}

// Action is a named operation against a resource. Only destructive or
// retention-sensitive actions are gated; everything else passes through.
type Action string

const (
	ActionRead          Action = "read"
	ActionList          Action = "list"
	ActionUpdate        Action = "update"
	ActionDelete        Action = "delete"
	ActionRedact        Action = "redact"
	ActionPurge         Action = "purge"
	ActionFinalizePurge Action = "finalize_purge"
	ActionHoldCreate    Action = "hold_create"
	ActionHoldRelease   Action = "hold_release"
)

// destructive lists the actions that irreversibly remove or alter state.
var destructive = map[Action]bool{
	ActionDelete:        true,
	ActionRedact:        true,
	ActionPurge:         true,
	ActionFinalizePurge: true,
}

// IsDestructive reports whether the action is gated by holds and retention.
// Hold lifecycle actions are audited but never themselves blocked.
func (a Action) IsDestructive() bool {
	return destructive[a]
}

// Classification labels the sensitivity of audit entries for a resource.
type Classification string

const (
	ClassificationPHI              Classification = "PHI"
	ClassificationBillingSensitive Classification = "BILLING_SENSITIVE"
	ClassificationNonPHI           Classification = "NON_PHI"
	ClassificationOps              Classification = "OPS"
	ClassificationLegalHold        Classification = "LEGAL_HOLD"
)

// Config is the per-type configuration the decision engine consults.
type Config struct {
	Type             Type
	Namespace        string
	Classification   Classification
	DefaultRetention time.Duration
}

// registry maps each regulated type to its configuration. Durations use
// 365-day years; the retention policy store overrides these defaults per org.
var registry = map[Type]Config{
	TypeDocument:      {Type: TypeDocument, Namespace: "DOCUMENTS", Classification: ClassificationNonPHI, DefaultRetention: 7 * 365 * 24 * time.Hour},
	TypeEmail:         {Type: TypeEmail, Namespace: "EMAIL", Classification: ClassificationNonPHI, DefaultRetention: 3 * 365 * 24 * time.Hour},
	TypeBilling:       {Type: TypeBilling, Namespace: "BILLING", Classification: ClassificationBillingSensitive, DefaultRetention: 7 * 365 * 24 * time.Hour},
	TypeCommunication: {Type: TypeCommunication, Namespace: "COMMUNICATIONS", Classification: ClassificationOps, DefaultRetention: 1 * 365 * 24 * time.Hour},
	TypeClinical:      {Type: TypeClinical, Namespace: "CLINICAL", Classification: ClassificationPHI, DefaultRetention: 10 * 365 * 24 * time.Hour},
}

// Lookup returns the configuration for a type and whether it is registered.
func Lookup(t Type) (Config, bool) {
	cfg, ok := registry[t]
	return cfg, ok
}

// Registered reports whether the type is a known regulated resource type.
func Registered(t Type) bool {
	_, ok := registry[t]
	return ok
}

// Descriptor identifies a concrete resource instance under evaluation.
// Tags carry broader matter/case scopes that legal holds can match; a hold
// on a tag blocks every resource carrying it.
type Descriptor struct {
	Type      Type
	ID        string
	Tags      []string
	CreatedAt time.Time
}
