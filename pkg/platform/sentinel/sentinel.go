package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into coded domain errors.
//
// These represent factual states about resources, not validation failures:
//   - ErrNotFound: entity does not exist in the store
//   - ErrConflict: uniqueness or version conflict on write
//   - ErrInvalidState: entity in wrong state for the requested transition
//   - ErrUnavailable: backing store temporarily unreachable; the decision
//     engine treats this as a fail-closed BLOCK, never as "no restriction"
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
