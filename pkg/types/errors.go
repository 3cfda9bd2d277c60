package types

import (
	"errors"
	"fmt"
)

// Validation errors. The caller's data is malformed; the call is rejected
// synchronously and nothing is written.
var (
	ErrInvalidInterval        = errors.New("interval end must be after start")
	ErrMissingTime            = errors.New("record time must be set")
	ErrMissingPackage         = errors.New("record package origin must be set")
	ErrMissingPayload         = errors.New("record payload must be set")
	ErrUnknownPermission      = errors.New("unknown permission name")
	ErrUnsupportedPayloadKind = errors.New("unsupported migration payload kind")
	ErrReservedDelimiter      = errors.New("value contains the reserved list delimiter")
	ErrInvalidFilter          = errors.New("invalid filter value")
)

// State errors. The call arrived in the wrong lifecycle order; distinct from
// validation errors so callers can tell "your data is wrong" from "you called
// me in the wrong order".
var (
	ErrMigrationInProgress = errors.New("migration is in progress")
	ErrMigrationNotStarted = errors.New("migration has not been started")
	ErrMigrationFinished   = errors.New("migration is already finished")
	ErrStoreClosed         = errors.New("store is closed")
)

// Not-found errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrTokenNotFound = errors.New("change-log token not found")
)

// ErrInternal marks internal consistency failures: the store is assumed
// internally consistent, so unparseable stored data is fatal to the operation
// and never retried.
var ErrInternal = errors.New("internal storage inconsistency")

// EntityError reports the failure of a single migration entity. Entity-level
// failures are isolated to the entity; siblings in the same batch still apply.
type EntityError struct {
	EntityID string
	Err      error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("migration entity %q: %v", e.EntityID, e.Err)
}

func (e *EntityError) Unwrap() error { return e.Err }
