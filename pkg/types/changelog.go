package types

import "time"

// ChangeOperation identifies the mutation a change-log entry describes.
type ChangeOperation string

const (
	OpInsert ChangeOperation = "insert"
	OpUpdate ChangeOperation = "update"
	OpDelete ChangeOperation = "delete"
)

// ChangeLog is one append-only ledger entry. Entries are written in the same
// transaction as the mutation they describe and are never updated afterward.
type ChangeLog struct {
	RowID     int64 // Monotonic primary key; the resumption cursor unit.
	Operation ChangeOperation
	UUIDs     []string // Affected record UUIDs.
	Kind      RecordKind
	Package   string
	Time      time.Time
}

// NoChangeLogs is the cursor value recorded when the change log is empty.
const NoChangeLogs int64 = -1

// TokenRequest is the filter set and cursor persisted when a change-log token
// is created. The stored row's primary key is the token; the request is
// read-only after creation and resolving a token any number of times yields
// identical results.
type TokenRequest struct {
	Packages  []string     // Package-name filters; empty means all packages.
	Kinds     []RecordKind // Record-kind filters; empty means all kinds.
	Requester string       // Package that created the token.
	RowID     int64        // Change-log high-water mark at creation time.
}
