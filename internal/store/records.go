// Record read/write operations. Every successful mutation appends a
// change-log entry in the same transaction as the record rows it touches; a
// record write without its change-log entry is a correctness bug.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/helix-health/healthvault/pkg/types"
)

// RecordQuery filters a record read. Empty fields match everything.
type RecordQuery struct {
	UUIDs    []string
	Packages []string
}

// newUUID generates a UUID v7 string.
func newUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// InsertRecords validates and inserts the records in one transaction,
// assigning UUIDs where empty, and returns the record UUIDs in input order.
// Fails with ErrMigrationInProgress while a migration runs.
func (s *Store) InsertRecords(records ...*types.Record) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(); err != nil {
		return nil, err
	}
	return s.insertRecordsLocked(records)
}

func (s *Store) insertRecordsLocked(records []*types.Record) ([]string, error) {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	uuids := make([]string, len(records))
	err := s.withTx(func(tx *sql.Tx) error {
		for i, r := range records {
			if err := insertRecordTx(tx, r, now); err != nil {
				return err
			}
			uuids[i] = r.UUID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uuids, nil
}

// insertRecordTx inserts one record and its change-log entry inside the
// caller's transaction, assigning a UUID when empty.
func insertRecordTx(tx *sql.Tx, r *types.Record, now time.Time) error {
	h, err := helperFor(r.Kind())
	if err != nil {
		return err
	}
	if r.UUID == "" {
		r.UUID = newUUID()
	}
	if r.LastModified.IsZero() {
		r.LastModified = now
	}
	if err := h.insertTx(tx, r); err != nil {
		return err
	}
	return appendChangeLogTx(tx, types.OpInsert, []string{r.UUID}, r.Kind(), r.Package, now)
}

// UpsertRecords inserts records, or updates in place when a record's
// (package, client record id) pair matches an existing row. Updated records
// keep their original UUID; the change log records an update for them.
func (s *Store) UpsertRecords(records ...*types.Record) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(); err != nil {
		return nil, err
	}

	for _, r := range records {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	uuids := make([]string, len(records))
	err := s.withTx(func(tx *sql.Tx) error {
		for i, r := range records {
			h, err := helperFor(r.Kind())
			if err != nil {
				return err
			}
			if r.LastModified.IsZero() {
				r.LastModified = now
			}

			var existing string
			if r.ClientRecordID != "" {
				existing, err = h.existingUUID(tx, r.Package, r.ClientRecordID)
				if err != nil {
					return err
				}
			}

			op := types.OpInsert
			if existing != "" {
				r.UUID = existing
				op = types.OpUpdate
				if err := h.updateTx(tx, r); err != nil {
					return err
				}
			} else {
				if r.UUID == "" {
					r.UUID = newUUID()
				}
				if err := h.insertTx(tx, r); err != nil {
					return err
				}
			}
			if err := appendChangeLogTx(tx, op, []string{r.UUID}, r.Kind(), r.Package, now); err != nil {
				return err
			}
			uuids[i] = r.UUID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uuids, nil
}

// ReadRecords returns the records of one kind matching the query, in
// insertion order, with series samples attached.
func (s *Store) ReadRecords(kind types.RecordKind, q RecordQuery) ([]*types.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return nil, types.ErrStoreClosed
	}
	h, err := helperFor(kind)
	if err != nil {
		return nil, err
	}
	return h.read(s.db, q)
}

// DeleteRecords removes the records of one kind owned by pkg and appends a
// single delete change-log entry for the UUIDs actually removed. UUIDs not
// present (or owned by another package) are ignored.
func (s *Store) DeleteRecords(kind types.RecordKind, pkg string, uuids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(); err != nil {
		return err
	}
	h, err := helperFor(kind)
	if err != nil {
		return err
	}

	return s.withTx(func(tx *sql.Tx) error {
		deleted, err := h.deleteTx(tx, uuids, pkg)
		if err != nil {
			return err
		}
		if len(deleted) == 0 {
			return nil
		}
		return appendChangeLogTx(tx, types.OpDelete, deleted, kind, pkg, time.Now())
	})
}

// HasRecordsForPackage reports whether any record table holds a row
// originating from pkg.
func (s *Store) HasRecordsForPackage(pkg string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return false, types.ErrStoreClosed
	}
	for _, kind := range types.AllKinds {
		h := recordHelpers[kind]
		var one int
		err := s.db.QueryRow(fmt.Sprintf(
			"SELECT 1 FROM %s WHERE app_package = ? LIMIT 1", h.table), pkg).Scan(&one)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("checking %s records: %w", kind, err)
		}
		return true, nil
	}
	return false, nil
}
