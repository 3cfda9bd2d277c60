// Change-log request helper: persists a caller's filter criteria as a row
// whose primary key becomes the opaque resumption token. The stored request
// is never mutated; resolving a token any number of times yields identical
// results.
package store

import (
	"database/sql"
	"fmt"

	"github.com/helix-health/healthvault/pkg/types"
)

// CreateChangeToken snapshots the change log's latest row id as the cursor,
// persists the filter set, and returns the new row's primary key as the
// token. Fails with ErrMigrationInProgress while a migration runs.
func (s *Store) CreateChangeToken(requester string, packages []string, kinds []types.RecordKind) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(); err != nil {
		return 0, err
	}

	pkgList, err := joinList(packages)
	if err != nil {
		return 0, err
	}

	var token int64
	err = s.withTx(func(tx *sql.Tx) error {
		cursor, err := s.latestChangeRowIDLocked(tx)
		if err != nil {
			return err
		}
		res, err := tx.Exec(`
			INSERT INTO change_log_requests (packages_to_filter, record_kinds, requesting_package, change_log_row_id)
			VALUES (?, ?, ?, ?)`,
			pkgList, joinKinds(kinds), requester, cursor)
		if err != nil {
			return fmt.Errorf("inserting change-log request: %w", err)
		}
		token, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading token row id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return token, nil
}

// ResolveChangeToken reconstructs the request stored under token. Fails with
// ErrTokenNotFound when no request row exists for it.
func (s *Store) ResolveChangeToken(token int64) (types.TokenRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return types.TokenRequest{}, types.ErrStoreClosed
	}

	var (
		req               types.TokenRequest
		pkgList, kindList string
	)
	err := s.db.QueryRow(`
		SELECT packages_to_filter, record_kinds, requesting_package, change_log_row_id
		FROM change_log_requests WHERE row_id = ?`, token).
		Scan(&pkgList, &kindList, &req.Requester, &req.RowID)
	if err == sql.ErrNoRows {
		return types.TokenRequest{}, types.ErrTokenNotFound
	}
	if err != nil {
		return types.TokenRequest{}, fmt.Errorf("reading change-log request: %w", err)
	}

	req.Packages = splitList(pkgList)
	req.Kinds, err = splitKinds(kindList)
	if err != nil {
		return types.TokenRequest{}, err
	}
	return req, nil
}
