// Permission grants for the current user, keyed by (package, permission).
// Grant-time bookkeeping for already-installed apps lives with the OS; this
// table backs migrated grants and the priority-pruning checks.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/helix-health/healthvault/pkg/types"
)

// GrantPermissions records the permissions as granted to pkg. Every name must
// be in the recognized set or the whole call fails with ErrUnknownPermission
// and nothing is written. Re-granting an existing permission keeps its
// original grant time.
func (s *Store) GrantPermissions(pkg string, permissions []string, firstGrant time.Time) error {
	valid := types.ValidPermissions()
	for _, p := range permissions {
		if !valid[p] {
			return fmt.Errorf("%q: %w", p, types.ErrUnknownPermission)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return types.ErrStoreClosed
	}
	if firstGrant.IsZero() {
		firstGrant = time.Now()
	}

	return s.withTx(func(tx *sql.Tx) error {
		return grantPermissionsTx(tx, pkg, permissions, firstGrant)
	})
}

// grantPermissionsTx writes the grant rows inside the caller's transaction.
// Permission names must have been validated already.
func grantPermissionsTx(tx *sql.Tx, pkg string, permissions []string, firstGrant time.Time) error {
	for _, p := range permissions {
		_, err := tx.Exec(`
			INSERT INTO permission_grants (app_package, permission, first_grant_millis)
			VALUES (?, ?, ?)
			ON CONFLICT(app_package, permission) DO NOTHING`,
			pkg, p, firstGrant.UnixMilli())
		if err != nil {
			return fmt.Errorf("granting %s to %s: %w", p, pkg, err)
		}
	}
	return nil
}

// GrantedPermissions returns the permissions granted to pkg.
func (s *Store) GrantedPermissions(pkg string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return nil, types.ErrStoreClosed
	}

	rows, err := s.db.Query(
		"SELECT permission FROM permission_grants WHERE app_package = ? ORDER BY row_id", pkg)
	if err != nil {
		return nil, fmt.Errorf("reading grants for %s: %w", pkg, err)
	}
	defer rows.Close()

	var perms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning grant: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// HasCategoryPermission reports whether pkg holds the read or write
// permission for a category. Priority merging prunes packages for which this
// is false.
func (s *Store) HasCategoryPermission(pkg string, category types.Category) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return false, types.ErrStoreClosed
	}

	var one int
	err := s.db.QueryRow(`
		SELECT 1 FROM permission_grants
		WHERE app_package = ? AND permission IN (?, ?) LIMIT 1`,
		pkg, types.ReadPermission(category), types.WritePermission(category)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking category permission: %w", err)
	}
	return true, nil
}
