package store

// Migration-facing surface. Each migration entity's effect and its entry in
// the applied set commit in one transaction, so the exactly-once guarantee
// holds across restarts and aborts. These paths bypass the mutation guard;
// only the migration engine uses them.

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/helix-health/healthvault/pkg/types"
)

// ApplyMigration runs fn together with the applied-set insert for entityID in
// a single transaction. When the entity id is already in the applied set, fn
// is not run and ApplyMigration returns (false, nil). Any error from fn rolls
// the whole step back, leaving the entity unapplied.
func (s *Store) ApplyMigration(entityID string, fn func(tx *sql.Tx) error) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return false, types.ErrStoreClosed
	}

	duplicate := false
	err := s.withTx(func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRow(
			"SELECT 1 FROM migration_entities WHERE entity_id = ?", entityID).Scan(&one)
		if err == nil {
			duplicate = true
			return nil
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("checking entity %s: %w", entityID, err)
		}
		if err := fn(tx); err != nil {
			return err
		}
		if _, err := tx.Exec(
			"INSERT INTO migration_entities (entity_id) VALUES (?)", entityID); err != nil {
			return fmt.Errorf("marking entity %s applied: %w", entityID, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return !duplicate, nil
}

// MigrateRecordTx inserts a record under the package identity carried in the
// record itself, inside the caller's migration transaction.
func (s *Store) MigrateRecordTx(tx *sql.Tx, r *types.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return insertRecordTx(tx, r, time.Now())
}

// GrantPermissionsTx validates and writes permission grants inside the
// caller's migration transaction.
func (s *Store) GrantPermissionsTx(tx *sql.Tx, pkg string, permissions []string, firstGrant time.Time) error {
	valid := types.ValidPermissions()
	for _, p := range permissions {
		if !valid[p] {
			return fmt.Errorf("%q: %w", p, types.ErrUnknownPermission)
		}
	}
	if firstGrant.IsZero() {
		firstGrant = time.Now()
	}
	return grantPermissionsTx(tx, pkg, permissions, firstGrant)
}

// SetPriorityTx replaces a category's priority list inside the caller's
// migration transaction.
func (s *Store) SetPriorityTx(tx *sql.Tx, category types.Category, packages []string) error {
	return setPriorityTx(tx, category, packages)
}

// UpsertAppInfoTx writes an app-info row inside the caller's migration
// transaction.
func (s *Store) UpsertAppInfoTx(tx *sql.Tx, pkg, appName string, icon []byte) error {
	return upsertAppInfoTx(tx, pkg, appName, icon)
}

// SetRetentionDaysTx updates the retention period inside the caller's
// migration transaction.
func (s *Store) SetRetentionDaysTx(tx *sql.Tx, days int) error {
	return setSettingTx(tx, settingRetentionDays, strconv.Itoa(days))
}
